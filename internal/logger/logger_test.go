package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	httpmiddleware "github.com/wolfeidau/orgservice/internal/http"
)

func TestHTTPRequests(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	var (
		observedStatus int
		observedPath   string
	)
	observer := func(r *http.Request, status int, _ time.Duration) {
		observedStatus = status
		observedPath = r.URL.Path
	}

	var sawLogger bool
	handler := httpmiddleware.ClientIPMiddleware(true)(HTTPRequests(log, observer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = zerolog.Ctx(r.Context()).GetLevel() != zerolog.Disabled
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found"}`))
	})))

	req := httptest.NewRequest(http.MethodGet, "/org/get?organization_name=x", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, sawLogger)
	require.Equal(t, http.StatusNotFound, observedStatus)
	require.Equal(t, "/org/get", observedPath)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "GET", entry["method"])
	require.Equal(t, "/org/get", entry["path"])
	require.Equal(t, "10.0.0.1", entry["client_ip"])
	require.Equal(t, float64(http.StatusNotFound), entry["status"])
	require.Equal(t, "http request", entry["message"])
}

func TestHTTPRequests_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	handler := HTTPRequests(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, float64(http.StatusOK), entry["status"])
	require.Equal(t, float64(2), entry["bytes"])
}
