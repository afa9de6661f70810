package server

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgservice/internal/auth"
	httpmiddleware "github.com/wolfeidau/orgservice/internal/http"
	"github.com/wolfeidau/orgservice/internal/logger"
	"github.com/wolfeidau/orgservice/internal/service"
	"github.com/wolfeidau/orgservice/internal/store"
	"github.com/wolfeidau/orgservice/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	serviceName    = "orgservice"
	unmatchedRoute = "unmatched"
)

// Config controls the HTTP surface.
type Config struct {
	Version     string
	CORSOrigins []string
	TrustProxy  bool
	Tracing     bool
}

// Server exposes the organization and admin login endpoints over HTTP.
type Server struct {
	cfg           Config
	store         store.OrganizationStore
	organizations *service.OrganizationService
	auth          *service.AuthService
	verifier      auth.Verifier
	metrics       *telemetry.Metrics
	mux           *http.ServeMux
}

// NewServer creates a new server. The store is only used directly for health checks.
func NewServer(cfg Config, st store.OrganizationStore, organizations *service.OrganizationService, authService *service.AuthService, verifier auth.Verifier) *Server {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	return &Server{
		cfg:           cfg,
		store:         st,
		organizations: organizations,
		auth:          authService,
		verifier:      verifier,
		metrics:       telemetry.GetMetrics(),
	}
}

// Routes registers all endpoints on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	requireToken := auth.Middleware(s.verifier)

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPIJSON)
	mux.HandleFunc("GET /openapi.yaml", s.handleOpenAPIYAML)

	mux.HandleFunc("POST /org/create", s.handleCreateOrganization)
	mux.HandleFunc("GET /org/get", s.handleGetOrganization)
	mux.Handle("PUT /org/update", requireToken(http.HandlerFunc(s.handleUpdateOrganization)))
	mux.Handle("DELETE /org/delete", requireToken(http.HandlerFunc(s.handleDeleteOrganization)))

	mux.HandleFunc("POST /admin/login", s.handleLogin)

	return mux
}

// Handler returns the HTTP handler for the server with the middleware chain applied.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	s.mux = s.Routes()

	var handler http.Handler = s.mux

	handler = gzhttp.GzipHandler(handler)
	handler = withCORS(s.cfg.CORSOrigins, handler)
	if s.cfg.Tracing {
		handler = otelhttp.NewHandler(handler, serviceName)
	}
	handler = logger.HTTPRequests(log, s.recordDuration)(handler)
	handler = httpmiddleware.ClientIPMiddleware(s.cfg.TrustProxy)(handler)

	return handler
}

func (s *Server) recordDuration(r *http.Request, status int, duration time.Duration) {
	s.metrics.HTTPRequestDuration.Record(r.Context(), float64(duration.Microseconds())/1000,
		metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", s.route(r)),
			attribute.Int("http.status_code", status),
		),
	)
}

// route returns the registered pattern serving r, keeping metric attributes
// bounded to the routes table.
func (s *Server) route(r *http.Request) string {
	if s.mux != nil {
		if _, pattern := s.mux.Handler(r); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}

// withCORS adds CORS support for browser clients.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"WWW-Authenticate"},
		MaxAge:         600,
	})
	return middleware.Handler(h)
}
