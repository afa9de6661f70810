package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgservice/internal/auth"
	"github.com/wolfeidau/orgservice/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MiB

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error  string               `json:"error"`
	Detail string               `json:"detail"`
	Fields []service.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation_error",
			Detail: ve.Error(),
			Fields: ve.Fields,
		})
	case errors.Is(err, service.ErrDuplicateOrganization):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "duplicate_organization", Detail: err.Error()})
	case errors.Is(err, service.ErrDuplicateAdmin):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "duplicate_admin", Detail: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Detail: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid_credentials", Detail: err.Error()})
	case errors.Is(err, auth.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid_token", Detail: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Detail: err.Error()})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Detail: "internal server error"})
	}
}

// decodeJSON reads a JSON request body into v. Malformed bodies are reported as
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		detail := "request body must be valid JSON"
		if errors.As(err, &maxBytesErr) {
			detail = fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit)
		}
		return &service.ValidationError{Fields: []service.FieldError{{Field: "body", Message: detail}}}
	}

	return nil
}
