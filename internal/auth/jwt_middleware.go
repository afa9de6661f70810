package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Verifier validates a bearer token and returns its claims.
type Verifier interface {
	Verify(tokenStr string) (*Claims, error)
}

type contextKey int

const (
	claimsContextKey contextKey = iota
)

// ClaimsFromContext extracts the verified claims from the request context.
// Returns nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// Middleware returns an HTTP middleware that requires a valid bearer token.
// Verified claims are added to the request context.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractBearerToken(r)
			if tokenStr == "" {
				zerolog.Ctx(r.Context()).Warn().Msg("Missing bearer token")
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to verify token")
				writeUnauthorized(w, tokenFailureDetail(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func tokenFailureDetail(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token has expired"
	case errors.Is(err, ErrTokenSignature):
		return "token signature is invalid"
	default:
		return "token is malformed"
	}
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  "invalid_token",
		"detail": detail,
	})
}

// extractBearerToken extracts the JWT from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
