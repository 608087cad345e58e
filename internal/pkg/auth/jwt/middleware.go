package jwt

import (
	"context"
	"net/http"
	"strings"

	"roomrelay/internal/pkg/logx"
)

type contextKey string

const (
	// ContextAuthPayloadKey is the context key holding the parsed *Payload.
	ContextAuthPayloadKey contextKey = "auth_payload"
)

// IdentityExtractorMiddleware resolves the caller's identity from the identity cookie, or from an
// "Authorization: Bearer" header for non-browser clients, and stores it in the request context.
// It never rejects a request: a missing or invalid credential leaves the caller anonymous and
// each handler decides whether an identity is required.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Invalid or expired identity provided, treating as anonymous", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(IdentityCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// GetPayloadFromContext returns the identity resolved by IdentityExtractorMiddleware, or nil.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
