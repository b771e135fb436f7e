// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDKey is the context key for the per-request correlation id.
type requestIDKey struct{}

// RequestIDHeader carries the correlation id between clients and the server.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength caps client-supplied ids so a hostile header cannot
// bloat log lines.
const maxRequestIDLength = 64

// RequestID assigns every request a correlation id. A client-supplied
// X-Request-ID is honored when it fits the length cap, letting callers trace
// a request across services; anything else gets a fresh UUID. The id is
// echoed on the response and stored in the request context for the logging
// middleware to pick up.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation id from context. Returns empty
// string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
