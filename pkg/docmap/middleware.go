package docmap

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey struct{ name string }

var (
	connectionKey = contextKey{"docmap.connection"}
	requestIDKey  = contextKey{"docmap.request_id"}
)

// Middleware returns request-handling middleware exposing the connection on
// each request context, tagged with a request ID for log correlation.
func Middleware(conn *Connection) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), connectionKey, conn)
			ctx = context.WithValue(ctx, requestIDKey, requestID)

			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts the connection placed on the request context by
// Middleware.
func FromContext(ctx context.Context) (*Connection, bool) {
	conn, ok := ctx.Value(connectionKey).(*Connection)
	return conn, ok
}

// RequestID extracts the request ID placed on the request context by
// Middleware.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
