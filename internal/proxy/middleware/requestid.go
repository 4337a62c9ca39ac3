// Package middleware holds the HTTP admission chain: request ids, CORS,
// rate limiting, the timeout guard and content-type validation.
package middleware

import (
	"net/http"

	"github.com/pysugar/code-converter/internal/logging"
)

// RequestID attaches a request id to the context and echoes it in the
// X-Request-ID response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logging.RequestIDFromHeader(r)
		w.Header().Set(logging.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}
