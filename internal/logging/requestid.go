// Package logging provides request ID propagation and a level gate over the standard logger.
package logging

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// HeaderRequestID is read from inbound requests and echoed on responses.
const HeaderRequestID = "X-Request-ID"

// GenerateRequestID creates a request ID of the form "req-<uuid>".
func GenerateRequestID() string {
	return "req-" + uuid.New().String()
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromHeader returns the caller supplied X-Request-ID or a fresh one.
func RequestIDFromHeader(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderRequestID)); id != "" && len(id) <= 128 {
		return id
	}
	return GenerateRequestID()
}

// Printf logs with the request ID of ctx as a prefix when one is present.
func Printf(ctx context.Context, format string, args ...any) {
	if id := GetRequestID(ctx); id != "" {
		log.Printf("["+id+"] "+format, args...)
		return
	}
	log.Printf(format, args...)
}
