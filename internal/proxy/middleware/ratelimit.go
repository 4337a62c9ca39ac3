package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/code-converter/internal/logging"
	"github.com/pysugar/code-converter/internal/observability"
	"github.com/pysugar/code-converter/internal/proxy/response"
	"github.com/pysugar/code-converter/internal/ratelimit"
)

type KeyFunc func(r *http.Request) string

type RateLimitOptions struct {
	Limiter    *ratelimit.Limiter
	KeyFn      KeyFunc
	TrustProxy bool
	// Stats receives every decision and is called on the request path, so
	// it must not block. Wrap network stores in ratelimit.AsyncStats.
	// Optional.
	Stats   ratelimit.StatsStore
	Metrics *observability.Metrics
}

// DefaultKeyFunc identifies clients by remote host, or by the first
// X-Forwarded-For entry when the proxy is trusted.
func DefaultKeyFunc(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// RateLimit rejects clients over the limiter's ceiling with 429.
func RateLimit(opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrustProxy)
	}
	limit := opts.Limiter.Limit()
	deniedMsg := fmt.Sprintf("Too many requests. Maximum %d per %s.", limit, windowLabel(opts.Limiter.Window()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			dec := opts.Limiter.Allow(key)

			opts.Metrics.ObserveRateLimit(dec.Allowed)
			if opts.Stats != nil {
				err := opts.Stats.Record(context.WithoutCancel(r.Context()), ratelimit.Event{
					Key:     key,
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				})
				if err != nil {
					logging.Debugf(r.Context(), "[RateLimit] ⚠️ stats: %v", err)
				}
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))

			if !dec.Allowed {
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(dec.RetryAfter)))
				logging.Warnf(r.Context(), "[RateLimit] 🚫 %s denied on %s %s", key, r.Method, r.URL.Path)
				response.Error(w, http.StatusTooManyRequests, deniedMsg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up so clients never retry while still limited.
func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

func windowLabel(window time.Duration) string {
	switch window {
	case time.Minute:
		return "minute"
	case time.Hour:
		return "hour"
	case time.Second:
		return "second"
	}
	return window.String()
}
