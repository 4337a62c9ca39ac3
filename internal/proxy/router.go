// Package proxy assembles the HTTP surface: middleware chain and routes.
package proxy

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pysugar/code-converter/internal/converter"
	"github.com/pysugar/code-converter/internal/history"
	"github.com/pysugar/code-converter/internal/observability"
	"github.com/pysugar/code-converter/internal/proxy/handlers"
	"github.com/pysugar/code-converter/internal/proxy/middleware"
	"github.com/pysugar/code-converter/internal/proxy/response"
	"github.com/pysugar/code-converter/internal/ratelimit"
)

type Deps struct {
	Service  *converter.Service
	Store    history.Store
	Recorder *history.Recorder
	Limiter  *ratelimit.Limiter
	// Stats is optional.
	Stats   ratelimit.StatsStore
	Metrics *observability.Metrics

	CORSOrigin     string
	TrustProxy     bool
	LogRequests    bool
	MaxCodeLength  int
	RequestTimeout time.Duration

	Started time.Time
	Version string
}

// NewRouter builds the router. Order: request id, access log, recoverer,
// CORS, rate limit, timeout guard, content-type check, handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.LogRequests {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigin))

	r.NotFound(response.NotFound)
	r.MethodNotAllowed(response.MethodNotAllowed)

	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.RateLimitOptions{
			Limiter:    d.Limiter,
			TrustProxy: d.TrustProxy,
			Stats:      d.Stats,
			Metrics:    d.Metrics,
		}))
		r.Use(middleware.Timeout(d.RequestTimeout, d.Metrics))
		r.Use(middleware.RequireJSON)

		r.Get("/", handlers.RootHandler(d.Version))

		r.Route("/api", func(r chi.Router) {
			r.Post("/converter", handlers.ConvertHandler(d.Service, d.Recorder, d.MaxCodeLength))
			r.Get("/historico", handlers.HistoryHandler(d.Store))
			r.Get("/conversao/{id}", handlers.GetConversionHandler(d.Store))
			r.Delete("/conversao/{id}", handlers.DeleteConversionHandler(d.Store))
			r.Get("/stats", handlers.StatsHandler(d.Store))
			r.Get("/health", handlers.HealthHandler(d.Store, d.Service, d.Started, d.Version))
		})
	})

	return r
}
