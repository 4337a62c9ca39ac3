package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. Every
// method is safe on a nil *Metrics so components can run without it.
type Metrics struct {
	registry *prometheus.Registry

	RateLimitDecisions *prometheus.CounterVec
	RequestTimeouts    prometheus.Counter
	Conversions        *prometheus.CounterVec
	ProviderErrors     *prometheus.CounterVec
	ConversionLatency  prometheus.Histogram
	TokensUsed         prometheus.Counter
	HistoryWrites      *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RateLimitDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Admission decisions of the per-client rate limiter.",
		}, []string{"result"}),
		RequestTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_timeouts_total",
			Help:      "Requests answered with 408 by the timeout guard.",
		}),
		Conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversion attempts by outcome.",
		}, []string{"outcome"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Translation provider failures by error code.",
		}, []string{"code"}),
		ConversionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_latency_ms",
			Help:      "Translation provider latency in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 5000, 10000, 20000, 30000, 60000},
		}),
		TokensUsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_used_total",
			Help:      "Tokens reported by the translation provider.",
		}),
		HistoryWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_writes_total",
			Help:      "Write-behind history writes by result (ok, error, dropped).",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRateLimit(allowed bool) {
	if m == nil {
		return
	}
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.RateLimitDecisions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTimeout() {
	if m == nil {
		return
	}
	m.RequestTimeouts.Inc()
}

// ObserveConversion records a finished provider call. code is empty on success.
func (m *Metrics) ObserveConversion(d time.Duration, tokens int, code string) {
	if m == nil {
		return
	}
	m.ConversionLatency.Observe(float64(d.Milliseconds()))
	if code != "" {
		m.Conversions.WithLabelValues("error").Inc()
		m.ProviderErrors.WithLabelValues(code).Inc()
		return
	}
	m.Conversions.WithLabelValues("success").Inc()
	if tokens > 0 {
		m.TokensUsed.Add(float64(tokens))
	}
}

func (m *Metrics) ObserveHistoryWrite(result string) {
	if m == nil {
		return
	}
	m.HistoryWrites.WithLabelValues(result).Inc()
}

// Handler exposes this instance's registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
