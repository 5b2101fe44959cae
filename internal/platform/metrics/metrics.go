package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AI gateway outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeUnauthorized    = "unauthorized"
	OutcomeRateLimited     = "rate_limited"
	OutcomeGenerationError = "generation_error"
	OutcomeStoreError      = "store_error"
)

// Recorder owns the Prometheus collectors exported by the service.
type Recorder struct {
	registry          *prometheus.Registry
	aiRequests        *prometheus.CounterVec
	usageLogFailures  prometheus.Counter
	upstreamDurations *prometheus.HistogramVec
	slugProbes        prometheus.Counter
}

// New builds a Recorder backed by a dedicated registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		aiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_ai_requests_total",
				Help: "AI gateway requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		usageLogFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_ai_usage_log_failures_total",
			Help: "Usage records that could not be written after a successful generation",
		}),
		upstreamDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folio_ai_upstream_seconds",
				Help:    "Latency of text-generation calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"operation"},
		),
		slugProbes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_slug_probes_total",
			Help: "Slug existence probes issued by the allocator",
		}),
	}

	r.registry.MustRegister(
		r.aiRequests,
		r.usageLogFailures,
		r.upstreamDurations,
		r.slugProbes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// ObserveAIRequest counts one gateway call.
func (r *Recorder) ObserveAIRequest(operation, outcome string) {
	if r == nil {
		return
	}
	r.aiRequests.WithLabelValues(operation, outcome).Inc()
}

// ObserveUpstream records how long a dispatch took.
func (r *Recorder) ObserveUpstream(operation string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.upstreamDurations.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// UsageLogFailed counts a swallowed usage write.
func (r *Recorder) UsageLogFailed() {
	if r == nil {
		return
	}
	r.usageLogFailures.Inc()
}

// SlugProbed counts one existence check.
func (r *Recorder) SlugProbed() {
	if r == nil {
		return
	}
	r.slugProbes.Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
