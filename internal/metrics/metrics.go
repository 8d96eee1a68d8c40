// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics on a private Prometheus registry so tests can
// create as many as they like.
type Registry struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec
	CacheLookups     *prometheus.CounterVec

	AnalysisRuns       *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	RegressionsSkipped *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
}

// NewRegistry creates and registers every metric.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorlens_upstream_requests_total",
				Help: "Outbound provider requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "factorlens_upstream_request_duration_seconds",
				Help:    "Duration of outbound provider requests including retries",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"provider"},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "factorlens_circuit_breaker_state",
				Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
			},
			[]string{"provider"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorlens_cache_lookups_total",
				Help: "Provider cache lookups by table and result (hit, stale, miss)",
			},
			[]string{"table", "result"},
		),

		AnalysisRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorlens_analysis_runs_total",
				Help: "Portfolio analysis runs by outcome",
			},
			[]string{"outcome"},
		),

		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "factorlens_analysis_duration_seconds",
				Help:    "Wall time of a full portfolio analysis",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		RegressionsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorlens_regressions_skipped_total",
				Help: "Factor regressions not emitted, by reason",
			},
			[]string{"reason"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorlens_http_requests_total",
				Help: "Served HTTP requests by method and status code",
			},
			[]string{"method", "status"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.UpstreamRequests,
		r.UpstreamDuration,
		r.BreakerState,
		r.CacheLookups,
		r.AnalysisRuns,
		r.AnalysisDuration,
		r.RegressionsSkipped,
		r.HTTPRequests,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveCache records a cache lookup. Safe on a nil registry.
func (r *Registry) ObserveCache(table, result string) {
	if r == nil {
		return
	}
	r.CacheLookups.WithLabelValues(table, result).Inc()
}

// ObserveUpstream records one provider request. Safe on a nil registry.
func (r *Registry) ObserveUpstream(provider, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.UpstreamRequests.WithLabelValues(provider, outcome).Inc()
	r.UpstreamDuration.WithLabelValues(provider).Observe(seconds)
}

// SetBreakerState records a breaker transition. Safe on a nil registry.
func (r *Registry) SetBreakerState(provider string, state float64) {
	if r == nil {
		return
	}
	r.BreakerState.WithLabelValues(provider).Set(state)
}

// ObserveAnalysis records a finished analysis. Safe on a nil registry.
func (r *Registry) ObserveAnalysis(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.AnalysisRuns.WithLabelValues(outcome).Inc()
	r.AnalysisDuration.Observe(seconds)
}

// SkipRegression records a regression that produced no result. Safe on a nil registry.
func (r *Registry) SkipRegression(reason string) {
	if r == nil {
		return
	}
	r.RegressionsSkipped.WithLabelValues(reason).Inc()
}

// ObserveHTTP records a served request. Safe on a nil registry.
func (r *Registry) ObserveHTTP(method, status string) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(method, status).Inc()
}
