package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("algchess.engine")

// Metrics holds the Prometheus collectors of an engine.
type Metrics struct {
	// evaluations counts evaluations by result (ok, syntax, construction, budget, cached)
	evaluations *prometheus.CounterVec

	// duration tracks evaluation latency
	duration prometheus.Histogram

	// steps tracks arrow applications per evaluation
	steps prometheus.Histogram

	// results tracks the size of result sets
	results prometheus.Histogram

	// ruleCache counts compiled-rule cache lookups by outcome (hit, miss)
	ruleCache *prometheus.CounterVec
}

// NewMetrics registers the engine collectors with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "algchess_evaluations_total",
			Help: "Total rule evaluations by result",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "algchess_evaluation_duration_seconds",
			Help:    "Evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}),
		steps: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "algchess_evaluation_steps",
			Help:    "Arrow applications per evaluation",
			Buckets: prometheus.ExponentialBuckets(1, 10, 8),
		}),
		results: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "algchess_evaluation_results",
			Help:    "Positions produced per evaluation",
			Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000},
		}),
		ruleCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "algchess_rule_cache_total",
			Help: "Compiled rule cache lookups by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observe(result string, r *Result) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(result).Inc()
	if r == nil {
		return
	}
	m.duration.Observe(r.Elapsed.Seconds())
	m.steps.Observe(float64(r.Steps))
	m.results.Observe(float64(len(r.Positions)))
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ruleCache.WithLabelValues("hit").Inc()
	} else {
		m.ruleCache.WithLabelValues("miss").Inc()
	}
}
