// Package metrics exposes Prometheus instrumentation for context enrichment, scoring and the
// activity log. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrichment outcomes.
const (
	OutcomeExternal      = "external"
	OutcomeParseFallback = "parse_fallback"
	OutcomeError         = "error"
	OutcomeOffline       = "offline"
	OutcomeCanceled      = "canceled"
)

// Metrics groups the supplier risk engine collectors.
type Metrics struct {
	// Context cache lookups by result: "hit" or "miss"
	ContextLookups *prometheus.CounterVec

	// Enrichment calls by outcome
	EnrichmentOutcome *prometheus.CounterVec

	// Latency of a single enrichment round trip
	EnrichmentLatency prometheus.Histogram

	// Scored suppliers by resulting risk level
	RiskLevels *prometheus.CounterVec

	// Activity log appends by action
	ActivityAppends *prometheus.CounterVec
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer in production and a
// fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ContextLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_risk_context_lookups_total",
			Help: "Context cache lookups by result",
		}, []string{"result"}),

		EnrichmentOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_risk_enrichment_outcomes_total",
			Help: "Location enrichment attempts by outcome",
		}, []string{"outcome"}),

		EnrichmentLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "supplier_risk_enrichment_duration_seconds",
			Help:    "Duration of a single location enrichment call",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		RiskLevels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_risk_scored_total",
			Help: "Suppliers scored by resulting risk level",
		}, []string{"level"}),

		ActivityAppends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_risk_activity_appends_total",
			Help: "Activity log entries appended by action",
		}, []string{"action"}),
	}
}

// IncrementContextLookup records a cache hit or miss.
func (m *Metrics) IncrementContextLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ContextLookups.WithLabelValues(result).Inc()
}

// IncrementEnrichmentOutcome records how an enrichment attempt ended.
func (m *Metrics) IncrementEnrichmentOutcome(outcome string) {
	if m != nil {
		m.EnrichmentOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveEnrichmentLatency records the duration of one enrichment call.
func (m *Metrics) ObserveEnrichmentLatency(d time.Duration) {
	if m != nil {
		m.EnrichmentLatency.Observe(d.Seconds())
	}
}

// IncrementRiskLevel records one scored supplier.
func (m *Metrics) IncrementRiskLevel(level string) {
	if m != nil {
		m.RiskLevels.WithLabelValues(level).Inc()
	}
}

// IncrementActivityAppend records one appended log entry.
func (m *Metrics) IncrementActivityAppend(action string) {
	if m != nil {
		m.ActivityAppends.WithLabelValues(action).Inc()
	}
}
