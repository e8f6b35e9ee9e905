package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementContextLookup(true)
	m.IncrementContextLookup(false)
	m.IncrementContextLookup(false)
	m.IncrementEnrichmentOutcome(OutcomeExternal)
	m.IncrementRiskLevel("High")
	m.IncrementActivityAppend("audit_update")
	m.ObserveEnrichmentLatency(150 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContextLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ContextLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentOutcome.WithLabelValues(OutcomeExternal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RiskLevels.WithLabelValues("High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivityAppends.WithLabelValues("audit_update")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EnrichmentLatency))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementContextLookup(true)
		m.IncrementEnrichmentOutcome(OutcomeError)
		m.ObserveEnrichmentLatency(time.Second)
		m.IncrementRiskLevel("Low")
		m.IncrementActivityAppend("bulk_upload")
	})
}
