package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("rule_based", OutcomeGenerated)
	m.ObserveRequest("rule_based", OutcomeGenerated)
	m.ObserveRequest("gemini", OutcomeDegraded)
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.ObserveContextFailure()
	m.ObserveHistoryRecord(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("rule_based", OutcomeGenerated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("gemini", OutcomeDegraded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.contextFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.historyRecords.WithLabelValues("true")))
}

func TestMetrics_Histograms(t *testing.T) {
	m := New()
	m.ObserveGeneration("rule_based", "short", 3*time.Millisecond)
	m.ObserveQualityScore(30)

	assert.Equal(t, 1, testutil.CollectAndCount(m.generation, "prompt_gateway_variant_generation_seconds"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.qualityScore))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("rule_based", OutcomeCacheHit)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `prompt_gateway_variant_requests_total{backend="rule_based",outcome="cache_hit"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("x", OutcomeError)
		m.ObserveGeneration("x", "short", time.Second)
		m.ObserveCacheLookup(true)
		m.ObserveContextFailure()
		m.ObserveQualityScore(50)
		m.ObserveHistoryRecord(false)
		assert.Nil(t, m.Registry())
		assert.NotNil(t, m.Handler())
	})
}
