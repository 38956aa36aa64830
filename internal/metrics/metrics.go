// In file: internal/metrics/metrics.go

// Package metrics exposes Prometheus instruments for the variant engine. All
// methods are safe on a nil *Metrics so tests and tools can skip wiring.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prompt_gateway"

// Outcome labels for variant requests.
const (
	OutcomeGenerated  = "generated"
	OutcomeCacheHit   = "cache_hit"
	OutcomeDegraded   = "degraded"
	OutcomeValidation = "validation_error"
	OutcomeError      = "error"
)

// Metrics holds every instrument on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	generation      *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	contextFailures prometheus.Counter
	qualityScore    prometheus.Histogram
	historyRecords  *prometheus.CounterVec
}

// New registers the instruments plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_requests_total",
			Help:      "Variant generation requests by backend and outcome.",
		}, []string{"backend", "outcome"}),
		generation: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "variant_generation_seconds",
			Help:      "Time spent computing variants on a cache miss.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"backend", "path"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_cache_lookups_total",
			Help:      "Variant cache lookups by result.",
		}, []string{"result"}),
		contextFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_lookup_failures_total",
			Help:      "Context provider lookups that failed and were treated as empty.",
		}),
		qualityScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "original_quality_score",
			Help:      "Quality score of submitted prompts.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		historyRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_history_records_total",
			Help:      "Prompt history records stored, by whether a variant was chosen.",
		}, []string{"selected"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(backend, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) ObserveGeneration(backend, path string, d time.Duration) {
	if m == nil {
		return
	}
	m.generation.WithLabelValues(backend, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveContextFailure() {
	if m == nil {
		return
	}
	m.contextFailures.Inc()
}

func (m *Metrics) ObserveQualityScore(score int) {
	if m == nil {
		return
	}
	m.qualityScore.Observe(float64(score))
}

func (m *Metrics) ObserveHistoryRecord(variantChosen bool) {
	if m == nil {
		return
	}
	selected := "false"
	if variantChosen {
		selected = "true"
	}
	m.historyRecords.WithLabelValues(selected).Inc()
}
