// Package metrics provides Prometheus metrics for the fleet safety service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Source resolution
	sourceAttempts  *prometheus.CounterVec
	sourceFailures  *prometheus.CounterVec
	degradedResults prometheus.Counter
	fallbackDepth   prometheus.Histogram

	// Normalization quality
	rowsNormalized prometheus.Counter
	rowsDropped    *prometheus.CounterVec
	valuesClamped  prometheus.Counter

	// Dataset cache
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheEvictions  prometheus.Counter
	cacheSuppressed prometheus.Counter
	loadDuration    prometheus.Histogram

	// Reports
	reportsGenerated *prometheus.CounterVec
	reportFailures   prometheus.Counter
	reportDuration   prometheus.Histogram

	// Diagnostics
	probeLatency *prometheus.HistogramVec

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var defaultManager *Manager

func init() { //nolint:gochecknoinits // global metrics need to exist before any component runs
	defaultManager = NewManager()
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fleetsafety",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	ns := m.namespace

	m.sourceAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "source_attempts_total",
		Help:      "Data source resolution attempts by source kind.",
	}, []string{"kind"})

	m.sourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "source_failures_total",
		Help:      "Failed data source attempts by source kind.",
	}, []string{"kind"})

	m.degradedResults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "degraded_results_total",
		Help:      "Resolutions that fell back to the bundled sample dataset.",
	})

	m.fallbackDepth = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "fallback_depth",
		Help:      "Number of candidates tried before a resolution succeeded.",
		Buckets:   []float64{1, 2, 3, 4},
	})

	m.rowsNormalized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "rows_normalized_total",
		Help:      "Raw rows accepted into the canonical dataset.",
	})

	m.rowsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "rows_dropped_total",
		Help:      "Raw rows dropped during normalization by reason.",
	}, []string{"reason"})

	m.valuesClamped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "values_clamped_total",
		Help:      "Out-of-range numeric values clamped during normalization.",
	})

	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "dataset_cache_hits_total",
		Help:      "Dataset cache lookups served from memory.",
	})

	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "dataset_cache_misses_total",
		Help:      "Dataset cache lookups that required a backend load.",
	})

	m.cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "dataset_cache_evictions_total",
		Help:      "Dataset cache entries evicted by TTL or LRU cap.",
	})

	m.cacheSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "dataset_cache_suppressed_loads_total",
		Help:      "Concurrent loads coalesced into an in-flight load.",
	})

	m.loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "dataset_load_duration_seconds",
		Help:      "Wall time of backend dataset loads.",
		Buckets:   m.histogramBuckets,
	})

	m.reportsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "reports_generated_total",
		Help:      "Report artifacts generated by scope.",
	}, []string{"scope"})

	m.reportFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "report_failures_total",
		Help:      "Report generation attempts that failed.",
	})

	m.reportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "report_duration_seconds",
		Help:      "Wall time of report generation.",
		Buckets:   m.histogramBuckets,
	})

	m.probeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "probe_latency_seconds",
		Help:      "Connectivity probe latency by source kind.",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "code"})

	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint and method.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	m.registry.MustRegister(
		m.sourceAttempts, m.sourceFailures, m.degradedResults, m.fallbackDepth,
		m.rowsNormalized, m.rowsDropped, m.valuesClamped,
		m.cacheHits, m.cacheMisses, m.cacheEvictions, m.cacheSuppressed, m.loadDuration,
		m.reportsGenerated, m.reportFailures, m.reportDuration,
		m.probeLatency,
		m.httpRequests, m.httpRequestDuration,
	)
}

// Package-level helpers against the default manager.

func RecordSourceAttempt(kind string) {
	defaultManager.sourceAttempts.WithLabelValues(kind).Inc()
}

func RecordSourceFailure(kind string) {
	defaultManager.sourceFailures.WithLabelValues(kind).Inc()
}

func RecordDegradedResult() {
	defaultManager.degradedResults.Inc()
}

func RecordFallbackDepth(depth int) {
	defaultManager.fallbackDepth.Observe(float64(depth))
}

func RecordRowsNormalized(n int) {
	defaultManager.rowsNormalized.Add(float64(n))
}

func RecordRowsDropped(reason string, n int) {
	if n > 0 {
		defaultManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

func RecordValuesClamped(n int) {
	if n > 0 {
		defaultManager.valuesClamped.Add(float64(n))
	}
}

func RecordCacheHit()            { defaultManager.cacheHits.Inc() }
func RecordCacheMiss()           { defaultManager.cacheMisses.Inc() }
func RecordCacheEviction()       { defaultManager.cacheEvictions.Inc() }
func RecordCacheSuppressedLoad() { defaultManager.cacheSuppressed.Inc() }

func RecordLoadDuration(seconds float64) {
	defaultManager.loadDuration.Observe(seconds)
}

func RecordReportGenerated(scope string) {
	defaultManager.reportsGenerated.WithLabelValues(scope).Inc()
}

func RecordReportFailure() {
	defaultManager.reportFailures.Inc()
}

func RecordReportDuration(seconds float64) {
	defaultManager.reportDuration.Observe(seconds)
}

func RecordProbeLatency(kind string, seconds float64) {
	defaultManager.probeLatency.WithLabelValues(kind).Observe(seconds)
}

func RecordHTTPRequest(endpoint, method, code string) {
	defaultManager.httpRequests.WithLabelValues(endpoint, method, code).Inc()
}

func RecordHTTPRequestDuration(endpoint, method string, seconds float64) {
	defaultManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

// GetRegistry exposes the default registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return defaultManager.registry
}
