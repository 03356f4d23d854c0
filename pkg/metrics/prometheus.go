// Package metrics provides Prometheus metrics for the crmpulse aggregation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Query metrics
	queries      *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec

	// Source metrics
	upstreamErrors  *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	snapshotRecords *prometheus.GaugeVec

	// Data quality metrics
	malformedRecords     *prometheus.CounterVec
	unresolvedReferences *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crmpulse",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric family
	auto := promauto.With(m.registry)

	m.queries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queries_total",
			Help:      "Total number of aggregation queries by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	m.queryLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "query_latency_milliseconds",
			Help:      "Aggregation query latency in milliseconds, snapshot fetch included",
			Buckets:   m.histogramBuckets,
		},
		[]string{"kind"},
	)

	m.upstreamErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_errors_total",
			Help:      "Total number of failed source collection reads",
		},
		[]string{"collection"},
	)

	m.fetchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_fetch_latency_milliseconds",
			Help:      "Source collection read latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"collection"},
	)

	m.snapshotRecords = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "snapshot_records",
			Help:      "Number of records returned by the last read of each collection",
		},
		[]string{"collection"},
	)

	m.malformedRecords = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "malformed_records_total",
			Help:      "Total number of malformed records skipped during aggregation",
		},
		[]string{"kind"},
	)

	m.unresolvedReferences = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "unresolved_references_total",
			Help:      "Total number of records skipped for pointing at a missing entity",
		},
		[]string{"kind"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// RecordQuery counts a finished query. outcome is one of ok, invalid,
// upstream or error.
func RecordQuery(kind, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.queries.WithLabelValues(kind, outcome).Inc()
}

// RecordQueryLatency records query latency in milliseconds.
func RecordQueryLatency(kind string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queryLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordUpstreamError increments the failed read counter for a collection.
func RecordUpstreamError(collection string) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamErrors.WithLabelValues(collection).Inc()
}

// RecordFetchLatency records a collection read latency in milliseconds.
func RecordFetchLatency(collection string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.fetchLatency.WithLabelValues(collection).Observe(latencyMs)
}

// UpdateSnapshotRecords sets the record count of the last collection read.
func UpdateSnapshotRecords(collection string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotRecords.WithLabelValues(collection).Set(float64(count))
}

// RecordMalformed adds n skipped malformed records of kind.
func RecordMalformed(kind string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.malformedRecords.WithLabelValues(kind).Add(float64(n))
}

// RecordUnresolved adds n records skipped for a dangling reference.
func RecordUnresolved(kind string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.unresolvedReferences.WithLabelValues(kind).Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
