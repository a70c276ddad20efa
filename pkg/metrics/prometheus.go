// Package metrics provides Prometheus metrics for the sentiment dashboard.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Aggregation scopes.
const (
	ScopeDirect     = "direct"
	ScopeIndustry   = "industry"
	ScopeCompetitor = "competitor"
)

// Manager owns the Prometheus collectors of one registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	// Store
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec

	// Sentiment
	aggregations       *prometheus.CounterVec
	articlesConsidered *prometheus.HistogramVec
	clientsTotal       prometheus.Gauge

	// Clients file
	clientsFileWrites *prometheus.CounterVec

	errorsByComponent *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sentivision",
		subsystem:        "dashboard",
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.rateLimited = auto.NewCounter(
		m.counterOpts("http_rate_limited_total", "Mutating requests rejected by the rate limiter"),
	)

	m.storeQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("store_query_latency_milliseconds", "Latency of store queries in milliseconds", m.histogramBuckets),
		[]string{"op"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Store queries that returned an error"),
		[]string{"op"},
	)

	m.aggregations = auto.NewCounterVec(
		m.counterOpts("aggregations_total", "Sentiment aggregations computed by scope"),
		[]string{"scope"},
	)
	m.articlesConsidered = auto.NewHistogramVec(
		m.histogramOpts("aggregation_articles", "Articles matched by an aggregation after filtering",
			[]float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}),
		[]string{"scope"},
	)
	m.clientsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "clients",
		Help:        "Number of monitored clients seen by the last dashboard render",
		ConstLabels: m.constLabels,
	})

	m.clientsFileWrites = auto.NewCounterVec(
		m.counterOpts("clients_file_writes_total", "Clients configuration file exports by result"),
		[]string{"result"},
	)
	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and error type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "Heap bytes allocated by the process",
		ConstLabels: m.constLabels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutines",
		Help:        "Number of live goroutines",
		ConstLabels: m.constLabels,
	})
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause time in milliseconds",
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50}),
	)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a rejected mutating request.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordStoreQuery records the latency of one store operation.
func RecordStoreQuery(op string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordAggregation counts an aggregation over scope and the number of
// articles it matched.
func RecordAggregation(scope string, matched int) error {
	switch scope {
	case ScopeDirect, ScopeIndustry, ScopeCompetitor:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	globalManager.aggregations.WithLabelValues(scope).Inc()
	globalManager.articlesConsidered.WithLabelValues(scope).Observe(float64(matched))
	return nil
}

// UpdateClientsTotal sets the monitored clients gauge.
func UpdateClientsTotal(count int) {
	globalManager.clientsTotal.Set(float64(count))
}

// RecordClientsFileWrite counts a clients file export.
func RecordClientsFileWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	globalManager.clientsFileWrites.WithLabelValues(result).Inc()
}

// RecordErrorByComponent records errors by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure rebuilds the global collectors with opts on a fresh registry.
// It is meant to run once at startup, before Handler is mounted.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
