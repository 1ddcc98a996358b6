package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcomes used as the "outcome" label.
const (
	OutcomeOK           = "ok"
	OutcomeEmpty        = "empty"
	OutcomeInvalidInput = "invalid_input"
)

// Manager manages all Prometheus metrics for the labeleval service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Evaluation metrics
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	itemsEvaluated     prometheus.Counter
	itemsExcluded      prometheus.Counter
	keysMerged         prometheus.Counter
	parseErrors        *prometheus.CounterVec
	lastPrecision      prometheus.Gauge
	lastRecall         prometheus.Gauge
	comparisonsTotal   prometheus.Counter

	// Report store
	reportsStored  prometheus.Gauge
	reportsEvicted prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// The global manager and the custom registry it writes to. Swapped together
// by Configure.
var (
	globalManager  atomic.Pointer[Manager]             //nolint:gochecknoglobals // singleton metrics manager
	customRegistry atomic.Pointer[prometheus.Registry] //nolint:gochecknoglobals // metrics registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// custom registry, and returns it. Call it before handlers capture
// GetRegistry; series recorded on the previous manager are not carried over.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	m := NewManager(append(append([]Option{}, opts...), WithPrometheusRegistry(registry))...)
	customRegistry.Store(registry)
	globalManager.Store(m)
	return m
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "labeleval",
		subsystem:        "evaluator",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.evaluationsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluations_total",
		Help:        "Evaluations by scope and outcome",
		ConstLabels: labels,
	}, []string{"scope", "outcome"})

	m.evaluationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluation_duration_milliseconds",
		Help:        "Time spent parsing and scoring one evaluation",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.itemsEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "items_evaluated_total",
		Help:        "Item keys scored across all evaluations",
		ConstLabels: labels,
	})

	m.itemsExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "items_excluded_total",
		Help:        "Ground-truth keys left out because they had no prediction",
		ConstLabels: labels,
	})

	m.keysMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "keys_merged_total",
		Help:        "Keys that collided after normalization",
		ConstLabels: labels,
	})

	m.parseErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "parse_errors_total",
		Help:        "Rejected input documents by role",
		ConstLabels: labels,
	}, []string{"role"})

	m.lastPrecision = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_global_precision",
		Help:        "Macro precision of the most recent non-empty evaluation",
		ConstLabels: labels,
	})

	m.lastRecall = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_global_recall",
		Help:        "Macro recall of the most recent non-empty evaluation",
		ConstLabels: labels,
	})

	m.comparisonsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "comparisons_total",
		Help:        "Multi-run comparisons performed",
		ConstLabels: labels,
	})

	m.reportsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reports_stored",
		Help:        "Reports currently held in memory",
		ConstLabels: labels,
	})

	m.reportsEvicted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reports_evicted_total",
		Help:        "Reports dropped to respect the history size",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status code",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "HTTP errors by endpoint, method and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "HTTP errors by type and severity",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})
}

// RecordEvaluation counts one evaluation and its duration.
func (m *Manager) RecordEvaluation(scope, outcome string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.evaluationsTotal.WithLabelValues(scope, outcome).Inc()
	m.evaluationDuration.Observe(durationMs)
}

// RecordItems adds to the evaluated, excluded and merged key counters.
func (m *Manager) RecordItems(evaluated, excluded, merged int) {
	if !m.enabled {
		return
	}
	m.itemsEvaluated.Add(float64(evaluated))
	m.itemsExcluded.Add(float64(excluded))
	m.keysMerged.Add(float64(merged))
}

// RecordParseError counts a rejected document for role ("actual"/"predicted").
func (m *Manager) RecordParseError(role string) {
	if !m.enabled {
		return
	}
	m.parseErrors.WithLabelValues(role).Inc()
}

// UpdateLastScores sets the last macro precision and recall.
func (m *Manager) UpdateLastScores(precision, recall float64) {
	if !m.enabled {
		return
	}
	m.lastPrecision.Set(precision)
	m.lastRecall.Set(recall)
}

// RecordComparison counts one multi-run comparison.
func (m *Manager) RecordComparison() {
	if !m.enabled {
		return
	}
	m.comparisonsTotal.Inc()
}

// UpdateReportsStored sets the number of reports held in memory.
func (m *Manager) UpdateReportsStored(count int) {
	if !m.enabled {
		return
	}
	m.reportsStored.Set(float64(count))
}

// RecordReportEvicted counts one evicted report.
func (m *Manager) RecordReportEvicted() {
	if !m.enabled {
		return
	}
	m.reportsEvicted.Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error by endpoint and by type.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystem sets memory and goroutine gauges.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordEvaluation records an evaluation on the global manager.
func RecordEvaluation(scope, outcome string, durationMs float64) {
	globalManager.Load().RecordEvaluation(scope, outcome, durationMs)
}

// RecordItems records item counts on the global manager.
func RecordItems(evaluated, excluded, merged int) {
	globalManager.Load().RecordItems(evaluated, excluded, merged)
}

// RecordParseError records a rejected document on the global manager.
func RecordParseError(role string) {
	globalManager.Load().RecordParseError(role)
}

// UpdateLastScores sets the last scores on the global manager.
func UpdateLastScores(precision, recall float64) {
	globalManager.Load().UpdateLastScores(precision, recall)
}

// RecordComparison records a comparison on the global manager.
func RecordComparison() {
	globalManager.Load().RecordComparison()
}

// UpdateReportsStored sets the stored report gauge on the global manager.
func UpdateReportsStored(count int) {
	globalManager.Load().UpdateReportsStored(count)
}

// RecordReportEvicted records an eviction on the global manager.
func RecordReportEvicted() {
	globalManager.Load().RecordReportEvicted()
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.Load().RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an HTTP error on the global manager.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.Load().RecordHTTPError(endpoint, method, errorType, severity)
}

// UpdateSystem sets system gauges on the global manager.
func UpdateSystem(memoryBytes uint64, goroutines int) {
	globalManager.Load().UpdateSystem(memoryBytes, goroutines)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry.Load()
}
