// Package metrics provides Prometheus metrics for the maturity assessment service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Assessment metrics
	reportsBuilt         prometheus.Counter
	reportsFailed        *prometheus.CounterVec
	buildLatency         prometheus.Histogram
	dimensionLatency     *prometheus.HistogramVec
	insufficientEvidence *prometheus.CounterVec
	benchmarkMisses      prometheus.Counter
	reportsByLevel       *prometheus.CounterVec

	// Intake metrics
	evidenceIngested   prometheus.Counter
	evidenceDuplicates prometheus.Counter
	quotesIngested     prometheus.Counter
	subjectsTotal      prometheus.Gauge

	// Upstream source metrics
	sourceRequests *prometheus.CounterVec
	sourceLatency  prometheus.Histogram

	// Repository metrics
	repositoryRecordsTotal  prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Job queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "maturity",
		subsystem:        "assessment",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.reportsBuilt = m.counter("reports_built_total", "Total number of assessment reports built")
	m.reportsFailed = m.counterVec("reports_failed_total", "Total number of failed report builds by reason", "reason")
	m.buildLatency = m.histogram("build_latency_milliseconds", "Report build latency in milliseconds", m.histogramBuckets)
	m.dimensionLatency = m.histogramVec("dimension_scoring_latency_milliseconds", "Per-dimension scoring latency in milliseconds", "dimension")
	m.insufficientEvidence = m.counterVec("insufficient_evidence_total", "Dimensions scored without evidence", "dimension")
	m.benchmarkMisses = m.counter("benchmark_misses_total", "Reports built without benchmark data")
	m.reportsByLevel = m.counterVec("reports_by_level_total", "Reports built per maturity level", "level")

	m.evidenceIngested = m.counter("evidence_ingested_total", "Evidence items accepted at intake")
	m.evidenceDuplicates = m.counter("evidence_duplicates_total", "Evidence items rejected as duplicates")
	m.quotesIngested = m.counter("quotes_ingested_total", "Interview quotes accepted at intake")
	m.subjectsTotal = m.gauge("subjects_total", "Subjects with intake data")

	m.sourceRequests = m.counterVec("source_requests_total", "Upstream source requests by outcome", "resource", "outcome")
	m.sourceLatency = m.histogram("source_latency_milliseconds", "Upstream source request latency in milliseconds", m.histogramBuckets)

	m.repositoryRecordsTotal = m.gauge("repository_records_total", "Reports held by the repository")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Repository save latency in milliseconds", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Repository query latency in milliseconds", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Current number of queued assessment jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected because the queue was full")

	m.workerCount = m.gauge("worker_count", "Configured number of workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers building a report")
	m.workerIdleCount = m.gauge("worker_idle_count", "Number of idle workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that ended in error")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func active() *Manager {
	if globalManager == nil || !globalManager.enabled {
		return nil
	}
	return globalManager
}

// RecordReportBuilt counts a successful build and its level.
func RecordReportBuilt(level string, latencyMs float64) {
	if m := active(); m != nil {
		m.reportsBuilt.Inc()
		m.reportsByLevel.WithLabelValues(level).Inc()
		m.buildLatency.Observe(latencyMs)
	}
}

// RecordReportFailed counts a failed build.
func RecordReportFailed(reason string) {
	if m := active(); m != nil {
		m.reportsFailed.WithLabelValues(reason).Inc()
	}
}

// RecordDimensionScored records per-dimension scoring latency.
func RecordDimensionScored(dimension string, latencyMs float64) {
	if m := active(); m != nil {
		m.dimensionLatency.WithLabelValues(dimension).Observe(latencyMs)
	}
}

// RecordInsufficientEvidence counts a dimension scored without evidence.
func RecordInsufficientEvidence(dimension string) {
	if m := active(); m != nil {
		m.insufficientEvidence.WithLabelValues(dimension).Inc()
	}
}

// RecordBenchmarkMiss counts a report built without benchmark data.
func RecordBenchmarkMiss() {
	if m := active(); m != nil {
		m.benchmarkMisses.Inc()
	}
}

// RecordEvidenceIngested records accepted and duplicate evidence items.
func RecordEvidenceIngested(accepted, duplicates int) {
	if m := active(); m != nil {
		m.evidenceIngested.Add(float64(accepted))
		m.evidenceDuplicates.Add(float64(duplicates))
	}
}

// RecordQuotesIngested records accepted quotes.
func RecordQuotesIngested(n int) {
	if m := active(); m != nil {
		m.quotesIngested.Add(float64(n))
	}
}

// UpdateSubjectsTotal sets the number of known subjects.
func UpdateSubjectsTotal(n int) {
	if m := active(); m != nil {
		m.subjectsTotal.Set(float64(n))
	}
}

// RecordSourceRequest records an upstream request outcome and latency.
func RecordSourceRequest(resource, outcome string, latencyMs float64) {
	if m := active(); m != nil {
		m.sourceRequests.WithLabelValues(resource, outcome).Inc()
		m.sourceLatency.Observe(latencyMs)
	}
}

// UpdateRepositoryRecordsTotal sets the number of stored reports.
func UpdateRepositoryRecordsTotal(count int) {
	if m := active(); m != nil {
		m.repositoryRecordsTotal.Set(float64(count))
	}
}

// RecordRepositoryUpdateLatency records repository save latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.repositoryUpdateLatency.Observe(latencyMs)
	}
}

// RecordRepositoryQueryLatency records repository query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.repositoryQueryLatency.Observe(latencyMs)
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if m := active(); m != nil {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if m := active(); m != nil {
		m.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if m := active(); m != nil {
		m.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if m := active(); m != nil {
		m.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if m := active(); m != nil {
		m.queueEnqueueErrors.Inc()
	}
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if m := active(); m != nil {
		m.workerCount.Set(float64(count))
	}
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	if m := active(); m != nil {
		m.workerActiveCount.Set(float64(count))
	}
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	if m := active(); m != nil {
		m.workerIdleCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records job processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if m := active(); m != nil {
		m.workerErrors.Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := active(); m != nil {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Configure swaps the global manager for one built from opts on a fresh
// registry. Call it at startup, before any handler captures GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
