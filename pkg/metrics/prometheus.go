// Package metrics provides Prometheus metrics for the lineup scheduling service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Job lifecycle
	jobsSubmitted         *prometheus.CounterVec
	jobsDuplicate         prometheus.Counter
	jobsCompleted         *prometheus.CounterVec
	confirmationsRequired prometheus.Counter
	jobsStored            prometheus.Gauge

	// Search
	searchDuration     *prometheus.HistogramVec
	candidatesExamined *prometheus.CounterVec
	lastMinCost        *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Store
	storeOperations *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
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
		namespace:        "lineup",
		subsystem:        "scheduler",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	searchBuckets := prometheus.ExponentialBuckets(0.1, 4, 12)

	m.jobsSubmitted = m.counterVec("jobs_submitted_total", "Schedule jobs accepted for processing", "strategy")
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Submissions answered by an existing job")
	m.jobsCompleted = m.counterVec("jobs_completed_total", "Jobs finished by strategy and final status", "strategy", "status")
	m.confirmationsRequired = m.counter("confirmations_required_total", "Exhaustive requests rejected for lack of confirmation")
	m.jobsStored = m.gauge("jobs_stored", "Jobs currently held by the result store")

	m.searchDuration = m.histogramVec("search_duration_milliseconds", "Wall time of a single search", searchBuckets, "strategy")
	m.candidatesExamined = m.counterVec("search_candidates_examined_total", "Schedules evaluated by searches", "strategy")
	m.lastMinCost = m.gaugeVec("search_last_min_cost", "Best cost of the most recent search", "strategy")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Current number of queued jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued jobs")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue fill ratio (0-1)")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts rejected")

	m.workerCount = m.gauge("worker_count", "Configured number of workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently running a search")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one job", searchBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that ended in failure")

	m.storeOperations = m.counterVec("store_operations_total", "Result store operations", "backend", "operation", "result")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Result store operation latency", m.histogramBuckets, "backend", "operation")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations", m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

// Job metrics.

// RecordJobSubmitted counts an accepted job.
func RecordJobSubmitted(strategy string) {
	globalManager.jobsSubmitted.WithLabelValues(strategy).Inc()
}

// RecordJobDuplicate counts a submission answered by an existing job.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// RecordJobCompleted counts a job reaching a terminal status.
func RecordJobCompleted(strategy, status string) {
	globalManager.jobsCompleted.WithLabelValues(strategy, status).Inc()
}

// RecordConfirmationRequired counts an exhaustive request held back by the size warning.
func RecordConfirmationRequired() {
	globalManager.confirmationsRequired.Inc()
}

// UpdateStoredJobs sets the number of jobs held by the store.
func UpdateStoredJobs(count int) {
	globalManager.jobsStored.Set(float64(count))
}

// Search metrics.

// RecordSearch records one finished search.
func RecordSearch(strategy string, durationMs float64, examined uint64, minCost int) {
	globalManager.searchDuration.WithLabelValues(strategy).Observe(durationMs)
	globalManager.candidatesExamined.WithLabelValues(strategy).Add(float64(examined))
	globalManager.lastMinCost.WithLabelValues(strategy).Set(float64(minCost))
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue fill ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddActiveWorkers adjusts the number of busy workers by delta.
func AddActiveWorkers(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records how long a worker spent on one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Store metrics.

// RecordStoreOperation records one store call; result is "ok", "not_found" or "error".
func RecordStoreOperation(backend, operation, result string, latencyMs float64) {
	globalManager.storeOperations.WithLabelValues(backend, operation, result).Inc()
	globalManager.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// Error metrics.

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error for an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
