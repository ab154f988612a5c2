// Package metrics provides Prometheus metrics for the wicket scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	deliveriesAppended  *prometheus.CounterVec
	deliveriesDuplicate prometheus.Counter
	deliveriesRejected  *prometheus.CounterVec
	inningsTransitions  *prometheus.CounterVec
	inningsActive       prometheus.Gauge
	aggregateLatency    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository
	repositoryInnings          prometheus.Gauge
	repositoryInningsPerShard  *prometheus.GaugeVec
	repositorySnapshotDuration prometheus.Histogram
	repositorySnapshotLastUnix prometheus.Gauge
	repositorySnapshotCount    prometheus.Counter

	// Projection queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Projection workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wicket",
		subsystem:        "scoring",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.deliveriesAppended = auto.NewCounterVec(m.counterOpts(
		"deliveries_appended_total", "Deliveries accepted into an innings log, by extras kind"), []string{"extras"})
	m.deliveriesDuplicate = auto.NewCounter(m.counterOpts(
		"deliveries_duplicate_total", "Resubmitted deliveries answered from the dedupe window"))
	m.deliveriesRejected = auto.NewCounterVec(m.counterOpts(
		"deliveries_rejected_total", "Deliveries rejected, by result code"), []string{"code"})
	m.inningsTransitions = auto.NewCounterVec(m.counterOpts(
		"innings_transitions_total", "Innings lifecycle transitions, by target status"), []string{"status"})
	m.inningsActive = auto.NewGauge(m.gaugeOpts(
		"innings_active", "Innings currently in progress"))
	m.aggregateLatency = auto.NewHistogram(m.histogramOpts(
		"aggregate_latency_milliseconds", "Time spent folding a delivery log into a scoreboard"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.repositoryInnings = auto.NewGauge(m.gaugeOpts(
		"repository_innings_total", "Innings held by the repository"))
	m.repositoryInningsPerShard = auto.NewGaugeVec(m.gaugeOpts(
		"repository_innings_per_shard", "Innings held per repository shard"), []string{"shard"})
	m.repositorySnapshotDuration = auto.NewHistogram(m.histogramOpts(
		"repository_snapshot_duration_milliseconds", "Time spent persisting the repository"))
	m.repositorySnapshotLastUnix = auto.NewGauge(m.gaugeOpts(
		"repository_snapshot_last_unixtime", "Unix time of the last persisted snapshot"))
	m.repositorySnapshotCount = auto.NewCounter(m.counterOpts(
		"repository_snapshots_total", "Snapshots persisted since start"))

	m.queueCapacity = auto.NewGauge(m.gaugeOpts(
		"queue_capacity", "Projection queue capacity"))
	m.queueSize = auto.NewGauge(m.gaugeOpts(
		"queue_size", "Projection jobs waiting in the queue"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts(
		"queue_enqueued_total", "Projection jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts(
		"queue_dequeued_total", "Projection jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts(
		"queue_enqueue_errors_total", "Projection jobs dropped because the queue was full or closed"))

	m.workerCount = auto.NewGauge(m.gaugeOpts(
		"worker_count", "Projection workers started"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts(
		"worker_active_count", "Projection workers currently handling a job"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Time spent projecting one innings"))
	m.workerErrors = auto.NewCounter(m.counterOpts(
		"worker_errors_total", "Projection jobs that failed"))

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
}

// RecordDeliveryAppended counts an accepted delivery by its extras kind.
func RecordDeliveryAppended(extras string) {
	globalManager.deliveriesAppended.WithLabelValues(extras).Inc()
}

// RecordDeliveryDuplicate counts a resubmitted delivery.
func RecordDeliveryDuplicate() {
	globalManager.deliveriesDuplicate.Inc()
}

// RecordDeliveryRejected counts a rejected delivery by result code.
func RecordDeliveryRejected(code string) {
	globalManager.deliveriesRejected.WithLabelValues(code).Inc()
}

// RecordInningsTransition counts a lifecycle transition into status.
func RecordInningsTransition(status string) {
	globalManager.inningsTransitions.WithLabelValues(status).Inc()
}

// UpdateInningsActive sets the number of innings in progress.
func UpdateInningsActive(count int) {
	globalManager.inningsActive.Set(float64(count))
}

// RecordAggregateLatency records scoreboard aggregation latency in milliseconds.
func RecordAggregateLatency(latencyMs float64) {
	globalManager.aggregateLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateRepositoryInnings sets the number of innings held.
func UpdateRepositoryInnings(count int) {
	globalManager.repositoryInnings.Set(float64(count))
}

// UpdateRepositoryInningsPerShard sets the number of innings held by one shard.
func UpdateRepositoryInningsPerShard(shard string, count int) {
	globalManager.repositoryInningsPerShard.WithLabelValues(shard).Set(float64(count))
}

// RecordRepositorySnapshot records a persisted snapshot and its duration.
func RecordRepositorySnapshot(durationMs float64, unix int64) {
	globalManager.repositorySnapshotDuration.Observe(durationMs)
	globalManager.repositorySnapshotLastUnix.Set(float64(unix))
	globalManager.repositorySnapshotCount.Inc()
}

// UpdateQueueCapacity sets the projection queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the number of queued projection jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a dropped job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the number of projection workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of busy workers by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records how long one projection took in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed projection.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
