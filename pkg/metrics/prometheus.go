package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the Prometheus collectors of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Recommendation engine
	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	candidatesEvaluated   prometheus.Counter
	candidatesExcluded    *prometheus.CounterVec

	// Assignment workflow
	assignmentsApplied   *prometheus.CounterVec
	assignmentsDuplicate prometheus.Counter
	assignmentErrors     *prometheus.CounterVec

	// Roster and ledger
	rosterMembers      prometheus.Gauge
	workItems          *prometheus.GaugeVec
	rosterReloads      *prometheus.CounterVec
	memberUtilization  *prometheus.GaugeVec
	teamUtilization    prometheus.Gauge
	storeQueryLatency  prometheus.Histogram
	storeUpdateLatency prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "taskflow",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
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

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.recommendations = m.counterVec("recommendations_total",
		"Total number of ranking requests by source", "source")
	m.recommendationLatency = m.histogram("recommendation_latency_milliseconds",
		"Time to rank a roster for one work item in milliseconds")
	m.candidatesEvaluated = m.counter("candidates_evaluated_total",
		"Total number of member/item pairs evaluated")
	m.candidatesExcluded = m.counterVec("candidates_excluded_total",
		"Total number of candidates excluded by the eligibility gate", "outcome")

	m.assignmentsApplied = m.counterVec("assignments_applied_total",
		"Total number of assignments written to the store", "mode")
	m.assignmentsDuplicate = m.counter("assignments_duplicate_total",
		"Total number of duplicate assignment requests rejected")
	m.assignmentErrors = m.counterVec("assignment_errors_total",
		"Total number of assignment requests that failed", "reason")

	m.rosterMembers = m.gauge("roster_members", "Number of members in the roster")
	m.workItems = m.gaugeVec("work_items", "Number of work items by assignment state", "state")
	m.rosterReloads = m.counterVec("roster_reloads_total", "Roster reloads by result", "result")
	m.memberUtilization = m.gaugeVec("member_utilization_percent",
		"Committed story points as a percentage of sprint capacity", "member")
	m.teamUtilization = m.gauge("team_utilization_percent",
		"Unweighted mean of member utilization percentages")
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds", "Store read latency in milliseconds")
	m.storeUpdateLatency = m.histogram("store_update_latency_milliseconds", "Store write latency in milliseconds")

	m.queueSize = m.gauge("queue_size", "Current number of queued assignment requests")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued assignment requests")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size as a fraction of capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of enqueued requests")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of dequeued requests")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerCount = m.gauge("worker_count", "Number of assignment workers")
	m.workerActive = m.gauge("worker_active_count", "Number of workers currently applying a request")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time to apply one assignment request in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker processing errors")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.systemMemory = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPause = m.gauge("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// RecordRecommendation counts one ranking request and its latency.
func RecordRecommendation(source string, latencyMs float64) {
	globalManager.recommendations.WithLabelValues(source).Inc()
	globalManager.recommendationLatency.Observe(latencyMs)
}

// RecordCandidateEvaluated counts one evaluated candidate.
func RecordCandidateEvaluated() {
	globalManager.candidatesEvaluated.Inc()
}

// RecordCandidateExcluded counts a candidate rejected with outcome.
func RecordCandidateExcluded(outcome string) {
	globalManager.candidatesExcluded.WithLabelValues(outcome).Inc()
}

// RecordAssignmentApplied counts a committed assignment by mode.
func RecordAssignmentApplied(mode string) {
	globalManager.assignmentsApplied.WithLabelValues(mode).Inc()
}

// RecordAssignmentDuplicate counts a duplicate assignment request.
func RecordAssignmentDuplicate() {
	globalManager.assignmentsDuplicate.Inc()
}

// RecordAssignmentError counts a failed assignment request.
func RecordAssignmentError(reason string) {
	globalManager.assignmentErrors.WithLabelValues(reason).Inc()
}

// UpdateRosterMembers sets the roster size.
func UpdateRosterMembers(count int) {
	globalManager.rosterMembers.Set(float64(count))
}

// UpdateWorkItems sets the assigned and unassigned item counts.
func UpdateWorkItems(assigned, unassigned int) {
	globalManager.workItems.WithLabelValues("assigned").Set(float64(assigned))
	globalManager.workItems.WithLabelValues("unassigned").Set(float64(unassigned))
}

// RecordRosterReload counts a roster reload. result is "ok" or "error".
func RecordRosterReload(result string) {
	globalManager.rosterReloads.WithLabelValues(result).Inc()
}

// UpdateMemberUtilization sets a member's utilization percentage.
func UpdateMemberUtilization(memberID string, percent float64) {
	globalManager.memberUtilization.WithLabelValues(memberID).Set(percent)
}

// ResetMemberUtilization drops every per-member series, e.g. after a
// roster reload removed members.
func ResetMemberUtilization() {
	globalManager.memberUtilization.Reset()
}

// UpdateTeamUtilization sets the team average utilization percentage.
func UpdateTeamUtilization(percent float64) {
	globalManager.teamUtilization.Set(percent)
}

// RecordStoreQueryLatency records a store read.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreUpdateLatency records a store write.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemory.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPause.Set(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
