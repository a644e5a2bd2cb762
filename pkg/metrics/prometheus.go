// Package metrics provides Prometheus metrics for the scheduling engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the scheduling service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - What really matters for a scheduler
	turnsProcessed    *prometheus.CounterVec
	turnLatency       prometheus.Histogram
	placementsTotal   prometheus.Counter
	displacedEvents   prometheus.Counter
	slotSearchLatency prometheus.Histogram
	slotSearchMisses  prometheus.Counter

	// Dialogue Metrics - Clarification exchange health
	clarificationsAsked  prometheus.Counter
	conversationsOpen    prometheus.Gauge
	conversationsExpired prometheus.Counter

	// Goal Metrics
	goalRecomputes prometheus.Counter

	// Extractor Metrics - Upstream model behavior
	extractorLatency prometheus.Histogram
	extractorErrors  prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store Metrics - Calendar state management
	storeEventsTotal   prometheus.Gauge
	storeOwnersTotal   prometheus.Gauge
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Refresh Pipeline Metrics - Background recompute queue and workers
	refreshQueueDepth   prometheus.Gauge
	refreshJobsTotal    prometheus.Counter
	refreshJobErrors    prometheus.Counter
	refreshJobsDropped  prometheus.Counter
	refreshJobLatency   prometheus.Histogram
	refreshWorkersTotal prometheus.Gauge

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scheddy",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.turnsProcessed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "turns_total",
			Help:      "Total number of conversational turns by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	m.turnLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "turn_latency_milliseconds",
		Help:      "Histogram of end-to-end turn latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.placementsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "placements_total",
		Help:      "Total number of events placed on calendars",
	})

	m.displacedEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "displaced_events_total",
		Help:      "Total number of events relocated to make room for higher priorities",
	})

	m.slotSearchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "slot_search_latency_milliseconds",
		Help:      "Slot search latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.slotSearchMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "slot_search_misses_total",
		Help:      "Total number of slot searches that found no free slot",
	})

	// Dialogue Metrics
	m.clarificationsAsked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clarifications_asked_total",
		Help:      "Total number of clarification questions sent back to users",
	})

	m.conversationsOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conversations_open",
		Help:      "Current number of open clarification conversations",
	})

	m.conversationsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conversations_expired_total",
		Help:      "Total number of conversations discarded after idling out",
	})

	// Goal Metrics
	m.goalRecomputes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "goal_recomputes_total",
		Help:      "Total number of weekly goal progress recomputations",
	})

	// Extractor Metrics
	m.extractorLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extractor_latency_milliseconds",
		Help:      "Intent extraction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.extractorErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extractor_errors_total",
		Help:      "Total number of failed intent extractions",
	})

	// HTTP Performance Metrics - User experience indicators
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
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Store Metrics
	m.storeEventsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_events_total",
		Help:      "Total number of events tracked across all owners",
	})

	m.storeOwnersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_owners_total",
		Help:      "Total number of owners with calendar state",
	})

	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_update_latency_milliseconds",
		Help:      "Store update operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Store query operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Refresh Pipeline Metrics
	m.refreshQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_queue_depth",
		Help:      "Current number of queued background refresh jobs",
	})

	m.refreshJobsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_jobs_total",
		Help:      "Total number of background refresh jobs processed",
	})

	m.refreshJobErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_job_errors_total",
		Help:      "Total number of background refresh jobs that failed",
	})

	m.refreshJobsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_jobs_dropped_total",
		Help:      "Total number of refresh jobs dropped due to backpressure",
	})

	m.refreshJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_job_latency_milliseconds",
		Help:      "Background refresh job latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.refreshWorkersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_workers_total",
		Help:      "Number of background refresh workers",
	})

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordTurn increments the turn counter for an action and outcome.
func RecordTurn(action, outcome string) {
	globalManager.turnsProcessed.WithLabelValues(action, outcome).Inc()
}

// RecordTurnLatency records end-to-end turn latency in milliseconds.
func RecordTurnLatency(latencyMs float64) {
	globalManager.turnLatency.Observe(latencyMs)
}

// RecordPlacement increments the placements counter.
func RecordPlacement() {
	globalManager.placementsTotal.Inc()
}

// RecordDisplacedEvents adds to the displaced events counter.
func RecordDisplacedEvents(n int) {
	globalManager.displacedEvents.Add(float64(n))
}

// RecordSlotSearchLatency records slot search latency in milliseconds.
func RecordSlotSearchLatency(latencyMs float64) {
	globalManager.slotSearchLatency.Observe(latencyMs)
}

// RecordSlotSearchMiss increments the failed slot search counter.
func RecordSlotSearchMiss() {
	globalManager.slotSearchMisses.Inc()
}

// RecordClarificationAsked increments the clarification counter.
func RecordClarificationAsked() {
	globalManager.clarificationsAsked.Inc()
}

// UpdateConversationsOpen sets the open conversation gauge.
func UpdateConversationsOpen(count int) {
	globalManager.conversationsOpen.Set(float64(count))
}

// RecordConversationsExpired adds to the expired conversation counter.
func RecordConversationsExpired(n int) {
	globalManager.conversationsExpired.Add(float64(n))
}

// RecordGoalRecompute increments the goal recompute counter.
func RecordGoalRecompute() {
	globalManager.goalRecomputes.Inc()
}

// RecordExtractorLatency records intent extraction latency in milliseconds.
func RecordExtractorLatency(latencyMs float64) {
	globalManager.extractorLatency.Observe(latencyMs)
}

// RecordExtractorError increments the extractor error counter.
func RecordExtractorError() {
	globalManager.extractorErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Store Metrics Functions.

// UpdateStoreEventsTotal sets the total number of events across owners.
func UpdateStoreEventsTotal(count int) {
	globalManager.storeEventsTotal.Set(float64(count))
}

// UpdateStoreOwnersTotal sets the number of owners with state.
func UpdateStoreOwnersTotal(count int) {
	globalManager.storeOwnersTotal.Set(float64(count))
}

// RecordStoreUpdateLatency records store update operation latency.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store query operation latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// Refresh Pipeline Metrics Functions.

// UpdateRefreshQueueDepth sets the queued refresh job gauge.
func UpdateRefreshQueueDepth(depth int) {
	globalManager.refreshQueueDepth.Set(float64(depth))
}

// RecordRefreshJob increments the processed refresh job counter.
func RecordRefreshJob() {
	globalManager.refreshJobsTotal.Inc()
}

// RecordRefreshJobError increments the failed refresh job counter.
func RecordRefreshJobError() {
	globalManager.refreshJobErrors.Inc()
}

// RecordRefreshJobDropped increments the dropped refresh job counter.
func RecordRefreshJobDropped() {
	globalManager.refreshJobsDropped.Inc()
}

// RecordRefreshJobLatency records refresh job latency in milliseconds.
func RecordRefreshJobLatency(latencyMs float64) {
	globalManager.refreshJobLatency.Observe(latencyMs)
}

// UpdateRefreshWorkers sets the refresh worker count gauge.
func UpdateRefreshWorkers(count int) {
	globalManager.refreshWorkersTotal.Set(float64(count))
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
