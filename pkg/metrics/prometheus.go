// Package metrics provides Prometheus metrics for the dispatch engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector for the engine, registered on a
// private registry so tests and embedding applications stay isolated from
// the default one.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Assignment outcomes
	assignmentsTotal  *prometheus.CounterVec
	escalationsTotal  prometheus.Counter
	invalidTickets    prometheus.Counter
	capacityRetries   prometheus.Counter
	duplicateTickets  prometheus.Counter
	assignmentLatency prometheus.Histogram
	scoringLatency    prometheus.Histogram

	// Roster state
	technicianCount prometheus.Gauge
	activeTickets   prometheus.Gauge
	ruleCount       prometheus.Gauge
	configUpdates   prometheus.Counter

	// Intake pipeline
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueRejects     prometheus.Counter
	workerCount      prometheus.Gauge
	workerErrors     prometheus.Counter
	workerLatency    prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Cross-cutting error accounting
	errorsByComponent *prometheus.CounterVec

	// Process health
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
}

// NewManager creates a metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "dispatch",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.assignmentsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "assignments_total",
		Help:      "Committed assignments by strategy.",
	}, []string{"strategy"})
	m.escalationsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "escalations_total",
		Help:      "Assignments escalated to the fallback manager.",
	})
	m.invalidTickets = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "invalid_tickets_total",
		Help:      "Tickets rejected before filtering.",
	})
	m.capacityRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "capacity_retries_total",
		Help:      "Reservation attempts lost to a concurrent assignment and retried.",
	})
	m.duplicateTickets = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "duplicate_tickets_total",
		Help:      "Tickets acknowledged as already-routed duplicates.",
	})
	m.assignmentLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "assignment_duration_ms",
		Help:      "End-to-end assignment decision latency in milliseconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})
	m.scoringLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "scoring_duration_ms",
		Help:      "Candidate scoring latency in milliseconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	m.technicianCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "technicians",
		Help:      "Technicians on the roster.",
	})
	m.activeTickets = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "active_tickets",
		Help:      "Total active tickets across the roster.",
	})
	m.ruleCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "rules",
		Help:      "Assignment rules configured.",
	})
	m.configUpdates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "config_updates_total",
		Help:      "Accepted global configuration updates.",
	})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "queue_size",
		Help:      "Tickets waiting in the intake queue.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "queue_capacity",
		Help:      "Configured intake queue capacity.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "queue_utilization",
		Help:      "Intake queue fill ratio 0-1.",
	})
	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "queue_enqueues_total",
		Help:      "Tickets accepted into the intake queue.",
	})
	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "queue_dequeues_total",
		Help:      "Tickets handed to assignment workers.",
	})
	m.queueRejects = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "queue_rejects_total",
		Help:      "Tickets rejected by the intake queue.",
	})
	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "workers",
		Help:      "Assignment workers running.",
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "worker_errors_total",
		Help:      "Worker-level processing failures.",
	})
	m.workerLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "worker_duration_ms",
		Help:      "Worker ticket processing latency in milliseconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method, and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
	}, []string{"endpoint", "method", "status"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "errors_total",
		Help:      "Errors by component and reason.",
	}, []string{"component", "reason"})

	m.systemMemory = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_memory_bytes",
		Help:      "Allocated heap bytes.",
	})
	m.systemGoroutines = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_goroutines",
		Help:      "Live goroutines.",
	})

	return m
}

// Registry exposes the manager's private registry for promhttp handlers.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// defaultManager backs the package-level recording functions.
var defaultManager = NewManager()

// GetRegistry returns the default manager's registry.
func GetRegistry() *prometheus.Registry {
	return defaultManager.Registry()
}

// Assignment outcome recorders.
func RecordAssignment(strategy string) {
	defaultManager.assignmentsTotal.WithLabelValues(strategy).Inc()
}
func RecordEscalation()      { defaultManager.escalationsTotal.Inc() }
func RecordInvalidTicket()   { defaultManager.invalidTickets.Inc() }
func RecordCapacityRetry()   { defaultManager.capacityRetries.Inc() }
func RecordTicketDuplicate() { defaultManager.duplicateTickets.Inc() }
func RecordAssignmentLatency(ms float64) {
	defaultManager.assignmentLatency.Observe(ms)
}
func RecordScoringLatency(ms float64) { defaultManager.scoringLatency.Observe(ms) }

// Roster state updaters.
func UpdateTechnicianCount(n int) { defaultManager.technicianCount.Set(float64(n)) }
func UpdateActiveTickets(n int)   { defaultManager.activeTickets.Set(float64(n)) }
func UpdateRuleCount(n int)       { defaultManager.ruleCount.Set(float64(n)) }
func RecordConfigUpdate()         { defaultManager.configUpdates.Inc() }

// Intake pipeline recorders.
func UpdateQueueSize(n int)            { defaultManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)        { defaultManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(r float64) { defaultManager.queueUtilization.Set(r) }
func RecordQueueEnqueue()              { defaultManager.queueEnqueues.Inc() }
func RecordQueueDequeue()              { defaultManager.queueDequeues.Inc() }
func RecordQueueReject()               { defaultManager.queueRejects.Inc() }
func UpdateWorkerCount(n int)          { defaultManager.workerCount.Set(float64(n)) }
func RecordWorkerError()               { defaultManager.workerErrors.Inc() }
func RecordWorkerLatency(ms float64)   { defaultManager.workerLatency.Observe(ms) }

// HTTP recorders.
func RecordHTTPRequest(endpoint, method, status string) {
	defaultManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	defaultManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// Process health updaters.
func UpdateSystemMemoryUsage(alloc uint64) { defaultManager.systemMemory.Set(float64(alloc)) }
func UpdateSystemGoroutineCount(n int)     { defaultManager.systemGoroutines.Set(float64(n)) }

// RecordErrorByComponent attributes an error to a component and reason.
func RecordErrorByComponent(component, reason string) {
	defaultManager.errorsByComponent.WithLabelValues(component, reason).Inc()
}
