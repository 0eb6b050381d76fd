package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit emission and the audit trail
// projection.
type Metrics struct {
	// Publisher side
	EventsEmitted   *prometheus.CounterVec
	EmitDuration    prometheus.Histogram
	PersistFailures prometheus.Counter
	QueueDepth      prometheus.Gauge
	EventsDropped   prometheus.Counter

	// Projection side
	EventsProjected    *prometheus.CounterVec
	ProjectionFailures prometheus.Counter
	MessagesSkipped    prometheus.Counter
}

// New registers the audit metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the audit metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ibanmanager_audit_events_emitted_total",
			Help: "Audit events handed to the audit store, labeled by action",
		}, []string{"action"}),
		EmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ibanmanager_audit_emit_duration_seconds",
			Help:    "Time taken to emit an audit event (enqueue or sync write)",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ibanmanager_audit_persist_failures_total",
			Help: "Total number of audit event persistence failures",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "ibanmanager_audit_queue_depth",
			Help: "Current number of events in the async audit buffer",
		}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "ibanmanager_audit_events_dropped_total",
			Help: "Total number of audit events dropped due to a full buffer",
		}),
		EventsProjected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ibanmanager_audit_events_projected_total",
			Help: "Audit events written to the audit trail, labeled by action",
		}, []string{"action"}),
		ProjectionFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ibanmanager_audit_projection_failures_total",
			Help: "Audit trail writes that failed and will be redelivered",
		}),
		MessagesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "ibanmanager_audit_messages_skipped_total",
			Help: "Malformed audit messages skipped by the projection",
		}),
	}
}

func (m *Metrics) ObserveEmit(action string, start time.Time) {
	m.EventsEmitted.WithLabelValues(action).Inc()
	m.EmitDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

func (m *Metrics) IncQueueDepth() {
	m.QueueDepth.Inc()
}

func (m *Metrics) DecQueueDepth() {
	m.QueueDepth.Dec()
}

func (m *Metrics) IncEventsDropped() {
	m.EventsDropped.Inc()
}

func (m *Metrics) IncProjected(action string) {
	m.EventsProjected.WithLabelValues(action).Inc()
}

func (m *Metrics) IncProjectionFailures() {
	m.ProjectionFailures.Inc()
}

func (m *Metrics) IncSkipped() {
	m.MessagesSkipped.Inc()
}
