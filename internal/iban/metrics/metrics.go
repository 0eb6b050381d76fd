package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	IBANsAllocated     *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	AllocationDuration prometheus.Histogram
}

// New registers the IBAN metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the IBAN metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IBANsAllocated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ibanmanager_ibans_allocated_total",
			Help: "Total number of IBANs allocated, labeled by country",
		}, []string{"country"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ibanmanager_iban_status_transitions_total",
			Help: "Total number of IBAN lifecycle transitions",
		}, []string{"from", "to"}),
		AllocationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ibanmanager_iban_allocation_duration_seconds",
			Help:    "Duration of IBAN allocation including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementAllocated(country string) {
	m.IBANsAllocated.WithLabelValues(country).Inc()
}

func (m *Metrics) IncrementTransition(from, to string) {
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveAllocation(start time.Time) {
	m.AllocationDuration.Observe(time.Since(start).Seconds())
}
