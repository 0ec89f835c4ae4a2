// Package observability defines the Prometheus metrics exported by the
// calibration service on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "calibration"

// Metrics groups every collector the service records to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	InstrumentsCreatedTotal prometheus.Counter
	InstrumentsDeletedTotal prometheus.Counter
	CyclesCompletedTotal    *prometheus.CounterVec
	StatusChangesTotal      *prometheus.CounterVec
	OperationErrorsTotal    *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Panics on duplicate registration, like promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InstrumentsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "instruments_created_total",
			Help:      "Total number of instruments added to the registry",
		}),
		InstrumentsDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "instruments_deleted_total",
			Help:      "Total number of instruments purged together with their history",
		}),
		CyclesCompletedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "workflow",
			Name:      "cycles_completed_total",
			Help:      "Total number of completed calibration cycles by frequency",
		}, []string{"frequency"}),
		StatusChangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "status_changes_total",
			Help:      "Total number of instrument status changes by new status",
		}, []string{"status"}),
		OperationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "operation_errors_total",
			Help:      "Total failed engine operations by operation and error kind",
		}, []string{"operation", "kind"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
	}
}

// InstrumentCreated records a registry insert.
func (m *Metrics) InstrumentCreated() {
	if m == nil {
		return
	}
	m.InstrumentsCreatedTotal.Inc()
}

// InstrumentDeleted records a purge.
func (m *Metrics) InstrumentDeleted() {
	if m == nil {
		return
	}
	m.InstrumentsDeletedTotal.Inc()
}

// CycleCompleted records a completed calibration cycle.
func (m *Metrics) CycleCompleted(frequency string) {
	if m == nil {
		return
	}
	m.CyclesCompletedTotal.WithLabelValues(frequency).Inc()
}

// StatusChanged records an InUse/Obsolete toggle.
func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.StatusChangesTotal.WithLabelValues(status).Inc()
}

// OperationFailed records a failed engine operation.
func (m *Metrics) OperationFailed(operation, kind string) {
	if m == nil {
		return
	}
	m.OperationErrorsTotal.WithLabelValues(operation, kind).Inc()
}
