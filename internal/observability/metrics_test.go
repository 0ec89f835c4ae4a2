package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.InstrumentCreated()
	m.InstrumentCreated()
	m.InstrumentDeleted()
	m.CycleCompleted("Monthly")
	m.StatusChanged("Obsolete")
	m.OperationFailed("create", "DuplicateInstrument")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InstrumentsCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InstrumentsDeletedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesCompletedTotal.WithLabelValues("Monthly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChangesTotal.WithLabelValues("Obsolete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationErrorsTotal.WithLabelValues("create", "DuplicateInstrument")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.InstrumentCreated()
		m.InstrumentDeleted()
		m.CycleCompleted("Yearly")
		m.StatusChanged("InUse")
		m.OperationFailed("update", "NotFound")
	})
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
