package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRentalMetricsRecordsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRentalMetrics(reg)

	m.ObserveTransition("requested", "approved", 25*time.Millisecond)
	m.ObserveTransition("requested", "approved", 10*time.Millisecond)
	m.ObserveTransition("approved", "pickup_scheduled", 5*time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(m.transitions.WithLabelValues("requested", "approved")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("approved", "pickup_scheduled")))
}

func TestRentalMetricsNilSafe(t *testing.T) {
	var m *RentalMetrics
	m.ObserveTransition("requested", "approved", time.Millisecond)
	m.IncReservationConflict()
	m.SetOpenAlerts(3)

	empty := NewRentalMetrics(nil)
	empty.ObserveTransition("", "", 0)
	empty.IncReservationConflict()
	empty.SetOpenAlerts(1)
}

func TestRentalMetricsGaugeAndConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRentalMetrics(reg)

	m.IncReservationConflict()
	m.IncReservationConflict()
	m.SetOpenAlerts(4)

	require.Equal(t, float64(2), testutil.ToFloat64(m.reservationConflicts))
	require.Equal(t, float64(4), testutil.ToFloat64(m.openAlerts))
}
