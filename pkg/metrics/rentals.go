package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RentalMetrics records lifecycle activity for rentals and inventory.
type RentalMetrics struct {
	transitions          *prometheus.CounterVec
	transitionDuration   *prometheus.HistogramVec
	reservationConflicts prometheus.Counter
	openAlerts           prometheus.Gauge
}

// NewRentalMetrics registers the rental metrics on the provided registerer.
func NewRentalMetrics(reg prometheus.Registerer) *RentalMetrics {
	if reg == nil {
		return &RentalMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_transitions_total",
		Help: "Rental state transitions by from/to status.",
	}, []string{"from", "to"})
	transitionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_transition_duration_seconds",
		Help:    "Duration of rental transition units of work in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"to"})
	reservationConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_reservation_conflicts_total",
		Help: "Reservations rejected for insufficient availability.",
	})
	openAlerts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_open_alerts",
		Help: "Inventory alerts currently open.",
	})
	reg.MustRegister(transitions, transitionDuration, reservationConflicts, openAlerts)
	return &RentalMetrics{
		transitions:          transitions,
		transitionDuration:   transitionDuration,
		reservationConflicts: reservationConflicts,
		openAlerts:           openAlerts,
	}
}

// ObserveTransition records a completed transition and its duration.
func (m *RentalMetrics) ObserveTransition(from, to string, duration time.Duration) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
	m.transitionDuration.WithLabelValues(normalizeLabel(to)).Observe(duration.Seconds())
}

// IncReservationConflict counts a rejected reservation.
func (m *RentalMetrics) IncReservationConflict() {
	if m == nil || m.reservationConflicts == nil {
		return
	}
	m.reservationConflicts.Inc()
}

// SetOpenAlerts tracks how many inventory alerts remain open.
func (m *RentalMetrics) SetOpenAlerts(count int) {
	if m == nil || m.openAlerts == nil {
		return
	}
	m.openAlerts.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
