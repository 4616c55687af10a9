package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the reservation and cancellation flows.
type BookingMetrics struct {
	reservationsTotal  *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	cascadeCancelled   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "bookings",
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome",
		}, []string{"outcome"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "bookings",
			Name:      "cancellations_total",
			Help:      "Cancellations by source",
		}, []string{"source"}),
		cascadeCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "bookings",
			Name:      "cascade_cancelled_total",
			Help:      "Appointments cancelled by suspension cascades",
		}, []string{"party"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsTotal, m.cancellationsTotal, m.cascadeCancelled)
	return m
}

func (m *BookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCancellation(source string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(source).Inc()
}

func (m *BookingMetrics) ObserveCascade(party string, cancelled int) {
	if m == nil {
		return
	}
	m.cascadeCancelled.WithLabelValues(party).Add(float64(cancelled))
}

// PaymentMetrics exposes counters for the settlement flow.
type PaymentMetrics struct {
	ordersTotal        *prometheus.CounterVec
	verificationsTotal *prometheus.CounterVec
	reconciliations    prometheus.Counter
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	m := &PaymentMetrics{
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "payments",
			Name:      "orders_total",
			Help:      "Payment orders created by outcome",
		}, []string{"outcome"}),
		verificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "payments",
			Name:      "verifications_total",
			Help:      "Gateway callback verifications by outcome",
		}, []string{"outcome"}),
		reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "payments",
			Name:      "reconciliation_flagged_total",
			Help:      "Verified payments flagged for manual reconciliation",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.ordersTotal, m.verificationsTotal, m.reconciliations)
	return m
}

func (m *PaymentMetrics) ObserveOrder(outcome string) {
	if m == nil {
		return
	}
	m.ordersTotal.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.verificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) ObserveReconciliation() {
	if m == nil {
		return
	}
	m.reconciliations.Inc()
}
