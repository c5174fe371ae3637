package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xdecor",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by service type.",
		},
		[]string{"service_type"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xdecor",
			Name:      "booking_status_transition_total",
			Help:      "Count of booking status changes by target status.",
		},
		[]string{"to"},
	)

	assignment = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xdecor",
			Name:      "decorator_assignment_total",
			Help:      "Count of decorator assignment outcomes.",
		},
		[]string{"result"},
	)

	checkoutInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "xdecor",
			Name:      "checkout_initiated_total",
			Help:      "Count of checkout sessions opened with the payment gateway.",
		},
	)

	paymentFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xdecor",
			Name:      "payment_finalized_total",
			Help:      "Count of checkout finalizations by result.",
		},
		[]string{"result"},
	)

	decoratorDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xdecor",
			Name:      "decorator_decision_total",
			Help:      "Count of admin decisions over decorator applications.",
		},
		[]string{"decision"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated,
			bookingTransition,
			assignment,
			checkoutInitiated,
			paymentFinalized,
			decoratorDecision,
		)
	})
}

func IncBookingCreated(serviceType string) {
	bookingCreated.WithLabelValues(serviceType).Inc()
}

func IncBookingTransition(to string) {
	bookingTransition.WithLabelValues(to).Inc()
}

// IncAssignment records "assigned", "unassigned" or "conflict"
func IncAssignment(result string) {
	assignment.WithLabelValues(result).Inc()
}

func IncCheckoutInitiated() {
	checkoutInitiated.Inc()
}

// IncPaymentFinalized records "recorded" or "duplicate"
func IncPaymentFinalized(result string) {
	paymentFinalized.WithLabelValues(result).Inc()
}

func IncDecoratorDecision(decision string) {
	decoratorDecision.WithLabelValues(decision).Inc()
}
