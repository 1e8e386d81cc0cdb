package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bungalow",
			Name:      "booking_created_total",
			Help:      "Count of booking groups created by status.",
		},
		[]string{"status"},
	)

	validationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bungalow",
			Name:      "validation_rejected_total",
			Help:      "Count of candidate requests rejected by the validator, by reason code.",
		},
		[]string{"code"},
	)

	adminDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bungalow",
			Name:      "admin_decision_total",
			Help:      "Count of admin decisions over booking groups.",
		},
		[]string{"decision"},
	)

	paymentProofs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bungalow",
			Name:      "payment_proofs_total",
			Help:      "Count of payment proofs attached to booking groups.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bungalow",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, validationRejected, adminDecision, paymentProofs, httpRequests)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncValidationRejected(code string) {
	validationRejected.WithLabelValues(code).Inc()
}

func IncAdminDecision(decision string) {
	adminDecision.WithLabelValues(decision).Inc()
}

func IncPaymentProof() {
	paymentProofs.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
