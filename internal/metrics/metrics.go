package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "styledecor"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "code"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC calls by method and status code.",
		},
		[]string{"method", "code"},
	)

	reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconciliations_total",
			Help:      "Payment reconciliations by outcome (created, duplicate, unpaid).",
		},
		[]string{"outcome"},
	)

	claims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_claims_total",
			Help:      "Decorator claim attempts by outcome.",
		},
		[]string{"outcome"},
	)

	stageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_stage_transitions_total",
			Help:      "Booking stage transitions by target stage.",
		},
		[]string{"stage"},
	)

	decoratorReleases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decorator_releases_total",
			Help:      "Decorators returned to open after completing a booking.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, grpcRequests, reconciliations, claims, stageTransitions, decoratorReleases)
	})
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

func IncReconciliation(outcome string) {
	reconciliations.WithLabelValues(outcome).Inc()
}

func IncClaim(outcome string) {
	claims.WithLabelValues(outcome).Inc()
}

func IncStage(stage string) {
	stageTransitions.WithLabelValues(stage).Inc()
}

func IncDecoratorRelease() {
	decoratorReleases.Inc()
}
