package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatches_total",
			Help: "Total number of end-to-end dispatches by outcome",
		},
		[]string{"outcome"},
	)
	FallbackAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_attempts_total",
			Help: "Total number of fallback hops by result",
		},
		[]string{"result"},
	)

	MessagesHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_handled_total",
			Help: "Total number of handled mentions by kind",
		},
		[]string{"kind"},
	)
)

// InitMetrics registers all Prometheus collectors once per process.
func InitMetrics() {
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(DispatchesTotal)
	prometheus.MustRegister(FallbackAttemptsTotal)
	prometheus.MustRegister(MessagesHandledTotal)
}
