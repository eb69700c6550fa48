package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_webhook_events_total",
			Help: "Webhook events by source and processing outcome",
		},
		[]string{"source", "outcome"},
	)

	CheckoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_checkout_sessions_total",
			Help: "Checkout session creation attempts by result",
		},
		[]string{"result"},
	)

	SweeperRepairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_sweeper_repairs_total",
			Help: "Stale pending purchases repaired by the reconciliation sweep",
		},
		[]string{"result"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func Register() {
	prometheus.MustRegister(WebhookEvents, CheckoutSessions, SweeperRepairs, RequestDuration)
}
