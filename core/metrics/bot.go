package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		handledTotal,
		repliesTotal,
		rateLimitedTotal,
		fsmTransitions,
		webhookRequests,
	)
}

var (
	handledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_updates_total",
			Help:      "Updates handled by the bot runtime by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	repliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_replies_total",
			Help:      "Outbound messages produced by handlers.",
		},
		[]string{"kind"}, // text, keyboard, answer
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Updates dropped by the per-user rate limiter.",
		},
	)

	fsmTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fsm_transitions_total",
			Help:      "Conversation state transitions.",
		},
		[]string{"from", "to"},
	)

	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Inbound webhook deliveries by HTTP status returned.",
		},
		[]string{"status"},
	)
)

func IncHandled(kind, outcome string) {
	handledTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

func AddReplies(kind string, n int) {
	if n <= 0 {
		return
	}
	repliesTotal.WithLabelValues(norm(kind)).Add(float64(n))
}

func IncRateLimited() {
	rateLimitedTotal.Inc()
}

func IncTransition(from, to string) {
	fsmTransitions.WithLabelValues(norm(from), norm(to)).Inc()
}

func IncWebhook(status string) {
	webhookRequests.WithLabelValues(norm(status)).Inc()
}
