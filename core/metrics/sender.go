package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(senderJobs, senderQueueDepth) }

var (
	senderJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sender_jobs_total",
			Help:      "Outbound dispatcher jobs by action and final status.",
		},
		[]string{"action", "status"},
	)

	senderQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sender_queue_depth",
			Help:      "Jobs waiting in the outbound dispatcher queue.",
		},
	)
)

func IncSenderJob(action, status string) {
	senderJobs.WithLabelValues(norm(action), norm(status)).Inc()
}

func SetSenderQueueDepth(n int) {
	senderQueueDepth.Set(float64(n))
}
