package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(apiRequestsTotal, apiRequestDuration) }

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "MAX API calls by operation and HTTP status (0 = transport error).",
		},
		[]string{"op", "code"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "MAX API call latency. Long-poll fetches are included under op=getUpdates.",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"op"},
	)
)

// ObserveAPICall records one REST call.
func ObserveAPICall(op string, status int, took time.Duration) {
	apiRequestsTotal.WithLabelValues(norm(op), strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(norm(op)).Observe(took.Seconds())
}
