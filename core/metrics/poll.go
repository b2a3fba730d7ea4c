package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		pollFetchTotal,
		pollUpdatesTotal,
		pollHandlerErrors,
		pollBackoffSeconds,
	)
}

var (
	pollFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_fetch_total",
			Help:      "Long-poll fetch attempts by result.",
		},
		[]string{"result"}, // ok, error
	)

	pollUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_updates_total",
			Help:      "Updates dispatched to handlers by update_type.",
		},
		[]string{"update_type"},
	)

	pollHandlerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_handler_errors_total",
			Help:      "Updates whose handler returned an error or panicked.",
		},
		[]string{"update_type"},
	)

	pollBackoffSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_backoff_seconds",
			Help:      "Current backoff delay of the poll loop; 0 when healthy.",
		},
	)
)

func IncPollFetch(ok bool) {
	if ok {
		pollFetchTotal.WithLabelValues("ok").Inc()
		return
	}
	pollFetchTotal.WithLabelValues("error").Inc()
}

func IncPollUpdate(updateType string) {
	pollUpdatesTotal.WithLabelValues(norm(updateType)).Inc()
}

func IncPollHandlerError(updateType string) {
	pollHandlerErrors.WithLabelValues(norm(updateType)).Inc()
}

func SetPollBackoff(d time.Duration) {
	pollBackoffSeconds.Set(d.Seconds())
}
