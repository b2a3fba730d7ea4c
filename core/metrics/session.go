package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sweepRemoved, sweepRuns) }

var (
	sweepRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_sweep_removed_total",
			Help:      "Entries removed by the idle sweep.",
		},
		[]string{"kind"}, // session, callback
	)

	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_sweep_runs_total",
			Help:      "Sweep iterations by result.",
		},
		[]string{"result"},
	)
)

func ObserveSweep(sessions, callbacks int, err error) {
	sweepRemoved.WithLabelValues("session").Add(float64(sessions))
	sweepRemoved.WithLabelValues("callback").Add(float64(callbacks))
	if err != nil {
		sweepRuns.WithLabelValues("error").Inc()
		return
	}
	sweepRuns.WithLabelValues("ok").Inc()
}
