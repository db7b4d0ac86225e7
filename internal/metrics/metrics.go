package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SweepMetrics tracks the reconciliation sweeps. Labels carry the sweep
// name (unpaid-timeout, stale-delivery).
type SweepMetrics struct {
	Runs        *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealmart",
		Subsystem: "reconciler",
		Name:      "sweep_runs_total",
		Help:      "Number of sweep invocations.",
	}, []string{"sweep"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealmart",
		Subsystem: "reconciler",
		Name:      "sweep_transitions_total",
		Help:      "Orders forced into a terminal state by a sweep.",
	}, []string{"sweep"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealmart",
		Subsystem: "reconciler",
		Name:      "sweep_failures_total",
		Help:      "Per-order transition failures during a sweep.",
	}, []string{"sweep"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mealmart",
		Subsystem: "reconciler",
		Name:      "sweep_duration_seconds",
		Help:      "Wall time of one sweep invocation.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"sweep"})

	reg.MustRegister(runs, transitions, failures, duration)
	return &SweepMetrics{Runs: runs, Transitions: transitions, Failures: failures, Duration: duration}
}

// ObserveRun records one sweep invocation.
func (m *SweepMetrics) ObserveRun(sweep string, started time.Time, transitions, failures int) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(sweep).Inc()
	m.Transitions.WithLabelValues(sweep).Add(float64(transitions))
	m.Failures.WithLabelValues(sweep).Add(float64(failures))
	m.Duration.WithLabelValues(sweep).Observe(time.Since(started).Seconds())
}

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
