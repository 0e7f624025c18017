package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yaksok_runs_total",
			Help: "Programs executed by the playground, by status",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yaksok_run_failures_total",
			Help: "Failed program runs by error kind",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "yaksok_run_duration_seconds",
			Help:    "Program run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runs, m.failures, m.duration)
	return m
}

func (m *metrics) observe(status, kind string, elapsed time.Duration) {
	m.runs.WithLabelValues(status).Inc()
	if status != "ok" {
		if kind == "" {
			kind = "unknown"
		}
		m.failures.WithLabelValues(kind).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}
