package server

import "github.com/prometheus/client_golang/prometheus"

// metrics live on a per-server registry so tests can spin up several servers
// in one process without registration collisions.
type metrics struct {
	registry  *prometheus.Registry
	generated *prometheus.CounterVec
	stageTime *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		generated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "presentify_generate_requests_total",
				Help: "Generation requests by outline source and result.",
			},
			[]string{"source", "result"},
		),
		stageTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "presentify_stage_duration_seconds",
				Help: "Duration of the generation pipeline stages.",
			},
			[]string{"stage"},
		),
	}
	m.registry.MustRegister(m.generated, m.stageTime)
	return m
}
