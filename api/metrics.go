package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeRecorded      = "recorded"
	outcomeFiltered      = "filtered"
	outcomeNotMonitoring = "not_monitoring"
)

type metrics struct {
	schemas   *prometheus.CounterVec
	exchanges *prometheus.CounterVec
	analyzed  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		schemas: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shapecast_schemas_generated_total",
			Help: "Schemas rendered, by dialect.",
		}, []string{"dialect"}),
		exchanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shapecast_exchanges_recorded_total",
			Help: "Exchanges submitted to the capture store, by outcome.",
		}, []string{"outcome"}),
		analyzed: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "shapecast_analyzed_values",
			Help:    "Values structurally analyzed per generated schema.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *metrics) generated(dialect string, visited int) {
	m.schemas.WithLabelValues(dialect).Inc()
	m.analyzed.Observe(float64(visited))
}
