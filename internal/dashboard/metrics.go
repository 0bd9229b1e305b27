package dashboard

import (
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated on every sample
type Metrics struct {
	Sessions *prometheus.GaugeVec
	Stuck    prometheus.Gauge
	Samples  prometheus.Counter
}

// NewMetrics registers the dashboard collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Sessions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aim_sessions",
				Help: "Number of non-archived sessions by status",
			},
			[]string{"status"},
		),
		Stuck: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aim_stuck_sessions",
				Help: "Number of sessions waiting for input longer than the stuck threshold",
			},
		),
		Samples: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "aim_metric_samples_total",
				Help: "Total number of dashboard samples taken",
			},
		),
	}
}

func (m *Metrics) observe(counts map[domain.Status]int, stuck int) {
	for _, s := range domain.Statuses {
		m.Sessions.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
	m.Stuck.Set(float64(stuck))
	m.Samples.Inc()
}
