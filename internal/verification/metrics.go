package verification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JaimeStill/assent/internal/evaluation"
)

// Metrics records verification outcomes and latency.
type Metrics struct {
	decisions *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the verification collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assent_verify_decisions_total",
				Help: "Total number of verification decisions by overall status",
			},
			[]string{"status"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assent_verify_duration_seconds",
				Help:    "Verification latency in seconds, including failed verifications",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}
}

func (m *Metrics) observe(start time.Time, decision *evaluation.Decision) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(start).Seconds())
	if decision != nil {
		m.decisions.WithLabelValues(string(decision.OverallStatus)).Inc()
	}
}
