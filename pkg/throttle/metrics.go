package throttle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for guard activity.
type Metrics struct {
	checks  *prometheus.CounterVec
	swept   prometheus.Counter
	windows prometheus.Gauge
}

// NewMetrics registers the guard collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assent_throttle_checks_total",
				Help: "Total number of throttle checks by key prefix and result",
			},
			[]string{"prefix", "result"},
		),
		swept: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "assent_throttle_windows_reclaimed_total",
				Help: "Total number of expired throttle windows removed by the sweep",
			},
		),
		windows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "assent_throttle_windows",
				Help: "Number of throttle windows tracked after the last sweep",
			},
		),
	}
}

// RecordCheck records the outcome of a single check.
func (m *Metrics) RecordCheck(prefix string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "blocked"
	}
	m.checks.WithLabelValues(prefix, result).Inc()
}

// RecordSweep records a sweep that removed n windows, leaving remaining tracked.
func (m *Metrics) RecordSweep(n, remaining int) {
	m.swept.Add(float64(n))
	m.windows.Set(float64(remaining))
}
