package reasoning

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes recorded on assent_reasoning_calls_total.
const (
	OutcomeOK          = "ok"
	OutcomeParseError  = "parse_error"
	OutcomeThrottled   = "throttled"
	OutcomeTimeout     = "timeout"
	OutcomeUnavailable = "unavailable"
)

// Metrics counts reasoning backend calls by outcome.
type Metrics struct {
	calls *prometheus.CounterVec
}

// NewMetrics registers the reasoning collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		calls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "assent_reasoning_calls_total",
				Help: "Total number of free-text evaluations by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) record(outcome string) {
	if m != nil {
		m.calls.WithLabelValues(outcome).Inc()
	}
}
