package usage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "soclover"

// Metrics exports accountant records as prometheus counters.
type Metrics struct {
	Calls  *prometheus.CounterVec
	Tokens *prometheus.CounterVec
}

// NewMetrics registers the usage counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "calls_total",
				Help:      "Total number of memoized calls by model and cache outcome",
			},
			[]string{"model", "outcome"},
		),
		Tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "tokens_total",
				Help:      "Total number of tokens by model, cache outcome and direction",
			},
			[]string{"model", "outcome", "direction"},
		),
	}
}

func outcome(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func (m *Metrics) observe(model string, hit bool, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	o := outcome(hit)
	m.Calls.WithLabelValues(model, o).Inc()
	m.Tokens.WithLabelValues(model, o, "input").Add(float64(inputTokens))
	m.Tokens.WithLabelValues(model, o, "output").Add(float64(outputTokens))
}
