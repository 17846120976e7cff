package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for dialogue turns.
type ConversationMetrics struct {
	turnsTotal          *prometheus.CounterVec
	extractionRecovered prometheus.Counter
	turnLatency         prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total processed dialogue turns",
		}, []string{"intent", "outcome"}),
		extractionRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation",
			Name:      "extraction_recovered_total",
			Help:      "Extractor outputs salvaged from malformed JSON",
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agent",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of end-to-end turn processing",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.extractionRecovered, m.turnLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(intent, outcome string, seconds float64) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	if outcome == "" {
		outcome = "none"
	}
	m.turnsTotal.WithLabelValues(intent, outcome).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveExtractionRecovered() {
	if m == nil {
		return
	}
	m.extractionRecovered.Inc()
}
