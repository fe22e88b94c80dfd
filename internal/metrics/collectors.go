package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nutrision/internal/shared"
)

const namespace = "nutrision"

// Collectors groups the Prometheus metrics of the planner.
type Collectors struct {
	planRequests         *prometheus.CounterVec
	generationLatency    prometheus.Histogram
	tokensUsed           *prometheus.CounterVec
	shoppingAggregations *prometheus.CounterVec
}

// NewCollectors registers the collectors on reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		planRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "plans_total",
				Help:      "Weekly plans served, by origin.",
			},
			[]string{"origin"},
		),
		generationLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "generation_duration_seconds",
				Help:      "Latency of AI plan generations, successful or not.",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80},
			},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "tokens_total",
				Help:      "LLM tokens consumed, by agent and kind.",
			},
			[]string{"agent", "kind"},
		),
		shoppingAggregations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "shopping",
				Name:      "aggregations_total",
				Help:      "Shopping lists computed, by diet mode.",
			},
			[]string{"diet"},
		),
	}
}

// ObservePlan counts a served plan and, when an LLM was called, its latency
// and token usage.
func (c *Collectors) ObservePlan(origin string, meta shared.AgentMeta) {
	c.planRequests.WithLabelValues(origin).Inc()
	if meta.Latency > 0 {
		c.generationLatency.Observe(meta.Latency.Seconds())
	}
	c.ObserveTokens(meta)
}

// ObserveTokens adds the token usage of meta.
func (c *Collectors) ObserveTokens(meta shared.AgentMeta) {
	if meta.Usage.PromptTokens > 0 {
		c.tokensUsed.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	}
	if meta.Usage.CompletionTokens > 0 {
		c.tokensUsed.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	}
}

// ObserveShopping counts a computed shopping list.
func (c *Collectors) ObserveShopping(diet string) {
	c.shoppingAggregations.WithLabelValues(diet).Inc()
}
