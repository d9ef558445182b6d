package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics records chat turn and recommender call outcomes.
type ChatMetrics struct {
	turns              *prometheus.CounterVec
	recommenderCalls   *prometheus.CounterVec
	recommenderLatency prometheus.Histogram
}

// NewChatMetrics registers the chat metrics on the provided registerer.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	if reg == nil {
		return &ChatMetrics{}
	}
	turns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_turns_total",
		Help: "Processed chat turns by detected intent.",
	}, []string{"intent"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_calls_total",
		Help: "Recommender gateway calls by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_call_seconds",
		Help:    "Latency of recommender gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(turns, calls, latency)
	return &ChatMetrics{
		turns:              turns,
		recommenderCalls:   calls,
		recommenderLatency: latency,
	}
}

// IncTurn increments the chat turn counter for the detected intent.
func (c *ChatMetrics) IncTurn(intent string) {
	if c == nil || c.turns == nil {
		return
	}
	c.turns.WithLabelValues(normalizeLabel(intent)).Inc()
}

// ObserveRecommender records a gateway call outcome and its duration.
func (c *ChatMetrics) ObserveRecommender(outcome string, duration time.Duration) {
	if c == nil || c.recommenderCalls == nil {
		return
	}
	c.recommenderCalls.WithLabelValues(normalizeLabel(outcome)).Inc()
	c.recommenderLatency.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
