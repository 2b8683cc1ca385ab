package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Consumer outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
	OutcomeDropped   = "dropped"
)

// ConsumerMetrics records worker message handling per consumer.
type ConsumerMetrics struct {
	handled  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewConsumerMetrics registers the worker metrics on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	handled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_total",
		Help: "Messages handled by worker consumers, by outcome.",
	}, []string{"consumer", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consumer_handle_duration_seconds",
		Help:    "Time spent handling one message.",
		Buckets: prometheus.DefBuckets,
	}, []string{"consumer"})
	reg.MustRegister(handled, duration)
	return &ConsumerMetrics{handled: handled, duration: duration}
}

// Observe records one handled message.
func (m *ConsumerMetrics) Observe(consumer, outcome string, took time.Duration) {
	if m == nil || m.handled == nil {
		return
	}
	consumer = normalizeLabel(consumer)
	m.handled.WithLabelValues(consumer, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(consumer).Observe(took.Seconds())
}
