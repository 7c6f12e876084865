// Package monitoring exposes Prometheus metrics and in-process counters for
// the chat pipeline.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes for collaborator calls
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector owns a private registry so tests can create as many as they like.
// A nil *Collector ignores every observation.
type Collector struct {
	registry *prometheus.Registry

	messages      *prometheus.CounterVec
	intents       *prometheus.CounterVec
	collaborators *prometheus.HistogramVec
	degraded      *prometheus.CounterVec
	escalations   *prometheus.CounterVec
	feedback      *prometheus.CounterVec
	retrieval     prometheus.Histogram
}

// NewCollector creates and registers every metric
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_messages_total",
				Help: "Chat messages handled, by responding agent",
			},
			[]string{"agent"},
		),
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_intent_decisions_total",
				Help: "Intent classifications, by label and rule family",
			},
			[]string{"label", "family"},
		),
		collaborators: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "maitred_collaborator_duration_seconds",
				Help:    "Latency of calls to external collaborators",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"collaborator", "outcome"},
		),
		degraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_degraded_replies_total",
				Help: "Templated replies sent because a collaborator failed",
			},
			[]string{"agent"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_kitchen_escalations_total",
				Help: "Kitchen requests created, by type",
			},
			[]string{"type"},
		),
		feedback: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_feedback_total",
				Help: "Feedback analysed, by sentiment and analysis source",
			},
			[]string{"sentiment", "source"},
		),
		retrieval: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "maitred_retrieval_results",
				Help:    "Number of meals returned per retrieval",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
		),
	}

	registry.MustRegister(c.messages, c.intents, c.collaborators, c.degraded, c.escalations, c.feedback, c.retrieval)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveMessage(agent string) {
	if c == nil {
		return
	}
	c.messages.WithLabelValues(agent).Inc()
}

func (c *Collector) ObserveIntent(label, family string) {
	if c == nil {
		return
	}
	c.intents.WithLabelValues(label, family).Inc()
}

// ObserveCollaborator records a call's latency under success or error.
func (c *Collector) ObserveCollaborator(name string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	c.collaborators.WithLabelValues(name, outcome).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveDegraded(agent string) {
	if c == nil {
		return
	}
	c.degraded.WithLabelValues(agent).Inc()
}

func (c *Collector) ObserveEscalation(requestType string) {
	if c == nil {
		return
	}
	c.escalations.WithLabelValues(requestType).Inc()
}

func (c *Collector) ObserveFeedback(sentiment, source string) {
	if c == nil {
		return
	}
	c.feedback.WithLabelValues(sentiment, source).Inc()
}

func (c *Collector) ObserveRetrieval(results int) {
	if c == nil {
		return
	}
	c.retrieval.Observe(float64(results))
}
