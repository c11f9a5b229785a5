// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront_payments"

// Delivery outcomes recorded per inbound webhook.
const (
	OutcomeProcessed   = "processed"
	OutcomeEmpty       = "empty"
	OutcomeMalformed   = "malformed"
	OutcomeUnverified  = "unverified"
	OutcomeNotFound    = "not_found"
	OutcomeUnsupported = "unsupported"
	OutcomeConflict    = "conflict"
	OutcomeError       = "error"
)

// Metrics holds every collector the service updates.
type Metrics struct {
	webhookDeliveries    *prometheus.CounterVec
	verificationDuration *prometheus.HistogramVec
	transitions          *prometheus.CounterVec
	commitConflicts      prometheus.Counter
	outboxPublished      prometheus.Counter
	outboxFailures       prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		webhookDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
		verificationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "verification_duration_seconds",
			Help:      "Latency of remote signature verification.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"result"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "transitions_total",
			Help:      "Reconciler results by event type, resource status, and outcome.",
		}, []string{"event_type", "status", "outcome"}),
		commitConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "commit_conflicts_total",
			Help:      "Optimistic concurrency conflicts while committing an order.",
		}),
		outboxPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox messages published to the broker.",
		}),
		outboxFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "relay_failures_total",
			Help:      "Relay batches that failed and were rolled back.",
		}),
	}
}

// WebhookDelivery counts one delivery with its outcome.
func (m *Metrics) WebhookDelivery(outcome string) {
	m.webhookDeliveries.WithLabelValues(outcome).Inc()
}

// Verification records how long a verification call took.
func (m *Metrics) Verification(d time.Duration, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.verificationDuration.WithLabelValues(result).Observe(d.Seconds())
}

// Transition counts one reconciler decision.
func (m *Metrics) Transition(eventType, status, outcome string) {
	m.transitions.WithLabelValues(eventType, status, outcome).Inc()
}

// CommitConflict counts one lost optimistic update.
func (m *Metrics) CommitConflict() {
	m.commitConflicts.Inc()
}

// OutboxPublished counts n relayed messages.
func (m *Metrics) OutboxPublished(n int) {
	m.outboxPublished.Add(float64(n))
}

// OutboxFailure counts one failed relay batch.
func (m *Metrics) OutboxFailure() {
	m.outboxFailures.Inc()
}
