// Package metrics exposes Prometheus counters for the ingest pipeline and
// the websocket fan-out.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ignore reasons recorded on dropped feed messages.
const (
	IgnoreReasonChannel   = "wrong_channel"
	IgnoreReasonStructure = "no_structured_payload"
	IgnoreReasonInvalid   = "invalid_message"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	// Ingest metrics
	MessagesTotal        prometheus.Counter
	MessagesIgnoredTotal *prometheus.CounterVec
	RecordsMergedTotal   prometheus.Counter

	// Store metrics
	RecordsEvictedTotal prometheus.Counter

	// Fan-out metrics
	BroadcastsTotal        prometheus.Counter
	BroadcastFailuresTotal prometheus.Counter
	SubscribersActive      prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		MessagesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hatchwatch_feed_messages_total",
				Help: "Total number of feed messages received",
			},
		),
		MessagesIgnoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hatchwatch_feed_messages_ignored_total",
				Help: "Total number of feed messages dropped before extraction",
			},
			[]string{"reason"},
		),
		RecordsMergedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hatchwatch_records_merged_total",
				Help: "Total number of sightings merged into the record store",
			},
		),

		RecordsEvictedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hatchwatch_records_evicted_total",
				Help: "Total number of records evicted after the retention window",
			},
		),

		BroadcastsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hatchwatch_broadcasts_total",
				Help: "Total number of record pushes delivered to subscribers",
			},
		),
		BroadcastFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hatchwatch_broadcast_failures_total",
				Help: "Total number of subscriber writes that failed",
			},
		),
		SubscribersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hatchwatch_subscribers_active",
				Help: "Number of currently attached websocket subscribers",
			},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.MessagesTotal)
	m.registry.MustRegister(m.MessagesIgnoredTotal)
	m.registry.MustRegister(m.RecordsMergedTotal)
	m.registry.MustRegister(m.RecordsEvictedTotal)
	m.registry.MustRegister(m.BroadcastsTotal)
	m.registry.MustRegister(m.BroadcastFailuresTotal)
	m.registry.MustRegister(m.SubscribersActive)
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MessageReceived counts one feed message handed to the ingest pipeline.
func (m *Metrics) MessageReceived() {
	m.MessagesTotal.Inc()
}

// MessageIgnored counts one feed message dropped before extraction.
func (m *Metrics) MessageIgnored(reason string) {
	m.MessagesIgnoredTotal.WithLabelValues(reason).Inc()
}

// RecordMerged counts one sighting merged into the store.
func (m *Metrics) RecordMerged() {
	m.RecordsMergedTotal.Inc()
}

// RecordsEvicted counts records removed by a sweep.
func (m *Metrics) RecordsEvicted(evicted int) {
	m.RecordsEvictedTotal.Add(float64(evicted))
}

// SubscriberAttached increments the active subscriber gauge.
func (m *Metrics) SubscriberAttached() {
	m.SubscribersActive.Inc()
}

// SubscriberDetached decrements the active subscriber gauge.
func (m *Metrics) SubscriberDetached() {
	m.SubscribersActive.Dec()
}

// BroadcastDelivered counts one push delivered to some number of subscribers.
func (m *Metrics) BroadcastDelivered(subscribers int) {
	m.BroadcastsTotal.Add(float64(subscribers))
}

// BroadcastFailed counts one failed subscriber write.
func (m *Metrics) BroadcastFailed() {
	m.BroadcastFailuresTotal.Inc()
}
