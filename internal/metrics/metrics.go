// Package metrics exposes Prometheus instrumentation for the analytics
// core: cache effectiveness, attribution outcomes, and upstream latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	QueriesRecorded *prometheus.CounterVec

	ClicksAttributed prometheus.Counter
	ClicksCreated    prometheus.Counter
	ClicksRejected   prometheus.Counter

	UpstreamDuration *prometheus.HistogramVec
}

// New creates and registers the service collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "search_analytics_cache_hits_total",
			Help: "Response cache hits by endpoint.",
		}, []string{"endpoint"}),

		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "search_analytics_cache_misses_total",
			Help: "Response cache misses by endpoint.",
		}, []string{"endpoint"}),

		QueriesRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "search_analytics_queries_recorded_total",
			Help: "Query records written by handler category.",
		}, []string{"category"}),

		ClicksAttributed: factory.NewCounter(prometheus.CounterOpts{
			Name: "search_analytics_clicks_attributed_total",
			Help: "Clicks appended to an existing query record.",
		}),

		ClicksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "search_analytics_clicks_created_total",
			Help: "Clicks that produced a synthesized click-only record.",
		}),

		ClicksRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "search_analytics_clicks_rejected_total",
			Help: "Clicks rejected by validation or dropped on store failure.",
		}),

		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "search_analytics_upstream_duration_seconds",
			Help:    "Upstream search engine call latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
