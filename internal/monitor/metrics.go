// Package monitor provides Prometheus metrics for the service.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors, registered on a private
// registry exposed through the /api/metrics endpoint.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	UpstreamLatency *prometheus.HistogramVec
	StreamChunks    prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "steamlens_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "steamlens_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steamlens_cache_hits_total",
			Help: "Game cache lookups served without an upstream fetch.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steamlens_cache_misses_total",
			Help: "Game cache lookups that triggered an upstream fetch.",
		}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "steamlens_upstream_latency_seconds",
			Help:    "Latency of upstream API calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"upstream"}),
		StreamChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steamlens_narrative_chunks_total",
			Help: "Narrative stream chunks relayed to clients.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.CacheHits,
		m.CacheMisses,
		m.UpstreamLatency,
		m.StreamChunks,
	)

	return m
}
