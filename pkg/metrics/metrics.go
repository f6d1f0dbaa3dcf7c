// Package metrics defines the Prometheus collectors used by albumdb services
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RecordsIngestedTotal *prometheus.CounterVec
	LookupsTotal         *prometheus.CounterVec
	LookupLatency        *prometheus.HistogramVec
	CacheHitsTotal       *prometheus.CounterVec
	CacheMissesTotal     prometheus.Counter
	BuildDuration        *prometheus.HistogramVec
	StoreAlbums          *prometheus.GaugeVec
	StoreRecords         *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RecordsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "albumdb_records_ingested_total",
				Help: "Records read from a source by outcome (added, rejected).",
			},
			[]string{"source", "outcome"},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "albumdb_lookups_total",
				Help: "Store lookups by strategy, granularity (album, track) and result (found, empty).",
			},
			[]string{"strategy", "granularity", "result"},
		),
		LookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "albumdb_lookup_latency_seconds",
				Help:    "Store lookup latency in seconds, cache excluded.",
				Buckets: []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 1e-3},
			},
			[]string{"strategy", "granularity"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "albumdb_cache_hits_total",
				Help: "Lookup cache hits by tier (local, redis).",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "albumdb_cache_misses_total",
				Help: "Lookup cache misses across all tiers.",
			},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "albumdb_build_duration_seconds",
				Help:    "Store construction time by strategy and phase (load, finalize).",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"strategy", "phase"},
		),
		StoreAlbums: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "albumdb_store_albums",
				Help: "Albums held by the store.",
			},
			[]string{"strategy"},
		),
		StoreRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "albumdb_store_records",
				Help: "Records added to the store, duplicates included.",
			},
			[]string{"strategy"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RecordsIngestedTotal,
		m.LookupsTotal,
		m.LookupLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.BuildDuration,
		m.StoreAlbums,
		m.StoreRecords,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
