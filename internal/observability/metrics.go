package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Reports produced, by kind and outcome (ok, quota_denied, expired, error).
	ReportsTotal *prometheus.CounterVec

	// Fuzzy cache hits and misses by report kind. Hit rate = hits/(hits+misses).
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Upstream fetches refused by the sliding quota window.
	QuotaDeniedTotal prometheus.Counter

	// Upstream provider call rate. Watch for: error vs success ratio per provider.
	ProviderRequestsTotal *prometheus.CounterVec

	// Provider latency. Watch for: p95 > 2s (upstream degradation).
	ProviderRequestDuration *prometheus.HistogramVec

	// Requests denied by the global HTTP rate limiter (429).
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherReportsTotal",
			Help: "Weather reports produced, by report kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportCacheHitsTotal",
			Help: "Fuzzy report cache hits by report kind",
		},
		[]string{"kind"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportCacheMissesTotal",
			Help: "Fuzzy report cache misses by report kind",
		},
		[]string{"kind"},
	)
	QuotaDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quotaDeniedTotal",
			Help: "Upstream fetches refused because the user's quota window was full",
		},
	)
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerRequestsTotal",
			Help: "Upstream provider API calls by provider and status",
		},
		[]string{"provider", "status"},
	)
	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerRequestDurationSeconds",
			Help:    "Upstream provider API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ReportsTotal, CacheHitsTotal, CacheMissesTotal, QuotaDeniedTotal,
		ProviderRequestsTotal, ProviderRequestDuration,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler exposes the private registry for scraping.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
