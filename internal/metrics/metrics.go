package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream Helix API Metrics
var (
	// UpstreamRequestsTotal tracks upstream resource API calls by verb and status class
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total upstream Helix requests by verb and status class",
		},
		[]string{"verb", "status"},
	)

	// UpstreamRequestDuration tracks upstream request latency in seconds
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream Helix request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"verb"},
	)
)

// Token Broker Metrics
var (
	// TokenExchangesTotal tracks OAuth token exchanges by grant type and status
	TokenExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_exchanges_total",
			Help: "Total OAuth token exchanges by grant type and status",
		},
		[]string{"grant", "status"},
	)

	// TokenCacheHitsTotal tracks app token acquisitions served from cache
	TokenCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_cache_hits_total",
			Help: "Total app token acquisitions served from the cached token",
		},
	)
)

// Directory Store Metrics
var (
	// StreamerUpsertsTotal tracks directory upserts by status
	StreamerUpsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_upserts_total",
			Help: "Total streamer directory upserts by status",
		},
		[]string{"status"},
	)
)
