package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by backend.
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_hits_total",
			Help: "Total number of market data cache hits",
		},
		[]string{"backend"}, // "memory", "redis"
	)

	// cacheMisses tracks cache misses by backend.
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_misses_total",
			Help: "Total number of market data cache misses",
		},
		[]string{"backend"},
	)

	// cacheErrors tracks cache operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_errors_total",
			Help: "Total number of cache backend operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "clear"
	)

	// cacheEntries tracks the current number of entries by backend.
	cacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "market_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"backend"},
	)
)
