// Package cache provides TTL-based caching of market data with pluggable
// backends.
//
// The package has three layers:
//
//   - Entry: a value plus creation time and TTL, with pure expiry arithmetic
//   - Backend: the storage capability (memory and Redis implementations)
//   - Manager: a typed coordinator with kind-specific default TTLs
//
// # Basic Usage
//
//	manager := cache.NewManager(cache.NewMemory())
//
//	if price, ok := manager.GetPrice(ctx, "BTC/USDT", "binance"); ok {
//		// fresh cached value
//	}
//
//	manager.SetPrice(ctx, "BTC/USDT", "binance", payload, 0) // 0 = default TTL
//
// # Default TTLs
//
//   - price: 5s (volatile, seconds-scale)
//   - ohlcv: 60s (changes once per bar close)
//   - market data: 300s (changes rarely)
//
// # Failure Semantics
//
// The memory backend never fails. A networked backend (Redis) may return IO
// errors; the Manager degrades those to cache misses so a slow or broken
// cache can never block the request path.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - market_cache_hits_total{backend} - Cache hits
//   - market_cache_misses_total{backend} - Cache misses
//   - market_cache_errors_total{operation} - Backend operation errors
//   - market_cache_entries{backend} - Current entry count
package cache
