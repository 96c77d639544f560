// Package metrics provides the central Prometheus registry reference for the
// market data client. Metrics are defined in their respective packages
// (cache, ratelimit, client) to maintain modularity and avoid circular
// dependencies; this package documents them in one place.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - market_cache_hits_total{backend} (Counter): Cache hits by backend
//   - market_cache_misses_total{backend} (Counter): Cache misses by backend
//   - market_cache_errors_total{operation} (Counter): Backend operation errors
//   - market_cache_entries{backend} (Gauge): Current entry count
//
// Rate Limit Metrics (pkg/ratelimit):
//   - market_ratelimit_acquires_total{provider} (Counter): Successful token acquisitions
//   - market_ratelimit_rejections_total{provider} (Counter): Rejected acquisitions
//   - market_ratelimit_tokens{provider} (Gauge): Current token count
//
// Request Metrics (pkg/client):
//   - market_requests_total{provider, kind, outcome} (Counter): Requests by outcome
//     (cache_hit, ok, error, rate_limited)
//   - market_request_duration_seconds{provider, kind} (Histogram): Request duration
//   - market_errors_total{kind} (Counter): Classified errors by kind
//
// Retry Metrics (pkg/client):
//   - market_retries_total{kind} (Counter): Retry attempts by error kind
//   - market_retry_backoff_seconds{kind} (Histogram): Backoff duration
//   - market_retry_exhausted_total{kind} (Counter): Requests that exhausted retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(market_cache_hits_total[5m])) /
//   (sum(rate(market_cache_hits_total[5m])) + sum(rate(market_cache_misses_total[5m])))
//
//   # Rejection Rate per Provider
//   rate(market_ratelimit_rejections_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(market_request_duration_seconds_bucket[5m]))
//
//   # Retry Exhaustion Rate
//   rate(market_retry_exhausted_total[5m])
