package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the requested key was not found in cache.
var ErrCacheMiss = errors.New("cache miss")

// Stats is a point-in-time snapshot of backend counters.
type Stats struct {
	Backend       string  `json:"backend"`
	Size          int     `json:"size"`
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	HitRate       float64 `json:"hit_rate_percent"`
	TotalRequests uint64  `json:"total_requests"`
}

// Backend is the storage capability a cache implementation must provide.
// The memory backend is the required implementation; networked backends
// (e.g. Redis) are additional implementers. Backend errors on the read path
// must be treated by callers as cache misses, never as request failures.
type Backend interface {
	// Get retrieves a value by key. The bool reports whether a fresh value
	// was found; a returned error indicates a backend failure, not a miss.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value under key with the given TTL, overwriting any
	// existing entry with a fresh creation stamp.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries. Hit/miss counters are preserved.
	Clear(ctx context.Context) error

	// GetStats returns the backend's counter snapshot.
	GetStats(ctx context.Context) (Stats, error)
}
