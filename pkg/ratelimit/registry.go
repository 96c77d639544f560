package ratelimit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registry holds one token bucket per provider. Buckets are created on first
// Register and live for the process lifetime.
type Registry struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[string]*Bucket),
		logger:  log.With().Str("component", "ratelimit").Logger(),
	}
}

// Register creates a bucket for the provider, or returns the existing one.
// First registration wins: rate and capacity of a later call are ignored.
func (r *Registry) Register(provider string, rate float64, capacity int) *Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bucket, ok := r.buckets[provider]; ok {
		if bucket.rate != rate || bucket.capacity != float64(capacity) {
			r.logger.Debug().
				Str("provider", provider).
				Float64("ignored_rate", rate).
				Int("ignored_capacity", capacity).
				Msg("Provider already registered, keeping original limits")
		}
		return bucket
	}

	bucket := NewBucket(provider, rate, capacity)
	r.buckets[provider] = bucket
	r.logger.Info().
		Str("provider", provider).
		Float64("rate", rate).
		Int("capacity", capacity).
		Msg("Registered rate limiter")
	return bucket
}

// Get returns the provider's bucket, if registered.
func (r *Registry) Get(provider string) (*Bucket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[provider]
	return bucket, ok
}

// Acquire takes n tokens from the provider's bucket, blocking until tokens
// are available or ctx is done. Providers without a registered bucket are
// allowed unconditionally: absence of configuration must never block traffic.
func (r *Registry) Acquire(ctx context.Context, provider string, n int) bool {
	bucket, ok := r.Get(provider)
	if !ok {
		return true
	}
	return bucket.Acquire(ctx, n)
}

// GetAllStats returns a stats snapshot per registered provider.
func (r *Registry) GetAllStats() map[string]Stats {
	r.mu.Lock()
	buckets := make([]*Bucket, 0, len(r.buckets))
	for _, bucket := range r.buckets {
		buckets = append(buckets, bucket)
	}
	r.mu.Unlock()

	// Per-bucket snapshots are taken outside the registry lock.
	stats := make(map[string]Stats, len(buckets))
	for _, bucket := range buckets {
		stats[bucket.name] = bucket.GetStats()
	}
	return stats
}
