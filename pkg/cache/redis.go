package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a cache backend on a shared Redis instance. Values are stored as
// JSON with Redis-side TTL expiry, so expired entries never come back from a
// read. Hit/miss counters are process-local.
type Redis struct {
	client *redis.Client
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedis creates a Redis-backed cache around an existing client.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{client: client}
}

// Get retrieves a value by key. Backend failures are returned to the caller,
// which must degrade them to misses.
func (r *Redis) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			r.misses.Add(1)
			cacheMisses.WithLabelValues("redis").Inc()
			return nil, false, nil
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}

	r.hits.Add(1)
	cacheHits.WithLabelValues("redis").Inc()
	return value, true, nil
}

// Set stores a value as JSON with the given TTL. Non-positive TTLs are not
// stored at all.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear flushes the current Redis database. Counters are preserved.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		cacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis flushdb: %w", err)
	}
	return nil
}

// GetStats returns the process-local counters plus the current key count.
func (r *Redis) GetStats(ctx context.Context) (Stats, error) {
	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis dbsize: %w", err)
	}
	cacheEntries.WithLabelValues("redis").Set(float64(size))

	hits := r.hits.Load()
	misses := r.misses.Load()
	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return Stats{
		Backend:       "redis",
		Size:          int(size),
		Hits:          hits,
		Misses:        misses,
		HitRate:       hitRate,
		TotalRequests: total,
	}, nil
}
