//go:build integration

package client

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tidewatch/crypto-market-client/internal/testutil"
	"github.com/tidewatch/crypto-market-client/pkg/cache"
	"github.com/tidewatch/crypto-market-client/pkg/provider"
	"github.com/tidewatch/crypto-market-client/pkg/ratelimit"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// TestFullRequestFlow_Integration exercises the complete request path over a
// real Redis cache: rate limit acquire, provider call, cache write-through,
// then a cache hit on the second fetch.
func TestFullRequestFlow_Integration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockProvider("binance")

	limits := ratelimit.NewRegistry()
	limits.Register("binance", 10, 20)

	cfg := DefaultConfig(map[string]provider.Provider{"binance": mock})
	cfg.Cache = cache.NewManager(cache.NewRedis(redisClient))
	cfg.Limits = limits
	cfg.Retry.BaseDelay = 10 * time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	// First fetch goes through the provider and populates Redis.
	first, err := c.Ticker(ctx, "BTC/USDT", "binance")
	if err != nil {
		t.Fatalf("Ticker() error = %v", err)
	}
	if mock.TickerCalls != 1 {
		t.Fatalf("TickerCalls = %d, want 1", mock.TickerCalls)
	}

	// Second fetch is served from Redis: the cached value comes back as a
	// generic JSON shape and must decode to the same ticker.
	second, err := c.Ticker(ctx, "BTC/USDT", "binance")
	if err != nil {
		t.Fatalf("Ticker() error = %v", err)
	}
	if mock.TickerCalls != 1 {
		t.Errorf("TickerCalls = %d, want 1 (second served from Redis)", mock.TickerCalls)
	}
	if first.Last != second.Last || first.Symbol != second.Symbol {
		t.Errorf("cached ticker diverged: %+v vs %+v", first, second)
	}

	// The cache hit on the second call skips token acquisition, so the
	// limiter counted exactly one request.
	stats := limits.GetAllStats()["binance"]
	if stats.Requests != 1 {
		t.Errorf("limiter Requests = %d, want 1", stats.Requests)
	}
}

// TestRateLimitFlow_Integration verifies that local token exhaustion blocks
// provider calls even when the cache backend is Redis.
func TestRateLimitFlow_Integration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockProvider("binance")

	limits := ratelimit.NewRegistry()
	limits.Register("binance", 0.001, 1)

	cfg := DefaultConfig(map[string]provider.Provider{"binance": mock})
	cfg.Cache = cache.NewManager(cache.NewRedis(redisClient))
	cfg.Limits = limits
	cfg.AcquireTimeout = 50 * time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if _, err := c.Ticker(ctx, "BTC/USDT", "binance"); err != nil {
		t.Fatalf("Ticker() error = %v", err)
	}

	// Different symbol misses the cache and cannot get a token.
	_, err = c.Ticker(ctx, "ETH/USDT", "binance")
	if err == nil {
		t.Fatal("Ticker() error = nil, want rate limit timeout")
	}
	if mock.TickerCalls != 1 {
		t.Errorf("TickerCalls = %d, want 1 (second blocked locally)", mock.TickerCalls)
	}
}
