package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default TTLs per data kind. Price data is volatile on a seconds scale,
// candles change once per bar close, market-wide metadata changes rarely.
const (
	DefaultPriceTTL      = 5 * time.Second
	DefaultOHLCVTTL      = 60 * time.Second
	DefaultMarketDataTTL = 300 * time.Second
)

// Manager is the typed coordinator over a cache backend. Backend failures on
// the read path are logged and reported as misses; the request path never
// blocks on cache trouble.
type Manager struct {
	backend Backend
	logger  zerolog.Logger
}

// NewManager creates a cache manager. A nil backend defaults to memory.
func NewManager(backend Backend) *Manager {
	if backend == nil {
		backend = NewMemory()
	}
	return &Manager{
		backend: backend,
		logger:  log.With().Str("component", "cache").Logger(),
	}
}

// Backend returns the underlying backend.
func (m *Manager) Backend() Backend {
	return m.backend
}

// GetPrice returns cached price data for a symbol/provider pair.
func (m *Manager) GetPrice(ctx context.Context, symbol, provider string) (any, bool) {
	return m.get(ctx, PriceKey(symbol, provider))
}

// SetPrice caches price data. A non-positive TTL uses the 5s default.
func (m *Manager) SetPrice(ctx context.Context, symbol, provider string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultPriceTTL
	}
	m.set(ctx, PriceKey(symbol, provider), value, ttl)
}

// GetOHLCV returns cached candle data for a symbol/provider/timeframe triple.
func (m *Manager) GetOHLCV(ctx context.Context, symbol, provider, timeframe string) (any, bool) {
	return m.get(ctx, OHLCVKey(symbol, provider, timeframe))
}

// SetOHLCV caches candle data. A non-positive TTL uses the 60s default.
func (m *Manager) SetOHLCV(ctx context.Context, symbol, provider, timeframe string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultOHLCVTTL
	}
	m.set(ctx, OHLCVKey(symbol, provider, timeframe), value, ttl)
}

// GetMarketData returns cached provider-wide market data.
func (m *Manager) GetMarketData(ctx context.Context, provider string) (any, bool) {
	return m.get(ctx, MarketDataKey(provider))
}

// SetMarketData caches provider-wide market data. A non-positive TTL uses
// the 5min default.
func (m *Manager) SetMarketData(ctx context.Context, provider string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultMarketDataTTL
	}
	m.set(ctx, MarketDataKey(provider), value, ttl)
}

// GetStats delegates to the backend.
func (m *Manager) GetStats(ctx context.Context) (Stats, error) {
	return m.backend.GetStats(ctx)
}

func (m *Manager) get(ctx context.Context, key string) (any, bool) {
	value, ok, err := m.backend.Get(ctx, key)
	if err != nil {
		// Degrade to a miss; never fail the request path on cache trouble.
		m.logger.Warn().Err(err).Str("key", key).Msg("Cache get failed, treating as miss")
		return nil, false
	}
	return value, ok
}

func (m *Manager) set(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := m.backend.Set(ctx, key, value, ttl); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("Cache set failed")
		return
	}
	m.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached value")
}
