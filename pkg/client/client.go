// Package client provides the request orchestrator for market data fetches:
// cache lookup, rate-limit acquisition, classified and retried provider
// calls, and cache write-through.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tidewatch/crypto-market-client/pkg/cache"
	"github.com/tidewatch/crypto-market-client/pkg/provider"
	"github.com/tidewatch/crypto-market-client/pkg/ratelimit"
)

// Prometheus metrics for orchestrated requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_requests_total",
		Help: "Total market data requests by provider, kind and outcome",
	}, []string{"provider", "kind", "outcome"}) // outcome: "cache_hit", "ok", "error", "rate_limited"

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_request_duration_seconds",
		Help:    "Market data request duration by provider and kind",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"provider", "kind"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_errors_total",
		Help: "Total classified errors by kind",
	}, []string{"kind"})
)

// Config holds the orchestrator configuration.
type Config struct {
	// Cache is the shared cache coordinator. Nil defaults to memory.
	Cache *cache.Manager

	// Limits is the shared rate-limit registry. Nil means no limiting.
	Limits *ratelimit.Registry

	// Providers maps provider name to its adapter.
	Providers map[string]provider.Provider

	// Retry configures the backoff wrapper around provider calls.
	Retry RetryConfig

	// AcquireTimeout bounds the wait for rate-limit tokens. Zero waits until
	// the request context is done.
	AcquireTimeout time.Duration

	// CallTimeout bounds each individual provider call. Zero means no bound
	// beyond the request context.
	CallTimeout time.Duration

	// PriceTTL / OHLCVTTL / MarketDataTTL override the cache defaults when
	// positive.
	PriceTTL      time.Duration
	OHLCVTTL      time.Duration
	MarketDataTTL time.Duration
}

// DefaultConfig returns a safe default configuration for the given providers.
func DefaultConfig(providers map[string]provider.Provider) Config {
	return Config{
		Cache:          cache.NewManager(nil),
		Limits:         ratelimit.NewRegistry(),
		Providers:      providers,
		Retry:          DefaultRetryConfig(),
		AcquireTimeout: 10 * time.Second,
		CallTimeout:    10 * time.Second,
	}
}

// Client orchestrates market data fetches across providers. Cache and
// rate-limit state are shared references passed in at construction; Client
// never creates ambient singletons.
type Client struct {
	cache     *cache.Manager
	limits    *ratelimit.Registry
	providers map[string]provider.Provider
	config    Config
	logger    zerolog.Logger
}

// New creates an orchestrator client.
func New(cfg Config) (*Client, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewManager(nil)
	}

	return &Client{
		cache:     cfg.Cache,
		limits:    cfg.Limits,
		providers: cfg.Providers,
		config:    cfg,
		logger:    log.With().Str("component", "market-client").Logger(),
	}, nil
}

// Providers returns the configured provider names.
func (c *Client) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	return names
}

// Cache returns the shared cache coordinator.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}

// Limits returns the shared rate-limit registry, or nil when unlimited.
func (c *Client) Limits() *ratelimit.Registry {
	return c.limits
}

// decodeCached converts a cached value into target. Values from the memory
// backend assert directly; networked backends return generic JSON shapes that
// need a re-decode round trip.
func decodeCached[T any](v any) (T, bool) {
	var zero T
	if typed, ok := v.(T); ok {
		return typed, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return zero, false
	}
	var typed T
	if err := json.Unmarshal(data, &typed); err != nil {
		return zero, false
	}
	return typed, true
}

func (c *Client) lookup(providerName string) (provider.Provider, *Error) {
	p, ok := c.providers[providerName]
	if !ok {
		return nil, NewValidationError("provider", providerName, "unknown provider")
	}
	return p, nil
}

// acquire takes one rate-limit token for the provider, bounded by
// AcquireTimeout. Unregistered providers pass through unconditionally.
func (c *Client) acquire(ctx context.Context, providerName, kind string) *Error {
	if c.limits == nil {
		return nil
	}

	acquireCtx := ctx
	if c.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, c.config.AcquireTimeout)
		defer cancel()
	}

	if !c.limits.Acquire(acquireCtx, providerName, 1) {
		requestsTotal.WithLabelValues(providerName, kind, "rate_limited").Inc()
		return NewRateLimitError(providerName,
			fmt.Sprintf("no capacity for %s within %s", providerName, c.config.AcquireTimeout),
			0, ErrRateLimitTimeout)
	}
	return nil
}

// call runs fn through the classifier and retry wrapper. The classifier is
// applied innermost so retries decide eligibility on already-classified
// kinds. Provider calls run strictly outside any lock.
func (c *Client) call(ctx context.Context, providerName, symbol, kind string, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(providerName, kind).Observe(time.Since(start).Seconds())
	}()

	err := retryWithBackoff(ctx, c.config.Retry, func() error {
		callCtx := ctx
		if c.config.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
			defer cancel()
		}

		if err := fn(callCtx); err != nil {
			classified := Classify(err, providerName, symbol, c.config.CallTimeout)
			errorsTotal.WithLabelValues(string(classified.Kind)).Inc()
			return classified
		}
		return nil
	})

	if err != nil {
		requestsTotal.WithLabelValues(providerName, kind, "error").Inc()
		c.logger.Warn().
			Err(err).
			Str("provider", providerName).
			Str("symbol", symbol).
			Str("kind", kind).
			Msg("Provider request failed")
		return err
	}

	requestsTotal.WithLabelValues(providerName, kind, "ok").Inc()
	return nil
}

// Ticker fetches the current ticker, serving from cache when fresh.
func (c *Client) Ticker(ctx context.Context, symbol, providerName string) (*provider.Ticker, error) {
	p, verr := c.lookup(providerName)
	if verr != nil {
		return nil, verr
	}

	if v, ok := c.cache.GetPrice(ctx, symbol, providerName); ok {
		if ticker, ok := decodeCached[*provider.Ticker](v); ok {
			requestsTotal.WithLabelValues(providerName, "ticker", "cache_hit").Inc()
			c.logger.Debug().Str("symbol", symbol).Str("provider", providerName).Msg("Ticker served from cache")
			return ticker, nil
		}
	}

	if err := c.acquire(ctx, providerName, "ticker"); err != nil {
		return nil, err
	}

	var ticker *provider.Ticker
	err := c.call(ctx, providerName, symbol, "ticker", func(callCtx context.Context) error {
		var fetchErr error
		ticker, fetchErr = p.FetchTicker(callCtx, symbol)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	c.cache.SetPrice(ctx, symbol, providerName, ticker, c.config.PriceTTL)
	return ticker, nil
}

// OHLCV fetches candle data, serving from cache when fresh.
func (c *Client) OHLCV(ctx context.Context, symbol, timeframe string, limit int, providerName string) ([]provider.Candle, error) {
	p, verr := c.lookup(providerName)
	if verr != nil {
		return nil, verr
	}

	if v, ok := c.cache.GetOHLCV(ctx, symbol, providerName, timeframe); ok {
		if candles, ok := decodeCached[[]provider.Candle](v); ok && len(candles) >= limit {
			requestsTotal.WithLabelValues(providerName, "ohlcv", "cache_hit").Inc()
			return candles[len(candles)-limit:], nil
		}
	}

	if err := c.acquire(ctx, providerName, "ohlcv"); err != nil {
		return nil, err
	}

	var candles []provider.Candle
	err := c.call(ctx, providerName, symbol, "ohlcv", func(callCtx context.Context) error {
		var fetchErr error
		candles, fetchErr = p.FetchOHLCV(callCtx, symbol, timeframe, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	c.cache.SetOHLCV(ctx, symbol, providerName, timeframe, candles, c.config.OHLCVTTL)
	return candles, nil
}

// OrderBook fetches current depth. Depth data is too volatile to cache.
func (c *Client) OrderBook(ctx context.Context, symbol string, limit int, providerName string) (*provider.OrderBook, error) {
	p, verr := c.lookup(providerName)
	if verr != nil {
		return nil, verr
	}

	if err := c.acquire(ctx, providerName, "orderbook"); err != nil {
		return nil, err
	}

	var book *provider.OrderBook
	err := c.call(ctx, providerName, symbol, "orderbook", func(callCtx context.Context) error {
		var fetchErr error
		book, fetchErr = p.FetchOrderBook(callCtx, symbol, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Trades fetches recent trades. Not cached, like depth.
func (c *Client) Trades(ctx context.Context, symbol string, limit int, providerName string) ([]provider.Trade, error) {
	p, verr := c.lookup(providerName)
	if verr != nil {
		return nil, verr
	}

	if err := c.acquire(ctx, providerName, "trades"); err != nil {
		return nil, err
	}

	var trades []provider.Trade
	err := c.call(ctx, providerName, symbol, "trades", func(callCtx context.Context) error {
		var fetchErr error
		trades, fetchErr = p.FetchTrades(callCtx, symbol, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// Symbols fetches the provider's trading pairs, cached as market data.
func (c *Client) Symbols(ctx context.Context, providerName string) ([]string, error) {
	p, verr := c.lookup(providerName)
	if verr != nil {
		return nil, verr
	}

	if v, ok := c.cache.GetMarketData(ctx, providerName); ok {
		if symbols, ok := decodeCached[[]string](v); ok {
			requestsTotal.WithLabelValues(providerName, "symbols", "cache_hit").Inc()
			return symbols, nil
		}
	}

	if err := c.acquire(ctx, providerName, "symbols"); err != nil {
		return nil, err
	}

	var symbols []string
	err := c.call(ctx, providerName, "", "symbols", func(callCtx context.Context) error {
		var fetchErr error
		symbols, fetchErr = p.Symbols(callCtx)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	c.cache.SetMarketData(ctx, providerName, symbols, c.config.MarketDataTTL)
	return symbols, nil
}
