// Package testutil provides testing utilities for the market data client.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/tidewatch/crypto-market-client/pkg/provider"
)

// MockProvider is a configurable in-process market data provider for tests.
// It counts calls per operation and can be scripted to fail or delay.
type MockProvider struct {
	ProviderName string

	mu sync.Mutex

	// Canned responses.
	Ticker    *provider.Ticker
	Book      *provider.OrderBook
	Candles   []provider.Candle
	TradeList []provider.Trade
	Pairs     []string

	// Errs are consumed one per call across all operations; a nil entry
	// means the call succeeds. When the queue is empty, Err applies.
	Errs []error
	Err  error

	// Delay is applied before every call returns.
	Delay time.Duration

	// Tracking.
	TickerCalls    int
	OrderBookCalls int
	OHLCVCalls     int
	TradesCalls    int
	SymbolsCalls   int
}

// NewMockProvider creates a mock with a plausible default ticker.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Ticker: &provider.Ticker{
			Symbol:      "BTC/USDT",
			Provider:    name,
			Last:        50000,
			Bid:         49995,
			Ask:         50005,
			High:        51000,
			Low:         49000,
			BaseVolume:  1200,
			QuoteVolume: 60000000,
			Timestamp:   time.Now().UnixMilli(),
		},
		Pairs: []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"},
	}
}

// Name implements provider.Provider.
func (m *MockProvider) Name() string { return m.ProviderName }

// nextErr pops the scripted error queue.
func (m *MockProvider) nextErr() error {
	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		return err
	}
	return m.Err
}

func (m *MockProvider) before(ctx context.Context, calls *int) error {
	m.mu.Lock()
	*calls++
	err := m.nextErr()
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// FetchTicker implements provider.Provider.
func (m *MockProvider) FetchTicker(ctx context.Context, symbol string) (*provider.Ticker, error) {
	if err := m.before(ctx, &m.TickerCalls); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ticker := *m.Ticker
	ticker.Symbol = symbol
	return &ticker, nil
}

// FetchOrderBook implements provider.Provider.
func (m *MockProvider) FetchOrderBook(ctx context.Context, symbol string, limit int) (*provider.OrderBook, error) {
	if err := m.before(ctx, &m.OrderBookCalls); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Book != nil {
		return m.Book, nil
	}
	return &provider.OrderBook{
		Symbol:   symbol,
		Provider: m.ProviderName,
		Bids:     []provider.BookLevel{{Price: 49995, Size: 2.5}, {Price: 49990, Size: 1.0}},
		Asks:     []provider.BookLevel{{Price: 50005, Size: 1.5}, {Price: 50010, Size: 3.0}},
	}, nil
}

// FetchOHLCV implements provider.Provider.
func (m *MockProvider) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]provider.Candle, error) {
	if err := m.before(ctx, &m.OHLCVCalls); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Candles != nil {
		return m.Candles, nil
	}
	// Synthesize a flat series when none is scripted.
	candles := make([]provider.Candle, limit)
	base := time.Now().Add(-time.Duration(limit) * time.Hour).UnixMilli()
	for i := range candles {
		candles[i] = provider.Candle{
			Timestamp: base + int64(i)*3600_000,
			Open:      50000,
			High:      50100,
			Low:       49900,
			Close:     50000,
			Volume:    100,
		}
	}
	return candles, nil
}

// FetchTrades implements provider.Provider.
func (m *MockProvider) FetchTrades(ctx context.Context, symbol string, limit int) ([]provider.Trade, error) {
	if err := m.before(ctx, &m.TradesCalls); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TradeList, nil
}

// Symbols implements provider.Provider.
func (m *MockProvider) Symbols(ctx context.Context) ([]string, error) {
	if err := m.before(ctx, &m.SymbolsCalls); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Pairs, nil
}

// Calls returns the total call count across all operations.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TickerCalls + m.OrderBookCalls + m.OHLCVCalls + m.TradesCalls + m.SymbolsCalls
}
