// Package provider defines the market data provider contract and the
// structured results a provider returns. Concrete exchange adapters implement
// Provider; the core never depends on a specific exchange's wire protocol.
package provider

import (
	"context"
)

// Ticker is a snapshot of current market state for a trading pair.
type Ticker struct {
	Symbol        string  `json:"symbol"`
	Provider      string  `json:"provider"`
	Last          float64 `json:"last"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	BaseVolume    float64 `json:"base_volume"`
	QuoteVolume   float64 `json:"quote_volume"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Timestamp     int64   `json:"timestamp"` // unix millis
}

// BookLevel is a single price level of an order book side.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds ranked bid/ask levels, best first.
type OrderBook struct {
	Symbol    string      `json:"symbol"`
	Provider  string      `json:"provider"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp int64       `json:"timestamp"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp int64   `json:"timestamp"` // bar open, unix millis
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Trade is a single executed trade.
type Trade struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"` // "buy" or "sell"
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	Cost      float64 `json:"cost"`
	Timestamp int64   `json:"timestamp"`
}

// Provider is the external market data collaborator. Implementations may fail
// with arbitrary errors; callers classify them generically, so providers do
// not need to pre-classify failures.
type Provider interface {
	// Name returns the provider identifier (e.g. "binance").
	Name() string

	// FetchTicker returns the current ticker for a symbol like "BTC/USDT".
	FetchTicker(ctx context.Context, symbol string) (*Ticker, error)

	// FetchOrderBook returns up to limit levels per side, best first.
	FetchOrderBook(ctx context.Context, symbol string, limit int) (*OrderBook, error)

	// FetchOHLCV returns up to limit candles at the given timeframe
	// (e.g. "1m", "1h", "1d"), oldest first.
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)

	// FetchTrades returns up to limit recent trades, oldest first.
	FetchTrades(ctx context.Context, symbol string, limit int) ([]Trade, error)

	// Symbols returns the trading pairs the provider supports.
	Symbols(ctx context.Context) ([]string, error)
}
