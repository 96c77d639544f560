package cache

import (
	"fmt"
	"strings"
)

// Key builders produce deterministic ASCII cache keys. The leading kind tag
// keeps keys collision-free across data kinds; symbols are upper-cased so
// "btc/usdt" and "BTC/USDT" dedup to one entry.

// PriceKey is the cache key for last-price data.
func PriceKey(symbol, provider string) string {
	return fmt.Sprintf("price:%s:%s", provider, strings.ToUpper(symbol))
}

// TickerKey is the cache key for full ticker data.
func TickerKey(symbol, provider string) string {
	return fmt.Sprintf("ticker:%s:%s", provider, strings.ToUpper(symbol))
}

// OHLCVKey is the cache key for candle data at a timeframe.
func OHLCVKey(symbol, provider, timeframe string) string {
	return fmt.Sprintf("ohlcv:%s:%s:%s", provider, strings.ToUpper(symbol), timeframe)
}

// MarketDataKey is the cache key for provider-wide market data.
func MarketDataKey(provider string) string {
	return fmt.Sprintf("market_data:%s", provider)
}

// ExchangeInfoKey is the cache key for provider metadata.
func ExchangeInfoKey(provider string) string {
	return fmt.Sprintf("exchange_info:%s", provider)
}

// GlobalMetricsKey is the cache key for market-wide metrics.
func GlobalMetricsKey() string {
	return "global_metrics"
}
