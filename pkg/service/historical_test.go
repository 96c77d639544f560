package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/crypto-market-client/internal/testutil"
	"github.com/tidewatch/crypto-market-client/pkg/provider"
)

// candleSeries builds closes[i] into a consecutive hourly series.
func candleSeries(closes ...float64) []provider.Candle {
	candles := make([]provider.Candle, len(closes))
	for i, price := range closes {
		candles[i] = provider.Candle{
			Timestamp: int64(i) * 3600_000,
			Open:      price,
			High:      price + 10,
			Low:       price - 10,
			Close:     price,
			Volume:    100 + float64(i),
		}
	}
	return candles
}

func TestGetHistoricalOHLCV(t *testing.T) {
	mock := testutil.NewMockProvider("binance")
	mock.Candles = candleSeries(100, 101, 102, 103)
	svc := newTestService(t, mock)

	result := svc.GetHistoricalOHLCV(context.Background(), "BTC/USDT", "1h", 4, "binance")

	require.True(t, result.Success, "error: %s", result.Error)
	payload, ok := result.Data.(OHLCVPayload)
	require.True(t, ok)

	assert.Equal(t, "1h", payload.Timeframe)
	assert.Equal(t, 4, payload.Count)
	assert.Len(t, payload.Candles, 4)
}

func TestGetHistoricalOHLCV_InvalidLimit(t *testing.T) {
	svc := newTestService(t, testutil.NewMockProvider("binance"))

	result := svc.GetHistoricalOHLCV(context.Background(), "BTC/USDT", "1h", -1, "binance")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")
}

func TestGetPriceChange(t *testing.T) {
	mock := testutil.NewMockProvider("binance")
	mock.Candles = candleSeries(100, 105, 102, 110)
	svc := newTestService(t, mock)

	result := svc.GetPriceChange(context.Background(), "BTC/USDT", "24h", "binance")

	require.True(t, result.Success, "error: %s", result.Error)
	change, ok := result.Data.(PriceChange)
	require.True(t, ok)

	assert.Equal(t, 100.0, change.StartPrice)
	assert.Equal(t, 110.0, change.EndPrice)
	assert.Equal(t, 10.0, change.Change)
	assert.InDelta(t, 10.0, change.ChangePercent, 0.0001)
}

func TestGetPriceChange_UnknownPeriod(t *testing.T) {
	svc := newTestService(t, testutil.NewMockProvider("binance"))

	result := svc.GetPriceChange(context.Background(), "BTC/USDT", "42d", "binance")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")
}

func TestGetPriceChange_InsufficientCandles(t *testing.T) {
	mock := testutil.NewMockProvider("binance")
	mock.Candles = candleSeries(100)
	svc := newTestService(t, mock)

	result := svc.GetPriceChange(context.Background(), "BTC/USDT", "24h", "binance")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "data")
}

func TestGetVolumeHistory(t *testing.T) {
	mock := testutil.NewMockProvider("binance")
	mock.Candles = candleSeries(100, 101, 102)
	svc := newTestService(t, mock)

	result := svc.GetVolumeHistory(context.Background(), "BTC/USDT", "1h", 3, "binance")

	require.True(t, result.Success, "error: %s", result.Error)
	history, ok := result.Data.(VolumeHistory)
	require.True(t, ok)

	assert.Len(t, history.Points, 3)
	// Volumes are 100, 101, 102.
	assert.InDelta(t, 303.0, history.TotalVolume, 0.0001)
}

func TestGetMovingAverage(t *testing.T) {
	mock := testutil.NewMockProvider("binance")
	mock.Candles = candleSeries(100, 110, 120)
	svc := newTestService(t, mock)

	result := svc.GetMovingAverage(context.Background(), "BTC/USDT", 3, "1d", "binance")

	require.True(t, result.Success, "error: %s", result.Error)
	ma, ok := result.Data.(MovingAverage)
	require.True(t, ok)

	assert.InDelta(t, 110.0, ma.Average, 0.0001)
	assert.Equal(t, 120.0, ma.CurrentPrice)
	assert.True(t, ma.AboveAverage)
	assert.Equal(t, 3, ma.SamplesUsed)
}

func TestGetMovingAverage_BelowAverage(t *testing.T) {
	mock := testutil.NewMockProvider("binance")
	mock.Candles = candleSeries(120, 110, 100)
	svc := newTestService(t, mock)

	result := svc.GetMovingAverage(context.Background(), "BTC/USDT", 3, "1d", "binance")

	require.True(t, result.Success, "error: %s", result.Error)
	ma := result.Data.(MovingAverage)
	assert.False(t, ma.AboveAverage)
}

func TestGetMovingAverage_InvalidPeriod(t *testing.T) {
	svc := newTestService(t, testutil.NewMockProvider("binance"))

	result := svc.GetMovingAverage(context.Background(), "BTC/USDT", 0, "1d", "binance")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")
}
