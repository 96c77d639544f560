package service

import (
	"context"
	"fmt"

	"github.com/tidewatch/crypto-market-client/pkg/client"
	"github.com/tidewatch/crypto-market-client/pkg/provider"
)

func errInvalidLimit(limit int) error {
	return client.NewValidationError("limit", limit, "must be positive")
}

// periodWindows maps a price-change period onto a timeframe and candle count.
var periodWindows = map[string]struct {
	timeframe string
	candles   int
}{
	"1h":  {"1m", 60},
	"24h": {"1h", 24},
	"7d":  {"1d", 7},
	"30d": {"1d", 30},
}

// OHLCVPayload is the get_historical_ohlcv response.
type OHLCVPayload struct {
	Symbol    string            `json:"symbol"`
	Provider  string            `json:"provider"`
	Timeframe string            `json:"timeframe"`
	Candles   []provider.Candle `json:"candles"`
	Count     int               `json:"count"`
}

// GetHistoricalOHLCV returns candle data for a symbol.
func (s *Service) GetHistoricalOHLCV(ctx context.Context, symbol, timeframe string, limit int, providerName string) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("get_historical_ohlcv", err)
	}
	if limit <= 0 {
		return s.fail("get_historical_ohlcv", errInvalidLimit(limit))
	}

	candles, err := s.client.OHLCV(ctx, symbol, timeframe, limit, providerName)
	if err != nil {
		return s.fail("get_historical_ohlcv", err)
	}

	return ok(OHLCVPayload{
		Symbol:    symbol,
		Provider:  providerName,
		Timeframe: timeframe,
		Candles:   candles,
		Count:     len(candles),
	})
}

// PriceChange is the get_price_change response.
type PriceChange struct {
	Symbol        string  `json:"symbol"`
	Provider      string  `json:"provider"`
	Period        string  `json:"period"`
	StartPrice    float64 `json:"start_price"`
	EndPrice      float64 `json:"end_price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// GetPriceChange computes the close-to-close change over a named period
// (1h, 24h, 7d, 30d).
func (s *Service) GetPriceChange(ctx context.Context, symbol, period, providerName string) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("get_price_change", err)
	}
	window, knownPeriod := periodWindows[period]
	if !knownPeriod {
		return s.fail("get_price_change",
			client.NewValidationError("period", period, "expected one of 1h, 24h, 7d, 30d"))
	}

	candles, err := s.client.OHLCV(ctx, symbol, window.timeframe, window.candles, providerName)
	if err != nil {
		return s.fail("get_price_change", err)
	}
	if len(candles) < 2 {
		return s.fail("get_price_change",
			client.NewDataError(providerName, fmt.Sprintf("need at least 2 candles, got %d", len(candles)), nil))
	}

	start := candles[0].Close
	end := candles[len(candles)-1].Close
	change := end - start
	changePercent := 0.0
	if start != 0 {
		changePercent = change / start * 100
	}

	return ok(PriceChange{
		Symbol:        symbol,
		Provider:      providerName,
		Period:        period,
		StartPrice:    start,
		EndPrice:      end,
		Change:        change,
		ChangePercent: changePercent,
	})
}

// VolumePoint is one bar of volume history.
type VolumePoint struct {
	Timestamp int64   `json:"timestamp"`
	Volume    float64 `json:"volume"`
}

// VolumeHistory is the get_volume_history response.
type VolumeHistory struct {
	Symbol      string        `json:"symbol"`
	Provider    string        `json:"provider"`
	Timeframe   string        `json:"timeframe"`
	Points      []VolumePoint `json:"points"`
	TotalVolume float64       `json:"total_volume"`
}

// GetVolumeHistory returns per-bar trading volume.
func (s *Service) GetVolumeHistory(ctx context.Context, symbol, timeframe string, limit int, providerName string) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("get_volume_history", err)
	}
	if limit <= 0 {
		return s.fail("get_volume_history", errInvalidLimit(limit))
	}

	candles, err := s.client.OHLCV(ctx, symbol, timeframe, limit, providerName)
	if err != nil {
		return s.fail("get_volume_history", err)
	}

	points := make([]VolumePoint, 0, len(candles))
	total := 0.0
	for _, candle := range candles {
		points = append(points, VolumePoint{Timestamp: candle.Timestamp, Volume: candle.Volume})
		total += candle.Volume
	}

	return ok(VolumeHistory{
		Symbol:      symbol,
		Provider:    providerName,
		Timeframe:   timeframe,
		Points:      points,
		TotalVolume: total,
	})
}

// MovingAverage is the get_moving_average response.
type MovingAverage struct {
	Symbol        string  `json:"symbol"`
	Provider      string  `json:"provider"`
	Timeframe     string  `json:"timeframe"`
	Period        int     `json:"period"`
	Average       float64 `json:"average"`
	CurrentPrice  float64 `json:"current_price"`
	AboveAverage  bool    `json:"above_average"`
	SamplesUsed   int     `json:"samples_used"`
	LastTimestamp int64   `json:"last_timestamp"`
}

// GetMovingAverage computes a simple moving average over closing prices.
func (s *Service) GetMovingAverage(ctx context.Context, symbol string, period int, timeframe, providerName string) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("get_moving_average", err)
	}
	if period <= 0 {
		return s.fail("get_moving_average",
			client.NewValidationError("period", period, "must be positive"))
	}

	candles, err := s.client.OHLCV(ctx, symbol, timeframe, period, providerName)
	if err != nil {
		return s.fail("get_moving_average", err)
	}
	if len(candles) == 0 {
		return s.fail("get_moving_average",
			client.NewDataError(providerName, "no candles returned", nil))
	}

	sum := 0.0
	for _, candle := range candles {
		sum += candle.Close
	}
	average := sum / float64(len(candles))
	current := candles[len(candles)-1].Close

	return ok(MovingAverage{
		Symbol:        symbol,
		Provider:      providerName,
		Timeframe:     timeframe,
		Period:        period,
		Average:       average,
		CurrentPrice:  current,
		AboveAverage:  current > average,
		SamplesUsed:   len(candles),
		LastTimestamp: candles[len(candles)-1].Timestamp,
	})
}
