// Package binance implements the provider contract over Binance-style public
// REST endpoints. It is a best-effort mapping of the public market data API,
// not a compliance layer; errors come back raw for generic classification.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidewatch/crypto-market-client/pkg/provider"
)

// DefaultBaseURL is the public Binance REST API.
const DefaultBaseURL = "https://api.binance.com"

// Provider is a Binance market data adapter.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL points the adapter at a different host (tests, mirrors).
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) { p.httpClient = client }
}

// New creates a Binance provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return "binance" }

// marketSymbol converts "BTC/USDT" into Binance's "BTCUSDT" form.
func marketSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// apiError is Binance's JSON error body.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (p *Provider) getJSON(ctx context.Context, endpoint string, params url.Values, target any) error {
	u := p.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			// Keep the upstream message; the classifier matches on it.
			return fmt.Errorf("binance %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("binance status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	CloseTime          int64  `json:"closeTime"`
}

func parsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// FetchTicker implements provider.Provider.
func (p *Provider) FetchTicker(ctx context.Context, symbol string) (*provider.Ticker, error) {
	params := url.Values{"symbol": {marketSymbol(symbol)}}

	var raw ticker24h
	if err := p.getJSON(ctx, "/api/v3/ticker/24hr", params, &raw); err != nil {
		return nil, err
	}

	return &provider.Ticker{
		Symbol:        symbol,
		Provider:      p.Name(),
		Last:          parsePrice(raw.LastPrice),
		Bid:           parsePrice(raw.BidPrice),
		Ask:           parsePrice(raw.AskPrice),
		Open:          parsePrice(raw.OpenPrice),
		High:          parsePrice(raw.HighPrice),
		Low:           parsePrice(raw.LowPrice),
		BaseVolume:    parsePrice(raw.Volume),
		QuoteVolume:   parsePrice(raw.QuoteVolume),
		Change:        parsePrice(raw.PriceChange),
		ChangePercent: parsePrice(raw.PriceChangePercent),
		Timestamp:     raw.CloseTime,
	}, nil
}

type depthResponse struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

func toLevels(raw [][2]string, limit int) []provider.BookLevel {
	if len(raw) > limit {
		raw = raw[:limit]
	}
	levels := make([]provider.BookLevel, 0, len(raw))
	for _, l := range raw {
		levels = append(levels, provider.BookLevel{
			Price: parsePrice(l[0]),
			Size:  parsePrice(l[1]),
		})
	}
	return levels
}

// FetchOrderBook implements provider.Provider.
func (p *Provider) FetchOrderBook(ctx context.Context, symbol string, limit int) (*provider.OrderBook, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{
		"symbol": {marketSymbol(symbol)},
		"limit":  {strconv.Itoa(limit)},
	}

	var raw depthResponse
	if err := p.getJSON(ctx, "/api/v3/depth", params, &raw); err != nil {
		return nil, err
	}

	return &provider.OrderBook{
		Symbol:    symbol,
		Provider:  p.Name(),
		Bids:      toLevels(raw.Bids, limit),
		Asks:      toLevels(raw.Asks, limit),
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// FetchOHLCV implements provider.Provider. Klines come back as positional
// JSON arrays [openTime, open, high, low, close, volume, ...].
func (p *Provider) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]provider.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{
		"symbol":   {marketSymbol(symbol)},
		"interval": {timeframe},
		"limit":    {strconv.Itoa(limit)},
	}

	var raw [][]json.RawMessage
	if err := p.getJSON(ctx, "/api/v3/klines", params, &raw); err != nil {
		return nil, err
	}

	candles := make([]provider.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			return nil, fmt.Errorf("malformed kline with %d fields", len(k))
		}
		var openTime int64
		if err := json.Unmarshal(k[0], &openTime); err != nil {
			return nil, fmt.Errorf("decode kline timestamp: %w", err)
		}
		var o, h, l, cl, v string
		for i, target := range []*string{&o, &h, &l, &cl, &v} {
			if err := json.Unmarshal(k[i+1], target); err != nil {
				return nil, fmt.Errorf("decode kline field %d: %w", i+1, err)
			}
		}
		candles = append(candles, provider.Candle{
			Timestamp: openTime,
			Open:      parsePrice(o),
			High:      parsePrice(h),
			Low:       parsePrice(l),
			Close:     parsePrice(cl),
			Volume:    parsePrice(v),
		})
	}
	return candles, nil
}

type rawTrade struct {
	ID           int64  `json:"id"`
	Price        string `json:"price"`
	Qty          string `json:"qty"`
	QuoteQty     string `json:"quoteQty"`
	Time         int64  `json:"time"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
}

// FetchTrades implements provider.Provider.
func (p *Provider) FetchTrades(ctx context.Context, symbol string, limit int) ([]provider.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{
		"symbol": {marketSymbol(symbol)},
		"limit":  {strconv.Itoa(limit)},
	}

	var raw []rawTrade
	if err := p.getJSON(ctx, "/api/v3/trades", params, &raw); err != nil {
		return nil, err
	}

	trades := make([]provider.Trade, 0, len(raw))
	for _, t := range raw {
		side := "buy"
		if t.IsBuyerMaker {
			side = "sell"
		}
		trades = append(trades, provider.Trade{
			ID:        strconv.FormatInt(t.ID, 10),
			Symbol:    symbol,
			Side:      side,
			Price:     parsePrice(t.Price),
			Amount:    parsePrice(t.Qty),
			Cost:      parsePrice(t.QuoteQty),
			Timestamp: t.Time,
		})
	}
	return trades, nil
}

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// Symbols implements provider.Provider, returning pairs in "BASE/QUOTE" form.
func (p *Provider) Symbols(ctx context.Context) ([]string, error) {
	var raw exchangeInfo
	if err := p.getJSON(ctx, "/api/v3/exchangeInfo", nil, &raw); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(raw.Symbols))
	for _, s := range raw.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		symbols = append(symbols, s.BaseAsset+"/"+s.QuoteAsset)
	}
	return symbols, nil
}
