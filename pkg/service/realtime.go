package service

import (
	"context"
	"sort"
	"sync"

	"github.com/tidewatch/crypto-market-client/pkg/batch"
	"github.com/tidewatch/crypto-market-client/pkg/provider"
)

// topVolumesScan bounds how many symbols a top-volumes ranking inspects.
const topVolumesScan = 100

// PricePayload is the get_price response.
type PricePayload struct {
	Symbol    string   `json:"symbol"`
	Provider  string   `json:"provider"`
	Price     float64  `json:"price"`
	Bid       float64  `json:"bid"`
	Ask       float64  `json:"ask"`
	Spread    *float64 `json:"spread"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Volume    float64  `json:"volume"`
	Timestamp int64    `json:"timestamp"`
}

// GetPrice returns the current price with bid/ask spread.
func (s *Service) GetPrice(ctx context.Context, symbol, providerName string) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("get_price", err)
	}

	ticker, err := s.client.Ticker(ctx, symbol, providerName)
	if err != nil {
		return s.fail("get_price", err)
	}

	var spread *float64
	if ticker.Bid > 0 && ticker.Ask > 0 {
		v := ticker.Ask - ticker.Bid
		spread = &v
	}

	return ok(PricePayload{
		Symbol:    symbol,
		Provider:  providerName,
		Price:     ticker.Last,
		Bid:       ticker.Bid,
		Ask:       ticker.Ask,
		Spread:    spread,
		High:      ticker.High,
		Low:       ticker.Low,
		Volume:    ticker.QuoteVolume,
		Timestamp: ticker.Timestamp,
	})
}

// MarketSummary is the get_market_summary response.
type MarketSummary struct {
	Symbol           string  `json:"symbol"`
	Provider         string  `json:"provider"`
	Price            float64 `json:"price"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Volume           float64 `json:"volume"`
	BaseVolume       float64 `json:"base_volume"`
	Change24h        float64 `json:"change_24h"`
	ChangePercent24h float64 `json:"change_percent_24h"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	BidVolume        float64 `json:"bid_volume"`
	AskVolume        float64 `json:"ask_volume"`
	Timestamp        int64   `json:"timestamp"`
}

// GetMarketSummary returns ticker data combined with top-of-book volume.
func (s *Service) GetMarketSummary(ctx context.Context, symbol, providerName string) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("get_market_summary", err)
	}

	ticker, err := s.client.Ticker(ctx, symbol, providerName)
	if err != nil {
		return s.fail("get_market_summary", err)
	}

	book, err := s.client.OrderBook(ctx, symbol, 5, providerName)
	if err != nil {
		return s.fail("get_market_summary", err)
	}

	summary := MarketSummary{
		Symbol:           symbol,
		Provider:         providerName,
		Price:            ticker.Last,
		Open:             ticker.Open,
		High:             ticker.High,
		Low:              ticker.Low,
		Volume:           ticker.QuoteVolume,
		BaseVolume:       ticker.BaseVolume,
		Change24h:        ticker.Change,
		ChangePercent24h: ticker.ChangePercent,
		Bid:              ticker.Bid,
		Ask:              ticker.Ask,
		Timestamp:        ticker.Timestamp,
	}
	if len(book.Bids) > 0 {
		summary.BidVolume = book.Bids[0].Size
	}
	if len(book.Asks) > 0 {
		summary.AskVolume = book.Asks[0].Size
	}

	return ok(summary)
}

// VolumePair is one entry of a top-volumes ranking.
type VolumePair struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Volume        float64 `json:"volume"`
	ChangePercent float64 `json:"change_percent_24h"`
}

// TopVolumes is the get_top_volumes response.
type TopVolumes struct {
	Provider     string       `json:"provider"`
	Limit        int          `json:"limit"`
	TopPairs     []VolumePair `json:"top_pairs"`
	TotalSymbols int          `json:"total_symbols"`
}

// GetTopVolumes ranks the provider's pairs by quote volume. Tickers are
// fetched concurrently through the batch fetcher; symbols that fail to fetch
// are skipped rather than failing the ranking.
func (s *Service) GetTopVolumes(ctx context.Context, limit int, providerName string) Result {
	if limit <= 0 {
		return s.fail("get_top_volumes", errInvalidLimit(limit))
	}

	symbols, err := s.client.Symbols(ctx, providerName)
	if err != nil {
		return s.fail("get_top_volumes", err)
	}

	scan := symbols
	if len(scan) > topVolumesScan {
		scan = scan[:topVolumesScan]
	}

	fetcher := batch.NewFetcher(func(ctx context.Context, symbol string) (*provider.Ticker, error) {
		return s.client.Ticker(ctx, symbol, providerName)
	}, s.batch)
	tickers := fetcher.FetchAll(ctx, scan)

	pairs := make([]VolumePair, 0, len(tickers))
	for symbol, ticker := range tickers {
		pairs = append(pairs, VolumePair{
			Symbol:        symbol,
			Price:         ticker.Last,
			Volume:        ticker.QuoteVolume,
			ChangePercent: ticker.ChangePercent,
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Volume > pairs[j].Volume })
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}

	return ok(TopVolumes{
		Provider:     providerName,
		Limit:        limit,
		TopPairs:     pairs,
		TotalSymbols: len(symbols),
	})
}

// OrderBookPayload is the get_order_book response.
type OrderBookPayload struct {
	Symbol    string               `json:"symbol"`
	Provider  string               `json:"provider"`
	Bids      []provider.BookLevel `json:"bids"`
	Asks      []provider.BookLevel `json:"asks"`
	BestBid   *float64             `json:"best_bid"`
	BestAsk   *float64             `json:"best_ask"`
	Spread    *float64             `json:"spread"`
	Timestamp int64                `json:"timestamp"`
}

// GetOrderBook returns depth with best bid/ask and spread.
func (s *Service) GetOrderBook(ctx context.Context, symbol, providerName string, limit int) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("get_order_book", err)
	}
	if limit <= 0 {
		limit = 20
	}

	book, err := s.client.OrderBook(ctx, symbol, limit, providerName)
	if err != nil {
		return s.fail("get_order_book", err)
	}

	payload := OrderBookPayload{
		Symbol:    symbol,
		Provider:  providerName,
		Bids:      book.Bids,
		Asks:      book.Asks,
		Timestamp: book.Timestamp,
	}
	if len(book.Bids) > 0 {
		payload.BestBid = &book.Bids[0].Price
	}
	if len(book.Asks) > 0 {
		payload.BestAsk = &book.Asks[0].Price
	}
	if payload.BestBid != nil && payload.BestAsk != nil {
		v := *payload.BestAsk - *payload.BestBid
		payload.Spread = &v
	}

	return ok(payload)
}

// ProviderPrice is one provider's entry in a price comparison.
type ProviderPrice struct {
	Price *PricePayload `json:"price,omitempty"`
	Error string        `json:"error,omitempty"`
}

// PriceComparison is the compare_prices response.
type PriceComparison struct {
	Symbol       string                   `json:"symbol"`
	Providers    map[string]ProviderPrice `json:"providers"`
	AveragePrice *float64                 `json:"average_price"`
	Count        int                      `json:"count"`
}

// ComparePrices fetches the price from several providers concurrently.
// Per-provider failures are embedded in the response rather than failing the
// comparison.
func (s *Service) ComparePrices(ctx context.Context, symbol string, providerNames []string) Result {
	if err := validateSymbol(symbol); err != nil {
		return s.fail("compare_prices", err)
	}
	if len(providerNames) == 0 {
		providerNames = s.client.Providers()
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]ProviderPrice, len(providerNames))
	)

	for _, name := range providerNames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			result := s.GetPrice(ctx, symbol, name)

			mu.Lock()
			defer mu.Unlock()
			if !result.Success {
				results[name] = ProviderPrice{Error: result.Error}
				return
			}
			payload := result.Data.(PricePayload)
			results[name] = ProviderPrice{Price: &payload}
		}(name)
	}
	wg.Wait()

	var sum float64
	count := 0
	for _, entry := range results {
		if entry.Price != nil {
			sum += entry.Price.Price
			count++
		}
	}
	var avg *float64
	if count > 0 {
		v := sum / float64(count)
		avg = &v
	}

	return ok(PriceComparison{
		Symbol:       symbol,
		Providers:    results,
		AveragePrice: avg,
		Count:        count,
	})
}
