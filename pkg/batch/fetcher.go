// Package batch provides parallel ticker fetching across symbol sets using a
// bounded worker pool. Failed symbols are skipped; the caller gets partial
// results rather than an all-or-nothing failure.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tidewatch/crypto-market-client/pkg/provider"
)

// FetchFunc fetches one symbol's ticker.
type FetchFunc func(ctx context.Context, symbol string) (*provider.Ticker, error)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of in-flight fetches.
	MaxConcurrency int

	// Timeout per symbol fetch.
	Timeout time.Duration
}

// DefaultConfig returns safe defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        10 * time.Second,
	}
}

// Fetcher fans one FetchFunc out over many symbols.
type Fetcher struct {
	fetch  FetchFunc
	config Config
}

// NewFetcher creates a batch fetcher.
func NewFetcher(fetch FetchFunc, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Fetcher{fetch: fetch, config: config}
}

type symbolResult struct {
	symbol string
	ticker *provider.Ticker
	err    error
}

// FetchAll fetches tickers for all symbols in parallel and returns the
// successful ones keyed by symbol. Per-symbol failures are logged and
// dropped; cancellation of ctx stops the remaining work.
func (f *Fetcher) FetchAll(ctx context.Context, symbols []string) map[string]*provider.Ticker {
	start := time.Now()

	queue := make(chan string, len(symbols))
	results := make(chan symbolResult, len(symbols))

	for _, symbol := range symbols {
		queue <- symbol
	}
	close(queue)

	var wg sync.WaitGroup
	workers := f.config.MaxConcurrency
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go f.worker(ctx, queue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	tickers := make(map[string]*provider.Ticker)
	for result := range results {
		if result.err != nil {
			log.Warn().
				Err(result.err).
				Str("symbol", result.symbol).
				Msg("Symbol fetch failed")
			continue
		}
		tickers[result.symbol] = result.ticker
	}

	log.Debug().
		Int("requested", len(symbols)).
		Int("fetched", len(tickers)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return tickers
}

func (f *Fetcher) worker(ctx context.Context, queue <-chan string, results chan<- symbolResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for symbol := range queue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		ticker, err := f.fetch(fetchCtx, symbol)
		cancel()

		select {
		case results <- symbolResult{symbol: symbol, ticker: ticker, err: err}:
		case <-ctx.Done():
			return
		}
	}
}
