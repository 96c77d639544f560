// Package ratelimit implements per-provider token-bucket rate limiting.
// Each bucket refills continuously at a fixed rate up to a capacity ceiling;
// refill happens lazily on every acquisition attempt, so there are no
// background timers.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for rate limiting.
var (
	acquiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_ratelimit_acquires_total",
		Help: "Total successful token acquisitions by provider",
	}, []string{"provider"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_ratelimit_rejections_total",
		Help: "Total rejected token acquisitions by provider",
	}, []string{"provider"})

	tokensGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "market_ratelimit_tokens",
		Help: "Current token count by provider",
	}, []string{"provider"})
)

// defaultPollInterval is how often a blocked Acquire rechecks the bucket.
const defaultPollInterval = 10 * time.Millisecond

// Stats is a point-in-time snapshot of a bucket's counters.
type Stats struct {
	Name          string  `json:"name"`
	Rate          float64 `json:"rate"`
	Capacity      float64 `json:"capacity"`
	CurrentTokens float64 `json:"current_tokens"`
	Requests      uint64  `json:"requests"`
	Rejections    uint64  `json:"rejections"`
	SuccessRate   float64 `json:"success_rate"`
}

// Bucket is a token bucket. Tokens are a real number so fractional refill
// accumulates precisely; acquisition cost is always a whole number of tokens.
// The token count never exceeds capacity and never goes negative.
type Bucket struct {
	name     string
	rate     float64
	capacity float64

	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
	requests   uint64
	rejections uint64

	// now is the clock source, overridable in tests.
	now          func() time.Time
	pollInterval time.Duration
	logger       zerolog.Logger
}

// NewBucket creates a full bucket refilling at rate tokens/sec up to capacity.
func NewBucket(name string, rate float64, capacity int) *Bucket {
	b := &Bucket{
		name:         name,
		rate:         rate,
		capacity:     float64(capacity),
		tokens:       float64(capacity),
		now:          time.Now,
		pollInterval: defaultPollInterval,
		logger:       log.With().Str("component", "ratelimit").Str("bucket", name).Logger(),
	}
	b.lastUpdate = b.now()
	return b
}

// refill advances the bucket to the current time. Caller must hold mu.
func (b *Bucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastUpdate = now
}

// take refills and subtracts n tokens if available. Caller must hold mu.
func (b *Bucket) take(n int) bool {
	b.refill()
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		b.requests++
		tokensGauge.WithLabelValues(b.name).Set(b.tokens)
		return true
	}
	return false
}

// Acquire blocks until n tokens are available or ctx is done. Bound the wait
// with a context deadline; without one, Acquire waits indefinitely. Returns
// false (and records a rejection) when the context ends first. No fairness
// ordering is guaranteed among concurrent waiters.
func (b *Bucket) Acquire(ctx context.Context, n int) bool {
	for {
		b.mu.Lock()
		ok := b.take(n)
		b.mu.Unlock()

		if ok {
			acquiresTotal.WithLabelValues(b.name).Inc()
			b.logger.Debug().Int("tokens", n).Msg("Acquired tokens")
			return true
		}

		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.rejections++
			b.mu.Unlock()
			rejectionsTotal.WithLabelValues(b.name).Inc()
			b.logger.Warn().Int("tokens", n).Msg("Token acquisition timed out")
			return false
		case <-time.After(b.pollInterval):
		}
	}
}

// TryAcquire attempts to take n tokens without waiting.
func (b *Bucket) TryAcquire(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.take(n) {
		acquiresTotal.WithLabelValues(b.name).Inc()
		return true
	}
	b.rejections++
	rejectionsTotal.WithLabelValues(b.name).Inc()
	return false
}

// Reset restores the bucket to full capacity and zeroes its counters.
func (b *Bucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = b.capacity
	b.lastUpdate = b.now()
	b.requests = 0
	b.rejections = 0
	tokensGauge.WithLabelValues(b.name).Set(b.tokens)
}

// GetStats returns a snapshot of the bucket after a refill, so the reported
// token count reflects the current wall clock.
func (b *Bucket) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	total := b.requests + b.rejections
	successRate := 0.0
	if total > 0 {
		successRate = float64(b.requests) / float64(total) * 100
	}

	return Stats{
		Name:          b.name,
		Rate:          b.rate,
		Capacity:      b.capacity,
		CurrentTokens: b.tokens,
		Requests:      b.requests,
		Rejections:    b.rejections,
		SuccessRate:   successRate,
	}
}
