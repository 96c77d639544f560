package client

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"kind"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error kind",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error kind",
	}, []string{"kind"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the total attempt budget, including the first call.
	MaxRetries int

	// BaseDelay is the delay after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps each backoff step.
	MaxDelay time.Duration

	// BackoffFactor is the multiplier for exponential delay growth.
	BackoffFactor float64

	// RetryableKinds limits which error kinds are retried. Empty means all
	// kinds are eligible.
	RetryableKinds []Kind
}

// DefaultRetryConfig returns the default retry configuration. Only transient
// kinds are eligible; invalid input and validation failures never retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     1 * time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
		RetryableKinds: []Kind{
			KindConnection,
			KindTimeout,
			KindRateLimit,
		},
	}
}

func (c RetryConfig) eligible(kind Kind) bool {
	if len(c.RetryableKinds) == 0 {
		return true
	}
	for _, k := range c.RetryableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// delayFor returns the backoff before retry after a failure on 0-indexed
// attempt i: min(base * factor^i, max). The sequence is deterministic, no
// jitter is applied.
func (c RetryConfig) delayFor(attempt int) time.Duration {
	delay := time.Duration(float64(c.BaseDelay) * math.Pow(c.BackoffFactor, float64(attempt)))
	if delay > c.MaxDelay || delay < 0 {
		delay = c.MaxDelay
	}
	return delay
}

// retryWithBackoff executes fn up to cfg.MaxRetries times. fn must return
// classified errors; eligibility is decided per error kind. The last failure
// propagates unchanged once attempts are exhausted, and ineligible failures
// propagate immediately without consuming a retry.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr *Error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				log.Info().
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		classified, ok := err.(*Error)
		if !ok {
			// fn contract violation; surface the raw error rather than loop.
			return err
		}
		lastErr = classified

		if !cfg.eligible(classified.Kind) {
			return lastErr
		}

		if attempt == cfg.MaxRetries-1 {
			break
		}

		delay := cfg.delayFor(attempt)
		retriesTotal.WithLabelValues(string(classified.Kind)).Inc()
		retryBackoffSeconds.WithLabelValues(string(classified.Kind)).Observe(delay.Seconds())

		log.Debug().
			Str("kind", string(classified.Kind)).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			return NewTimeoutError(classified.Provider, delay, fmt.Errorf("cancelled during retry backoff: %w", ctx.Err()))
		case <-time.After(delay):
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastErr.Kind)).Inc()
	log.Warn().
		Str("kind", string(lastErr.Kind)).
		Int("max_retries", cfg.MaxRetries).
		Msg("Retry attempts exhausted")

	return lastErr
}
