// Package service exposes the callable market data operations to a transport
// layer. Every operation returns a discriminated Result; classified domain
// errors and unexpected errors are both reported as failure results, never
// raised across the boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tidewatch/crypto-market-client/pkg/batch"
	"github.com/tidewatch/crypto-market-client/pkg/client"
)

// Result is the discriminated outcome every operation returns.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Service implements the operation surface over an orchestrator client.
type Service struct {
	client *client.Client
	batch  batch.Config
	logger zerolog.Logger
}

// New creates a service over the given client.
func New(c *client.Client) *Service {
	return &Service{
		client: c,
		batch:  batch.DefaultConfig(),
		logger: log.With().Str("component", "service").Logger(),
	}
}

// ok wraps a success payload.
func ok(data any) Result {
	return Result{Success: true, Data: data}
}

// fail converts an error into a failure result. Classified domain errors and
// unexpected errors are distinguished in logs only; callers see a message
// either way.
func (s *Service) fail(op string, err error) Result {
	var domainErr *client.Error
	if errors.As(err, &domainErr) {
		s.logger.Error().
			Str("operation", op).
			Str("kind", string(domainErr.Kind)).
			Str("severity", string(domainErr.Severity)).
			Msg(domainErr.Message)
		return Result{Success: false, Error: domainErr.Error()}
	}

	s.logger.Error().Str("operation", op).Err(err).Msg("Unexpected error")
	return Result{Success: false, Error: fmt.Sprintf("unexpected error: %v", err)}
}

// validateSymbol rejects pairs that are not in BASE/QUOTE form before any
// provider call. Validation failures are never retried.
func validateSymbol(symbol string) error {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return client.NewValidationError("symbol", symbol, "expected BASE/QUOTE form")
	}
	return nil
}

// ProvidersInfo lists the configured providers.
type ProvidersInfo struct {
	Providers []string `json:"providers"`
	Count     int      `json:"count"`
}

// ListProviders returns the configured provider names.
func (s *Service) ListProviders() Result {
	names := s.client.Providers()
	return ok(ProvidersInfo{Providers: names, Count: len(names)})
}

// GetCacheStats returns a read-only cache counter snapshot.
func (s *Service) GetCacheStats(ctx context.Context) Result {
	stats, err := s.client.Cache().GetStats(ctx)
	if err != nil {
		return s.fail("get_cache_stats", err)
	}
	return ok(stats)
}

// GetRateLimitStats returns a read-only per-provider limiter snapshot.
func (s *Service) GetRateLimitStats() Result {
	limits := s.client.Limits()
	if limits == nil {
		return ok(map[string]any{})
	}
	return ok(limits.GetAllStats())
}
