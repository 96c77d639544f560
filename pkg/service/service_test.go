package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/crypto-market-client/internal/testutil"
	"github.com/tidewatch/crypto-market-client/pkg/client"
	"github.com/tidewatch/crypto-market-client/pkg/provider"
)

// newTestService wires a service over mock providers with fast retry.
func newTestService(t *testing.T, mocks ...*testutil.MockProvider) *Service {
	t.Helper()

	providers := make(map[string]provider.Provider, len(mocks))
	for _, mock := range mocks {
		providers[mock.ProviderName] = mock
	}

	cfg := client.DefaultConfig(providers)
	cfg.Retry = client.RetryConfig{
		MaxRetries:    2,
		BaseDelay:     time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
	}
	cfg.AcquireTimeout = 100 * time.Millisecond
	cfg.CallTimeout = time.Second

	c, err := client.New(cfg)
	require.NoError(t, err)
	return New(c)
}

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol  string
		wantErr bool
	}{
		{"BTC/USDT", false},
		{"eth/usdt", false},
		{"BTCUSDT", true},
		{"BTC/", true},
		{"/USDT", true},
		{"", true},
		{"A/B/C", true},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			err := validateSymbol(tt.symbol)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListProviders(t *testing.T) {
	svc := newTestService(t, testutil.NewMockProvider("binance"))

	result := svc.ListProviders()

	require.True(t, result.Success)
	info, ok := result.Data.(ProvidersInfo)
	require.True(t, ok)
	assert.Equal(t, 1, info.Count)
	assert.Contains(t, info.Providers, "binance")
}

func TestGetCacheStats(t *testing.T) {
	svc := newTestService(t, testutil.NewMockProvider("binance"))

	result := svc.GetCacheStats(context.Background())

	require.True(t, result.Success)
	assert.NotNil(t, result.Data)
}

func TestGetRateLimitStats(t *testing.T) {
	svc := newTestService(t, testutil.NewMockProvider("binance"))

	result := svc.GetRateLimitStats()

	require.True(t, result.Success)
}

func TestFailResult_DomainError(t *testing.T) {
	svc := newTestService(t, testutil.NewMockProvider("binance"))

	// Malformed symbol fails validation before any provider call.
	result := svc.GetPrice(context.Background(), "BTCUSDT", "binance")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")
	assert.Nil(t, result.Data)
}

func TestFailResult_NeverPanicsAcrossBoundary(t *testing.T) {
	mock := testutil.NewMockProvider("binance")
	mock.Err = assert.AnError
	svc := newTestService(t, mock)

	result := svc.GetPrice(context.Background(), "BTC/USDT", "binance")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}
