// Package config loads proxy configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds the market proxy configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"MARKET_PROXY_ADDR" env-default:":8080"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	// LogPretty enables human-readable console output.
	LogPretty bool `env:"LOG_PRETTY" env-default:"false"`

	// RedisAddr selects the Redis cache backend when set; empty uses memory.
	RedisAddr string `env:"REDIS_ADDR" env-default:""`

	// RedisDB is the Redis database number.
	RedisDB int `env:"REDIS_DB" env-default:"0"`

	// Providers are the market data providers to register limiters for.
	Providers []string `env:"PROVIDERS" env-separator:"," env-default:"binance"`

	// RatePerSecond is the per-provider token refill rate.
	RatePerSecond float64 `env:"RATE_LIMIT_PER_SECOND" env-default:"10"`

	// Burst is the per-provider bucket capacity.
	Burst int `env:"RATE_LIMIT_BURST" env-default:"20"`

	// AcquireTimeout bounds the wait for rate-limit tokens.
	AcquireTimeout time.Duration `env:"ACQUIRE_TIMEOUT" env-default:"10s"`

	// CallTimeout bounds each provider call.
	CallTimeout time.Duration `env:"CALL_TIMEOUT" env-default:"10s"`

	// MaxRetries is the attempt budget per provider call.
	MaxRetries int `env:"MAX_RETRIES" env-default:"3"`

	// InboundRPS limits requests per second per remote client.
	InboundRPS float64 `env:"INBOUND_RPS" env-default:"20"`

	// InboundBurst is the per-client burst allowance.
	InboundBurst int `env:"INBOUND_BURST" env-default:"40"`
}

// Load reads configuration from the environment. A local .env file is
// honored when present.
func Load() (*Config, error) {
	// Ignore a missing .env; the environment alone is a valid source.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if cfg.RatePerSecond <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive (got %v)", cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be positive (got %d)", cfg.Burst)
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("PROVIDERS must name at least one provider")
	}

	return &cfg, nil
}
