package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tidewatch/crypto-market-client/internal/config"
	"github.com/tidewatch/crypto-market-client/pkg/cache"
	"github.com/tidewatch/crypto-market-client/pkg/client"
	"github.com/tidewatch/crypto-market-client/pkg/logging"
	"github.com/tidewatch/crypto-market-client/pkg/provider"
	"github.com/tidewatch/crypto-market-client/pkg/provider/binance"
	"github.com/tidewatch/crypto-market-client/pkg/ratelimit"
	"github.com/tidewatch/crypto-market-client/pkg/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	// Cache backend: Redis when configured, memory otherwise.
	var backend cache.Backend
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		cancel()
		log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
		backend = cache.NewRedis(redisClient)
	} else {
		backend = cache.NewMemory()
	}

	// One bucket per configured provider, registered at startup.
	limits := ratelimit.NewRegistry()
	for _, name := range cfg.Providers {
		limits.Register(name, cfg.RatePerSecond, cfg.Burst)
	}

	providers := buildProviders(cfg.Providers)

	retry := client.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries

	marketClient, err := client.New(client.Config{
		Cache:          cache.NewManager(backend),
		Limits:         limits,
		Providers:      providers,
		Retry:          retry,
		AcquireTimeout: cfg.AcquireTimeout,
		CallTimeout:    cfg.CallTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create market client")
	}

	svc := service.New(marketClient)

	mux := http.NewServeMux()
	registerRoutes(mux, svc)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)

	limiter := newClientLimiter(cfg.InboundRPS, cfg.InboundBurst)
	handler := requestLogger(limiter.middleware(mux))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Strs("providers", cfg.Providers).
			Msg("Starting market proxy")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

// buildProviders maps configured names onto adapters. Binance is the only
// built-in adapter; unknown names get no adapter and are skipped with a
// warning so a typo can't silently route traffic nowhere.
func buildProviders(names []string) map[string]provider.Provider {
	providers := make(map[string]provider.Provider, len(names))
	for _, name := range names {
		switch name {
		case "binance":
			providers[name] = binance.New()
		default:
			log.Warn().Str("provider", name).Msg("No adapter for provider, skipping")
		}
	}
	return providers
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
