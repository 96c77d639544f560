package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tidewatch/crypto-market-client/pkg/service"
)

const defaultProvider = "binance"

func registerRoutes(mux *http.ServeMux, svc *service.Service) {
	mux.HandleFunc("GET /api/price", priceHandler(svc))
	mux.HandleFunc("GET /api/summary", summaryHandler(svc))
	mux.HandleFunc("GET /api/orderbook", orderBookHandler(svc))
	mux.HandleFunc("GET /api/top-volumes", topVolumesHandler(svc))
	mux.HandleFunc("GET /api/compare", compareHandler(svc))
	mux.HandleFunc("GET /api/ohlcv", ohlcvHandler(svc))
	mux.HandleFunc("GET /api/price-change", priceChangeHandler(svc))
	mux.HandleFunc("GET /api/volume-history", volumeHistoryHandler(svc))
	mux.HandleFunc("GET /api/moving-average", movingAverageHandler(svc))
	mux.HandleFunc("GET /api/providers", providersHandler(svc))
	mux.HandleFunc("GET /api/stats/cache", cacheStatsHandler(svc))
	mux.HandleFunc("GET /api/stats/ratelimit", rateLimitStatsHandler(svc))
}

func writeResult(w http.ResponseWriter, result service.Result) {
	w.Header().Set("Content-Type", "application/json")
	if !result.Success {
		w.WriteHeader(http.StatusBadGateway)
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func providerParam(r *http.Request) string {
	if p := r.URL.Query().Get("provider"); p != "" {
		return p
	}
	return defaultProvider
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func priceHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, svc.GetPrice(r.Context(), r.URL.Query().Get("symbol"), providerParam(r)))
	}
}

func summaryHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, svc.GetMarketSummary(r.Context(), r.URL.Query().Get("symbol"), providerParam(r)))
	}
}

func orderBookHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		depth := intParam(r, "depth", 20)
		writeResult(w, svc.GetOrderBook(r.Context(), r.URL.Query().Get("symbol"), providerParam(r), depth))
	}
}

func topVolumesHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := intParam(r, "limit", 10)
		writeResult(w, svc.GetTopVolumes(r.Context(), limit, providerParam(r)))
	}
}

func compareHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var providers []string
		if raw := r.URL.Query().Get("providers"); raw != "" {
			providers = strings.Split(raw, ",")
		}
		writeResult(w, svc.ComparePrices(r.Context(), r.URL.Query().Get("symbol"), providers))
	}
}

func ohlcvHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeframe := r.URL.Query().Get("timeframe")
		if timeframe == "" {
			timeframe = "1h"
		}
		limit := intParam(r, "limit", 24)
		writeResult(w, svc.GetHistoricalOHLCV(r.Context(), r.URL.Query().Get("symbol"), timeframe, limit, providerParam(r)))
	}
}

func priceChangeHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			period = "24h"
		}
		writeResult(w, svc.GetPriceChange(r.Context(), r.URL.Query().Get("symbol"), period, providerParam(r)))
	}
}

func volumeHistoryHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeframe := r.URL.Query().Get("timeframe")
		if timeframe == "" {
			timeframe = "1h"
		}
		limit := intParam(r, "limit", 24)
		writeResult(w, svc.GetVolumeHistory(r.Context(), r.URL.Query().Get("symbol"), timeframe, limit, providerParam(r)))
	}
}

func movingAverageHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeframe := r.URL.Query().Get("timeframe")
		if timeframe == "" {
			timeframe = "1d"
		}
		period := intParam(r, "period", 7)
		writeResult(w, svc.GetMovingAverage(r.Context(), r.URL.Query().Get("symbol"), period, timeframe, providerParam(r)))
	}
}

func providersHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeResult(w, svc.ListProviders())
	}
}

func cacheStatsHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, svc.GetCacheStats(r.Context()))
	}
}

func rateLimitStatsHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeResult(w, svc.GetRateLimitStats())
	}
}
