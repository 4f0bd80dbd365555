package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/trogers1052/strategy-forge/internal/observability"
)

// Options configures the router middleware
type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	Metrics        *observability.Metrics
	Logger         *slog.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, opts Options) *mux.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := mux.NewRouter()
	r.Use(CORS, Instrument(opts.Logger, opts.Metrics), APIKey(opts.APIKey),
		RateLimit(opts.RateLimitRPS, opts.RateLimitBurst), Timeout(opts.RequestTimeout))

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")

	// Strategy routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	api.HandleFunc("/strategies/generate", handler.GenerateStrategy).Methods("POST", "OPTIONS")
	api.HandleFunc("/strategies/top", handler.GetTopStrategies).Methods("GET", "OPTIONS")
	api.HandleFunc("/backtest/run", handler.RunBacktest).Methods("POST", "OPTIONS")
	api.HandleFunc("/signals/check", handler.CheckSignals).Methods("POST", "OPTIONS")
	api.HandleFunc("/signals/history/{symbol}", handler.GetSignalHistory).Methods("GET", "OPTIONS")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondDetail(w, http.StatusNotFound, "not found")
	})
	return r
}
