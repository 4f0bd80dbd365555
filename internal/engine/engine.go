// Package engine hosts the strategy operations behind the REST API: it loads
// market data, runs the pure backtest and signal cores, and performs the
// best-effort side effects (registry, events, notifications, metrics).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/notify"
	"github.com/trogers1052/strategy-forge/internal/observability"
	"github.com/trogers1052/strategy-forge/internal/strategy"
)

// PriceSource provides already ingested market data
type PriceSource interface {
	GetPriceDataRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.PriceDataDaily, error)
	GetSentimentRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.SentimentDaily, error)
}

// Registry stores backtest runs and ranks them
type Registry interface {
	SaveBacktestRun(ctx context.Context, run *models.BacktestRun) error
	GetTopStrategies(ctx context.Context, limit int, orderBy string) ([]models.TopStrategy, error)
}

// SignalStore records signal check outcomes
type SignalStore interface {
	CreateSignalHistory(ctx context.Context, h *models.SignalHistory) error
	GetSignalHistory(ctx context.Context, symbol string, limit int) ([]*models.SignalHistory, error)
}

// EventPublisher emits domain events
type EventPublisher interface {
	PublishSignal(ctx context.Context, evt models.SignalEvent) error
	PublishBacktestCompleted(ctx context.Context, evt models.BacktestCompletedEvent) error
}

// Config holds engine settings
type Config struct {
	DefaultInitialCapital float64
	SignalLookbackDays    int
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		DefaultInitialCapital: 100000,
		SignalLookbackDays:    120,
	}
}

// Deps are the engine collaborators. Only Prices is required.
type Deps struct {
	Prices    PriceSource
	Registry  Registry
	Signals   SignalStore
	Publisher EventPublisher
	Notifier  notify.Notifier
	Generator strategy.Generator
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Engine runs backtests and signal checks
type Engine struct {
	cfg       Config
	prices    PriceSource
	registry  Registry
	signals   SignalStore
	publisher EventPublisher
	notifier  notify.Notifier
	generator strategy.Generator
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an Engine
func New(cfg Config, deps Deps) *Engine {
	defaults := DefaultConfig()
	if cfg.DefaultInitialCapital <= 0 {
		cfg.DefaultInitialCapital = defaults.DefaultInitialCapital
	}
	if cfg.SignalLookbackDays <= 0 {
		cfg.SignalLookbackDays = defaults.SignalLookbackDays
	}
	e := &Engine{
		cfg:       cfg,
		prices:    deps.Prices,
		registry:  deps.Registry,
		signals:   deps.Signals,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		generator: deps.Generator,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if e.generator == nil {
		e.generator = strategy.NewTemplateGenerator()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// today returns the current UTC date at midnight
func (e *Engine) today() time.Time {
	now := e.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseRange validates an ISO date range that must not end after today
func (e *Engine) parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(models.DateLayout, strings.TrimSpace(startStr))
	if err != nil {
		return time.Time{}, time.Time{}, models.NewValidationError("start_date", "must be YYYY-MM-DD, got %q", startStr)
	}
	end, err := time.Parse(models.DateLayout, strings.TrimSpace(endStr))
	if err != nil {
		return time.Time{}, time.Time{}, models.NewValidationError("end_date", "must be YYYY-MM-DD, got %q", endStr)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, models.NewValidationError("start_date", "must not be after end_date")
	}
	if end.After(e.today()) {
		return time.Time{}, time.Time{}, models.NewValidationError("end_date", "must not be in the future")
	}
	return start, end, nil
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", models.NewValidationError("symbol", "is required")
	}
	return symbol, nil
}

// loadMarketData fetches prices and sentiment. Missing prices abort; a
// sentiment failure is logged and the neutral default applies.
func (e *Engine) loadMarketData(ctx context.Context, symbol string, start, end time.Time) ([]*models.PriceDataDaily, []*models.SentimentDaily, error) {
	if e.prices == nil {
		return nil, nil, &DataUnavailableError{Symbol: symbol, Start: start, End: end}
	}
	prices, err := e.prices.GetPriceDataRange(ctx, symbol, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load prices for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return nil, nil, &DataUnavailableError{Symbol: symbol, Start: start, End: end}
	}
	sentiment, err := e.prices.GetSentimentRange(ctx, symbol, start, end)
	if err != nil {
		e.logger.Warn("sentiment unavailable, using neutral default",
			"symbol", symbol, "error", err)
		sentiment = nil
	}
	return prices, sentiment, nil
}
