package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trogers1052/strategy-forge/internal/backtest"
	"github.com/trogers1052/strategy-forge/internal/indicators"
	"github.com/trogers1052/strategy-forge/internal/models"
)

// RunBacktest validates the request, simulates the strategy over the stored
// series and records the run. Registry, event and metric failures are logged
// and never change the response.
func (e *Engine) RunBacktest(ctx context.Context, req models.BacktestRequest) (*models.BacktestResponse, error) {
	started := e.now()
	resp, run, err := e.runBacktest(ctx, req)
	if err != nil {
		e.metrics.RecordBacktest("error", e.now().Sub(started))
		return nil, err
	}
	e.metrics.RecordBacktest("success", e.now().Sub(started))

	e.logger.Info("backtest completed",
		"backtest_id", resp.BacktestID,
		"strategy", run.Strategy.Name,
		"symbol", run.Symbol,
		"bars", len(resp.EquityCurve),
		"trades", resp.Metrics.TotalTrades,
		"total_return", resp.Metrics.TotalReturn)

	e.recordBacktest(ctx, run)
	return resp, nil
}

func (e *Engine) runBacktest(ctx context.Context, req models.BacktestRequest) (*models.BacktestResponse, *models.BacktestRun, error) {
	symbol, err := normalizeSymbol(req.Symbol)
	if err != nil {
		return nil, nil, err
	}
	start, end, err := e.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, nil, err
	}
	capital := e.cfg.DefaultInitialCapital
	if req.InitialCapital != nil {
		capital = *req.InitialCapital
	}
	if capital <= 0 {
		return nil, nil, models.NewValidationError("initial_capital", "must be positive, got %g", capital)
	}

	strat := req.Strategy.WithDefaults()
	sim, err := backtest.New(strat)
	if err != nil {
		return nil, nil, err
	}

	prices, sentiment, err := e.loadMarketData(ctx, symbol, start, end)
	if err != nil {
		return nil, nil, err
	}
	bars := indicators.Compute(prices, sentiment)

	result, err := sim.Run(ctx, bars, capital)
	if err != nil {
		return nil, nil, err
	}

	id := uuid.New().String()
	resp := &models.BacktestResponse{
		BacktestID:  id,
		Metrics:     result.Metrics,
		EquityCurve: result.EquityCurve,
		Trades:      result.Trades,
	}
	if resp.Trades == nil {
		resp.Trades = []models.Trade{}
	}
	run := &models.BacktestRun{
		ID:             id,
		Strategy:       strat,
		Symbol:         symbol,
		StartDate:      start,
		EndDate:        end,
		InitialCapital: capital,
		Metrics:        result.Metrics,
		Trades:         resp.Trades,
		CreatedAt:      e.now().UTC(),
	}
	return resp, run, nil
}

// recordBacktest persists the run and announces it. The request context may
// already be near its deadline, so side effects get their own budget.
func (e *Engine) recordBacktest(ctx context.Context, run *models.BacktestRun) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if e.registry != nil {
		if err := e.registry.SaveBacktestRun(ctx, run); err != nil {
			e.logger.Warn("failed to save backtest run", "backtest_id", run.ID, "error", err)
		}
	}
	if e.publisher != nil {
		evt := models.BacktestCompletedEvent{
			BacktestID:   run.ID,
			StrategyName: run.Strategy.Name,
			Symbol:       run.Symbol,
			StartDate:    run.StartDate.Format(models.DateLayout),
			EndDate:      run.EndDate.Format(models.DateLayout),
			Metrics:      run.Metrics,
		}
		if err := e.publisher.PublishBacktestCompleted(ctx, evt); err != nil {
			e.logger.Warn("failed to publish backtest event", "backtest_id", run.ID, "error", err)
		}
	}
}

// SimulateBars runs a strategy over caller supplied price rows without
// touching any collaborator. It backs the offline CLI.
func SimulateBars(ctx context.Context, symbol string, strat models.Strategy, prices []*models.PriceDataDaily, sentiment []*models.SentimentDaily, capital float64) (*models.BacktestResponse, error) {
	sim, err := backtest.New(strat)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, &DataUnavailableError{Symbol: symbol}
	}
	result, err := sim.Run(ctx, indicators.Compute(prices, sentiment), capital)
	if err != nil {
		return nil, err
	}
	trades := result.Trades
	if trades == nil {
		trades = []models.Trade{}
	}
	return &models.BacktestResponse{
		BacktestID:  uuid.New().String(),
		Metrics:     result.Metrics,
		EquityCurve: result.EquityCurve,
		Trades:      trades,
	}, nil
}
