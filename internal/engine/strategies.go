package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trogers1052/strategy-forge/internal/indicators"
	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/strategy"
)

// TopStrategies ranks stored runs. A registry failure yields an empty list.
func (e *Engine) TopStrategies(ctx context.Context, limit int, orderBy string) []models.TopStrategy {
	if e.registry == nil {
		return []models.TopStrategy{}
	}
	top, err := e.registry.GetTopStrategies(ctx, limit, orderBy)
	if err != nil {
		e.logger.Warn("failed to load top strategies", "order_by", orderBy, "error", err)
		return []models.TopStrategy{}
	}
	if top == nil {
		top = []models.TopStrategy{}
	}
	return top
}

// GenerateStrategy builds a strategy for symbol from its stored market data
func (e *Engine) GenerateStrategy(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error) {
	symbol, err := normalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	start, end, err := e.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if _, err := strategy.NormalizeRiskTolerance(req.RiskTolerance); err != nil {
		return nil, err
	}
	prices, sentiment, err := e.loadMarketData(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	strat, err := e.generator.Generate(ctx, strategy.Input{
		Symbol:        symbol,
		Bars:          indicators.Compute(prices, sentiment),
		RiskTolerance: req.RiskTolerance,
	})
	if err != nil {
		return nil, err
	}

	resp := &models.GenerateResponse{
		StrategyID:          uuid.New().String(),
		Strategy:            strat,
		GenerationTimestamp: e.now().UTC().Truncate(time.Millisecond),
	}
	e.logger.Info("strategy generated",
		"strategy_id", resp.StrategyID, "symbol", symbol, "name", strat.Name)
	return resp, nil
}
