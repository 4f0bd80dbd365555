package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/trogers1052/strategy-forge/internal/indicators"
	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/rules"
	"github.com/trogers1052/strategy-forge/internal/signals"
)

// CheckSignals evaluates the strategy on the latest stored bar for symbol
// and notifies on each match. Email flags report the notifier outcome.
func (e *Engine) CheckSignals(ctx context.Context, req models.SignalCheckRequest) (*models.SignalCheckResponse, error) {
	symbol, err := normalizeSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	strat := req.Strategy
	if len(strat.EntryRules) == 0 {
		return nil, models.NewValidationError("entry_rules", "must not be empty")
	}
	if len(strat.ExitRules) == 0 {
		return nil, models.NewValidationError("exit_rules", "must not be empty")
	}
	entry, err := rules.CompileAll(strat.EntryRules)
	if err != nil {
		return nil, fmt.Errorf("entry rules: %w", err)
	}
	exit, err := rules.CompileAll(strat.ExitRules)
	if err != nil {
		return nil, fmt.Errorf("exit rules: %w", err)
	}

	end := e.today()
	start := end.AddDate(0, 0, -e.cfg.SignalLookbackDays)
	prices, sentiment, err := e.loadMarketData(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	bar, _ := signals.Latest(indicators.Compute(prices, sentiment))

	result, err := signals.CheckCompiled(entry, exit, bar)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordSignalCheck(result.EntryMatched, result.ExitMatched)

	resp := &models.SignalCheckResponse{
		EntryMatched:  result.EntryMatched,
		ExitMatched:   result.ExitMatched,
		Message:       signals.Message(symbol, result),
		Date:          result.Date.Format(models.DateLayout),
		CurrentValues: result.CurrentValues,
		EntryRules:    strat.EntryRules,
		ExitRules:     strat.ExitRules,
	}

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	base := models.SignalEvent{
		StrategyName:  strat.Name,
		Symbol:        symbol,
		Date:          resp.Date,
		CurrentValues: result.CurrentValues,
		Recipients:    req.Emails,
	}
	if result.EntryMatched {
		evt := base
		evt.Kind = models.SignalEntry
		evt.Rules = result.EntryMatches
		resp.EntryEmailSent = e.dispatch(sideCtx, evt)
	}
	if result.ExitMatched {
		evt := base
		evt.Kind = models.SignalExit
		evt.Rules = result.ExitMatches
		resp.ExitEmailSent = e.dispatch(sideCtx, evt)
	}

	if e.signals != nil {
		h := &models.SignalHistory{
			Symbol:         symbol,
			StrategyName:   strat.Name,
			EntryMatched:   resp.EntryMatched,
			ExitMatched:    resp.ExitMatched,
			EntryEmailSent: resp.EntryEmailSent,
			ExitEmailSent:  resp.ExitEmailSent,
			CheckedAt:      e.now().UTC(),
		}
		if err := e.signals.CreateSignalHistory(sideCtx, h); err != nil {
			e.logger.Warn("failed to record signal history", "symbol", symbol, "error", err)
		}
	}

	e.logger.Info("signal check completed",
		"symbol", symbol,
		"strategy", strat.Name,
		"entry_matched", resp.EntryMatched,
		"exit_matched", resp.ExitMatched)
	return resp, nil
}

// dispatch notifies and publishes evt, reporting whether the notification was delivered
func (e *Engine) dispatch(ctx context.Context, evt models.SignalEvent) bool {
	if e.publisher != nil {
		if err := e.publisher.PublishSignal(ctx, evt); err != nil {
			e.logger.Warn("failed to publish signal event",
				"symbol", evt.Symbol, "kind", evt.Kind, "error", err)
		}
	}
	if e.notifier == nil {
		return false
	}
	err := e.notifier.Notify(ctx, evt)
	e.metrics.RecordNotification(e.notifier.Name(), err)
	if err != nil {
		e.logger.Warn("failed to send signal notification",
			"symbol", evt.Symbol, "kind", evt.Kind, "notifier", e.notifier.Name(), "error", err)
		return false
	}
	return true
}

// SignalHistory returns the most recent signal checks for symbol
func (e *Engine) SignalHistory(ctx context.Context, symbol string, limit int) ([]*models.SignalHistory, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if e.signals == nil {
		return []*models.SignalHistory{}, nil
	}
	history, err := e.signals.GetSignalHistory(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load signal history: %w", err)
	}
	return history, nil
}
