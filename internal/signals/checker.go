// Package signals evaluates a strategy's entry and exit rules against the
// latest bar only, for live alerting.
package signals

import (
	"fmt"
	"math"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/rules"
)

// Result of a single-bar check
type Result struct {
	Date          time.Time
	EntryMatched  bool
	ExitMatched   bool
	EntryMatches  []string // entry rules that held
	ExitMatches   []string // exit rules that held
	CurrentValues map[string]float64
}

// Check compiles the strategy rules and evaluates them against bar
func Check(strategy models.Strategy, bar models.Bar) (*Result, error) {
	if len(strategy.EntryRules) == 0 {
		return nil, models.NewValidationError("entry_rules", "must not be empty")
	}
	if len(strategy.ExitRules) == 0 {
		return nil, models.NewValidationError("exit_rules", "must not be empty")
	}
	entry, err := rules.CompileAll(strategy.EntryRules)
	if err != nil {
		return nil, fmt.Errorf("entry rules: %w", err)
	}
	exit, err := rules.CompileAll(strategy.ExitRules)
	if err != nil {
		return nil, fmt.Errorf("exit rules: %w", err)
	}
	return CheckCompiled(entry, exit, bar)
}

// CheckCompiled evaluates already compiled rule sets against bar
func CheckCompiled(entry, exit rules.Set, bar models.Bar) (*Result, error) {
	entryMatches, err := entry.Matching(bar)
	if err != nil {
		return nil, err
	}
	exitMatches, err := exit.Matching(bar)
	if err != nil {
		return nil, err
	}
	return &Result{
		Date:          bar.Date,
		EntryMatched:  len(entryMatches) > 0,
		ExitMatched:   len(exitMatches) > 0,
		EntryMatches:  entryMatches,
		ExitMatches:   exitMatches,
		CurrentValues: CurrentValues(bar),
	}, nil
}

// CurrentValues copies the bar's indicators rounded to 4 decimals
func CurrentValues(bar models.Bar) map[string]float64 {
	out := make(map[string]float64, len(bar.Indicators))
	for name, v := range bar.Indicators {
		out[name] = math.Round(v*1e4) / 1e4
	}
	return out
}

// Latest returns the last bar of a chronologically ordered series
func Latest(bars []models.Bar) (models.Bar, bool) {
	if len(bars) == 0 {
		return models.Bar{}, false
	}
	return bars[len(bars)-1], true
}

// Message summarises a result for API responses and notifications
func Message(symbol string, r *Result) string {
	switch {
	case r.EntryMatched && r.ExitMatched:
		return fmt.Sprintf("Entry and exit signals on %s", symbol)
	case r.EntryMatched:
		return fmt.Sprintf("Entry signal on %s", symbol)
	case r.ExitMatched:
		return fmt.Sprintf("Exit signal on %s", symbol)
	}
	return fmt.Sprintf("No signal on %s", symbol)
}
