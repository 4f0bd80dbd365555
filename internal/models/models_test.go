package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStrategy() Strategy {
	return Strategy{
		Name:       "test",
		EntryRules: []string{"rsi < 30"},
		ExitRules:  []string{"rsi > 70"},
	}.WithDefaults()
}

func TestStrategyWithDefaults(t *testing.T) {
	s := Strategy{EntryRules: []string{"rsi < 30"}}.WithDefaults()
	assert.Equal(t, SizingFixedFractional, s.PositionSizing)
	assert.Equal(t, DefaultMaxPositions, s.MaxPositions)
	assert.Equal(t, DefaultMaxPositionSize, s.AssetAllocation.MaxPositionSize)
	assert.Equal(t, DefaultMaxTotalExposure, s.AssetAllocation.MaxTotalExposure)

	kept := Strategy{PositionSizing: SizingKellyCriterion, MaxPositions: 2}.WithDefaults()
	assert.Equal(t, SizingKellyCriterion, kept.PositionSizing)
	assert.Equal(t, 2, kept.MaxPositions)
}

func TestStrategyValidate(t *testing.T) {
	require.NoError(t, validStrategy().Validate())

	tests := []struct {
		field string
		mod   func(*Strategy)
	}{
		{"entry_rules", func(s *Strategy) { s.EntryRules = nil }},
		{"exit_rules", func(s *Strategy) { s.ExitRules = []string{} }},
		{"position_sizing", func(s *Strategy) { s.PositionSizing = "" }},
		{"max_positions", func(s *Strategy) { s.MaxPositions = -1 }},
		{"asset_allocation.max_position_size", func(s *Strategy) { s.AssetAllocation.MaxPositionSize = 1.2 }},
		{"asset_allocation.max_total_exposure", func(s *Strategy) { s.AssetAllocation.MaxTotalExposure = -0.5 }},
		{"stop_loss", func(s *Strategy) { s.StopLoss = 1 }},
		{"take_profit", func(s *Strategy) { s.TakeProfit = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s := validStrategy()
			tt.mod(&s)
			err := s.Validate()
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestNewTrade(t *testing.T) {
	p := &Position{EntryDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), EntryPrice: 100, Shares: 10}
	tr := NewTrade(p, "2024-01-04", 90, ExitReasonEndOfData)

	assert.Equal(t, "2024-01-02", tr.EntryDate)
	assert.InDelta(t, -100.0, tr.PnL, 1e-9)
	assert.InDelta(t, -0.1, tr.ReturnPct, 1e-9)
	assert.Equal(t, 1000.0, p.Cost())
	assert.Equal(t, 900.0, p.MarketValue(90))
}

func TestIsIndicator(t *testing.T) {
	assert.True(t, IsIndicator("macd_diff"))
	assert.False(t, IsIndicator("MACD_DIFF"))
	assert.False(t, IsIndicator("foo"))
}

func TestNormalizeTopQuery(t *testing.T) {
	limit, order := NormalizeTopQuery(0, "")
	assert.Equal(t, 10, limit)
	assert.Equal(t, "sharpe_ratio", order)

	limit, order = NormalizeTopQuery(500, "win_rate")
	assert.Equal(t, 50, limit)
	assert.Equal(t, "win_rate", order)

	limit, order = NormalizeTopQuery(-3, "name; DROP TABLE backtest_runs")
	assert.Equal(t, 1, limit)
	assert.Equal(t, "sharpe_ratio", order)
}
