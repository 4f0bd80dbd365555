package models

import (
	"fmt"
)

// Position sizing policy constants
const (
	SizingFixedFractional = "fixed_fractional"
	SizingEqualWeight     = "equal_weight"
	SizingKellyCriterion  = "kelly_criterion"
)

// Strategy defaults applied when a field is omitted
const (
	DefaultMaxPositions     = 5
	DefaultMaxPositionSize  = 0.2
	DefaultMaxTotalExposure = 1.0
)

// AssetAllocation caps the capital a strategy may deploy
type AssetAllocation struct {
	MaxPositionSize  float64 `json:"max_position_size,omitempty" yaml:"max_position_size,omitempty"`
	MaxTotalExposure float64 `json:"max_total_exposure,omitempty" yaml:"max_total_exposure,omitempty"`
}

// Strategy is a declarative trading strategy. Timeframe, Filters and
// RebalanceFrequency are carried through untouched.
type Strategy struct {
	Name               string          `json:"name" yaml:"name"`
	Description        string          `json:"description,omitempty" yaml:"description,omitempty"`
	EntryRules         []string        `json:"entry_rules" yaml:"entry_rules"`
	ExitRules          []string        `json:"exit_rules" yaml:"exit_rules"`
	PositionSizing     string          `json:"position_sizing,omitempty" yaml:"position_sizing,omitempty"`
	MaxPositions       int             `json:"max_positions,omitempty" yaml:"max_positions,omitempty"`
	StopLoss           float64         `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	TakeProfit         float64         `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
	Timeframe          string          `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	AssetAllocation    AssetAllocation `json:"asset_allocation" yaml:"asset_allocation"`
	Filters            []string        `json:"filters,omitempty" yaml:"filters,omitempty"`
	RebalanceFrequency string          `json:"rebalance_frequency,omitempty" yaml:"rebalance_frequency,omitempty"`
	MarketRegime       string          `json:"market_regime,omitempty" yaml:"market_regime,omitempty"`
}

// ValidationError reports a request or strategy that cannot be simulated
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// WithDefaults returns a copy of s with omitted sizing fields filled in
func (s Strategy) WithDefaults() Strategy {
	if s.PositionSizing == "" {
		s.PositionSizing = SizingFixedFractional
	}
	if s.MaxPositions == 0 {
		s.MaxPositions = DefaultMaxPositions
	}
	if s.AssetAllocation.MaxPositionSize == 0 {
		s.AssetAllocation.MaxPositionSize = DefaultMaxPositionSize
	}
	if s.AssetAllocation.MaxTotalExposure == 0 {
		s.AssetAllocation.MaxTotalExposure = DefaultMaxTotalExposure
	}
	return s
}

// Validate checks the structural invariants of a strategy. Rule syntax and
// the sizing policy name are checked separately when a simulator is built.
func (s Strategy) Validate() error {
	if len(s.EntryRules) == 0 {
		return NewValidationError("entry_rules", "must not be empty")
	}
	if len(s.ExitRules) == 0 {
		return NewValidationError("exit_rules", "must not be empty")
	}
	if s.PositionSizing == "" {
		return NewValidationError("position_sizing", "must not be empty")
	}
	if s.MaxPositions < 1 {
		return NewValidationError("max_positions", "must be at least 1, got %d", s.MaxPositions)
	}
	if !inUnitInterval(s.AssetAllocation.MaxPositionSize) {
		return NewValidationError("asset_allocation.max_position_size", "must be in (0,1], got %g", s.AssetAllocation.MaxPositionSize)
	}
	if !inUnitInterval(s.AssetAllocation.MaxTotalExposure) {
		return NewValidationError("asset_allocation.max_total_exposure", "must be in (0,1], got %g", s.AssetAllocation.MaxTotalExposure)
	}
	if s.StopLoss < 0 || s.StopLoss >= 1 {
		return NewValidationError("stop_loss", "must be in [0,1), got %g", s.StopLoss)
	}
	if s.TakeProfit < 0 {
		return NewValidationError("take_profit", "must not be negative, got %g", s.TakeProfit)
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v > 0 && v <= 1
}
