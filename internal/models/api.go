package models

import "time"

// BacktestRequest is the body of POST /backtest/run
type BacktestRequest struct {
	Strategy       Strategy `json:"strategy"`
	Symbol         string   `json:"symbol"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	InitialCapital *float64 `json:"initial_capital,omitempty"`
}

// BacktestResponse is the result of one simulation run
type BacktestResponse struct {
	BacktestID  string    `json:"backtest_id"`
	Metrics     Metrics   `json:"metrics"`
	EquityCurve []float64 `json:"equity_curve"`
	Trades      []Trade   `json:"trades"`
}

// GenerateRequest is the body of POST /strategies/generate
type GenerateRequest struct {
	Symbol        string `json:"symbol"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	RiskTolerance string `json:"risk_tolerance,omitempty"`
}

// GenerateResponse carries a generated strategy
type GenerateResponse struct {
	StrategyID          string    `json:"strategy_id"`
	Strategy            Strategy  `json:"strategy"`
	GenerationTimestamp time.Time `json:"generation_timestamp"`
}

// TopStrategy is one leaderboard row. Optional fields are pointers so absent
// registry values are omitted rather than reported as zero.
type TopStrategy struct {
	RunID          string   `json:"run_id,omitempty"`
	Name           string   `json:"name"`
	Symbol         string   `json:"symbol,omitempty"`
	PositionSizing string   `json:"position_sizing,omitempty"`
	MaxPositions   *int     `json:"max_positions,omitempty"`
	SharpeRatio    *float64 `json:"sharpe_ratio,omitempty"`
	TotalReturn    *float64 `json:"total_return,omitempty"`
	AnnualReturn   *float64 `json:"annual_return,omitempty"`
	MaxDrawdown    *float64 `json:"max_drawdown,omitempty"`
	WinRate        *float64 `json:"win_rate,omitempty"`
	ProfitFactor   *float64 `json:"profit_factor,omitempty"`
	TotalTrades    *int     `json:"total_trades,omitempty"`
}

// TopStrategiesResponse is the body of GET /strategies/top
type TopStrategiesResponse struct {
	TopStrategies []TopStrategy `json:"top_strategies"`
}

// SignalCheckRequest is the body of POST /signals/check
type SignalCheckRequest struct {
	Strategy Strategy `json:"strategy"`
	Symbol   string   `json:"symbol"`
	Emails   []string `json:"emails,omitempty"`
}

// SignalCheckResponse reports single-bar rule matches and notification status
type SignalCheckResponse struct {
	EntryMatched   bool               `json:"entry_matched"`
	ExitMatched    bool               `json:"exit_matched"`
	EntryEmailSent bool               `json:"entry_email_sent"`
	ExitEmailSent  bool               `json:"exit_email_sent"`
	Message        string             `json:"message,omitempty"`
	Date           string             `json:"date,omitempty"`
	CurrentValues  map[string]float64 `json:"current_values,omitempty"`
	EntryRules     []string           `json:"entry_rules,omitempty"`
	ExitRules      []string           `json:"exit_rules,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail"`
}

// Leaderboard query bounds
const (
	DefaultTopLimit   = 10
	MaxTopLimit       = 50
	DefaultTopOrderBy = "sharpe_ratio"
)

// TopOrderColumns are the metrics the leaderboard may be ordered by
var TopOrderColumns = []string{"sharpe_ratio", "total_return", "win_rate", "annual_return", "profit_factor"}

// NormalizeTopQuery clamps limit to [1, MaxTopLimit] (0 selects the default)
// and replaces an unknown order column with the default.
func NormalizeTopQuery(limit int, orderBy string) (int, string) {
	switch {
	case limit == 0:
		limit = DefaultTopLimit
	case limit < 1:
		limit = 1
	case limit > MaxTopLimit:
		limit = MaxTopLimit
	}
	for _, col := range TopOrderColumns {
		if col == orderBy {
			return limit, orderBy
		}
	}
	return limit, DefaultTopOrderBy
}
