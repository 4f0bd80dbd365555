package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kafka event types
const (
	EventEntrySignal       = "ENTRY_SIGNAL"
	EventExitSignal        = "EXIT_SIGNAL"
	EventBacktestCompleted = "BACKTEST_COMPLETED"
	EventPriceBar          = "PRICE_BAR"
	EventSentimentScore    = "SENTIMENT_SCORE"
)

// Signal kinds
const (
	SignalEntry = "ENTRY"
	SignalExit  = "EXIT"
)

// SignalEvent describes a matched entry or exit on the latest bar
type SignalEvent struct {
	Kind          string             `json:"kind"`
	StrategyName  string             `json:"strategy_name"`
	Symbol        string             `json:"symbol"`
	Date          string             `json:"date"`
	Rules         []string           `json:"rules"`
	CurrentValues map[string]float64 `json:"current_values,omitempty"`
	Recipients    []string           `json:"-"`
}

// EventType maps the signal kind to its Kafka event type
func (e SignalEvent) EventType() string {
	if e.Kind == SignalExit {
		return EventExitSignal
	}
	return EventEntrySignal
}

// Event is the envelope published to and consumed from Kafka
type Event struct {
	EventType string      `json:"event_type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// BacktestCompletedEvent summarises a finished backtest run
type BacktestCompletedEvent struct {
	BacktestID   string  `json:"backtest_id"`
	StrategyName string  `json:"strategy_name"`
	Symbol       string  `json:"symbol"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Metrics      Metrics `json:"metrics"`
}

// PriceBarEvent is an incoming daily OHLCV bar
type PriceBarEvent struct {
	Symbol string          `json:"symbol"`
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// SentimentScoreEvent is an incoming daily sentiment score
type SentimentScoreEvent struct {
	Symbol string          `json:"symbol"`
	Date   string          `json:"date"`
	Score  decimal.Decimal `json:"score"`
}

// SignalHistory is a persisted signal check outcome
type SignalHistory struct {
	ID             int       `json:"id,omitempty"`
	Symbol         string    `json:"symbol"`
	StrategyName   string    `json:"strategy_name"`
	EntryMatched   bool      `json:"entry_matched"`
	ExitMatched    bool      `json:"exit_matched"`
	EntryEmailSent bool      `json:"entry_email_sent"`
	ExitEmailSent  bool      `json:"exit_email_sent"`
	CheckedAt      time.Time `json:"checked_at"`
}

// BacktestRun is a persisted backtest with its request inputs
type BacktestRun struct {
	ID             string    `json:"id"`
	Strategy       Strategy  `json:"strategy"`
	Symbol         string    `json:"symbol"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	Metrics        Metrics   `json:"metrics"`
	Trades         []Trade   `json:"trades,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}
