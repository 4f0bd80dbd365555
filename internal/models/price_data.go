package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date format used on the wire
const DateLayout = "2006-01-02"

// PriceDataDaily represents daily OHLCV price data for a stock
type PriceDataDaily struct {
	ID        int             `json:"id,omitempty"`
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// SentimentDaily represents an aggregated news sentiment score for a trading day.
// Scores are in [0,1] with 0.5 as neutral.
type SentimentDaily struct {
	ID        int             `json:"id,omitempty"`
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Score     decimal.Decimal `json:"score"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}
