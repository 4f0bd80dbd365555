package models

import "time"

// Position represents an open holding inside a backtest run
type Position struct {
	EntryDate       time.Time `json:"entry_date"`
	EntryPrice      float64   `json:"entry_price"`
	Shares          int64     `json:"shares"`
	StopLossPrice   float64   `json:"stop_loss_price,omitempty"`
	TakeProfitPrice float64   `json:"take_profit_price,omitempty"`
}

// Cost returns the capital deployed when the position was opened
func (p *Position) Cost() float64 {
	return p.EntryPrice * float64(p.Shares)
}

// MarketValue returns the position value marked at price
func (p *Position) MarketValue(price float64) float64 {
	return price * float64(p.Shares)
}
