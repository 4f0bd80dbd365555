package models

// Exit reason constants
const (
	ExitReasonRule       = "exit_rule"
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTakeProfit = "take_profit"
	ExitReasonEndOfData  = "end_of_data"
)

// Trade represents a closed round trip produced by a backtest
type Trade struct {
	EntryDate  string  `json:"entry_date"`
	ExitDate   string  `json:"exit_date"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Shares     int64   `json:"shares"`
	PnL        float64 `json:"pnl"`
	ReturnPct  float64 `json:"return_pct"`
	ExitReason string  `json:"exit_reason,omitempty"`
}

// NewTrade closes a position at exitPrice
func NewTrade(p *Position, exitDate string, exitPrice float64, reason string) Trade {
	return Trade{
		EntryDate:  p.EntryDate.Format(DateLayout),
		ExitDate:   exitDate,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		Shares:     p.Shares,
		PnL:        (exitPrice - p.EntryPrice) * float64(p.Shares),
		ReturnPct:  exitPrice/p.EntryPrice - 1,
		ExitReason: reason,
	}
}
