package backtest

import (
	"math"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// TradingDaysPerYear annualises daily statistics
const TradingDaysPerYear = 252

// ProfitFactorNoLosses is reported when a run has winning trades and no losing ones
const ProfitFactorNoLosses = 999.0

// CalculateMetrics reduces a trade log and equity curve to summary statistics.
// Zero denominators are resolved to a defined value, never NaN or Inf.
func CalculateMetrics(trades []models.Trade, equity []float64, initialCapital float64) models.Metrics {
	m := models.Metrics{
		TotalTrades: len(trades),
		FinalEquity: initialCapital,
	}
	if len(equity) > 0 {
		m.FinalEquity = equity[len(equity)-1]
	}
	if initialCapital > 0 {
		m.TotalReturn = m.FinalEquity/initialCapital - 1
	}
	m.AnnualReturn = annualReturn(m.TotalReturn, len(equity))
	m.SharpeRatio = sharpeRatio(dailyReturns(equity))
	m.MaxDrawdown = maxDrawdown(equity)
	m.WinRate = winRate(trades)
	m.ProfitFactor = profitFactor(trades)
	m.AvgTrade = avgTrade(trades)
	return m
}

func annualReturn(totalReturn float64, numBars int) float64 {
	if numBars == 0 {
		return 0
	}
	if totalReturn <= -1 {
		return -1
	}
	return math.Pow(1+totalReturn, TradingDaysPerYear/float64(numBars)) - 1
}

// dailyReturns is the pairwise percent change of equity. Pairs starting
// from a non-positive value are skipped.
func dailyReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			continue
		}
		out = append(out, equity[i]/equity[i-1]-1)
	}
	return out
}

// sharpeRatio annualises mean over sample standard deviation of returns
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / float64(len(returns)-1))
	if std < 1e-15 {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	worst := 0.0
	peak := equity[0]
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func winRate(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

func profitFactor(trades []models.Trade) float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			grossProfit += t.PnL
		} else if t.PnL < 0 {
			grossLoss += -t.PnL
		}
	}
	switch {
	case grossLoss > 0:
		return grossProfit / grossLoss
	case grossProfit > 0:
		return ProfitFactorNoLosses
	}
	return 0
}

func avgTrade(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trades {
		sum += t.PnL
	}
	return sum / float64(len(trades))
}
