package models

import "time"

// Indicator names available to rule expressions
const (
	IndicatorClose          = "close"
	IndicatorVolumeRatio    = "volume_ratio"
	IndicatorSentimentScore = "sentiment_score"
	IndicatorRSI            = "rsi"
	IndicatorMACD           = "macd"
	IndicatorMACDSignal     = "macd_signal"
	IndicatorMACDDiff       = "macd_diff"
	IndicatorSMA20          = "sma_20"
	IndicatorSMA50          = "sma_50"
	IndicatorBBHigh         = "bb_high"
	IndicatorBBLow          = "bb_low"
)

// IndicatorNames lists every indicator the indicator computer produces, in display order
var IndicatorNames = []string{
	IndicatorRSI,
	IndicatorMACD,
	IndicatorMACDSignal,
	IndicatorMACDDiff,
	IndicatorSMA20,
	IndicatorSMA50,
	IndicatorBBHigh,
	IndicatorBBLow,
	IndicatorVolumeRatio,
	IndicatorClose,
	IndicatorSentimentScore,
}

// IsIndicator reports whether name is a known indicator
func IsIndicator(name string) bool {
	for _, n := range IndicatorNames {
		if n == name {
			return true
		}
	}
	return false
}

// Bar is one trading period with its derived indicator values.
// Indicators only holds entries whose lookback window is satisfied.
type Bar struct {
	Date       time.Time          `json:"date"`
	Open       float64            `json:"open"`
	High       float64            `json:"high"`
	Low        float64            `json:"low"`
	Close      float64            `json:"close"`
	Volume     int64              `json:"volume"`
	Indicators map[string]float64 `json:"indicators"`
	Tradable   bool               `json:"tradable"`
}

// Value returns the named indicator value and whether it is defined on this bar
func (b Bar) Value(name string) (float64, bool) {
	v, ok := b.Indicators[name]
	return v, ok
}
