package strategy

import (
	"math"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// Market regimes
const (
	RegimeUnknown        = "Unknown"
	RegimeSideways       = "Sideways"
	RegimeBullishLowVol  = "Bullish Low Volatility"
	RegimeBullishHighVol = "Bullish High Volatility"
	RegimeBearishLowVol  = "Bearish Low Volatility"
	RegimeBearishHighVol = "Bearish High Volatility"
)

// RegimeWindow is the number of trailing daily returns used for detection
const RegimeWindow = 60

// DetectRegime classifies the trailing RegimeWindow close-to-close returns
// by direction and by volatility relative to the mean rolling volatility of
// the whole series.
func DetectRegime(bars []models.Bar) string {
	returns := make([]float64, 0, len(bars))
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close > 0 {
			returns = append(returns, bars[i].Close/bars[i-1].Close-1)
		}
	}
	if len(returns) < RegimeWindow {
		return RegimeUnknown
	}

	recent := returns[len(returns)-RegimeWindow:]
	avg, vol := meanStd(recent)
	if vol == 0 || math.IsNaN(vol) {
		return RegimeSideways
	}

	var baseline float64
	n := 0
	for end := RegimeWindow; end <= len(returns); end++ {
		_, s := meanStd(returns[end-RegimeWindow : end])
		baseline += s
		n++
	}
	baseline /= float64(n)

	low := vol < baseline
	switch {
	case avg > 0 && low:
		return RegimeBullishLowVol
	case avg > 0:
		return RegimeBullishHighVol
	case avg < 0 && low:
		return RegimeBearishLowVol
	case avg < 0:
		return RegimeBearishHighVol
	}
	return RegimeSideways
}

// meanStd returns the mean and sample standard deviation
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return 0, 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(x)-1))
}
