// Package indicators derives the fixed per-bar indicator set from daily
// price, volume and sentiment series.
package indicators

import (
	"math"
	"sort"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// Lookback windows
const (
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignalPeriod = 9
	SMAShort         = 20
	SMALong          = 50
	BollingerPeriod  = 20
	BollingerK       = 2.0
	VolumePeriod     = 20

	// NeutralSentiment fills dates before the first sentiment observation
	NeutralSentiment = 0.5
)

// Compute returns one Bar per price row, in chronological order. Prices are
// sorted by date first; sentiment is aligned by date and forward-filled.
// Indicators whose window is not yet satisfied are absent from the bar and
// the bar is marked not tradable.
func Compute(prices []*models.PriceDataDaily, sentiment []*models.SentimentDaily) []models.Bar {
	if len(prices) == 0 {
		return nil
	}
	rows := make([]*models.PriceDataDaily, len(prices))
	copy(rows, prices)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	n := len(rows)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, p := range rows {
		closes[i] = p.Close.InexactFloat64()
		volumes[i] = float64(p.Volume)
	}

	rsi := RSI(closes, RSIPeriod)
	macd, macdSignal, macdDiff := MACD(closes, MACDFast, MACDSlow, MACDSignalPeriod)
	sma20 := SMA(closes, SMAShort)
	sma50 := SMA(closes, SMALong)
	bbHigh, bbLow := Bollinger(closes, BollingerPeriod, BollingerK)
	volumeRatio := VolumeRatio(volumes, VolumePeriod)
	sent := alignSentiment(rows, sentiment)

	series := map[string][]float64{
		models.IndicatorClose:          closes,
		models.IndicatorVolumeRatio:    volumeRatio,
		models.IndicatorSentimentScore: sent,
		models.IndicatorRSI:            rsi,
		models.IndicatorMACD:           macd,
		models.IndicatorMACDSignal:     macdSignal,
		models.IndicatorMACDDiff:       macdDiff,
		models.IndicatorSMA20:          sma20,
		models.IndicatorSMA50:          sma50,
		models.IndicatorBBHigh:         bbHigh,
		models.IndicatorBBLow:          bbLow,
	}

	bars := make([]models.Bar, n)
	for i, p := range rows {
		values := make(map[string]float64, len(series))
		for name, s := range series {
			if v := s[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				values[name] = v
			}
		}
		bars[i] = models.Bar{
			Date:       p.Date,
			Open:       p.Open.InexactFloat64(),
			High:       p.High.InexactFloat64(),
			Low:        p.Low.InexactFloat64(),
			Close:      closes[i],
			Volume:     p.Volume,
			Indicators: values,
			Tradable:   len(values) == len(series),
		}
	}
	return bars
}

// alignSentiment maps each price row to the latest sentiment score on or
// before its date.
func alignSentiment(rows []*models.PriceDataDaily, sentiment []*models.SentimentDaily) []float64 {
	scores := make([]*models.SentimentDaily, 0, len(sentiment))
	for _, s := range sentiment {
		if s != nil {
			scores = append(scores, s)
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Date.Before(scores[j].Date) })

	out := make([]float64, len(rows))
	current := NeutralSentiment
	j := 0
	for i, p := range rows {
		for j < len(scores) && !scores[j].Date.After(p.Date) {
			current = scores[j].Score.InexactFloat64()
			j++
		}
		out[i] = current
	}
	return out
}
