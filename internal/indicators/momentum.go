package indicators

import "math"

// RSI with Wilder smoothing over period p. The first defined value is at index p.
func RSI(closes []float64, p int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if p <= 0 || len(closes) <= p {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	gains[0], losses[0] = math.NaN(), math.NaN()
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := Wilder(gains, p)
	avgLoss := Wilder(losses, p)
	for i := range closes {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
		case g == 0 && l == 0:
			out[i] = 50
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// MACD returns the fast-slow EMA spread, its signal line and their difference.
func MACD(closes []float64, fast, slow, signal int) (line, sig, diff []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(line, signal)
	diff = make([]float64, len(closes))
	for i := range closes {
		diff[i] = line[i] - sig[i]
	}
	return line, sig, diff
}

// Bollinger returns SMA(p) plus and minus k population standard deviations.
func Bollinger(closes []float64, p int, k float64) (upper, lower []float64) {
	mean, std := MeanStd(closes, p)
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		upper[i] = mean[i] + k*std[i]
		lower[i] = mean[i] - k*std[i]
	}
	return upper, lower
}

// VolumeRatio divides each volume by the trailing p-period average that
// includes it. A zero average leaves the ratio undefined.
func VolumeRatio(volumes []float64, p int) []float64 {
	avg := SMA(volumes, p)
	out := make([]float64, len(volumes))
	for i := range volumes {
		if math.IsNaN(avg[i]) || avg[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = volumes[i] / avg[i]
	}
	return out
}
