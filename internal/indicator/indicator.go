// Package indicator computes technical indicators over daily bar history.
// All functions return series aligned to their input, with NaN for positions
// that fall inside the warmup window.
package indicator

import "math"

// SMA returns the simple moving average with the given period. Positions
// before period-1 are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64

	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// EMA returns the exponential moving average with alpha = 2/(span+1),
// seeded at the first value.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	ema := values[0]
	out[0] = ema

	for i := 1; i < len(values); i++ {
		ema = alpha*values[i] + (1-alpha)*ema
		out[i] = ema
	}

	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA), its signal EMA and
// the histogram (line minus signal).
func MACD(closes []float64, fast, slow, signal int) (line, signalLine, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}

	signalLine = EMA(line, signal)

	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - signalLine[i]
	}

	return line, signalLine, hist
}

// RSI returns the relative strength index using simple moving averages of
// gains and losses over the period.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))

	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	// Deltas start at index 1, so the first full window ends at index period.
	avgGain := SMA(gains[1:], period)
	avgLoss := SMA(losses[1:], period)

	for i := period; i < len(closes); i++ {
		gain := avgGain[i-1]
		loss := avgLoss[i-1]

		switch {
		case math.IsNaN(gain) || math.IsNaN(loss):
		case loss == 0 && gain == 0:
		case loss == 0:
			out[i] = 100
		default:
			rs := gain / loss
			out[i] = 100 - 100/(1+rs)
		}
	}

	return out
}

// Bollinger returns the middle band (SMA), and upper/lower bands at
// stdDev sample standard deviations.
func Bollinger(closes []float64, period int, stdDev float64) (middle, upper, lower []float64) {
	middle = SMA(closes, period)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))

	for i := period - 1; i < len(closes); i++ {
		mean := middle[i]
		if math.IsNaN(mean) {
			continue
		}

		var variance float64
		for j := i - period + 1; j <= i; j++ {
			diff := closes[j] - mean
			variance += diff * diff
		}
		// Sample standard deviation, matching pandas rolling std.
		std := math.Sqrt(variance / float64(period-1))

		upper[i] = mean + std*stdDev
		lower[i] = mean - std*stdDev
	}

	return middle, upper, lower
}

// KDJ returns the K, D and J series with RSV window n and exponential
// smoothing periods m1, m2 (alpha = 1/m). The RSV window shrinks at the
// start of the series rather than producing NaN.
func KDJ(highs, lows, closes []float64, n, m1, m2 int) (k, d, j []float64) {
	length := len(closes)
	k = nanSlice(length)
	d = nanSlice(length)
	j = nanSlice(length)

	if length == 0 || n <= 0 || m1 <= 0 || m2 <= 0 {
		return k, d, j
	}

	alphaK := 1.0 / float64(m1)
	alphaD := 1.0 / float64(m2)

	var prevK, prevD float64

	for i := 0; i < length; i++ {
		lo := math.Inf(1)
		hi := math.Inf(-1)

		start := i - n + 1
		if start < 0 {
			start = 0
		}

		for w := start; w <= i; w++ {
			lo = math.Min(lo, lows[w])
			hi = math.Max(hi, highs[w])
		}

		rsv := 50.0
		if hi > lo {
			rsv = (closes[i] - lo) / (hi - lo) * 100
		}

		if i == 0 {
			prevK = rsv
			prevD = rsv
		} else {
			prevK = alphaK*rsv + (1-alphaK)*prevK
			prevD = alphaD*prevK + (1-alphaD)*prevD
		}

		k[i] = prevK
		d[i] = prevD
		j[i] = 3*prevK - 2*prevD
	}

	return k, d, j
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
