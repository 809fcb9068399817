package signals

import "math"

// KD(9,3,3) parameters
const (
	kdPeriod   = 9
	kdSpan     = 3
	kdNeutral  = 50.0
	volMAWidth = 5
)

// SMA returns the simple moving average for each index; NaN until the window is full
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// RSV returns the raw stochastic value per bar over a period window.
// Bars before the window is full, and flat windows (high == low), are 50.
func RSV(highs, lows, closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i+1 < period {
			out[i] = kdNeutral
			continue
		}

		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j <= i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			out[i] = kdNeutral
			continue
		}
		out[i] = clamp((closes[i]-ll)/(hh-ll)*100, 0, 100)
	}
	return out
}

// EWMA is an exponentially weighted mean with alpha = 2/(span+1), seeded with
// the first value (no bias adjustment).
func EWMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// KD returns the smoothed stochastic K and D lines (9,3,3). Every RSV before
// the 9th bar is 50, so both lines start at 50.
func KD(highs, lows, closes []float64) ([]float64, []float64) {
	k := EWMA(RSV(highs, lows, closes, kdPeriod), kdSpan)
	d := EWMA(k, kdSpan)
	return k, d
}

// Volatility returns stdev/mean (sample stdev) of the trailing window values.
// ok is false when there are fewer values than window or the mean is zero.
func Volatility(values []float64, window int) (float64, bool) {
	if window < 2 || len(values) < window {
		return 0, false
	}

	tail := values[len(values)-window:]
	mean := 0.0
	for _, v := range tail {
		mean += v
	}
	mean /= float64(window)
	if mean == 0 {
		return 0, false
	}

	variance := 0.0
	for _, v := range tail {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(window - 1)

	return math.Sqrt(variance) / mean, true
}

// ConsecutiveBullish counts bullish bars backwards from the latest bar. A bar
// counts when close >= open, except a flat bar (close == open) with volume
// below minFlatVolume, which breaks the streak.
func ConsecutiveBullish(opens, closes, volumes []float64, minFlatVolume float64) int {
	count := 0
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] < opens[i] {
			break
		}
		if closes[i] == opens[i] && volumes[i] < minFlatVolume {
			break
		}
		count++
	}
	return count
}

// MaxOf returns the maximum of values, or NaN when empty
func MaxOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
