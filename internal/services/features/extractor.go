package features

import "math"

// LogReturns computes r_t = ln(p_t / p_{t-1}) over a price series.
// It returns a slice of length len(prices)-1, or nil if insufficient data.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// PctChange returns (last-first)/first over the trailing window, 0 when the
// series is too short or degenerate.
func PctChange(prices []float64, window int) float64 {
	if window < 2 || len(prices) < window {
		return 0
	}
	first := prices[len(prices)-window]
	last := prices[len(prices)-1]
	if first <= 0 {
		return 0
	}
	return (last - first) / first
}

// Mean returns the arithmetic mean of the trailing window, 0 when empty.
func Mean(xs []float64, window int) float64 {
	if window <= 0 || len(xs) == 0 {
		return 0
	}
	if window > len(xs) {
		window = len(xs)
	}
	sum := 0.0
	for _, x := range xs[len(xs)-window:] {
		sum += x
	}
	return sum / float64(window)
}

// StdDev returns the sample standard deviation of the trailing window.
func StdDev(xs []float64, window int) float64 {
	if window <= 1 || len(xs) < window {
		return 0
	}
	tail := xs[len(xs)-window:]
	sum, sum2 := 0.0, 0.0
	for _, x := range tail {
		sum += x
		sum2 += x * x
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// RSI computes a simple-average RSI over the trailing period. Returns 50
// (neutral) when the series is too short.
func RSI(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period+1 {
		return 50
	}
	gains, losses := 0.0, 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	if gains+losses == 0 {
		return 50
	}
	if losses == 0 {
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}

// EMA returns the exponential moving average of the full series with the
// given period, 0 when empty.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 || period < 1 {
		return 0
	}
	k := 2.0 / (float64(period) + 1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}
