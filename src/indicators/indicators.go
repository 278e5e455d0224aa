// Package indicators provides the pure technical-analysis primitives
// used by the strategy evaluator. All functions operate on a
// chronological price series, oldest first, and perform no I/O.
package indicators

import "math"

// SMA returns the simple moving average sequence for the given
// period. The result has len(prices)-period+1 entries; callers must
// ensure len(prices) >= period.
func SMA(prices []float64, period int) []float64 {
	result := make([]float64, 0, len(prices)-period+1)
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			result = append(result, sum/float64(period))
		}
	}
	return result
}

// EMA returns the exponential moving average sequence, seeded with
// the first price and smoothed with k = 2/(period+1). The result has
// the same length as the input.
func EMA(prices []float64, period int) []float64 {
	if len(prices) == 0 {
		return nil
	}
	k := 2.0 / float64(period+1)
	result := make([]float64, len(prices))
	result[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		result[i] = prices[i]*k + result[i-1]*(1-k)
	}
	return result
}

// RSI computes the relative strength index over the first `period`
// price deltas. A series with no losses yields 100, not a division
// by zero.
func RSI(prices []float64, period int) float64 {
	var gains, losses []float64
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period && i < len(gains); i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// StdDev returns the population standard deviation of the trailing
// `period` prices around their mean.
func StdDev(prices []float64, period int) float64 {
	window := prices[len(prices)-period:]

	sum := 0.0
	for _, p := range window {
		sum += p
	}
	mean := sum / float64(period)

	squareSum := 0.0
	for _, p := range window {
		diff := p - mean
		squareSum += diff * diff
	}
	return math.Sqrt(squareSum / float64(period))
}
