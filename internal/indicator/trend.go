package indicator

import "fmt"

// DefaultTrendPeriod is the number of most recent closes used for trend strength.
const DefaultTrendPeriod = 20

// CalculateTrendStrength returns the fraction of strictly positive
// period-over-period returns over the last min(period, len(prices)) closes.
// The result is always in [0, 1].
func CalculateTrendStrength(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPeriod, period)
	}
	window := prices[max(0, len(prices)-period):]
	if len(window) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 prices, have %d", ErrInsufficientData, len(window))
	}

	positive := 0
	for i := 1; i < len(window); i++ {
		if window[i] > window[i-1] {
			positive++
		}
	}
	return float64(positive) / float64(len(window)-1), nil
}
