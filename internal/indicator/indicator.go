// Package indicator provides technical analysis indicators for financial markets
package indicator

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInsufficientData is returned when a series is shorter than the lookback it is asked for.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidPeriod is returned for non-positive lookback periods.
	ErrInvalidPeriod = errors.New("period must be a positive integer")
	// ErrZeroVolume is returned when a volume-weighted window has no volume at all.
	ErrZeroVolume = errors.New("zero volume in window")
)

// requireLength validates period and series length together.
func requireLength(n, period, need int) error {
	if period <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeriod, period)
	}
	if n < need {
		return fmt.Errorf("%w: need at least %d values, have %d", ErrInsufficientData, need, n)
	}
	return nil
}

// nanPrefix returns a slice of length n whose first k entries are NaN.
func nanPrefix(n, k int) []float64 {
	out := make([]float64, n)
	for i := 0; i < k && i < n; i++ {
		out[i] = math.NaN()
	}
	return out
}

// Last returns the final value of an indicator series, or NaN for an empty one.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
