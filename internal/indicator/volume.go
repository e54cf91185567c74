package indicator

import "fmt"

// AverageVolume is the mean of the last lookback volumes, the current bar included.
func AverageVolume(volumes []float64, lookback int) (float64, error) {
	if err := requireLength(len(volumes), lookback, lookback); err != nil {
		return 0, fmt.Errorf("average volume: %w", err)
	}
	sum := 0.0
	for _, v := range volumes[len(volumes)-lookback:] {
		sum += v
	}
	return sum / float64(lookback), nil
}

// IsVolumeSignificant reports whether the current bar volume exceeds both
// threshold times the average volume and the absolute minimum.
func IsVolumeSignificant(current, average, threshold, minimum float64) bool {
	return current > average*threshold && current > minimum
}
