package tfutils

import (
	"errors"
	"strconv"
	"time"
)

var timeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseTimeframe parses timeframe string (e.g., "5m", "1h") to time.Duration
func ParseTimeframe(timeframe string) (time.Duration, error) {
	if d, ok := timeframes[timeframe]; ok {
		return d, nil
	}
	return 0, errors.New("unsupported timeframe")
}

// GetTimeframeDuration returns the duration for a given timeframe
func GetTimeframeDuration(timeframe string) time.Duration {
	return timeframes[timeframe]
}

// GetSupportedTimeframes returns all supported timeframes
func GetSupportedTimeframes() []string {
	return []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d"}
}

// IsValidTimeframe checks if a timeframe is supported
func IsValidTimeframe(timeframe string) bool {
	return GetTimeframeDuration(timeframe) > 0
}

// Resolution converts a timeframe to the exchange resolution notation
// (minutes for intraday bars, "1D" for daily).
func Resolution(timeframe string) string {
	d := GetTimeframeDuration(timeframe)
	if d == 24*time.Hour {
		return "1D"
	}
	return strconv.Itoa(int(d / time.Minute))
}
