// Package candle
package candle

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Candle is one OHLCV bar. Timestamp is the bar open time in UTC.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Source    string    `json:"source"`
}

// Validate rejects bars that cannot come from a real market: non-positive
// prices, an open or close outside [low, high], negative volume or missing
// identity fields.
func (c Candle) Validate() error {
	switch {
	case c.Timestamp.IsZero():
		return errors.New("zero timestamp")
	case c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0:
		return fmt.Errorf("non-positive price (o=%v h=%v l=%v c=%v)", c.Open, c.High, c.Low, c.Close)
	case c.High < c.Low:
		return fmt.Errorf("high %v below low %v", c.High, c.Low)
	case c.Open < c.Low || c.Open > c.High:
		return fmt.Errorf("open %v outside [%v, %v]", c.Open, c.Low, c.High)
	case c.Close < c.Low || c.Close > c.High:
		return fmt.Errorf("close %v outside [%v, %v]", c.Close, c.Low, c.High)
	case c.Volume < 0:
		return fmt.Errorf("negative volume %v", c.Volume)
	case c.Symbol == "":
		return errors.New("empty symbol")
	case c.Timeframe == "":
		return errors.New("empty timeframe")
	}
	return nil
}

// SortByTime orders candles oldest-first in place.
func SortByTime(candles []Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
}

// ValidateSeries validates every candle and the oldest-first ordering.
func ValidateSeries(candles []Candle) error {
	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return fmt.Errorf("invalid candle at index %d: %w", i, err)
		}
		if i > 0 && !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("candle at index %d is not newer than its predecessor", i)
		}
	}
	return nil
}

// Closes extracts close prices.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts bar volumes.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
