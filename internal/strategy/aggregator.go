// Package strategy
package strategy

import "github.com/amirphl/signal-trader/internal/indicator"

const (
	// DefaultEntryThreshold is the minimum fraction of bullish signals for an entry.
	DefaultEntryThreshold = 0.70
	// DefaultTrendStrengthFilter is the trend strength a snapshot must exceed to count as bullish.
	DefaultTrendStrengthFilter = 0.6
	// baseSignals is the number of non-MA signals: oversold, EMA, volume and trend.
	baseSignals = 4
)

// Aggregator folds a Snapshot into a single bullish signal strength.
type Aggregator struct {
	Threshold           float64
	TrendStrengthFilter float64
}

// NewAggregator creates an aggregator; non-positive values fall back to the defaults.
func NewAggregator(threshold, trendStrengthFilter float64) *Aggregator {
	if threshold <= 0 {
		threshold = DefaultEntryThreshold
	}
	if trendStrengthFilter <= 0 {
		trendStrengthFilter = DefaultTrendStrengthFilter
	}
	return &Aggregator{Threshold: threshold, TrendStrengthFilter: trendStrengthFilter}
}

// Signals lists every boolean considered for the entry decision, in order:
// oversold, EMA bullish crossover, volume, trend strength, then one per MA.
func (a *Aggregator) Signals(snap indicator.Snapshot) []bool {
	signals := make([]bool, 0, baseSignals+len(snap.MASignals))
	signals = append(signals,
		snap.IsOversold,
		snap.EMASignal.Bullish,
		snap.VolumeSignal,
		snap.TrendStrength > a.TrendStrengthFilter,
	)
	for _, ma := range snap.MASignals {
		signals = append(signals, ma.Bullish)
	}
	return signals
}

// Strength is the fraction of true signals, in [0, 1].
func (a *Aggregator) Strength(snap indicator.Snapshot) float64 {
	signals := a.Signals(snap)
	bullish := 0
	for _, s := range signals {
		if s {
			bullish++
		}
	}
	return float64(bullish) / float64(len(signals))
}

// Eligible reports whether strength clears the entry threshold.
func (a *Aggregator) Eligible(strength float64) bool {
	return strength >= a.Threshold
}
