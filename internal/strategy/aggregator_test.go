package strategy

import (
	"testing"

	"github.com/amirphl/signal-trader/internal/indicator"
	"github.com/stretchr/testify/assert"
)

func snapshot(oversold, ema, volume bool, trend float64, mas ...bool) indicator.Snapshot {
	snap := indicator.Snapshot{
		CurrentPrice:  100,
		IsOversold:    oversold,
		EMASignal:     indicator.EMASignal{Bullish: ema},
		VolumeSignal:  volume,
		TrendStrength: trend,
	}
	for i, b := range mas {
		snap.MASignals = append(snap.MASignals, indicator.MASignal{Period: 20 + 10*i, Bullish: b})
	}
	return snap
}

func TestAggregator_Strength(t *testing.T) {
	agg := NewAggregator(0, 0)

	tests := []struct {
		name     string
		snap     indicator.Snapshot
		expected float64
		eligible bool
	}{
		{
			name:     "All seven signals bullish",
			snap:     snapshot(true, true, true, 0.8, true, true, true),
			expected: 1.0,
			eligible: true,
		},
		{
			name:     "No signal bullish",
			snap:     snapshot(false, false, false, 0.3, false, false, false),
			expected: 0,
			eligible: false,
		},
		{
			name:     "Five of seven clears threshold",
			snap:     snapshot(false, true, false, 0.8, true, true, true),
			expected: 5.0 / 7.0,
			eligible: true,
		},
		{
			name:     "Four of seven",
			snap:     snapshot(false, false, true, 0.8, true, true, false),
			expected: 4.0 / 7.0,
			eligible: false,
		},
		{
			name:     "Trend strength equal to filter does not count",
			snap:     snapshot(true, true, true, 0.6),
			expected: 0.75,
			eligible: true,
		},
		{
			name:     "No moving averages configured",
			snap:     snapshot(true, false, true, 0.9),
			expected: 0.75,
			eligible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strength := agg.Strength(tt.snap)
			assert.InDelta(t, tt.expected, strength, 1e-12)
			assert.Equal(t, tt.eligible, agg.Eligible(strength))
		})
	}
}

func TestAggregator_Defaults(t *testing.T) {
	agg := NewAggregator(0, -1)
	assert.Equal(t, DefaultEntryThreshold, agg.Threshold)
	assert.Equal(t, DefaultTrendStrengthFilter, agg.TrendStrengthFilter)

	custom := NewAggregator(0.5, 0.4)
	assert.True(t, custom.Eligible(0.5))
	assert.False(t, custom.Eligible(0.49))
}

func TestAggregator_Signals(t *testing.T) {
	agg := NewAggregator(0, 0)
	signals := agg.Signals(snapshot(true, false, true, 0.1, false, true))
	assert.Equal(t, []bool{true, false, true, false, false, true}, signals)
}
