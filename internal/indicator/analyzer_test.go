package indicator

import (
	"testing"
	"time"

	"github.com/amirphl/signal-trader/internal/candle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		RSIPeriod:        5,
		RSIOverbought:    70,
		RSIOversold:      30,
		FastEMAPeriod:    2,
		SlowEMAPeriod:    4,
		MAPeriods:        []int{3, 5},
		VolumeWeighted:   true,
		VolatilityPeriod: 5,
		VolatilityStdDev: 2,
		VolumeThreshold:  1.5,
		VolumeLookback:   5,
		MinimumVolume:    100,
	}
}

func makeCandles(closes, volumes []float64) []candle.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]candle.Candle, len(closes))
	for i, c := range closes {
		out[i] = candle.Candle{
			Timestamp: start.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c,
			High:      c * 1.001,
			Low:       c * 0.999,
			Close:     c,
			Volume:    volumes[i],
			Symbol:    "DOGEUSDT",
			Timeframe: "15m",
		}
	}
	return out
}

func TestAnalyzer_RequiredCandles(t *testing.T) {
	a := NewAnalyzer(testParams())
	assert.Equal(t, 6, a.RequiredCandles())

	params := testParams()
	params.MAPeriods = []int{20, 30, 50}
	assert.Equal(t, 50, NewAnalyzer(params).RequiredCandles())
}

func TestAnalyzer_InsufficientData(t *testing.T) {
	a := NewAnalyzer(testParams())
	snap, err := a.Analyze(makeCandles([]float64{1, 2, 3, 4, 5}, []float64{1, 1, 1, 1, 1}))
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, Snapshot{}, snap, "no partial snapshot")

	_, err = a.Analyze(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := NewAnalyzer(testParams())
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17}
	volumes := []float64{100, 100, 100, 100, 100, 100, 100, 1000}

	snap, err := a.Analyze(makeCandles(closes, volumes))
	require.NoError(t, err)

	assert.Equal(t, 17.0, snap.CurrentPrice)
	assert.InDelta(t, 0.002, snap.Spread, 1e-9)
	assert.Equal(t, 100.0, snap.RSI)
	assert.True(t, snap.IsOverbought)
	assert.False(t, snap.IsOversold)
	// fast EMA is above the slow one from the first defined bar, so nothing crossed
	assert.Equal(t, EMASignal{}, snap.EMASignal)
	assert.Equal(t, []MASignal{{Period: 3, Bullish: true}, {Period: 5, Bullish: true}}, snap.MASignals)
	// 1000 > 1.5 * 280 and > 100
	assert.True(t, snap.VolumeSignal)
	assert.Equal(t, 1.0, snap.TrendStrength)
	assert.InDelta(t, 15.0, snap.Volatility.Middle, 1e-9)
	assert.Greater(t, snap.Volatility.Upper, snap.Volatility.Lower)
}

func TestAnalyzer_ZeroVolumeFailsTick(t *testing.T) {
	a := NewAnalyzer(testParams())
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17}
	volumes := []float64{100, 100, 100, 100, 0, 0, 0, 0}

	_, err := a.Analyze(makeCandles(closes, volumes))
	assert.ErrorIs(t, err, ErrZeroVolume)
}

func TestSpread(t *testing.T) {
	c := candle.Candle{High: 102, Low: 98, Close: 100}
	assert.InDelta(t, 0.04, Spread(c), 1e-12)
	assert.Equal(t, 0.0, Spread(candle.Candle{}))
}
