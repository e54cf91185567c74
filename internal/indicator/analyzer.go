package indicator

import (
	"fmt"
	"slices"

	"github.com/amirphl/signal-trader/internal/candle"
)

// Params holds every lookback and threshold used to build a Snapshot.
type Params struct {
	RSIPeriod        int
	RSIOverbought    float64
	RSIOversold      float64
	FastEMAPeriod    int
	SlowEMAPeriod    int
	MAPeriods        []int
	VolumeWeighted   bool
	VolatilityPeriod int
	VolatilityStdDev float64
	VolumeThreshold  float64
	VolumeLookback   int
	MinimumVolume    float64
	TrendPeriod      int
}

// Snapshot is the per-tick analysis of a candle series. It is built fresh on
// every tick and passed by value.
type Snapshot struct {
	CurrentPrice  float64    `json:"current_price"`
	Spread        float64    `json:"spread"`
	RSI           float64    `json:"rsi"`
	IsOverbought  bool       `json:"is_overbought"`
	IsOversold    bool       `json:"is_oversold"`
	EMASignal     EMASignal  `json:"ema_signal"`
	MASignals     []MASignal `json:"ma_signals"`
	VolumeSignal  bool       `json:"volume_signal"`
	Volatility    Band       `json:"volatility"`
	TrendStrength float64    `json:"trend_strength"`
}

// Analyzer turns a candle series into a Snapshot.
type Analyzer struct {
	params Params
}

// NewAnalyzer creates an analyzer; a zero TrendPeriod falls back to DefaultTrendPeriod.
func NewAnalyzer(params Params) *Analyzer {
	if params.TrendPeriod <= 0 {
		params.TrendPeriod = DefaultTrendPeriod
	}
	params.MAPeriods = slices.Clone(params.MAPeriods)
	return &Analyzer{params: params}
}

// RequiredCandles is the longest lookback among all indicators.
func (a *Analyzer) RequiredCandles() int {
	need := max(a.params.RSIPeriod+1, a.params.SlowEMAPeriod, a.params.FastEMAPeriod,
		a.params.VolatilityPeriod, a.params.VolumeLookback)
	for _, p := range a.params.MAPeriods {
		need = max(need, p)
	}
	return max(need, 2)
}

// Analyze computes the full Snapshot for the latest bar. A series shorter
// than RequiredCandles fails with ErrInsufficientData before anything is computed.
func (a *Analyzer) Analyze(candles []candle.Candle) (Snapshot, error) {
	if need := a.RequiredCandles(); len(candles) < need {
		return Snapshot{}, fmt.Errorf("%w: need %d candles, have %d", ErrInsufficientData, need, len(candles))
	}

	prices := candle.Closes(candles)
	volumes := candle.Volumes(candles)
	latest := candles[len(candles)-1]
	currentPrice := latest.Close
	if currentPrice <= 0 {
		return Snapshot{}, fmt.Errorf("latest close must be positive, got %v", currentPrice)
	}

	rsi, err := CalculateLastRSI(prices, a.params.RSIPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("rsi: %w", err)
	}

	emaSignal, _, err := CalculateEMASignal(prices, a.params.FastEMAPeriod, a.params.SlowEMAPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("ema: %w", err)
	}

	maSignals, err := CalculateMASignals(prices, volumes, a.params.MAPeriods, a.params.VolumeWeighted)
	if err != nil {
		return Snapshot{}, err
	}

	bands, err := CalculateBollinger(prices, a.params.VolatilityPeriod, a.params.VolatilityStdDev)
	if err != nil {
		return Snapshot{}, fmt.Errorf("volatility: %w", err)
	}

	trend, err := CalculateTrendStrength(prices, a.params.TrendPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("trend strength: %w", err)
	}

	avgVolume, err := AverageVolume(volumes, a.params.VolumeLookback)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		CurrentPrice:  currentPrice,
		Spread:        Spread(latest),
		RSI:           rsi,
		IsOverbought:  rsi > a.params.RSIOverbought,
		IsOversold:    rsi < a.params.RSIOversold,
		EMASignal:     emaSignal,
		MASignals:     maSignals,
		VolumeSignal:  IsVolumeSignificant(latest.Volume, avgVolume, a.params.VolumeThreshold, a.params.MinimumVolume),
		Volatility:    bands[len(bands)-1],
		TrendStrength: trend,
	}, nil
}

// Spread is the high-low range of a bar relative to its close.
func Spread(c candle.Candle) float64 {
	if c.Close == 0 {
		return 0
	}
	return (c.High - c.Low) / c.Close
}
