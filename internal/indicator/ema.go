package indicator

import "math"

// CrossoverType tells which way the fast average crossed the slow one.
type CrossoverType string

const (
	BullishCrossover CrossoverType = "bullish"
	BearishCrossover CrossoverType = "bearish"
)

// Crossover is a single fast/slow crossing at Index of the input series.
type Crossover struct {
	Type  CrossoverType
	Index int
}

// EMASignal reports whether a crossover of each kind exists in the series.
type EMASignal struct {
	Bullish bool `json:"bullish"`
	Bearish bool `json:"bearish"`
}

// CalculateEMA computes an exponential moving average seeded with the SMA of
// the first period prices. The result is aligned with prices; the first
// period-1 entries are NaN.
func CalculateEMA(prices []float64, period int) ([]float64, error) {
	if err := requireLength(len(prices), period, period); err != nil {
		return nil, err
	}
	ema := nanPrefix(len(prices), period-1)
	k := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema[period-1] = sum / float64(period)
	for i := period; i < len(prices); i++ {
		ema[i] = prices[i]*k + ema[i-1]*(1-k)
	}
	return ema, nil
}

// DetectCrossovers scans adjacent pairs where both averages are defined.
// fast <= slow followed by fast > slow is bullish; fast >= slow followed by
// fast < slow is bearish.
func DetectCrossovers(fast, slow []float64) []Crossover {
	n := min(len(fast), len(slow))
	var crossovers []Crossover
	for i := 1; i < n; i++ {
		if anyNaN(fast[i-1], slow[i-1], fast[i], slow[i]) {
			continue
		}
		switch {
		case fast[i] > slow[i] && fast[i-1] <= slow[i-1]:
			crossovers = append(crossovers, Crossover{Type: BullishCrossover, Index: i})
		case fast[i] < slow[i] && fast[i-1] >= slow[i-1]:
			crossovers = append(crossovers, Crossover{Type: BearishCrossover, Index: i})
		}
	}
	return crossovers
}

// CalculateEMASignal computes both averages and reports whether any bullish
// or bearish crossover occurred anywhere in the series. A crossover from the
// start of the window keeps its flag set for as long as it stays in the window.
func CalculateEMASignal(prices []float64, fastPeriod, slowPeriod int) (EMASignal, []Crossover, error) {
	fast, err := CalculateEMA(prices, fastPeriod)
	if err != nil {
		return EMASignal{}, nil, err
	}
	slow, err := CalculateEMA(prices, slowPeriod)
	if err != nil {
		return EMASignal{}, nil, err
	}

	crossovers := DetectCrossovers(fast, slow)
	var signal EMASignal
	for _, c := range crossovers {
		switch c.Type {
		case BullishCrossover:
			signal.Bullish = true
		case BearishCrossover:
			signal.Bearish = true
		}
	}
	return signal, crossovers, nil
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
