package indicator

import "fmt"

// MASignal tells whether the current price is above the latest value of
// the moving average with the given period.
type MASignal struct {
	Period  int  `json:"period"`
	Bullish bool `json:"bullish"`
}

// CalculateSMA computes a simple moving average aligned with prices.
func CalculateSMA(prices []float64, period int) ([]float64, error) {
	if err := requireLength(len(prices), period, period); err != nil {
		return nil, err
	}
	sma := nanPrefix(len(prices), period-1)
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			sma[i] = sum / float64(period)
		}
	}
	return sma, nil
}

// CalculateVWMA computes a volume-weighted moving average: for every window,
// sum(price*volume) / sum(volume). A window whose volume sums to zero is an
// error rather than a NaN.
func CalculateVWMA(prices, volumes []float64, period int) ([]float64, error) {
	if len(prices) != len(volumes) {
		return nil, fmt.Errorf("prices and volumes length mismatch: %d != %d", len(prices), len(volumes))
	}
	if err := requireLength(len(prices), period, period); err != nil {
		return nil, err
	}
	vwma := nanPrefix(len(prices), period-1)
	for i := period - 1; i < len(prices); i++ {
		var sumPV, sumV float64
		for j := i - period + 1; j <= i; j++ {
			sumPV += prices[j] * volumes[j]
			sumV += volumes[j]
		}
		if sumV == 0 {
			return nil, fmt.Errorf("%w: window ending at index %d", ErrZeroVolume, i)
		}
		vwma[i] = sumPV / sumV
	}
	return vwma, nil
}

// CalculateMASignals evaluates every configured period, using VWMA when
// volumeWeighted is set and SMA otherwise.
func CalculateMASignals(prices, volumes []float64, periods []int, volumeWeighted bool) ([]MASignal, error) {
	current := Last(prices)
	signals := make([]MASignal, 0, len(periods))
	for _, period := range periods {
		var (
			values []float64
			err    error
		)
		if volumeWeighted {
			values, err = CalculateVWMA(prices, volumes, period)
		} else {
			values, err = CalculateSMA(prices, period)
		}
		if err != nil {
			return nil, fmt.Errorf("moving average %d: %w", period, err)
		}
		signals = append(signals, MASignal{Period: period, Bullish: current > Last(values)})
	}
	return signals, nil
}
