package indicator

import "math"

// Band is one Bollinger band observation.
type Band struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Width is the band width relative to the middle line.
func (b Band) Width() float64 {
	if b.Middle == 0 {
		return 0
	}
	return (b.Upper - b.Lower) / b.Middle
}

// CalculateBollinger computes Bollinger bands (SMA middle line, population
// standard deviation times stdDev) for every full window. The result holds
// len(prices)-period+1 bands, oldest first.
func CalculateBollinger(prices []float64, period int, stdDev float64) ([]Band, error) {
	sma, err := CalculateSMA(prices, period)
	if err != nil {
		return nil, err
	}
	bands := make([]Band, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		mean := sma[i]
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		bands = append(bands, Band{
			Upper:  mean + stdDev*sd,
			Middle: mean,
			Lower:  mean - stdDev*sd,
		})
	}
	return bands, nil
}
