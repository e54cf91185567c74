package indicator

// CalculateRSI computes Wilder's Relative Strength Index. The result is
// aligned with prices: the first period entries are NaN and index period
// holds the first RSI value, so at least period+1 prices are required.
func CalculateRSI(prices []float64, period int) ([]float64, error) {
	if err := requireLength(len(prices), period, period+1); err != nil {
		return nil, err
	}
	rsi := nanPrefix(len(prices), period)

	var gain, loss float64
	// Seed averages from the first period changes
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gain += change
		} else {
			loss += -change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	// Wilder smoothing for the rest of the series
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss = 0, 0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		rsi[i] = rsiValue(avgGain, avgLoss)
	}
	return rsi, nil
}

// CalculateLastRSI returns only the most recent RSI value.
func CalculateLastRSI(prices []float64, period int) (float64, error) {
	rsi, err := CalculateRSI(prices, period)
	if err != nil {
		return 0, err
	}
	return Last(rsi), nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
