package candle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test candles
func createTestCandles(symbol string, timeframe string, timestamps []time.Time, opens, highs, lows, closes, volumes []float64) []Candle {
	candles := make([]Candle, len(timestamps))
	for i := range timestamps {
		candles[i] = Candle{
			Timestamp: timestamps[i],
			Open:      opens[i],
			High:      highs[i],
			Low:       lows[i],
			Close:     closes[i],
			Volume:    volumes[i],
			Symbol:    symbol,
			Timeframe: timeframe,
			Source:    "test",
		}
	}
	return candles
}

func TestCandle_Validate(t *testing.T) {
	now := time.Now().Truncate(time.Minute)
	valid := Candle{Timestamp: now, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100, Symbol: "DOGEUSDT", Timeframe: "15m"}

	tests := []struct {
		name    string
		mutate  func(c *Candle)
		wantErr string
	}{
		{name: "Valid candle", mutate: func(c *Candle) {}},
		{name: "Zero timestamp", mutate: func(c *Candle) { c.Timestamp = time.Time{} }, wantErr: "zero timestamp"},
		{name: "Non-positive price", mutate: func(c *Candle) { c.Low = 0 }, wantErr: "non-positive price"},
		{name: "High below low", mutate: func(c *Candle) { c.High = 8 }, wantErr: "below low"},
		{name: "Open outside range", mutate: func(c *Candle) { c.Open = 12; c.High = 11.5 }, wantErr: "open 12 outside"},
		{name: "Close outside range", mutate: func(c *Candle) { c.Close = 8.5 }, wantErr: "close 8.5 outside"},
		{name: "Negative volume", mutate: func(c *Candle) { c.Volume = -1 }, wantErr: "negative volume"},
		{name: "Empty symbol", mutate: func(c *Candle) { c.Symbol = "" }, wantErr: "empty symbol"},
		{name: "Empty timeframe", mutate: func(c *Candle) { c.Timeframe = "" }, wantErr: "empty timeframe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSortAndValidateSeries(t *testing.T) {
	now := time.Now().Truncate(time.Minute)
	candles := createTestCandles("DOGEUSDT", "1m",
		[]time.Time{now.Add(2 * time.Minute), now, now.Add(time.Minute)},
		[]float64{12, 10, 11},
		[]float64{12.5, 10.5, 11.5},
		[]float64{11.5, 9.5, 10.5},
		[]float64{12, 10, 11},
		[]float64{300, 100, 200},
	)

	assert.Error(t, ValidateSeries(candles), "unsorted series must be rejected")

	SortByTime(candles)
	require.NoError(t, ValidateSeries(candles))
	assert.Equal(t, []float64{10, 11, 12}, Closes(candles))
	assert.Equal(t, []float64{100, 200, 300}, Volumes(candles))
}
