package exchange

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "DOGEUSDT", NormalizeSymbol("doge-usdt"))
	assert.Equal(t, "BTCTMN", NormalizeSymbol("BTCTMN"))
}

func TestExtractQuoteCurrency(t *testing.T) {
	tests := []struct {
		symbol   string
		expected string
	}{
		{"DOGE-USDT", "USDT"},
		{"DOGEUSDT", "USDT"},
		{"btctmn", "TMN"},
		{"USDT", ""},
		{"FOO", ""},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractQuoteCurrency(tt.symbol))
		})
	}
}

func TestQuantityFormatting(t *testing.T) {
	assert.Equal(t, "1.2345", FormatQuantity(1.23456789, 4))
	assert.Equal(t, "25.00", FormatQuantity(25, 2))
	assert.Equal(t, "12", FormatQuantity(12.99, 0))

	assert.Equal(t, 1.2345, RoundQuantity(1.23456789, 4))
	assert.Equal(t, 0.0, RoundQuantity(0.00009, 4))
}

func TestErrors_Unwrap(t *testing.T) {
	base := errors.New("connection reset")

	var gwErr *GatewayError
	err := fmt.Errorf("evaluate: %w", &GatewayError{Op: "fetch candles", Err: base})
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "fetch candles", gwErr.Op)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "exchange fetch candles: connection reset")

	var orderErr *OrderError
	err = fmt.Errorf("entry: %w", &OrderError{Side: SideBuy, Quantity: 50, Err: ErrInsufficientFunds})
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, SideBuy, orderErr.Side)
	assert.Equal(t, 50.0, orderErr.Quantity)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.False(t, errors.As(err, &gwErr))
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("Succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := retry(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("Returns the last error", func(t *testing.T) {
		last := errors.New("still down")
		calls := 0
		err := retry(ctx, 2, time.Millisecond, func() error {
			calls++
			return last
		})
		assert.ErrorIs(t, err, last)
		assert.Equal(t, 2, calls)
	})

	t.Run("Stops when context is cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		err := retry(cctx, 5, time.Hour, func() error {
			calls++
			cancel()
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
