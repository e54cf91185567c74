// Package exchange
package exchange

import (
	"context"
	"strings"

	"github.com/amirphl/signal-trader/internal/candle"
	"github.com/shopspring/decimal"
)

// Side is the direction of a market order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderResult is what the exchange reports back for a filled (or accepted) market order.
type OrderResult struct {
	OrderID          string
	ExecutedQuantity float64
	AvgPrice         float64
	Status           string
}

// Gateway is everything the trading engine needs from a venue. An instance is
// bound to one symbol and one timeframe.
type Gateway interface {
	// FetchCandles returns the recent candles, oldest first.
	FetchCandles(ctx context.Context) ([]candle.Candle, error)
	// FetchFreeBalance returns the spendable quote-currency balance.
	FetchFreeBalance(ctx context.Context) (float64, error)
	PlaceBuyOrder(ctx context.Context, quantity float64) (OrderResult, error)
	PlaceSellOrder(ctx context.Context, quantity float64) (OrderResult, error)
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))
}

// ExtractQuoteCurrency extracts the quote currency from a trading symbol
// e.g., "DOGE-USDT" -> "USDT", "DOGEUSDT" -> "USDT", "BTCTMN" -> "TMN"
func ExtractQuoteCurrency(symbol string) string {
	if parts := strings.Split(strings.ToUpper(symbol), "-"); len(parts) == 2 {
		return parts[1]
	}
	normalized := NormalizeSymbol(symbol)
	for _, quote := range []string{"USDT", "TMN"} {
		if strings.HasSuffix(normalized, quote) && len(normalized) > len(quote) {
			return quote
		}
	}
	return ""
}

// RoundQuantity truncates qty to precision decimal places. Truncation never
// rounds an order up past what the balance allows.
func RoundQuantity(qty float64, precision int32) float64 {
	return decimal.NewFromFloat(qty).Truncate(precision).InexactFloat64()
}

// FormatQuantity renders qty as the exchange expects it on the wire.
func FormatQuantity(qty float64, precision int32) string {
	return decimal.NewFromFloat(qty).Truncate(precision).StringFixed(precision)
}
