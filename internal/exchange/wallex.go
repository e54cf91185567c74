package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/signal-trader/internal/candle"
	"github.com/amirphl/signal-trader/internal/tfutils"
	"github.com/amirphl/signal-trader/internal/utils"
	wallex "github.com/wallexchange/wallex-go"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
	maxRetryBackoff      = 5 * time.Minute
)

// WallexOptions configures a WallexExchange.
type WallexOptions struct {
	APIKey            string
	Symbol            string
	Timeframe         string
	QuoteAsset        string
	CandleCount       int
	QuantityPrecision int32
	RetryAttempts     int
	RetryDelay        time.Duration
}

// WallexExchange is a Gateway backed by the Wallex REST API.
type WallexExchange struct {
	client *wallex.Client
	opts   WallexOptions
}

func NewWallexExchange(opts WallexOptions) *WallexExchange {
	if opts.QuoteAsset == "" {
		opts.QuoteAsset = ExtractQuoteCurrency(opts.Symbol)
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &WallexExchange{
		client: wallex.New(wallex.ClientOptions{APIKey: opts.APIKey}),
		opts:   opts,
	}
}

func (w *WallexExchange) Name() string {
	return "wallex"
}

// retry wraps a function with retry logic for transient errors, using exponential backoff and error logging.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	backoff := delay
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		utils.GetLogger().Printf("Exchange | Wallex retry attempt %d/%d failed: %v. Backing off for %v", i, attempts, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
	return fmt.Errorf("all %d retry attempts failed: %w", attempts, err)
}

// FetchCandles fetches the last CandleCount candles of the configured symbol and timeframe.
func (w *WallexExchange) FetchCandles(ctx context.Context) ([]candle.Candle, error) {
	duration := tfutils.GetTimeframeDuration(w.opts.Timeframe)
	if duration == 0 {
		return nil, &GatewayError{Op: "fetch candles", Err: fmt.Errorf("unsupported timeframe: %s", w.opts.Timeframe)}
	}

	end := time.Now().UTC()
	// one extra bar so the window still holds CandleCount closed bars
	start := end.Add(-duration * time.Duration(w.opts.CandleCount+1))
	resolution := tfutils.Resolution(w.opts.Timeframe)
	symbol := NormalizeSymbol(w.opts.Symbol)

	var raw []*wallex.Candle
	err := retry(ctx, w.opts.RetryAttempts, w.opts.RetryDelay, func() error {
		var err error
		raw, err = w.client.Candles(symbol, resolution, start, end)
		return err
	})
	if err != nil {
		return nil, &GatewayError{Op: "fetch candles", Err: err}
	}

	candles := convertCandles(raw, w.opts.Symbol, w.opts.Timeframe, w.Name())
	if len(candles) == 0 {
		return nil, &GatewayError{Op: "fetch candles", Err: fmt.Errorf("no valid candles for %s", symbol)}
	}
	return candles, nil
}

// FetchFreeBalance returns the available balance of the quote asset.
func (w *WallexExchange) FetchFreeBalance(ctx context.Context) (float64, error) {
	var balances map[string]*wallex.Balance
	err := retry(ctx, w.opts.RetryAttempts, w.opts.RetryDelay, func() error {
		var err error
		balances, err = w.client.Balances()
		return err
	})
	if err != nil {
		return 0, &GatewayError{Op: "fetch balance", Err: err}
	}

	b, ok := balances[w.opts.QuoteAsset]
	if !ok || b == nil {
		return 0, nil
	}
	return parseNumber(b.Value), nil
}

func (w *WallexExchange) PlaceBuyOrder(ctx context.Context, quantity float64) (OrderResult, error) {
	return w.placeMarketOrder(ctx, SideBuy, quantity)
}

func (w *WallexExchange) PlaceSellOrder(ctx context.Context, quantity float64) (OrderResult, error) {
	return w.placeMarketOrder(ctx, SideSell, quantity)
}

// placeMarketOrder submits exactly once. Orders are not retried since a
// timed-out request may still have been executed.
func (w *WallexExchange) placeMarketOrder(ctx context.Context, side Side, quantity float64) (OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return OrderResult{}, &OrderError{Side: side, Quantity: quantity, Err: err}
	}

	qty := FormatQuantity(quantity, w.opts.QuantityPrecision)
	if RoundQuantity(quantity, w.opts.QuantityPrecision) <= 0 {
		return OrderResult{}, &OrderError{Side: side, Quantity: quantity, Err: ErrInvalidQuantity}
	}

	params := &wallex.OrderParams{
		Symbol:   NormalizeSymbol(w.opts.Symbol),
		Type:     "MARKET",
		Side:     strings.ToUpper(string(side)),
		Quantity: wallex.Number(qty),
	}
	resp, err := w.client.PlaceOrder(params)
	if err != nil {
		return OrderResult{}, &OrderError{Side: side, Quantity: quantity, Err: err}
	}

	utils.GetLogger().Printf("Exchange | [%s] %s order %s placed: qty=%s status=%s",
		w.opts.Symbol, side, resp.ClientOrderID, qty, resp.Status)

	return OrderResult{
		OrderID:          resp.ClientOrderID,
		ExecutedQuantity: float64Ptr(resp.ExecutedQty),
		AvgPrice:         float64Ptr(resp.ExecutedPrice),
		Status:           strings.ToUpper(resp.Status),
	}, nil
}

// convertCandles maps Wallex candles to validated, time-ordered candles.
// Invalid bars are dropped.
func convertCandles(raw []*wallex.Candle, symbol, timeframe, source string) []candle.Candle {
	candles := make([]candle.Candle, 0, len(raw))
	for _, wc := range raw {
		if wc == nil {
			continue
		}
		c := candle.Candle{
			Timestamp: wc.Timestamp.UTC().Truncate(time.Minute),
			Open:      parseNumber(wc.Open),
			High:      parseNumber(wc.High),
			Low:       parseNumber(wc.Low),
			Close:     parseNumber(wc.Close),
			Volume:    parseNumber(wc.Volume),
			Symbol:    symbol,
			Timeframe: timeframe,
			Source:    source,
		}
		if err := c.Validate(); err != nil {
			continue
		}
		candles = append(candles, c)
	}
	candle.SortByTime(candles)

	// a bar may be repeated across page boundaries
	out := candles[:0]
	for i, c := range candles {
		if i+1 < len(candles) && candles[i+1].Timestamp.Equal(c.Timestamp) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parseNumber(n wallex.Number) float64 {
	out, _ := strconv.ParseFloat(string(n), 64)
	return out
}

// Helper to safely dereference *wallex.Number
func float64Ptr(n *wallex.Number) float64 {
	if n == nil {
		return 0
	}
	return parseNumber(*n)
}
