package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirphl/signal-trader/internal/candle"
	"github.com/amirphl/signal-trader/internal/utils"
	"github.com/google/uuid"
)

// CandleSource supplies market data to the paper exchange.
type CandleSource interface {
	FetchCandles(ctx context.Context) ([]candle.Candle, error)
}

// PriceSource supplies a fresher price than the last candle close.
type PriceSource interface {
	LastPrice(maxAge time.Duration) (float64, bool)
}

// PaperOptions configures a PaperExchange.
type PaperOptions struct {
	Symbol            string
	InitialBalance    float64
	FeeRate           float64
	QuantityPrecision int32
	// PriceMaxAge bounds how old a PriceSource quote may be; zero disables it.
	PriceMaxAge time.Duration
}

// PaperExchange proxies market data to a real source and simulates market
// order fills against a virtual quote balance.
type PaperExchange struct {
	source CandleSource
	prices PriceSource
	opts   PaperOptions

	mu        sync.Mutex
	quote     float64
	base      float64
	lastClose float64
}

func NewPaperExchange(source CandleSource, prices PriceSource, opts PaperOptions) *PaperExchange {
	return &PaperExchange{
		source: source,
		prices: prices,
		opts:   opts,
		quote:  opts.InitialBalance,
	}
}

func (p *PaperExchange) Name() string {
	return "paper"
}

// ===== PROXY FUNCTIONS =====

func (p *PaperExchange) FetchCandles(ctx context.Context) ([]candle.Candle, error) {
	candles, err := p.source.FetchCandles(ctx)
	if err != nil {
		return nil, err
	}
	if n := len(candles); n > 0 {
		p.mu.Lock()
		p.lastClose = candles[n-1].Close
		p.mu.Unlock()
	}
	return candles, nil
}

// ===== SIMULATED FUNCTIONS =====

func (p *PaperExchange) FetchFreeBalance(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &GatewayError{Op: "fetch balance", Err: err}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote, nil
}

// Holdings returns the simulated quote and base balances.
func (p *PaperExchange) Holdings() (quote, base float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote, p.base
}

func (p *PaperExchange) PlaceBuyOrder(ctx context.Context, quantity float64) (OrderResult, error) {
	return p.fill(ctx, SideBuy, quantity)
}

func (p *PaperExchange) PlaceSellOrder(ctx context.Context, quantity float64) (OrderResult, error) {
	return p.fill(ctx, SideSell, quantity)
}

func (p *PaperExchange) fill(ctx context.Context, side Side, quantity float64) (OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return OrderResult{}, &OrderError{Side: side, Quantity: quantity, Err: err}
	}
	qty := RoundQuantity(quantity, p.opts.QuantityPrecision)
	if qty <= 0 {
		return OrderResult{}, &OrderError{Side: side, Quantity: quantity, Err: ErrInvalidQuantity}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	price := p.price()
	if price <= 0 {
		return OrderResult{}, &OrderError{Side: side, Quantity: quantity, Err: ErrNoPrice}
	}

	notional := qty * price
	fee := notional * p.opts.FeeRate
	switch side {
	case SideBuy:
		if notional+fee > p.quote {
			return OrderResult{}, &OrderError{Side: side, Quantity: quantity,
				Err: fmt.Errorf("%w: need %.8f, have %.8f", ErrInsufficientFunds, notional+fee, p.quote)}
		}
		p.quote -= notional + fee
		p.base += qty
	case SideSell:
		if qty > p.base {
			return OrderResult{}, &OrderError{Side: side, Quantity: quantity,
				Err: fmt.Errorf("%w: need %.8f, have %.8f", ErrInsufficientFunds, qty, p.base)}
		}
		p.base -= qty
		p.quote += notional - fee
	}

	orderID := "paper_" + uuid.NewString()
	utils.GetLogger().Printf("PaperExchange | [%s] %s filled: OrderID=%s, Price=%.8f, Quantity=%.8f",
		p.opts.Symbol, side, orderID, price, qty)

	return OrderResult{
		OrderID:          orderID,
		ExecutedQuantity: qty,
		AvgPrice:         price,
		Status:           "FILLED",
	}, nil
}

// price must be called with p.mu held.
func (p *PaperExchange) price() float64 {
	if p.prices != nil && p.opts.PriceMaxAge > 0 {
		if last, ok := p.prices.LastPrice(p.opts.PriceMaxAge); ok {
			return last
		}
	}
	return p.lastClose
}
