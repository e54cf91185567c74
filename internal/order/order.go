// Package order
package order

import (
	"context"
	"time"
)

// Record is a filled market order as executed for a position.
type Record struct {
	OrderID          string
	PositionID       string
	Symbol           string
	Side             string // "buy" or "sell"
	Reason           string // "entry", "take_profit", "stop" or "reversal"
	Quantity         float64
	ExecutedQuantity float64
	Price            float64
	Status           string
	Time             time.Time
}

// Recorder keeps the audit trail of filled orders. Positions are never rebuilt from it.
type Recorder interface {
	SaveOrder(ctx context.Context, rec Record) error
	GetOrders(ctx context.Context, symbol string, start, end time.Time) ([]Record, error)
}
