// Package position owns the open long positions of one symbol and the risk
// state that gates new entries.
package position

import (
	"fmt"
	"time"
)

// TakeProfitLevels is the number of stepped take-profit exits per position.
const TakeProfitLevels = 3

// ExitReason explains why quantity was sold.
type ExitReason string

const (
	ExitStop       ExitReason = "stop"
	ExitTakeProfit ExitReason = "take_profit"
	ExitReversal   ExitReason = "reversal"
)

// Position is an open long position.
type Position struct {
	ID           string
	EntryPrice   float64
	Quantity     float64
	TrailingStop float64
	InitialStop  float64
	TakeProfits  [TakeProfitLevels]float64
	// Filled counts the take-profit levels already hit.
	Filled   int
	OpenedAt time.Time
}

func newPosition(id string, price, quantity float64, p Params, at time.Time) Position {
	var tps [TakeProfitLevels]float64
	for i, level := range p.TakeProfitLevels {
		tps[i] = price * (1 + level)
	}
	return Position{
		ID:           id,
		EntryPrice:   price,
		Quantity:     quantity,
		TrailingStop: price * (1 - p.TrailingStop),
		InitialStop:  price * (1 - p.InitialStop),
		TakeProfits:  tps,
		OpenedAt:     at,
	}
}

// Validate checks initialStop < entry < TP1 < TP2 < TP3.
func (p Position) Validate() error {
	if p.EntryPrice <= 0 {
		return fmt.Errorf("position %s: entry price must be positive", p.ID)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("position %s: negative quantity", p.ID)
	}
	if p.InitialStop >= p.EntryPrice {
		return fmt.Errorf("position %s: initial stop %.8f not below entry %.8f", p.ID, p.InitialStop, p.EntryPrice)
	}
	prev := p.EntryPrice
	for i, tp := range p.TakeProfits {
		if tp <= prev {
			return fmt.Errorf("position %s: take profit %d (%.8f) not above %.8f", p.ID, i+1, tp, prev)
		}
		prev = tp
	}
	if p.Filled < 0 || p.Filled > TakeProfitLevels {
		return fmt.Errorf("position %s: filled %d out of range", p.ID, p.Filled)
	}
	return nil
}

// RatchetTrailingStop raises the trailing stop to price*(1-trail) if that is
// higher. It never lowers it.
func (p *Position) RatchetTrailingStop(price, trail float64) bool {
	candidate := price * (1 - trail)
	if candidate > p.TrailingStop {
		p.TrailingStop = candidate
		return true
	}
	return false
}

// StopHit reports whether price breached the trailing or the initial stop.
func (p Position) StopHit(price float64) bool {
	return price <= p.TrailingStop || price <= p.InitialStop
}

// TakeProfitReached reports whether price reached the next unfilled level.
// Levels are taken in order, at most one per call.
func (p Position) TakeProfitReached(price float64) bool {
	return p.Filled < TakeProfitLevels && price >= p.TakeProfits[p.Filled]
}

// TakeProfitQuantity is the quantity to sell at the next level: an equal share
// of what remains across the remaining levels. The last level sells everything.
func (p Position) TakeProfitQuantity() float64 {
	remaining := TakeProfitLevels - p.Filled
	if remaining <= 1 {
		return p.Quantity
	}
	return p.Quantity / float64(remaining)
}

func (p Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity
}

// realizedPnL of selling quantity at price.
func (p Position) realizedPnL(price, quantity float64) float64 {
	return (price - p.EntryPrice) * quantity
}
