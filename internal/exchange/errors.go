package exchange

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoPrice           = errors.New("no market price available")
	ErrInvalidQuantity   = errors.New("invalid order quantity")
)

// GatewayError is returned when market data or balances cannot be fetched.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("exchange %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// OrderError is returned when an order is rejected or its outcome is unknown.
type OrderError struct {
	Side     Side
	Quantity float64
	Err      error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s order for %.8f failed: %v", e.Side, e.Quantity, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}
