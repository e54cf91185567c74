// Package journal
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types written by the trading engine.
const (
	EventPositionOpened   = "position_opened"
	EventTakeProfit       = "take_profit"
	EventPositionClosed   = "position_closed"
	EventOrderFailed      = "order_failed"
	EventEvaluationFailed = "evaluation_failed"
	EventNewTradingDay    = "new_trading_day"
)

// Event represents a journaled event.
type Event struct {
	ID          string
	Time        time.Time
	Type        string
	Symbol      string
	Description string
	Data        map[string]any
}

// NewEvent stamps a new event with a fresh ID and the current UTC time.
func NewEvent(eventType, symbol, description string, data map[string]any) Event {
	return Event{
		ID:          uuid.NewString(),
		Time:        time.Now().UTC(),
		Type:        eventType,
		Symbol:      symbol,
		Description: description,
		Data:        data,
	}
}

// Journaler interface for journaling events.
type Journaler interface {
	LogEvent(ctx context.Context, event Event) error
	GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]Event, error)
}
