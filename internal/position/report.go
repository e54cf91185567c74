package position

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/amirphl/signal-trader/internal/exchange"
	"github.com/amirphl/signal-trader/internal/journal"
	"github.com/amirphl/signal-trader/internal/order"
)

// evaluationFailed reports a failure that aborted the tick and returns err.
func (m *Manager) evaluationFailed(ctx context.Context, kind string, err error) error {
	log.Printf("PositionManager | [%s] Evaluation failed: %v", m.symbol, err)
	m.metrics.EvaluationFailed(kind)
	m.logEvent(ctx, journal.EventEvaluationFailed, kind, map[string]any{"error": err.Error()})
	m.notify(fmt.Sprintf("ERROR: [%s] evaluation failed: %v", m.symbol, err))
	return err
}

// orderFailed reports a rejected order. State is not touched.
func (m *Manager) orderFailed(ctx context.Context, side exchange.Side, quantity float64, description string, err error) error {
	var orderErr *exchange.OrderError
	if !errors.As(err, &orderErr) {
		err = &exchange.OrderError{Side: side, Quantity: quantity, Err: err}
	}
	err = fmt.Errorf("%s: %w", description, err)

	log.Printf("PositionManager | [%s] %v", m.symbol, err)
	m.metrics.Order(string(side), false)
	m.logEvent(ctx, journal.EventOrderFailed, description, map[string]any{
		"side":     string(side),
		"quantity": quantity,
		"error":    err.Error(),
	})
	m.notify(fmt.Sprintf("ERROR: [%s] %v", m.symbol, err))
	return err
}

func (m *Manager) logEvent(ctx context.Context, eventType, description string, data map[string]any) {
	if m.journal == nil {
		return
	}
	event := journal.NewEvent(eventType, m.symbol, description, data)
	event.Time = m.now().UTC()
	if err := m.journal.LogEvent(ctx, event); err != nil {
		log.Printf("PositionManager | [%s] Error logging event: %v", m.symbol, err)
	}
}

// saveOrder records a filled order. price is the snapshot price when the
// exchange reports no average price.
func (m *Manager) saveOrder(ctx context.Context, positionID string, side exchange.Side, reason string, requested, executed, price float64, res exchange.OrderResult) {
	if m.orders == nil {
		return
	}
	if res.AvgPrice > 0 {
		price = res.AvgPrice
	}
	err := m.orders.SaveOrder(ctx, order.Record{
		OrderID:          res.OrderID,
		PositionID:       positionID,
		Symbol:           m.symbol,
		Side:             string(side),
		Reason:           reason,
		Quantity:         requested,
		ExecutedQuantity: executed,
		Price:            price,
		Status:           res.Status,
		Time:             m.now(),
	})
	if err != nil {
		log.Printf("PositionManager | [%s] Error saving order: %v", m.symbol, err)
	}
}

// notify queues msg for flushNotifications, which runs once the state lock
// is released.
func (m *Manager) notify(msg string) {
	if m.notifier == nil {
		return
	}
	m.outboxMu.Lock()
	m.outbox = append(m.outbox, msg)
	m.outboxMu.Unlock()
}

func (m *Manager) flushNotifications() {
	m.outboxMu.Lock()
	msgs := m.outbox
	m.outbox = nil
	m.outboxMu.Unlock()

	for _, msg := range msgs {
		if err := m.notifier.SendWithRetry(msg); err != nil {
			log.Printf("PositionManager | [%s] Error sending notification: %v", m.symbol, err)
		}
	}
}

// publishRiskLocked pushes the risk gauges; m.mu must be held.
func (m *Manager) publishRiskLocked() {
	m.metrics.Risk(m.stats.RealizedPnL, m.risk.DailyPnL, m.risk.ConsecutiveLosses, len(m.positions))
}
