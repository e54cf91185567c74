package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/amirphl/signal-trader/internal/order"
)

func (p *Postgres) SaveOrder(ctx context.Context, rec order.Record) error {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (order_id, position_id, symbol, side, reason, quantity, executed_quantity, price, status, time)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			rec.OrderID, rec.PositionID, rec.Symbol, rec.Side, rec.Reason,
			rec.Quantity, rec.ExecutedQuantity, rec.Price, rec.Status, rec.Time.UTC())
		if err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})
}

// GetOrders returns the orders of symbol with start <= time < end, oldest first.
func (p *Postgres) GetOrders(ctx context.Context, symbol string, start, end time.Time) ([]order.Record, error) {
	rows, err := p.queryWithTransaction(ctx,
		`SELECT order_id, position_id, symbol, side, reason, quantity, executed_quantity, price, status, time
		 FROM orders WHERE symbol=$1 AND time >= $2 AND time < $3 ORDER BY time ASC`,
		symbol, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var out []order.Record
	for rows.Next() {
		var r order.Record
		if err := rows.Scan(&r.OrderID, &r.PositionID, &r.Symbol, &r.Side, &r.Reason,
			&r.Quantity, &r.ExecutedQuantity, &r.Price, &r.Status, &r.Time); err != nil {
			return nil, err
		}
		r.Time = r.Time.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MemoryStorage) SaveOrder(ctx context.Context, rec order.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	rec.Time = rec.Time.UTC()
	m.orders = append(m.orders, rec)
	return nil
}

func (m *MemoryStorage) GetOrders(ctx context.Context, symbol string, start, end time.Time) ([]order.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start = start.UTC()
	end = end.UTC()
	var out []order.Record
	for _, r := range m.orders {
		if r.Symbol == symbol && !r.Time.Before(start) && r.Time.Before(end) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}
