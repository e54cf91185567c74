// Package db
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/amirphl/signal-trader/internal/journal"
	"github.com/amirphl/signal-trader/internal/order"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var Schema string

// Storage is the interface for all persistent storage.
type Storage interface {
	journal.Journaler
	order.Recorder
	Close() error
}

// Open connects to Postgres, verifies the connection and applies the schema.
func Open(ctx context.Context, connStr string) (*Postgres, error) {
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := New(sqlDB)
	if err := p.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return p, nil
}
