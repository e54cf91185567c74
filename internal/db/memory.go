package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/amirphl/signal-trader/internal/journal"
	"github.com/amirphl/signal-trader/internal/order"
	"github.com/google/uuid"
)

// MemoryStorage is an append-only in-process journal used when no database is configured.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []journal.Event
	orders []order.Record
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		events: make([]journal.Event, 0, 1024),
	}
}

func (m *MemoryStorage) LogEvent(ctx context.Context, event journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	event.Time = event.Time.UTC()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryStorage) GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]journal.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start = start.UTC()
	end = end.UTC()
	var out []journal.Event
	for _, e := range m.events {
		if e.Type == eventType && !e.Time.Before(start) && e.Time.Before(end) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// Len returns the number of stored events.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MemoryStorage) Close() error { return nil }
