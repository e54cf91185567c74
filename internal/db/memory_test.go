package db

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/signal-trader/internal/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_Events(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	for i, typ := range []string{journal.EventTakeProfit, journal.EventPositionOpened, journal.EventTakeProfit} {
		require.NoError(t, m.LogEvent(ctx, journal.Event{
			Time: base.Add(time.Duration(2-i) * time.Minute),
			Type: typ,
		}))
	}
	require.NoError(t, m.LogEvent(ctx, journal.NewEvent(journal.EventPositionClosed, "DOGEUSDT", "stop", nil)))
	assert.Equal(t, 4, m.Len())

	events, err := m.GetEvents(ctx, journal.EventTakeProfit, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Time.Before(events[1].Time), "oldest first")
	assert.NotEmpty(t, events[0].ID, "missing IDs are assigned")

	// end is exclusive
	events, err = m.GetEvents(ctx, journal.EventTakeProfit, base, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, events, 1)

	assert.NoError(t, m.Close())
}

func TestStripComments(t *testing.T) {
	stmt := "-- header\nCREATE TABLE x (id INT)\n  -- trailing"
	assert.Equal(t, "CREATE TABLE x (id INT)\n", stripComments(stmt))
	assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS events")
}
