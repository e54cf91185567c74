package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/amirphl/signal-trader/internal/config"
	"github.com/amirphl/signal-trader/internal/db"
	"github.com/amirphl/signal-trader/internal/exchange"
	"github.com/amirphl/signal-trader/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbol: BTCUSDT\ntimeframe: 5m\n"), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"validate", "--config", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "config ok: mode=paper symbol=BTCUSDT timeframe=5m")
	assert.Contains(t, out.String(), "take_profits=0.0200/0.0300/0.0500")
}

func TestValidateCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeframe: 7m\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", "-c", path})
	assert.Error(t, cmd.Execute())
}

func TestWiring(t *testing.T) {
	cfg := config.Default()

	storage, err := openStorage(context.Background(), cfg, notifier.NewLogNotifier())
	require.NoError(t, err)
	assert.IsType(t, &db.MemoryStorage{}, storage)

	assert.IsType(t, &notifier.LogNotifier{}, newNotifier(cfg))
	cfg.Notification.TelegramToken = "token"
	cfg.Notification.TelegramChatID = "1"
	tg, ok := newNotifier(cfg).(*notifier.TelegramNotifier)
	require.True(t, ok)
	assert.Equal(t, "[paper DOGEUSDT]", tg.Prefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.IsType(t, &exchange.PaperExchange{}, newGateway(ctx, cfg))

	cfg.Mode = config.ModeLive
	cfg.Exchange.APIKey = "key"
	assert.IsType(t, &exchange.WallexExchange{}, newGateway(ctx, cfg))
}

type recordingNotifier struct {
	msgs []string
}

func (n *recordingNotifier) Send(msg string) error {
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *recordingNotifier) SendWithRetry(msg string) error { return n.Send(msg) }

func (n *recordingNotifier) RetryWithNotification(action func() error, description string) error {
	if err := action(); err != nil {
		_ = n.Send(description + " failed: " + err.Error())
		return err
	}
	return nil
}

func TestOpenStorage_ReportsConnectionFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Database.ConnStr = "host=127.0.0.1 port=1 user=postgres dbname=postgres sslmode=disable connect_timeout=1"
	n := &recordingNotifier{}

	_, err := openStorage(context.Background(), cfg, n)
	require.Error(t, err)
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "Connecting to database failed")
}
