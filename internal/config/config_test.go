package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "DOGEUSDT", cfg.Symbol)
	assert.Equal(t, "15m", cfg.Timeframe)
	assert.Equal(t, 0.05, cfg.TradeAmount)
	assert.Equal(t, 0.70, cfg.EntryThreshold)
	assert.Equal(t, 5*time.Second, cfg.EvaluationInterval)
	assert.Equal(t, []int{20, 30, 50}, cfg.Indicators.MAPeriods)
	assert.Equal(t, [3]float64{0.02, 0.03, 0.05}, cfg.Risk.TakeProfits())
	assert.Equal(t, 0.10, cfg.Risk.MaxDailyLoss)
	assert.Equal(t, 5*time.Second, cfg.Risk.Cooldown)
	assert.Equal(t, 3, cfg.Risk.MaxPositions)
	assert.Equal(t, 0.6, cfg.Filters.TrendStrength)
	assert.Equal(t, 1000.0, cfg.Filters.MinimumVolume)
	assert.Equal(t, 0.002, cfg.Filters.SpreadLimit)
	assert.False(t, cfg.Risk.QuoteSizing)

	params := cfg.IndicatorParams()
	assert.Equal(t, 14, params.RSIPeriod)
	assert.Equal(t, 1000.0, params.MinimumVolume)
	assert.True(t, params.VolumeWeighted)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
symbol: BTCUSDT
timeframe: 5m
evaluation_interval: 10s
indicators:
  ma_periods: [10, 20]
risk:
  take_profit_levels: [0.01, 0.02, 0.04]
  cooldown: 1m
  quote_sizing: true
metrics:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, "5m", cfg.Timeframe)
	assert.Equal(t, 10*time.Second, cfg.EvaluationInterval)
	assert.Equal(t, []int{10, 20}, cfg.Indicators.MAPeriods)
	assert.Equal(t, [3]float64{0.01, 0.02, 0.04}, cfg.Risk.TakeProfits())
	assert.Equal(t, time.Minute, cfg.Risk.Cooldown)
	assert.True(t, cfg.Risk.QuoteSizing)
	assert.True(t, cfg.Metrics.Enabled)
	// untouched keys keep their defaults
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("WALLEX_API_KEY", "key-from-env")
	t.Setenv("DB_CONN_STR", "postgres://localhost/trader")
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("TELEGRAM_CHAT_ID", "1234")

	cfg, err := Load(writeConfig(t, "mode: live\n"))
	require.NoError(t, err)
	assert.Equal(t, ModeLive, cfg.Mode)
	assert.Equal(t, "key-from-env", cfg.Exchange.APIKey)
	assert.Equal(t, "postgres://localhost/trader", cfg.Database.ConnStr)
	assert.Equal(t, "tg-token", cfg.Notification.TelegramToken)
	assert.Equal(t, "1234", cfg.Notification.TelegramChatID)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "symbl: DOGEUSDT\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeConfig(t, ""))
	assert.NoError(t, err, "empty file keeps defaults")

	_, err = Load(writeConfig(t, "filters:\n  trend_strength: 0\n"))
	assert.Error(t, err, "zero trend filter is rejected")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Unknown mode", func(c *Config) { c.Mode = "backtest" }},
		{"Unsupported timeframe", func(c *Config) { c.Timeframe = "7m" }},
		{"Live without API key", func(c *Config) { c.Mode = ModeLive }},
		{"Trade amount above one", func(c *Config) { c.TradeAmount = 1.5 }},
		{"Trailing stop of 100%", func(c *Config) { c.Risk.TrailingStop = 1 }},
		{"Zero initial stop", func(c *Config) { c.Risk.InitialStop = 0 }},
		{"Take profits not increasing", func(c *Config) { c.Risk.TakeProfitLevels = []float64{0.02, 0.02, 0.05} }},
		{"Two take profits", func(c *Config) { c.Risk.TakeProfitLevels = []float64{0.02, 0.03} }},
		{"Negative take profit", func(c *Config) { c.Risk.TakeProfitLevels = []float64{-0.01, 0.03, 0.05} }},
		{"Fast EMA not below slow", func(c *Config) { c.Indicators.FastEMAPeriod = 13 }},
		{"Oversold above overbought", func(c *Config) { c.Indicators.RSIOversold = 80 }},
		{"Candle count below requirement", func(c *Config) { c.CandleCount = 30 }},
		{"Zero MA period", func(c *Config) { c.Indicators.MAPeriods = []int{20, 0} }},
		{"Chat ID missing for token", func(c *Config) { c.Notification.TelegramToken = "t" }},
		{"Metrics enabled without address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
		{"Zero interval", func(c *Config) { c.EvaluationInterval = 0 }},
		{"Zero trend strength filter", func(c *Config) { c.Filters.TrendStrength = 0 }},
		{"Trend strength filter above one", func(c *Config) { c.Filters.TrendStrength = 1.2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
