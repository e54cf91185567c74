// Package config
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amirphl/signal-trader/internal/indicator"
	"github.com/amirphl/signal-trader/internal/tfutils"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

/*
YAML config example:
mode: paper
symbol: DOGEUSDT
timeframe: 15m
trade_amount: 0.05
evaluation_interval: 5s
indicators:
  rsi_period: 14
  ma_periods: [20, 30, 50]
risk:
  trailing_stop: 0.01
  initial_stop: 0.015
  take_profit_levels: [0.02, 0.03, 0.05]
  cooldown: 5s
exchange:
  quote_asset: USDT
database:
  conn_str: "postgres://..."
metrics:
  enabled: true
  addr: ":9090"
*/

const (
	ModeLive  = "live"
	ModePaper = "paper"
)

type Config struct {
	Mode               string        `yaml:"mode" validate:"oneof=live paper"`
	Symbol             string        `yaml:"symbol" validate:"required"`
	Timeframe          string        `yaml:"timeframe" validate:"required"`
	TradeAmount        float64       `yaml:"trade_amount" validate:"gt=0,lte=1"`
	EntryThreshold     float64       `yaml:"entry_threshold" validate:"gt=0,lte=1"`
	EvaluationInterval time.Duration `yaml:"evaluation_interval" validate:"gt=0"`
	CandleCount        int           `yaml:"candle_count" validate:"gt=0"`
	StatsInterval      time.Duration `yaml:"stats_interval" validate:"gte=0"`
	LogFile            string        `yaml:"log_file"`

	Indicators   IndicatorsConfig   `yaml:"indicators"`
	Risk         RiskConfig         `yaml:"risk"`
	Filters      FiltersConfig      `yaml:"filters"`
	Exchange     ExchangeConfig     `yaml:"exchange"`
	Paper        PaperConfig        `yaml:"paper"`
	Notification NotificationConfig `yaml:"notification"`
	Database     DatabaseConfig     `yaml:"database"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type IndicatorsConfig struct {
	RSIPeriod        int     `yaml:"rsi_period" validate:"gt=0"`
	RSIOverbought    float64 `yaml:"rsi_overbought" validate:"gt=0,lt=100"`
	RSIOversold      float64 `yaml:"rsi_oversold" validate:"gt=0,lt=100"`
	FastEMAPeriod    int     `yaml:"fast_ema_period" validate:"gt=0"`
	SlowEMAPeriod    int     `yaml:"slow_ema_period" validate:"gt=0"`
	MAPeriods        []int   `yaml:"ma_periods" validate:"dive,gt=0"`
	VolumeWeighted   bool    `yaml:"volume_weighted"`
	VolumeThreshold  float64 `yaml:"volume_threshold" validate:"gt=0"`
	VolumeLookback   int     `yaml:"volume_lookback" validate:"gt=0"`
	VolatilityPeriod int     `yaml:"volatility_period" validate:"gt=0"`
	VolatilityStdDev float64 `yaml:"volatility_std_dev" validate:"gt=0"`
	TrendPeriod      int     `yaml:"trend_period" validate:"gt=1"`
}

type RiskConfig struct {
	TrailingStop         float64       `yaml:"trailing_stop" validate:"gt=0,lt=1"`
	InitialStop          float64       `yaml:"initial_stop" validate:"gt=0,lt=1"`
	TakeProfitLevels     []float64     `yaml:"take_profit_levels" validate:"len=3,dive,gt=0"`
	MaxDailyLoss         float64       `yaml:"max_daily_loss" validate:"gt=0"`
	Cooldown             time.Duration `yaml:"cooldown" validate:"gte=0"`
	MaxPositions         int           `yaml:"max_positions" validate:"gt=0"`
	MaxConsecutiveLosses int           `yaml:"max_consecutive_losses" validate:"gt=0"`
	// QuoteSizing treats the computed size as a quote-currency amount and
	// converts it to base units at the current price.
	QuoteSizing bool `yaml:"quote_sizing"`
}

type FiltersConfig struct {
	TrendStrength float64 `yaml:"trend_strength" validate:"gt=0,lte=1"`
	MinimumVolume float64 `yaml:"minimum_volume" validate:"gte=0"`
	SpreadLimit   float64 `yaml:"spread_limit" validate:"gt=0"`
}

type ExchangeConfig struct {
	APIKey            string        `yaml:"api_key"`
	QuoteAsset        string        `yaml:"quote_asset"`
	QuantityPrecision int32         `yaml:"quantity_precision" validate:"gte=0,lte=8"`
	RetryAttempts     int           `yaml:"retry_attempts" validate:"gt=0"`
	RetryDelay        time.Duration `yaml:"retry_delay" validate:"gte=0"`
	// TradeFeed streams live trades over websocket for paper fills.
	TradeFeed bool `yaml:"trade_feed"`
}

type PaperConfig struct {
	InitialBalance float64       `yaml:"initial_balance" validate:"gt=0"`
	FeeRate        float64       `yaml:"fee_rate" validate:"gte=0,lt=1"`
	PriceMaxAge    time.Duration `yaml:"price_max_age" validate:"gte=0"`
}

type NotificationConfig struct {
	TelegramToken  string        `yaml:"telegram_token"`
	TelegramChatID string        `yaml:"telegram_chat_id" validate:"required_with=TelegramToken"`
	Retries        int           `yaml:"retries" validate:"gt=0"`
	Delay          time.Duration `yaml:"delay" validate:"gte=0"`
}

type DatabaseConfig struct {
	ConnStr string `yaml:"conn_str"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

// Default returns the stock configuration of the bot.
func Default() Config {
	return Config{
		Mode:               ModePaper,
		Symbol:             "DOGEUSDT",
		Timeframe:          "15m",
		TradeAmount:        0.05,
		EntryThreshold:     0.70,
		EvaluationInterval: 5 * time.Second,
		CandleCount:        100,
		StatsInterval:      time.Hour,
		Indicators: IndicatorsConfig{
			RSIPeriod:        14,
			RSIOverbought:    70,
			RSIOversold:      30,
			FastEMAPeriod:    5,
			SlowEMAPeriod:    13,
			MAPeriods:        []int{20, 30, 50},
			VolumeWeighted:   true,
			VolumeThreshold:  1.5,
			VolumeLookback:   24,
			VolatilityPeriod: 14,
			VolatilityStdDev: 2.0,
			TrendPeriod:      indicator.DefaultTrendPeriod,
		},
		Risk: RiskConfig{
			TrailingStop:         0.01,
			InitialStop:          0.015,
			TakeProfitLevels:     []float64{0.02, 0.03, 0.05},
			MaxDailyLoss:         0.10,
			Cooldown:             5 * time.Second,
			MaxPositions:         3,
			MaxConsecutiveLosses: 3,
		},
		Filters: FiltersConfig{
			TrendStrength: 0.6,
			MinimumVolume: 1000,
			SpreadLimit:   0.002,
		},
		Exchange: ExchangeConfig{
			QuoteAsset:        "USDT",
			QuantityPrecision: 2,
			RetryAttempts:     3,
			RetryDelay:        2 * time.Second,
		},
		Paper: PaperConfig{
			InitialBalance: 1000,
			FeeRate:        0.001,
			PriceMaxAge:    30 * time.Second,
		},
		Notification: NotificationConfig{
			Retries: 3,
			Delay:   2 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if any), then environment variables, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg; unknown keys are rejected.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WALLEX_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("DB_CONN_STR"); v != "" {
		cfg.Database.ConnStr = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Notification.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notification.TelegramChatID = v
	}
}

// Validate checks field ranges and the relations between fields.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	if !tfutils.IsValidTimeframe(c.Timeframe) {
		errs = append(errs, fmt.Errorf("unsupported timeframe %q (supported: %v)", c.Timeframe, tfutils.GetSupportedTimeframes()))
	}
	if c.Mode == ModeLive && c.Exchange.APIKey == "" {
		errs = append(errs, errors.New("live mode requires exchange.api_key or WALLEX_API_KEY"))
	}

	ind := c.Indicators
	if ind.FastEMAPeriod >= ind.SlowEMAPeriod {
		errs = append(errs, fmt.Errorf("fast EMA period %d must be below slow EMA period %d", ind.FastEMAPeriod, ind.SlowEMAPeriod))
	}
	if ind.RSIOversold >= ind.RSIOverbought {
		errs = append(errs, fmt.Errorf("RSI oversold %.2f must be below overbought %.2f", ind.RSIOversold, ind.RSIOverbought))
	}

	tp := c.Risk.TakeProfitLevels
	for i := 1; i < len(tp); i++ {
		if tp[i] <= tp[i-1] {
			errs = append(errs, fmt.Errorf("take profit levels must be strictly increasing: %v", tp))
			break
		}
	}

	required := indicator.NewAnalyzer(c.IndicatorParams()).RequiredCandles()
	if c.CandleCount < required {
		errs = append(errs, fmt.Errorf("candle_count %d is below the %d candles the indicators need", c.CandleCount, required))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// IndicatorParams maps the configuration onto the analyzer parameters.
func (c Config) IndicatorParams() indicator.Params {
	ind := c.Indicators
	return indicator.Params{
		RSIPeriod:        ind.RSIPeriod,
		RSIOverbought:    ind.RSIOverbought,
		RSIOversold:      ind.RSIOversold,
		FastEMAPeriod:    ind.FastEMAPeriod,
		SlowEMAPeriod:    ind.SlowEMAPeriod,
		MAPeriods:        ind.MAPeriods,
		VolumeWeighted:   ind.VolumeWeighted,
		VolatilityPeriod: ind.VolatilityPeriod,
		VolatilityStdDev: ind.VolatilityStdDev,
		VolumeThreshold:  ind.VolumeThreshold,
		VolumeLookback:   ind.VolumeLookback,
		MinimumVolume:    c.Filters.MinimumVolume,
		TrendPeriod:      ind.TrendPeriod,
	}
}

// TakeProfits returns the three take-profit levels as an array.
func (r RiskConfig) TakeProfits() [3]float64 {
	var out [3]float64
	copy(out[:], r.TakeProfitLevels)
	return out
}
