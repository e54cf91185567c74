package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/signal-trader/internal/config"
	"github.com/amirphl/signal-trader/internal/db"
	"github.com/amirphl/signal-trader/internal/exchange"
	"github.com/amirphl/signal-trader/internal/indicator"
	"github.com/amirphl/signal-trader/internal/livetrading"
	"github.com/amirphl/signal-trader/internal/metrics"
	"github.com/amirphl/signal-trader/internal/notifier"
	"github.com/amirphl/signal-trader/internal/position"
	"github.com/amirphl/signal-trader/internal/strategy"
	"github.com/amirphl/signal-trader/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "signal-trader",
		Short:        "Single-symbol signal fusion trading bot",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file (defaults and environment only when empty)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	return rootCmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the trading loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			required := indicator.NewAnalyzer(cfg.IndicatorParams()).RequiredCandles()
			tp := cfg.Risk.TakeProfits()
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: mode=%s symbol=%s timeframe=%s candles=%d (indicators need %d)\n",
				cfg.Mode, cfg.Symbol, cfg.Timeframe, cfg.CandleCount, required)
			fmt.Fprintf(cmd.OutOrStdout(), "risk: trailing=%.4f initial=%.4f take_profits=%.4f/%.4f/%.4f max_positions=%d\n",
				cfg.Risk.TrailingStop, cfg.Risk.InitialStop, tp[0], tp[1], tp[2], cfg.Risk.MaxPositions)
			return nil
		},
	}
}

func run(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := utils.SetupLogger(cfg.LogFile); err != nil {
		return err
	}
	defer utils.CloseLogger()

	log.Printf("Starting Signal Trader in mode: %s (%s %s)", cfg.Mode, cfg.Symbol, cfg.Timeframe)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	n := newNotifier(cfg)

	storage, err := openStorage(ctx, cfg, n)
	if err != nil {
		return err
	}
	defer storage.Close()

	gateway := newGateway(ctx, cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(cfg.Symbol, max(10*cfg.EvaluationInterval, time.Minute))
	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Addr, reg, health)
		srv.Start()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Metrics server shutdown: %v", err)
			}
		}()
	}

	manager := position.NewManager(
		cfg.Symbol,
		position.ParamsFromConfig(cfg),
		gateway,
		indicator.NewAnalyzer(cfg.IndicatorParams()),
		strategy.NewAggregator(cfg.EntryThreshold, cfg.Filters.TrendStrength),
		position.WithJournal(storage),
		position.WithOrderRecorder(storage),
		position.WithNotifier(n),
		position.WithMetrics(m),
	)

	if err := n.Send(fmt.Sprintf("Signal Trader started: %s %s in %s mode", cfg.Symbol, cfg.Timeframe, cfg.Mode)); err != nil {
		log.Printf("Error sending notification: %v", err)
	}

	err = livetrading.RunLiveTrading(ctx, cfg, manager, storage, n, health)
	log.Println("Shutdown complete")
	return err
}

// openStorage connects to Postgres, retrying with the notifier's policy and
// reporting the final failure through it. Without a connection string the
// journal is kept in memory.
func openStorage(ctx context.Context, cfg config.Config, n notifier.Notifier) (db.Storage, error) {
	if cfg.Database.ConnStr == "" {
		log.Println("No database configured, journaling in memory")
		return db.NewMemory(), nil
	}
	var pg *db.Postgres
	err := n.RetryWithNotification(func() error {
		var err error
		pg, err = db.Open(ctx, cfg.Database.ConnStr)
		return err
	}, "Connecting to database")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Println("Connected to Postgres")
	return pg, nil
}

func newNotifier(cfg config.Config) notifier.Notifier {
	if cfg.Notification.TelegramToken == "" {
		return notifier.NewLogNotifier()
	}
	t := notifier.NewTelegramNotifier(cfg.Notification.TelegramToken, cfg.Notification.TelegramChatID).
		WithRetryPolicy(notifier.RetryPolicy{Attempts: cfg.Notification.Retries, Delay: cfg.Notification.Delay})
	t.Prefix = fmt.Sprintf("[%s %s]", cfg.Mode, cfg.Symbol)
	return t
}

// newGateway returns the Wallex gateway in live mode, or a paper exchange fed
// by Wallex market data in paper mode.
func newGateway(ctx context.Context, cfg config.Config) exchange.Gateway {
	wallex := exchange.NewWallexExchange(exchange.WallexOptions{
		APIKey:            cfg.Exchange.APIKey,
		Symbol:            cfg.Symbol,
		Timeframe:         cfg.Timeframe,
		QuoteAsset:        cfg.Exchange.QuoteAsset,
		CandleCount:       cfg.CandleCount,
		QuantityPrecision: cfg.Exchange.QuantityPrecision,
		RetryAttempts:     cfg.Exchange.RetryAttempts,
		RetryDelay:        cfg.Exchange.RetryDelay,
	})
	if cfg.Mode == config.ModeLive {
		return wallex
	}

	var prices exchange.PriceSource
	if cfg.Exchange.TradeFeed {
		feed := exchange.NewTradeFeed("", cfg.Symbol)
		feed.Start(ctx)
		prices = feed
	}
	return exchange.NewPaperExchange(wallex, prices, exchange.PaperOptions{
		Symbol:            cfg.Symbol,
		InitialBalance:    cfg.Paper.InitialBalance,
		FeeRate:           cfg.Paper.FeeRate,
		QuantityPrecision: cfg.Exchange.QuantityPrecision,
		PriceMaxAge:       cfg.Paper.PriceMaxAge,
	})
}
