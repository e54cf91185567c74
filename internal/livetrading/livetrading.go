// Package livetrading drives the position manager on a fixed schedule.
package livetrading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/signal-trader/internal/config"
	"github.com/amirphl/signal-trader/internal/journal"
	"github.com/amirphl/signal-trader/internal/notifier"
	"github.com/amirphl/signal-trader/internal/position"
)

// Evaluator is the part of position.Manager the runner needs.
type Evaluator interface {
	Evaluate(ctx context.Context) error
	ResetDaily()
	Stats() position.Stats
	Symbol() string
}

// HealthRecorder receives the outcome of every tick.
type HealthRecorder interface {
	RecordTick(at time.Time, err error)
}

// Runner calls Evaluate once per interval from a single goroutine. Ticks that
// fire while an evaluation is still running are dropped by the ticker.
type Runner struct {
	Evaluator     Evaluator
	Journal       journal.Journaler
	Notifier      notifier.Notifier
	Health        HealthRecorder
	Interval      time.Duration
	StatsInterval time.Duration
	Now           func() time.Time

	day time.Time
}

// RunLiveTrading runs the evaluation loop until ctx is cancelled.
func RunLiveTrading(
	ctx context.Context,
	cfg config.Config,
	evaluator Evaluator,
	storage journal.Journaler,
	notifier notifier.Notifier,
	health HealthRecorder,
) error {
	r := &Runner{
		Evaluator:     evaluator,
		Journal:       storage,
		Notifier:      notifier,
		Health:        health,
		Interval:      cfg.EvaluationInterval,
		StatsInterval: cfg.StatsInterval,
	}
	return r.Run(ctx)
}

func (r *Runner) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		return fmt.Errorf("evaluation interval must be positive, got %s", r.Interval)
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	r.day = tradingDay(r.Now())

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	var statsC <-chan time.Time
	if r.StatsInterval > 0 {
		statsTicker := time.NewTicker(r.StatsInterval)
		defer statsTicker.Stop()
		statsC = statsTicker.C
	}

	symbol := r.Evaluator.Symbol()
	log.Printf("runLiveTrading | [%s] Starting evaluation loop every %s", symbol, r.Interval)
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("runLiveTrading | [%s] Evaluation loop stopped", symbol)
			r.printStats()
			return nil
		case <-ticker.C:
			r.tick(ctx)
		case <-statsC:
			r.printStats()
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	r.checkDay(ctx)
	r.evaluate(ctx)
}

// evaluate runs one evaluation; a panic is reported and the loop goes on.
func (r *Runner) evaluate(ctx context.Context) {
	symbol := r.Evaluator.Symbol()
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("runLiveTrading | [%s] Recovered from panic in evaluation: %v", symbol, rec)
			if r.Notifier != nil {
				if err := r.Notifier.Send(fmt.Sprintf("PANIC in trading system: %v", rec)); err != nil {
					log.Printf("runLiveTrading | [%s] Error sending notification: %v", symbol, err)
				}
			}
			r.recordTick(fmt.Errorf("panic: %v", rec))
		}
	}()

	err := r.Evaluator.Evaluate(ctx)
	if errors.Is(err, position.ErrEvaluationInProgress) {
		log.Printf("runLiveTrading | [%s] Previous evaluation still running, tick skipped", symbol)
		return
	}
	if err != nil {
		log.Printf("runLiveTrading | [%s] Evaluation error: %v", symbol, err)
	}
	r.recordTick(err)
}

func (r *Runner) recordTick(err error) {
	if r.Health != nil {
		r.Health.RecordTick(r.Now(), err)
	}
}

// checkDay resets the daily risk counters when the UTC day changes.
func (r *Runner) checkDay(ctx context.Context) {
	today := tradingDay(r.Now())
	if !today.After(r.day) {
		return
	}
	previous := r.day
	r.day = today

	stats := r.Evaluator.Stats()
	r.Evaluator.ResetDaily()

	if r.Journal == nil {
		return
	}
	err := r.Journal.LogEvent(ctx, journal.NewEvent(journal.EventNewTradingDay, stats.Symbol, "new_trading_day", map[string]any{
		"day":                today.Format(time.DateOnly),
		"previous_day":       previous.Format(time.DateOnly),
		"previous_daily_pnl": stats.Risk.DailyPnL,
		"previous_trades":    stats.Risk.DailyTrades,
	}))
	if err != nil {
		log.Printf("runLiveTrading | [%s] Error logging event: %v", stats.Symbol, err)
	}
}

func (r *Runner) printStats() {
	s := r.Evaluator.Stats()
	log.Printf("runLiveTrading | [%s] Stats: entries=%d partial_closes=%d full_closes=%d wins=%d losses=%d win_rate=%.2f realized_pnl=%.8f",
		s.Symbol, s.Entries, s.PartialCloses, s.FullCloses, s.Wins, s.Losses, s.WinRate(), s.RealizedPnL)
	log.Printf("runLiveTrading | [%s] Risk: daily_pnl=%.8f daily_trades=%d consecutive_losses=%d last_price=%.8f unrealized_pnl=%.8f",
		s.Symbol, s.Risk.DailyPnL, s.Risk.DailyTrades, s.Risk.ConsecutiveLosses, s.LastPrice, s.UnrealizedPnL)
	for _, p := range s.OpenPositions {
		log.Printf("  %s: entry=%.8f qty=%.8f trailing=%.8f initial=%.8f filled=%d",
			p.ID, p.EntryPrice, p.Quantity, p.TrailingStop, p.InitialStop, p.Filled)
	}
}

func tradingDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
