package position

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/amirphl/signal-trader/internal/candle"
	"github.com/amirphl/signal-trader/internal/config"
	"github.com/amirphl/signal-trader/internal/exchange"
	"github.com/amirphl/signal-trader/internal/indicator"
	"github.com/amirphl/signal-trader/internal/journal"
	"github.com/amirphl/signal-trader/internal/metrics"
	"github.com/amirphl/signal-trader/internal/notifier"
	"github.com/amirphl/signal-trader/internal/order"
	"github.com/amirphl/signal-trader/internal/strategy"
	"github.com/google/uuid"
)

// ErrEvaluationInProgress is returned when Evaluate is called while another
// evaluation is still running.
var ErrEvaluationInProgress = errors.New("evaluation already in progress")

// Params are the sizing and risk parameters of the Manager.
type Params struct {
	TradeAmount          float64
	TrailingStop         float64
	InitialStop          float64
	TakeProfitLevels     [TakeProfitLevels]float64
	MaxDailyLoss         float64
	Cooldown             time.Duration
	MaxPositions         int
	MaxConsecutiveLosses int
	SpreadLimit          float64
	QuoteSizing          bool
}

// ParamsFromConfig extracts the manager parameters from the configuration.
func ParamsFromConfig(cfg config.Config) Params {
	return Params{
		TradeAmount:          cfg.TradeAmount,
		TrailingStop:         cfg.Risk.TrailingStop,
		InitialStop:          cfg.Risk.InitialStop,
		TakeProfitLevels:     cfg.Risk.TakeProfits(),
		MaxDailyLoss:         cfg.Risk.MaxDailyLoss,
		Cooldown:             cfg.Risk.Cooldown,
		MaxPositions:         cfg.Risk.MaxPositions,
		MaxConsecutiveLosses: cfg.Risk.MaxConsecutiveLosses,
		SpreadLimit:          cfg.Filters.SpreadLimit,
		QuoteSizing:          cfg.Risk.QuoteSizing,
	}
}

// SnapshotSource turns a candle window into the indicator snapshot of its
// latest bar. *indicator.Analyzer is the production implementation.
type SnapshotSource interface {
	Analyze(candles []candle.Candle) (indicator.Snapshot, error)
}

type Option func(*Manager)

func WithJournal(j journal.Journaler) Option {
	return func(m *Manager) { m.journal = j }
}

func WithOrderRecorder(r order.Recorder) Option {
	return func(m *Manager) { m.orders = r }
}

func WithNotifier(n notifier.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithClock replaces time.Now for cooldown and timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// Manager opens, manages and closes the long positions of one symbol.
type Manager struct {
	symbol     string
	params     Params
	gateway    exchange.Gateway
	analyzer   SnapshotSource
	aggregator *strategy.Aggregator

	journal  journal.Journaler
	orders   order.Recorder
	notifier notifier.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string

	evalMu sync.Mutex

	mu        sync.RWMutex
	positions []Position
	risk      RiskState
	stats     Stats
	lastPrice float64

	outboxMu sync.Mutex
	outbox   []string
}

func NewManager(symbol string, params Params, gateway exchange.Gateway, analyzer SnapshotSource, aggregator *strategy.Aggregator, opts ...Option) *Manager {
	if params.MaxConsecutiveLosses <= 0 {
		params.MaxConsecutiveLosses = 3
	}
	m := &Manager{
		symbol:     symbol,
		params:     params,
		gateway:    gateway,
		analyzer:   analyzer,
		aggregator: aggregator,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Evaluate runs one tick: fetch candles, analyze, then manage open positions
// or look for an entry.
func (m *Manager) Evaluate(ctx context.Context) error {
	if !m.evalMu.TryLock() {
		m.metrics.Skip(metrics.SkipInProgress)
		return ErrEvaluationInProgress
	}
	defer m.evalMu.Unlock()
	defer m.flushNotifications()

	start := time.Now()
	defer func() { m.metrics.ObserveTick(time.Since(start)) }()

	m.mu.RLock()
	cooling := m.risk.inCooldown(m.now(), m.params.Cooldown)
	m.mu.RUnlock()
	if cooling {
		m.metrics.Skip(metrics.SkipCooldown)
		return nil
	}

	candles, err := m.gateway.FetchCandles(ctx)
	if err != nil {
		return m.evaluationFailed(ctx, "gateway", fmt.Errorf("fetch candles: %w", err))
	}
	snap, err := m.analyzer.Analyze(candles)
	if err != nil {
		return m.evaluationFailed(ctx, "analysis", fmt.Errorf("analyze candles: %w", err))
	}
	strength := m.aggregator.Strength(snap)
	m.metrics.Strength(strength)
	log.Printf("PositionManager | [%s] Price %.8f RSI %.2f trend %.2f band width %.4f strength %.2f",
		m.symbol, snap.CurrentPrice, snap.RSI, snap.TrendStrength, snap.Volatility.Width(), strength)

	m.mu.Lock()
	m.lastPrice = snap.CurrentPrice
	m.mu.Unlock()

	if snap.Spread > m.params.SpreadLimit {
		log.Printf("PositionManager | [%s] Spread %.5f above limit %.5f, skipping", m.symbol, snap.Spread, m.params.SpreadLimit)
		m.metrics.Skip(metrics.SkipSpread)
		return nil
	}

	m.mu.RLock()
	open := len(m.positions)
	m.mu.RUnlock()

	switch {
	case open > 0:
		return m.ManagePositions(ctx, snap)
	case m.CanOpenNewPosition():
		return m.EvaluateEntry(ctx, snap)
	default:
		m.metrics.Skip(metrics.SkipRiskLimits)
		return nil
	}
}

// CanOpenNewPosition applies the daily loss, position count and loss streak limits.
func (m *Manager) CanOpenNewPosition() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.canOpenLocked()
}

func (m *Manager) canOpenLocked() bool {
	return m.risk.DailyPnL > -m.params.MaxDailyLoss &&
		len(m.positions) < m.params.MaxPositions &&
		m.risk.ConsecutiveLosses < m.params.MaxConsecutiveLosses
}

// PositionSize scales balance*TradeAmount by the signal strength and shrinks
// it by 20% per consecutive loss. It never exceeds balance*TradeAmount.
func (m *Manager) PositionSize(balance, strength float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return positionSize(balance, strength, m.params.TradeAmount, m.risk.ConsecutiveLosses)
}

func positionSize(balance, strength, tradeAmount float64, losses int) float64 {
	base := balance * tradeAmount
	adjusted := base * (1 - float64(losses)*lossStreakSizing) * strength
	return min(adjusted, base)
}

// EvaluateEntry buys when the aggregated signal strength clears the threshold
// and the risk limits allow a new position. The balance and the order are
// requested without holding the state lock; Evaluate serializes entries.
func (m *Manager) EvaluateEntry(ctx context.Context, snap indicator.Snapshot) error {
	defer m.flushNotifications()

	strength := m.aggregator.Strength(snap)
	if !m.aggregator.Eligible(strength) {
		return nil
	}
	if !m.CanOpenNewPosition() {
		log.Printf("PositionManager | [%s] Signal strength %.2f but risk limits block new positions", m.symbol, strength)
		m.metrics.Skip(metrics.SkipRiskLimits)
		return nil
	}

	balance, err := m.gateway.FetchFreeBalance(ctx)
	if err != nil {
		return m.evaluationFailed(ctx, "gateway", fmt.Errorf("fetch balance: %w", err))
	}

	quantity := m.PositionSize(balance, strength)
	if m.params.QuoteSizing {
		quantity /= snap.CurrentPrice
	}
	if quantity <= 0 {
		log.Printf("PositionManager | [%s] Position size %.8f for balance %.8f is not tradable, skipping", m.symbol, quantity, balance)
		return nil
	}

	candidate := newPosition(m.newID(), snap.CurrentPrice, quantity, m.params, m.now())
	if err := candidate.Validate(); err != nil {
		return m.evaluationFailed(ctx, "position", err)
	}

	res, err := m.gateway.PlaceBuyOrder(ctx, quantity)
	if err != nil {
		return m.orderFailed(ctx, exchange.SideBuy, quantity, "open position", err)
	}

	now := m.now()
	pos := candidate
	pos.Quantity = filledQuantity(res, quantity)
	pos.OpenedAt = now

	m.mu.Lock()
	m.positions = append(m.positions, pos)
	m.risk.LastTradeTime = now
	m.risk.DailyTrades++
	m.stats.Entries++
	m.publishRiskLocked()
	m.mu.Unlock()

	m.metrics.Order(string(exchange.SideBuy), true)
	m.saveOrder(ctx, pos.ID, exchange.SideBuy, "entry", quantity, pos.Quantity, pos.EntryPrice, res)

	log.Printf("PositionManager | [%s] Opened position %s at %.8f with %.8f units (strength %.2f)", m.symbol, pos.ID, pos.EntryPrice, pos.Quantity, strength)
	m.logEvent(ctx, journal.EventPositionOpened, "position opened", map[string]any{
		"position_id": pos.ID,
		"entry_price": pos.EntryPrice,
		"quantity":    pos.Quantity,
		"strength":    strength,
		"order_id":    res.OrderID,
	})
	m.notify(fmt.Sprintf("[ORDER FILLED]\nSide: %s\nSymbol: %s\nQty: %.4f\nPrice: %.8f\nOrderID: %s\nEvent: Entry\nStrength: %.2f\nTime: %s",
		exchange.SideBuy, m.symbol, pos.Quantity, pos.EntryPrice, res.OrderID, strength, now.Format(time.RFC3339)))
	return nil
}

// ManagePositions ratchets stops and takes exits for every open position at
// the snapshot price. A failed exit leaves that position as it was and the
// remaining positions are still managed.
func (m *Manager) ManagePositions(ctx context.Context, snap indicator.Snapshot) error {
	defer m.flushNotifications()
	m.mu.Lock()
	defer m.mu.Unlock()

	price := snap.CurrentPrice
	var errs []error
	for i := len(m.positions) - 1; i >= 0; i-- {
		p := &m.positions[i]
		p.RatchetTrailingStop(price, m.params.TrailingStop)

		var err error
		switch {
		case p.StopHit(price):
			err = m.closeLocked(ctx, i, price, ExitStop)
		case p.TakeProfitReached(price):
			err = m.takeProfitLocked(ctx, i, price)
		case snap.EMASignal.Bearish && p.Filled > 0:
			err = m.closeLocked(ctx, i, price, ExitReversal)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	m.publishRiskLocked()
	return errors.Join(errs...)
}

// takeProfitLocked sells the next take-profit share of position i.
func (m *Manager) takeProfitLocked(ctx context.Context, i int, price float64) error {
	p := &m.positions[i]
	if p.Filled == TakeProfitLevels-1 {
		return m.closeLocked(ctx, i, price, ExitTakeProfit)
	}

	quantity := p.TakeProfitQuantity()
	res, err := m.gateway.PlaceSellOrder(ctx, quantity)
	if err != nil {
		return m.orderFailed(ctx, exchange.SideSell, quantity, fmt.Sprintf("take profit %d of %s", p.Filled+1, p.ID), err)
	}

	closed := min(filledQuantity(res, quantity), p.Quantity)
	pnl := p.realizedPnL(price, closed)
	p.Quantity -= closed
	p.Filled++
	m.realizeLocked(pnl)
	m.stats.PartialCloses++
	m.metrics.Order(string(exchange.SideSell), true)
	m.saveOrder(ctx, p.ID, exchange.SideSell, string(ExitTakeProfit), quantity, closed, price, res)

	log.Printf("PositionManager | [%s] Take profit %d of %s: sold %.8f at %.8f, PnL %.8f, %.8f left",
		m.symbol, p.Filled, p.ID, closed, price, pnl, p.Quantity)
	m.logEvent(ctx, journal.EventTakeProfit, fmt.Sprintf("take profit %d", p.Filled), map[string]any{
		"position_id": p.ID,
		"level":       p.Filled,
		"price":       price,
		"quantity":    closed,
		"remaining":   p.Quantity,
		"pnl":         pnl,
		"order_id":    res.OrderID,
	})
	m.notify(fmt.Sprintf("[ORDER FILLED]\nSide: %s\nSymbol: %s\nQty: %.4f\nPrice: %.8f\nOrderID: %s\nEvent: Take profit %d\nPnL: %.4f\nTime: %s",
		exchange.SideSell, m.symbol, closed, price, res.OrderID, p.Filled, pnl, m.now().Format(time.RFC3339)))
	return nil
}

// closeLocked sells everything left in position i and removes it.
func (m *Manager) closeLocked(ctx context.Context, i int, price float64, reason ExitReason) error {
	p := m.positions[i]
	res, err := m.gateway.PlaceSellOrder(ctx, p.Quantity)
	if err != nil {
		return m.orderFailed(ctx, exchange.SideSell, p.Quantity, fmt.Sprintf("close %s (%s)", p.ID, reason), err)
	}

	closed := min(filledQuantity(res, p.Quantity), p.Quantity)
	pnl := p.realizedPnL(price, closed)
	m.positions = slices.Delete(m.positions, i, i+1)
	m.risk.LastTradeTime = m.now()
	m.realizeLocked(pnl)
	m.stats.FullCloses++
	m.metrics.Order(string(exchange.SideSell), true)
	m.saveOrder(ctx, p.ID, exchange.SideSell, string(reason), p.Quantity, closed, price, res)

	log.Printf("PositionManager | [%s] Closed position %s (%s): sold %.8f at %.8f, PnL %.8f", m.symbol, p.ID, reason, closed, price, pnl)
	m.logEvent(ctx, journal.EventPositionClosed, string(reason), map[string]any{
		"position_id": p.ID,
		"entry_price": p.EntryPrice,
		"price":       price,
		"quantity":    closed,
		"pnl":         pnl,
		"reason":      string(reason),
		"order_id":    res.OrderID,
	})
	m.notify(fmt.Sprintf("[ORDER FILLED]\nSide: %s\nSymbol: %s\nQty: %.4f\nPrice: %.8f\nOrderID: %s\nEvent: %s\nPnL: %.4f\nTime: %s",
		exchange.SideSell, m.symbol, closed, price, res.OrderID, reason, pnl, m.now().Format(time.RFC3339)))
	return nil
}

func (m *Manager) realizeLocked(pnl float64) {
	m.risk.record(pnl)
	m.stats.RealizedPnL += pnl
	if pnl < 0 {
		m.stats.Losses++
	} else {
		m.stats.Wins++
	}
}

// filledQuantity prefers the exchange-reported executed quantity.
func filledQuantity(res exchange.OrderResult, requested float64) float64 {
	if res.ExecutedQuantity > 0 {
		return res.ExecutedQuantity
	}
	return requested
}

// ResetDaily clears the daily PnL and trade count at the start of a trading day.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.Printf("PositionManager | [%s] New trading day, daily PnL was %.8f over %d trades", m.symbol, m.risk.DailyPnL, m.risk.DailyTrades)
	m.risk.resetDaily()
	m.publishRiskLocked()
}

// Positions returns a copy of the open positions.
func (m *Manager) Positions() []Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.positions)
}

func (m *Manager) RiskState() RiskState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.risk
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.stats
	s.Symbol = m.symbol
	s.OpenPositions = slices.Clone(m.positions)
	s.Risk = m.risk
	s.LastPrice = m.lastPrice
	if m.lastPrice > 0 {
		for _, p := range m.positions {
			s.UnrealizedPnL += p.UnrealizedPnL(m.lastPrice)
		}
	}
	return s
}

func (m *Manager) Symbol() string {
	return m.symbol
}
