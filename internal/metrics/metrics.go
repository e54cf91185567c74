// Package metrics exposes the trading engine's Prometheus metrics and a
// health endpoint. All recording methods are safe on a nil *Metrics, which
// disables collection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons for SkippedTicks.
const (
	SkipCooldown   = "cooldown"
	SkipSpread     = "spread"
	SkipRiskLimits = "risk_limits"
	SkipInProgress = "in_progress"
)

// Metrics holds all Prometheus metrics for the trading engine.
type Metrics struct {
	TicksTotal         prometheus.Counter
	SkippedTicks       *prometheus.CounterVec // labels: reason
	EvaluationErrors   *prometheus.CounterVec // labels: kind
	EvaluationDuration prometheus.Histogram
	Orders             *prometheus.CounterVec // labels: side, result
	RealizedPnL        prometheus.Gauge
	DailyPnL           prometheus.Gauge
	ConsecutiveLosses  prometheus.Gauge
	OpenPositions      prometheus.Gauge
	SignalStrength     prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_ticks_total",
			Help: "Total evaluation ticks",
		}),
		SkippedTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_skipped_ticks_total",
			Help: "Ticks that ended without trading decision work (by reason)",
		}, []string{"reason"}),
		EvaluationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_evaluation_errors_total",
			Help: "Failed evaluations (by kind)",
		}, []string{"kind"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_evaluation_duration_seconds",
			Help:    "Latency of one evaluation tick",
			Buckets: prometheus.DefBuckets,
		}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_total",
			Help: "Market orders sent (by side and result)",
		}, []string{"side", "result"}),
		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_realized_pnl",
			Help: "Realized PnL since start in quote currency",
		}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_daily_pnl",
			Help: "Realized PnL of the current trading day",
		}),
		ConsecutiveLosses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_consecutive_losses",
			Help: "Current losing streak",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_open_positions",
			Help: "Currently open positions",
		}),
		SignalStrength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_signal_strength",
			Help: "Last computed entry signal strength in [0, 1]",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.SkippedTicks,
		m.EvaluationErrors,
		m.EvaluationDuration,
		m.Orders,
		m.RealizedPnL,
		m.DailyPnL,
		m.ConsecutiveLosses,
		m.OpenPositions,
		m.SignalStrength,
	)
	return m
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.EvaluationDuration.Observe(d.Seconds())
}

func (m *Metrics) Skip(reason string) {
	if m == nil {
		return
	}
	m.SkippedTicks.WithLabelValues(reason).Inc()
}

func (m *Metrics) EvaluationFailed(kind string) {
	if m == nil {
		return
	}
	m.EvaluationErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Order(side string, ok bool) {
	if m == nil {
		return
	}
	result := "filled"
	if !ok {
		result = "failed"
	}
	m.Orders.WithLabelValues(side, result).Inc()
}

// Risk publishes the manager's risk state after a change.
func (m *Metrics) Risk(realized, dailyPnL float64, losses, openPositions int) {
	if m == nil {
		return
	}
	m.RealizedPnL.Set(realized)
	m.DailyPnL.Set(dailyPnL)
	m.ConsecutiveLosses.Set(float64(losses))
	m.OpenPositions.Set(float64(openPositions))
}

func (m *Metrics) Strength(s float64) {
	if m == nil {
		return
	}
	m.SignalStrength.Set(s)
}
