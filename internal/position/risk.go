package position

import "time"

// lossStreakSizing is the size reduction per consecutive loss.
const lossStreakSizing = 0.2

// RiskState gates entries. It is owned by the Manager.
type RiskState struct {
	DailyPnL          float64
	ConsecutiveLosses int
	LastTradeTime     time.Time
	DailyTrades       int
}

// record applies one realized PnL event.
func (r *RiskState) record(pnl float64) {
	r.DailyPnL += pnl
	if pnl < 0 {
		r.ConsecutiveLosses++
	} else {
		r.ConsecutiveLosses = 0
	}
}

// resetDaily starts a new trading day. The loss streak carries over.
func (r *RiskState) resetDaily() {
	r.DailyPnL = 0
	r.DailyTrades = 0
}

// inCooldown reports whether less than cooldown elapsed since the last trade.
func (r RiskState) inCooldown(now time.Time, cooldown time.Duration) bool {
	return !r.LastTradeTime.IsZero() && now.Sub(r.LastTradeTime) < cooldown
}

// Stats summarizes the manager for reports.
type Stats struct {
	Symbol        string
	OpenPositions []Position
	Risk          RiskState
	Entries       int
	PartialCloses int
	FullCloses    int
	Wins          int
	Losses        int
	RealizedPnL   float64
	// LastPrice is the price of the latest analyzed snapshot; UnrealizedPnL
	// marks the open positions to it.
	LastPrice     float64
	UnrealizedPnL float64
}

// WinRate is wins over realized PnL events, zero before the first one.
func (s Stats) WinRate() float64 {
	total := s.Wins + s.Losses
	if total == 0 {
		return 0
	}
	return float64(s.Wins) / float64(total)
}
