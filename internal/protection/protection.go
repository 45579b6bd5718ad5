// Package protection implements the per-bot protection state machine:
// eight ordered gates evaluated before order submission, daily UTC
// counter resets, and consecutive win/loss streak tracking.
package protection

import "time"

// Status is the bot's lifecycle/trading state.
type Status int

const (
	Running Status = iota
	PausedProtection
	Stopped
)

func (s Status) String() string {
	switch s {
	case PausedProtection:
		return "PAUSED_PROTECTION"
	case Stopped:
		return "STOPPED"
	default:
		return "RUNNING"
	}
}

// Outcome is the realized direction of a completed trade, used to decide
// whether a streak continues or resets.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
)

// Limits is the subset of BotConfig the gates evaluate against.
type Limits struct {
	EnableSpreadFilter    bool
	SymbolSpreadLimit     float64
	MaxDailyTrades        int
	MaxOrdersPerMinute    int
	CooldownAfterTrade    time.Duration
	MaxLossThreshold      float64
	MaxProfitThreshold    float64
	MaxConsecutiveLosses  int
	MaxConsecutiveProfits int
	MinSignalConfidence   float64
}

// Counters is the mutable per-bot protection state. It is mutated only
// through the owning bot's State: by its loop and by the completion,
// P&L-refresh and re-enable calls routed to that bot.
type Counters struct {
	Status              Status
	LastOrderAt         time.Time
	OrdersInLastMinute  []time.Time
	ConsecutiveLosses   int
	ConsecutiveWins     int
	DailyPnLRealized    float64
	DailyPnLUnrealized  float64
	TradesToday         int
	lastResetDay        int
	lastResetYear       int
}

// NewCounters returns a fresh Counters in RUNNING state with today's UTC
// day boundary already recorded.
func NewCounters(now time.Time) *Counters {
	u := now.UTC()
	return &Counters{Status: Running, lastResetDay: u.YearDay(), lastResetYear: u.Year()}
}

// MaybeResetDaily zeroes the daily counters at the UTC day boundary. It
// never touches Status: PAUSED_PROTECTION does not auto-clear on
// rollover.
func (c *Counters) MaybeResetDaily(now time.Time) {
	u := now.UTC()
	if u.YearDay() == c.lastResetDay && u.Year() == c.lastResetYear {
		return
	}
	c.lastResetDay = u.YearDay()
	c.lastResetYear = u.Year()
	c.TradesToday = 0
	c.DailyPnLRealized = 0
	c.DailyPnLUnrealized = 0
	c.OrdersInLastMinute = nil
}

// RecordOutcome updates the consecutive streak counters, resetting the
// opposite streak whenever the outcome flips direction.
func (c *Counters) RecordOutcome(o Outcome) {
	switch o {
	case OutcomeWin:
		c.ConsecutiveWins++
		c.ConsecutiveLosses = 0
	case OutcomeLoss:
		c.ConsecutiveLosses++
		c.ConsecutiveWins = 0
	}
}

// RecordOrder records a successful submission for rate/cooldown tracking.
func (c *Counters) RecordOrder(now time.Time) {
	c.LastOrderAt = now
	c.TradesToday++
	c.OrdersInLastMinute = append(c.OrdersInLastMinute, now)
	c.pruneOrderWindow(now)
}

func (c *Counters) pruneOrderWindow(now time.Time) {
	cutoff := now.Add(-60 * time.Second)
	kept := c.OrdersInLastMinute[:0]
	for _, t := range c.OrdersInLastMinute {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.OrdersInLastMinute = kept
}
