package bot

import (
	"sync"
	"time"

	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/protection"
	"github.com/tradepulse/hft-controller/internal/strategy"
)

// State is the bot's mutable runtime state. It is single-writer: only the
// owning bot's loop, and order-completion notifications targeted at this
// bot's identity, mutate it.
type State struct {
	mu sync.RWMutex

	counters *protection.Counters

	lastSignal *strategy.Signal
	lastQuote  market.Tick
	startedAt  time.Time
}

// newState returns a fresh State in RUNNING status.
func newState(now time.Time) *State {
	return &State{
		counters:  protection.NewCounters(now),
		startedAt: now,
	}
}

// Status returns the bot's current lifecycle/trading status.
func (s *State) Status() protection.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters.Status
}

// SetStatus overrides status directly; used by the supervisor for the
// manual RUNNING re-enable after a protection pause.
func (s *State) SetStatus(status protection.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Status = status
}

// Snapshot is a consistent, lock-free-to-the-caller read of everything an
// external subscriber or the supervisor's get_details needs.
type Snapshot struct {
	Status      protection.Status
	LastQuote   market.Tick
	LastSignal  *strategy.Signal
	Performance PerformanceSnapshot
	StartedAt   time.Time
}

// PerformanceSnapshot mirrors telemetry.PerformanceSnapshot so State does
// not depend on the telemetry package.
type PerformanceSnapshot struct {
	TradesToday        int
	ConsecutiveWins    int
	ConsecutiveLosses  int
	DailyPnLRealized   float64
	DailyPnLUnrealized float64
}

// Snapshot returns a value copy of the bot's state for the event router or
// get_details to publish without holding a lock across a channel send.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Status:     s.counters.Status,
		LastQuote:  s.lastQuote,
		LastSignal: s.lastSignal,
		Performance: PerformanceSnapshot{
			TradesToday:        s.counters.TradesToday,
			ConsecutiveWins:    s.counters.ConsecutiveWins,
			ConsecutiveLosses:  s.counters.ConsecutiveLosses,
			DailyPnLRealized:   s.counters.DailyPnLRealized,
			DailyPnLUnrealized: s.counters.DailyPnLUnrealized,
		},
		StartedAt: s.startedAt,
	}
}

// evaluateGates runs the gate sequence under lock and, if allowed,
// leaves the caller to record the order; it does not itself call
// RecordOrder since submission may still fail downstream.
func (s *State) evaluateGates(limits protectionLimits, quote market.Tick, pointSize, confidence float64, now time.Time) gateDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.MaybeResetDaily(now)
	s.lastQuote = quote
	decision := protection.Evaluate(s.counters, limits.toLimits(), protection.QuoteForSpread{
		Bid: quote.Bid, Ask: quote.Ask, PointSize: pointSize,
	}, confidence, now)
	s.counters.Status = decision.NewStatus
	return gateDecision(decision)
}

type gateDecision protection.Decision

// recordSignal stores the last evaluated signal (or nil) for snapshotting.
func (s *State) recordSignal(sig *strategy.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSignal = sig
}

// recordOrder updates rate/cooldown/daily-trade counters after a
// successful submission.
func (s *State) recordOrder(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.RecordOrder(now)
}

// recordOutcome updates the consecutive win/loss streak and realized P&L
// from a trade_completed notification routed to this bot.
func (s *State) recordOutcome(outcome protection.Outcome, realizedPnL float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.RecordOutcome(outcome)
	s.counters.DailyPnLRealized += realizedPnL
}

// setUnrealizedPnL updates the floating P&L used by the daily cap gate.
func (s *State) setUnrealizedPnL(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.DailyPnLUnrealized = v
}

// protectionLimits is Config's view narrowed to what protection.Evaluate
// needs, resolved once per cycle from the immutable Config snapshot.
type protectionLimits Config

func (l protectionLimits) toLimits() protection.Limits {
	return protection.Limits{
		EnableSpreadFilter:    l.EnableSpreadFilter,
		SymbolSpreadLimit:     l.SymbolSpreadLimit,
		MaxDailyTrades:        l.MaxDailyTrades,
		MaxOrdersPerMinute:    l.MaxOrdersPerMinute,
		CooldownAfterTrade:    Config(l).Cooldown(),
		MaxLossThreshold:      l.MaxLossThreshold,
		MaxProfitThreshold:    l.MaxProfitThreshold,
		MaxConsecutiveLosses:  l.MaxConsecutiveLosses,
		MaxConsecutiveProfits: l.MaxConsecutiveProfits,
		MinSignalConfidence:   l.MinSignalConfidence,
	}
}
