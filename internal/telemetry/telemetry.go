// Package telemetry implements the event/telemetry router: per-bot,
// order-preserving, lossy event fan-out to subscribers, plus Prometheus
// counters/gauges for the same events. Subscribers drain a channel fed by
// the producer side, never pull.
package telemetry

import (
	"sync"
	"time"

	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/protection"
	"github.com/tradepulse/hft-controller/internal/strategy"
)

// EventType discriminates the payloads published on the router.
type EventType string

const (
	EventCycleUpdate    EventType = "cycle_update"
	EventTradeExecuted  EventType = "trade_executed"
	EventTradeCompleted EventType = "trade_completed"
	EventTradeError     EventType = "trade_error"
	EventBotStarted     EventType = "bot_started"
	EventBotStopped     EventType = "bot_stopped"
)

// PerformanceSnapshot is the per-bot counters surfaced to subscribers
// each cycle.
type PerformanceSnapshot struct {
	TradesToday        int
	ConsecutiveWins    int
	ConsecutiveLosses  int
	DailyPnLRealized   float64
	DailyPnLUnrealized float64
}

// TradeInfo describes a submitted or completed order.
type TradeInfo struct {
	Ticket     uint64
	Direction  market.Direction
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Profit     float64
}

// Event is one item on the router. Only the fields relevant to Type are
// populated.
type Event struct {
	Type        EventType
	BotID       int64
	Timestamp   time.Time
	Status      protection.Status
	LastQuote   *market.Tick
	LastSignal  *strategy.Signal
	Performance *PerformanceSnapshot
	// NextAnalysisInSecs is only set on EventCycleUpdate.
	NextAnalysisInSecs int
	Trade              *TradeInfo
	ErrKind            string
	ErrMsg             string
}

// subscriber is one external listener's per-bot-ordered, lossy mailbox.
type subscriber struct {
	ch chan Event
}

// Router fans events out to every subscriber. A single producer goroutine
// per bot publishing through Publish keeps that bot's events in loop
// order on every subscriber's channel; cross-bot ordering is
// unspecified.
type Router struct {
	mu          sync.RWMutex
	metrics     *Metrics
	subscribers []*subscriber
}

// NewRouter builds a Router that feeds every published event to metrics
// (built by NewMetrics); a nil metrics disables Prometheus observation.
func NewRouter(metrics *Metrics) *Router {
	return &Router{metrics: metrics}
}

// Subscribe registers a new listener and returns a channel of events. The
// channel is buffered and lossy: a slow subscriber drops the oldest
// unread event rather than blocking a bot's loop.
func (r *Router) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 256
	}
	sub := &subscriber{ch: make(chan Event, buffer)}
	r.mu.Lock()
	r.subscribers = append(r.subscribers, sub)
	r.mu.Unlock()
	return sub.ch
}

// Publish fans ev out to every subscriber, dropping the oldest buffered
// event for any subscriber whose channel is full rather than blocking the
// publishing bot's loop.
func (r *Router) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.subscribers {
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
	if r.metrics != nil {
		r.metrics.observe(ev)
	}
}
