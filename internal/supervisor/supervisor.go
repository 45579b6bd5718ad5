// Package supervisor implements the bot supervisor: the registry that
// creates, identifies, schedules, and terminates bots, routes lifecycle
// and order-completion events, and aggregates per-bot state for external
// subscribers. The bot map is sync.RWMutex-guarded; reads are
// snapshot-based.
package supervisor

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/tradepulse/hft-controller/internal/bot"
	"github.com/tradepulse/hft-controller/internal/errs"
	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/order"
	"github.com/tradepulse/hft-controller/internal/protection"
	"github.com/tradepulse/hft-controller/internal/strategy"
	"github.com/tradepulse/hft-controller/internal/telemetry"
)

// Details is the external view of one bot, returned by GetDetails and
// ListActive.
type Details struct {
	ID     int64
	Config bot.Config
	State  bot.Snapshot
}

// Supervisor owns the bot_id -> Bot map and is the sole creator and
// destroyer of Bot objects; no other component may hold a reference that
// outlives Stop.
type Supervisor struct {
	rootCtx     context.Context
	port        market.Port
	reg         *strategy.Registry
	router      *telemetry.Router
	spreadLimit func(symbol string) float64
	logger      *log.Logger

	nextID int64

	mu   sync.RWMutex
	bots map[int64]*runningBot
}

type runningBot struct {
	b    *bot.Bot
	stop context.CancelFunc
}

// New builds a Supervisor bound to rootCtx: every bot's loop is a child of
// this context, so cancelling it stops every bot at once (e.g. on process
// shutdown). spreadLimit resolves the default spread limit in points for a
// symbol when a bot's own config does not supply one; nil means no
// defaults are known.
func New(rootCtx context.Context, port market.Port, reg *strategy.Registry, router *telemetry.Router, spreadLimit func(symbol string) float64, logger *log.Logger) *Supervisor {
	return &Supervisor{
		rootCtx:     rootCtx,
		port:        port,
		reg:         reg,
		router:      router,
		spreadLimit: spreadLimit,
		logger:      logger,
		bots:        make(map[int64]*runningBot),
	}
}

// Start creates and schedules a new bot from config, returning its
// globally-unique, monotonically increasing bot_id. It fails with
// ConfigInvalid or MarketAccessUnavailable without ever registering a
// bot.
func (s *Supervisor) Start(cfg bot.Config) (int64, error) {
	// A config that omits symbol_spread_limit falls back to the
	// controller's per-symbol default table; without this, an enabled
	// spread filter would compare against 0 and suppress every cycle.
	if cfg.SymbolSpreadLimit <= 0 && s.spreadLimit != nil {
		cfg.SymbolSpreadLimit = s.spreadLimit(cfg.Symbol)
	}

	id := atomic.AddInt64(&s.nextID, 1)

	b, err := bot.New(s.rootCtx, id, cfg, s.port, s.reg, s.router, s.logger)
	if err != nil {
		return 0, err
	}

	botCtx, cancel := context.WithCancel(s.rootCtx)

	s.mu.Lock()
	s.bots[id] = &runningBot{b: b, stop: cancel}
	s.mu.Unlock()

	go b.Run(botCtx)

	s.logger.Printf("[supervisor] started bot %d symbol=%s strategy=%s", id, cfg.Symbol, cfg.StrategyName)
	return id, nil
}

// Stop transitions bot_id to STOPPED and removes it from the registry.
// Idempotent: calling Stop on an unknown or already-stopped id is a
// no-op. Open positions are not closed implicitly.
func (s *Supervisor) Stop(botID int64) {
	s.mu.Lock()
	rb, ok := s.bots[botID]
	if ok {
		delete(s.bots, botID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	rb.stop()
	rb.b.Stop()
	s.logger.Printf("[supervisor] stopped bot %d", botID)
}

// ListActive returns a snapshot of every currently-registered bot.
// Nothing is persisted; this is the reconnection snapshot for external
// consoles.
func (s *Supervisor) ListActive() []Details {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Details, 0, len(s.bots))
	for id, rb := range s.bots {
		out = append(out, Details{ID: id, Config: rb.b.Config, State: rb.b.State.Snapshot()})
	}
	return out
}

// GetDetails returns the current snapshot for one bot.
func (s *Supervisor) GetDetails(botID int64) (Details, bool) {
	s.mu.RLock()
	rb, ok := s.bots[botID]
	s.mu.RUnlock()
	if !ok {
		return Details{}, false
	}
	return Details{ID: botID, Config: rb.b.Config, State: rb.b.State.Snapshot()}, true
}

// ForcePerformanceUpdate recomputes a bot's unrealized P&L from its open
// positions via the Market Access Port and republishes a cycle update.
func (s *Supervisor) ForcePerformanceUpdate(ctx context.Context, botID int64) error {
	s.mu.RLock()
	rb, ok := s.bots[botID]
	s.mu.RUnlock()
	if !ok {
		return errs.New(errs.Internal, "unknown bot_id")
	}

	positions, err := s.port.Positions(ctx, rb.b.Config.Symbol, 0)
	if err != nil {
		return errs.Wrap(errs.MarketDataUnavailable, "positions lookup failed", err)
	}

	var unrealized float64
	for _, p := range positions {
		if parsed, ok := order.ParseTag(p.Comment); ok && parsed.BotID == botID {
			unrealized += p.Profit
		}
	}
	rb.b.RefreshUnrealizedPnL(unrealized)
	return nil
}

// RouteCompletion parses comment for the bot attribution tag and, if it
// identifies a live bot, routes the realized P&L onto that bot's
// counters.
func (s *Supervisor) RouteCompletion(comment string, realizedPnL float64) bool {
	parsed, ok := order.ParseTag(comment)
	if !ok {
		return false
	}
	s.mu.RLock()
	rb, ok := s.bots[parsed.BotID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	rb.b.OnTradeCompleted(realizedPnL)
	return true
}

// Reenable manually transitions a paused bot back to RUNNING. Protection
// pauses never auto-clear; this is the only way back.
func (s *Supervisor) Reenable(botID int64) bool {
	s.mu.RLock()
	rb, ok := s.bots[botID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	rb.b.State.SetStatus(protection.Running)
	return true
}
