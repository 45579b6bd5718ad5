// Package bot implements a single bot's immutable configuration, mutable
// state, and analysis loop. Each bot owns one long-lived goroutine that
// polls a quote, acquires a tick window, evaluates its strategy, runs the
// protection gates, and submits qualifying orders, sleeping between
// cycles. Suspension happens only at market access calls and the
// inter-cycle sleep.
package bot

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tradepulse/hft-controller/internal/errs"
	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/order"
	"github.com/tradepulse/hft-controller/internal/pip"
	"github.com/tradepulse/hft-controller/internal/protection"
	"github.com/tradepulse/hft-controller/internal/strategy"
	"github.com/tradepulse/hft-controller/internal/telemetry"
	"github.com/tradepulse/hft-controller/internal/tick"
)

// Bot owns one analysis loop against one symbol. The supervisor is its
// sole creator and destroyer; nothing else may hold a reference that
// outlives Stop.
type Bot struct {
	ID     int64
	Config Config
	State  *State

	port     market.Port
	strat    strategy.Strategy
	symbol   market.SymbolInfo
	executor *order.Executor
	router   *telemetry.Router
	logger   *log.Logger

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New validates config, resolves its strategy from the registry, and
// fetches static symbol metadata. ConfigInvalid and
// MarketAccessUnavailable are the only errors that surface here; every
// later failure stays inside the loop.
func New(ctx context.Context, id int64, cfg Config, port market.Port, reg *strategy.Registry, router *telemetry.Router, logger *log.Logger) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strat, ok := reg.Lookup(cfg.StrategyName)
	if !ok {
		return nil, errs.New(errs.ConfigInvalid, "unknown strategy_name: "+cfg.StrategyName)
	}
	info, err := port.SymbolInfo(ctx, cfg.Symbol)
	if err != nil {
		return nil, errs.Wrap(errs.MarketAccessUnavailable, "symbol rejected by market access port", err)
	}

	return &Bot{
		ID:       id,
		Config:   cfg,
		State:    newState(time.Now()),
		port:     port,
		strat:    strat,
		symbol:   info,
		executor: order.NewExecutor(port, logger),
		router:   router,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Run drives the analysis loop until ctx is cancelled or Stop is called.
// It is invoked as `go bot.Run(ctx)` by the supervisor immediately after
// New succeeds, so the bot enters RUNNING within one scheduling quantum.
func (b *Bot) Run(ctx context.Context) {
	defer close(b.done)

	b.router.Publish(telemetry.Event{Type: telemetry.EventBotStarted, BotID: b.ID, Status: protection.Running})

	ticker := time.NewTicker(b.Config.AnalysisInterval())
	defer ticker.Stop()

	for {
		b.runCycle(ctx)

		// Suspension point: inter-cycle sleep.
		select {
		case <-ctx.Done():
			b.finalize()
			return
		case <-b.stopCh:
			b.finalize()
			return
		case <-ticker.C:
		}
	}
}

// Stop requests cancellation; the loop observes it at the next suspension
// point and emits bot_stopped exactly once. Idempotent. Blocks until the
// loop has finalized.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.done
}

func (b *Bot) finalize() {
	b.State.SetStatus(protection.Stopped)
	b.router.Publish(telemetry.Event{Type: telemetry.EventBotStopped, BotID: b.ID, Status: protection.Stopped})
}

// runCycle executes one iteration: quote -> tick window -> strategy ->
// protection gates -> order -> counters -> telemetry. Every error is
// caught here; only Stop ever terminates the bot.
func (b *Bot) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, b.Config.AnalysisInterval())
	defer cancel()

	quote, err := b.port.CurrentQuote(cycleCtx, b.Config.Symbol)
	if err != nil {
		b.logger.Printf("[bot %d] current quote unavailable: %v", b.ID, err)
		b.publishCycle(nil, nil)
		return
	}
	if !quote.Valid() {
		b.logger.Printf("[bot %d] current quote invalid, skipping cycle", b.ID)
		b.publishCycle(&quote, nil)
		return
	}

	window, err := tick.Acquire(cycleCtx, b.port, b.Config.Symbol, b.Config.TickLookback(), b.logger)
	if err != nil {
		b.logger.Printf("[bot %d] %v", b.ID, err)
		b.publishCycle(&quote, nil)
		return
	}

	pipSize := pip.Size(b.symbol.PointSize, b.symbol.Digits)
	sig := b.strat.Evaluate(strategy.Input{
		Symbol:   b.Config.Symbol,
		Settings: strategy.Settings(b.Config.IndicatorSettings),
		Window:   window,
		Quote:    quote,
		PipSize:  pipSize,
	}, b.logger)

	b.State.recordSignal(sig)

	if sig == nil {
		b.publishCycle(&quote, nil)
		return
	}

	decision := b.State.evaluateGates(protectionLimits(b.Config), quote, b.symbol.PointSize, sig.Confidence, time.Now())
	if !decision.Allowed {
		if decision.SuppressErr != nil {
			b.logger.Printf("[bot %d] suppressed: %v", b.ID, decision.SuppressErr)
		}
		b.publishCycle(&quote, sig)
		return
	}

	b.submit(cycleCtx, sig)
	b.publishCycle(&quote, sig)
}

// submit constructs and places the order for sig via the executor, then
// records the outcome on State and telemetry.
func (b *Bot) submit(ctx context.Context, sig *strategy.Signal) {
	params := order.Params{
		BotID:           b.ID,
		Mode:            orderModeOf(b.Config.Mode),
		Symbol:          b.Config.Symbol,
		Volume:          b.Config.LotSizePerTrade,
		StopLossPips:    b.Config.StopLossPips,
		TakeProfitPips:  b.Config.TakeProfitPips,
		UseManualSLTP:   b.Config.UseManualSLTP,
		RiskRewardRatio: b.Config.RiskRewardRatio,
		Digits:          b.symbol.Digits,
		PointSize:       b.symbol.PointSize,
	}

	result, err := b.executor.Execute(ctx, params, sig)
	if err != nil {
		b.logger.Printf("[bot %d] order failed: %v", b.ID, err)
		b.router.Publish(telemetry.Event{
			Type:    telemetry.EventTradeError,
			BotID:   b.ID,
			Status:  b.State.Status(),
			ErrKind: string(errs.KindOf(err)),
			ErrMsg:  err.Error(),
		})
		return
	}

	now := time.Now()
	b.State.recordOrder(now)
	b.router.Publish(telemetry.Event{
		Type:   telemetry.EventTradeExecuted,
		BotID:  b.ID,
		Status: b.State.Status(),
		Trade: &telemetry.TradeInfo{
			Ticket:     result.Ticket,
			Direction:  sig.Direction(),
			Volume:     result.Volume,
			EntryPrice: result.Price,
		},
	})
}

// OnTradeCompleted routes a completed order's P&L back onto this bot's
// counters. realizedPnL should be the broker-reported profit field when
// present, else recomputed from fills.
func (b *Bot) OnTradeCompleted(realizedPnL float64) {
	outcome := protection.OutcomeWin
	if realizedPnL < 0 {
		outcome = protection.OutcomeLoss
	}
	b.State.recordOutcome(outcome, realizedPnL)
	snap := b.State.Snapshot()
	b.router.Publish(telemetry.Event{
		Type:   telemetry.EventTradeCompleted,
		BotID:  b.ID,
		Status: snap.Status,
		Trade:  &telemetry.TradeInfo{Profit: realizedPnL},
	})
}

// RefreshUnrealizedPnL updates the bot's floating P&L from an externally
// computed figure and republishes a cycle update so subscribers see it
// immediately rather than waiting for the next loop tick.
func (b *Bot) RefreshUnrealizedPnL(unrealized float64) {
	b.State.setUnrealizedPnL(unrealized)
	snap := b.State.Snapshot()
	b.publishCycle(&snap.LastQuote, snap.LastSignal)
}

// publishCycle emits the per-cycle update event.
func (b *Bot) publishCycle(quote *market.Tick, sig *strategy.Signal) {
	snap := b.State.Snapshot()
	ev := telemetry.Event{
		Type:   telemetry.EventCycleUpdate,
		BotID:  b.ID,
		Status: snap.Status,
		LastSignal: sig,
		Performance: &telemetry.PerformanceSnapshot{
			TradesToday:        snap.Performance.TradesToday,
			ConsecutiveWins:    snap.Performance.ConsecutiveWins,
			ConsecutiveLosses:  snap.Performance.ConsecutiveLosses,
			DailyPnLRealized:   snap.Performance.DailyPnLRealized,
			DailyPnLUnrealized: snap.Performance.DailyPnLUnrealized,
		},
		NextAnalysisInSecs: b.Config.AnalysisIntervalSecs,
	}
	if quote != nil {
		ev.LastQuote = quote
	}
	b.router.Publish(ev)
}

func orderModeOf(m Mode) order.Mode {
	if m == ModeCandle {
		return order.ModeCandle
	}
	return order.ModeHFT
}
