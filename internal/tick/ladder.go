package tick

import (
	"context"
	"log"
	"time"

	"github.com/tradepulse/hft-controller/internal/errs"
	"github.com/tradepulse/hft-controller/internal/market"
)

// Acquire produces a Window of valid ticks spanning at most lookback, using
// a strictly-ordered fallback ladder:
//
//  1. range query [now-lookback, now] for all ticks
//  2. same range restricted to info-class ticks
//  3. "last N" query for a bounded N derived from lookback
//  4. shorter range (10s) repeat of (1)
//  5. synthesize a one-element window from the current quote
//
// It fails only when every rung including the synthesized fallback fails,
// reporting errs.MarketDataUnavailable; the loop then skips the cycle and
// continues.
func Acquire(ctx context.Context, port market.Port, symbol string, lookback time.Duration, logger *log.Logger) (Window, error) {
	now := time.Now()

	rungs := []func() ([]market.RawTick, error){
		func() ([]market.RawTick, error) {
			return port.TicksRange(ctx, symbol, now.Add(-lookback), now, market.TickClassAll)
		},
		func() ([]market.RawTick, error) {
			return port.TicksRange(ctx, symbol, now.Add(-lookback), now, market.TickClassInfo)
		},
		func() ([]market.RawTick, error) {
			n := lastNFor(lookback)
			return port.TicksFrom(ctx, symbol, now.Add(-lookback), n)
		},
		func() ([]market.RawTick, error) {
			short := 10 * time.Second
			if short > lookback {
				short = lookback
			}
			return port.TicksRange(ctx, symbol, now.Add(-short), now, market.TickClassAll)
		},
	}

	for i, rung := range rungs {
		raw, err := rung()
		if err != nil {
			logger.Printf("[tick-ladder] rung %d errored: %v", i+1, err)
			continue
		}
		win := NewWindow(NormalizeAll(raw, now))
		if win.Len() == 0 {
			logger.Printf("[tick-ladder] rung %d returned no valid ticks, falling through", i+1)
			continue
		}
		logger.Printf("[tick-ladder] rung %d produced window of %d ticks (%d raw records)", i+1, win.Len(), len(raw))
		return win, nil
	}

	// Rung 5: synthesize a one-element window from the current quote.
	quote, err := port.CurrentQuote(ctx, symbol)
	if err != nil {
		return Window{}, errs.Wrap(errs.MarketDataUnavailable, "tick ladder exhausted, current quote unavailable", err)
	}
	if !quote.Valid() {
		return Window{}, errs.New(errs.MarketDataUnavailable, "tick ladder exhausted, current quote invalid")
	}
	logger.Printf("[tick-ladder] rung 5 synthesized a one-tick window from the current quote")
	return NewWindow([]market.Tick{quote}), nil
}

// lastNFor derives a bounded "last N" count from the configured lookback,
// assuming at most ~20 ticks/second during active trading.
func lastNFor(lookback time.Duration) int {
	n := int(lookback.Seconds()) * 20
	if n < 1 {
		n = 1
	}
	if n > 5000 {
		n = 5000
	}
	return n
}
