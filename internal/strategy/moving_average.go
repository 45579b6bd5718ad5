package strategy

import (
	"log"

	"github.com/tradepulse/hft-controller/internal/market"
)

// MovingAverage implements the fast/slow SMA-cross strategy.
type MovingAverage struct{}

func (MovingAverage) Name() string { return "moving_average" }

func (MovingAverage) Evaluate(in Input, logger *log.Logger) *Signal {
	fastPeriod := in.Settings.getInt("ma_fast_period", 5)
	slowPeriod := in.Settings.getInt("ma_slow_period", 20)
	proximity := in.Settings.get("near_cross_band", 0.0005)

	mids := in.Window.Mids()
	n := len(mids)

	switch {
	case n == 0:
		v := pseudoIndicatorOneTick(in.Quote.Mid())
		logger.Printf("[moving_average] window=0 mode=synthesized-from-quote value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	case n == 1:
		v := pseudoIndicatorOneTick(mids[0])
		logger.Printf("[moving_average] window=1 mode=one-tick-pseudo value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	case n == 2:
		v := pseudoIndicatorTwoTicks(mids, 3.0)
		logger.Printf("[moving_average] window=2 mode=two-tick-pct-change value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}

	if n < slowPeriod {
		// Reduced: below full data requirement, compress both periods
		// proportionally to the available window.
		slowPeriod = n
		fastPeriod = n / 2
		if fastPeriod < 1 {
			fastPeriod = 1
		}
	}

	fast := mean(mids[n-fastPeriod:])
	slow := mean(mids[n-slowPeriod:])
	last := mids[n-1]
	gap := (fast - slow) / slow

	logger.Printf("[moving_average] window=%d mode=sma-cross fast=%.5f slow=%.5f gap=%.6f", n, fast, slow, gap)

	switch {
	case fast > slow && last > fast:
		conf := clampConfidence(gap * 50)
		return emit(BuySignal, in.Quote.Ask, conf, "fast above slow, price above fast", logger)
	case fast < slow && last < fast:
		conf := clampConfidence(-gap * 50)
		return emit(SellSignal, in.Quote.Bid, conf, "fast below slow, price below fast", logger)
	case gap > 0 && gap < proximity:
		return emit(BuySignal, in.Quote.Ask, 0.2, "near upward cross", logger)
	case gap < 0 && -gap < proximity:
		return emit(SellSignal, in.Quote.Bid, 0.2, "near downward cross", logger)
	}
	logger.Printf("[moving_average] suppressed: no cross and outside proximity band")
	return nil
}

// fromOscillator maps the shared [5,95] pseudo-indicator scale onto a
// signal the same way the full SMA cross would: above midline is bullish.
func fromOscillator(v float64, quote market.Tick, logger *log.Logger) *Signal {
	if v > 55 {
		return emit(BuySignal, quote.Ask, clampConfidence((v-50)/45), "reduced-mode bullish reading", logger)
	}
	if v < 45 {
		return emit(SellSignal, quote.Bid, clampConfidence((50-v)/45), "reduced-mode bearish reading", logger)
	}
	logger.Printf("[moving_average] suppressed: reduced-mode value %.2f within neutral band", v)
	return nil
}
