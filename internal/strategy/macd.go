package strategy

import "log"

// MACD implements the EMA-cross strategy. Full mode tracks
// zero-line and signal-line crosses; reduced modes fall back to momentum
// sign under loose thresholds.
type MACD struct{}

func (MACD) Name() string { return "macd" }

func (MACD) Evaluate(in Input, logger *log.Logger) *Signal {
	fast := in.Settings.getInt("fast", 12)
	slow := in.Settings.getInt("slow", 26)
	signalPeriod := in.Settings.getInt("signal_period", 9)

	mids := in.Window.Mids()
	n := len(mids)

	if n == 0 {
		v := pseudoIndicatorOneTick(in.Quote.Mid())
		logger.Printf("[macd] window=0 mode=synthesized-from-quote value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}
	if n == 1 {
		v := pseudoIndicatorOneTick(mids[0])
		logger.Printf("[macd] window=1 mode=one-tick-pseudo value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}
	if n < 3 {
		v := pseudoIndicatorTwoTicks(mids, 4.0)
		logger.Printf("[macd] window=%d mode=two-tick-pct-change value=%.2f", n, v)
		return fromOscillator(v, in.Quote, logger)
	}

	if n < slow+signalPeriod {
		// Reduced: momentum sign of a short-window delta under loose
		// thresholds; always produces a signal for |w| >= 3.
		delta := mids[n-1] - mids[0]
		pct := delta / mids[0] * 100
		logger.Printf("[macd] window=%d mode=momentum-sign delta_pct=%.4f", n, pct)
		if pct >= 0 {
			return emit(BuySignal, in.Quote.Ask, clampConfidence(0.3+pct), "momentum positive", logger)
		}
		return emit(SellSignal, in.Quote.Bid, clampConfidence(0.3-pct), "momentum negative", logger)
	}

	macdLine := emaSeries(mids, fast)
	slowLine := emaSeries(mids, slow)
	macd := make([]float64, len(mids))
	for i := range mids {
		macd[i] = macdLine[i] - slowLine[i]
	}
	signalLine := emaSeries(macd, signalPeriod)

	last := macd[len(macd)-1]
	lastSignal := signalLine[len(signalLine)-1]
	prev := macd[len(macd)-2]
	prevSignal := signalLine[len(signalLine)-2]

	logger.Printf("[macd] window=%d mode=full macd=%.6f signal=%.6f", n, last, lastSignal)

	crossedUp := prev <= prevSignal && last > lastSignal
	crossedDown := prev >= prevSignal && last < lastSignal

	switch {
	case crossedUp:
		return emit(BuySignal, in.Quote.Ask, clampConfidence((last-lastSignal)*1000), "macd crossed above signal", logger)
	case crossedDown:
		return emit(SellSignal, in.Quote.Bid, clampConfidence((lastSignal-last)*1000), "macd crossed below signal", logger)
	case prev <= 0 && last > 0:
		return emit(BuySignal, in.Quote.Ask, 0.5, "macd crossed above zero", logger)
	case prev >= 0 && last < 0:
		return emit(SellSignal, in.Quote.Bid, 0.5, "macd crossed below zero", logger)
	}
	logger.Printf("[macd] suppressed: no cross")
	return nil
}

// emaSeries computes the exponential moving average series over xs with
// the given period, seeding the first value with xs[0].
func emaSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	k := 2.0 / (float64(period) + 1)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}
