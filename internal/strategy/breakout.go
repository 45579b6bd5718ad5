package strategy

import "log"

// Breakout implements the rolling support/resistance breakout strategy.
type Breakout struct{}

func (Breakout) Name() string { return "breakout" }

func (Breakout) Evaluate(in Input, logger *log.Logger) *Signal {
	lookback := in.Settings.getInt("lookback", 20)
	threshold := in.Settings.get("threshold", 0.001)

	mids := in.Window.Mids()
	n := len(mids)

	if n == 0 {
		v := pseudoIndicatorOneTick(in.Quote.Mid())
		logger.Printf("[breakout] window=0 mode=synthesized-from-quote value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}
	if n == 1 {
		v := pseudoIndicatorOneTick(mids[0])
		logger.Printf("[breakout] window=1 mode=one-tick-pseudo value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}

	period := lookback
	if n-1 < period {
		period = n - 1
	}
	history := mids[n-1-period : n-1]
	support, resistance := minOf(history), maxOf(history)
	last := mids[n-1]

	logger.Printf("[breakout] window=%d support=%.5f resistance=%.5f last=%.5f", n, support, resistance, last)

	switch {
	case last > resistance*(1+threshold):
		conf := clampConfidence((last - resistance) / resistance / threshold)
		return emit(BuySignal, in.Quote.Ask, conf, "broke above resistance", logger)
	case last < support*(1-threshold):
		conf := clampConfidence((support - last) / support / threshold)
		return emit(SellSignal, in.Quote.Bid, conf, "broke below support", logger)
	case last > resistance:
		return emit(BuySignal, in.Quote.Ask, 0.25, "approaching resistance breakout", logger)
	case last < support:
		return emit(SellSignal, in.Quote.Bid, 0.25, "approaching support breakdown", logger)
	}
	logger.Printf("[breakout] suppressed: within support/resistance band")
	return nil
}
