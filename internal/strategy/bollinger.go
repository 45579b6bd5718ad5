package strategy

import "log"

// BollingerBands implements the mean ± k*stddev band strategy. Reduced
// variants track distance from mean instead of full bands.
type BollingerBands struct{}

func (BollingerBands) Name() string { return "bollinger_bands" }

func (BollingerBands) Evaluate(in Input, logger *log.Logger) *Signal {
	period := in.Settings.getInt("period", 20)
	deviation := in.Settings.get("deviation", 2.0)

	mids := in.Window.Mids()
	n := len(mids)

	if n == 0 {
		v := pseudoIndicatorOneTick(in.Quote.Mid())
		logger.Printf("[bollinger_bands] window=0 mode=synthesized-from-quote value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}
	if n == 1 {
		v := pseudoIndicatorOneTick(mids[0])
		logger.Printf("[bollinger_bands] window=1 mode=one-tick-pseudo value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}
	if n == 2 {
		v := pseudoIndicatorTwoTicks(mids, 2.5)
		logger.Printf("[bollinger_bands] window=2 mode=two-tick-pct-change value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}

	p := period
	if p > n {
		p = n
	}
	slice := mids[n-p:]
	m := mean(slice)
	sd := stddev(slice, m)
	last := mids[n-1]

	logger.Printf("[bollinger_bands] window=%d mean=%.5f sd=%.6f last=%.5f", n, m, sd, last)

	if sd == 0 {
		logger.Printf("[bollinger_bands] suppressed: zero deviation")
		return nil
	}

	upper := m + deviation*sd
	lower := m - deviation*sd

	switch {
	case last <= lower:
		return emit(BuySignal, in.Quote.Ask, clampConfidence((lower-last)/sd), "price at or below lower band", logger)
	case last >= upper:
		return emit(SellSignal, in.Quote.Bid, clampConfidence((last-upper)/sd), "price at or above upper band", logger)
	}

	// Reduced variant: track distance from mean when not actually
	// breaching a band, emitting a low-confidence directional lean.
	distance := (last - m) / sd
	if distance <= -deviation*0.6 {
		return emit(BuySignal, in.Quote.Ask, clampConfidence(-distance/deviation*0.5), "approaching lower band", logger)
	}
	if distance >= deviation*0.6 {
		return emit(SellSignal, in.Quote.Bid, clampConfidence(distance/deviation*0.5), "approaching upper band", logger)
	}
	logger.Printf("[bollinger_bands] suppressed: within bands, near mean")
	return nil
}
