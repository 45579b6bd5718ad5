package strategy

import "log"

// Stochastic implements the %K/%D oscillator strategy.
type Stochastic struct{}

func (Stochastic) Name() string { return "stochastic" }

func (Stochastic) Evaluate(in Input, logger *log.Logger) *Signal {
	kPeriod := in.Settings.getInt("k_period", 14)
	dPeriod := in.Settings.getInt("d_period", 3)
	oversold := in.Settings.get("oversold", 20)
	overbought := in.Settings.get("overbought", 80)

	mids := in.Window.Mids()
	n := len(mids)

	if n == 0 {
		v := pseudoIndicatorOneTick(in.Quote.Mid())
		logger.Printf("[stochastic] window=0 mode=synthesized-from-quote value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}
	if n == 1 {
		v := pseudoIndicatorOneTick(mids[0])
		logger.Printf("[stochastic] window=1 mode=one-tick-pseudo value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}

	period := kPeriod
	if n < kPeriod {
		period = n
	}
	slice := mids[n-period:]
	lo, hi := minOf(slice), maxOf(slice)
	last := mids[n-1]

	var k float64
	if hi == lo {
		k = 50
	} else {
		k = (last - lo) / (hi - lo) * 100
	}

	dLen := dPeriod
	if dLen > n {
		dLen = n
	}
	dWindow := make([]float64, 0, dLen)
	for i := n - dLen; i < n; i++ {
		s := mids[max0(i-period+1):i+1]
		plo, phi := minOf(s), maxOf(s)
		if phi == plo {
			dWindow = append(dWindow, 50)
			continue
		}
		dWindow = append(dWindow, (mids[i]-plo)/(phi-plo)*100)
	}
	d := mean(dWindow)

	logger.Printf("[stochastic] window=%d %%K=%.2f %%D=%.2f", n, k, d)

	switch {
	case k < oversold && k > d:
		return emit(BuySignal, in.Quote.Ask, clampConfidence((oversold-k)/oversold), "%K oversold crossing above %D", logger)
	case k > overbought && k < d:
		return emit(SellSignal, in.Quote.Bid, clampConfidence((k-overbought)/(100-overbought)), "%K overbought crossing below %D", logger)
	}
	logger.Printf("[stochastic] suppressed: no qualifying crossing")
	return nil
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}
