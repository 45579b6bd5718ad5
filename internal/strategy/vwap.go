package strategy

import (
	"log"
	"math"
)

// VWAP implements the volume-weighted-average-price mean-reversion
// strategy. Volume is absent from the tick source, so per-tick absolute
// mid-difference is used as a volume proxy.
type VWAP struct{}

func (VWAP) Name() string { return "vwap" }

func (VWAP) Evaluate(in Input, logger *log.Logger) *Signal {
	period := in.Settings.getInt("period", 20)
	deviationThreshold := in.Settings.get("deviation_threshold", 1.5)

	mids := in.Window.Mids()
	n := len(mids)

	if n == 0 {
		v := pseudoIndicatorOneTick(in.Quote.Mid())
		logger.Printf("[vwap] window=0 mode=synthesized-from-quote value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}
	if n == 1 {
		v := pseudoIndicatorOneTick(mids[0])
		logger.Printf("[vwap] window=1 mode=one-tick-pseudo value=%.2f", v)
		return fromOscillator(v, in.Quote, logger)
	}

	p := period
	if p > n {
		p = n
	}
	slice := mids[n-p:]

	// Volume proxy: absolute tick-to-tick mid difference, 1.0 for the
	// first element of the slice (no predecessor inside it).
	volumes := make([]float64, len(slice))
	volumes[0] = 1
	for i := 1; i < len(slice); i++ {
		d := slice[i] - slice[i-1]
		if d < 0 {
			d = -d
		}
		volumes[i] = d
		if volumes[i] == 0 {
			volumes[i] = 1e-9
		}
	}

	var num, den float64
	for i, m := range slice {
		num += m * volumes[i]
		den += volumes[i]
	}
	vwap := num / den

	var sumSq float64
	for _, m := range slice {
		d := m - vwap
		sumSq += d * d
	}
	sd := math.Sqrt(sumSq / float64(len(slice)))
	last := slice[len(slice)-1]

	logger.Printf("[vwap] window=%d vwap=%.5f sd=%.6f last=%.5f", n, vwap, sd, last)

	if sd == 0 {
		logger.Printf("[vwap] suppressed: zero deviation")
		return nil
	}

	z := (last - vwap) / sd
	switch {
	case z <= -deviationThreshold:
		return emit(BuySignal, in.Quote.Ask, clampConfidence(-z/deviationThreshold-1+0.5), "below lower vwap band", logger)
	case z >= deviationThreshold:
		return emit(SellSignal, in.Quote.Bid, clampConfidence(z/deviationThreshold-1+0.5), "above upper vwap band", logger)
	}
	logger.Printf("[vwap] suppressed: within vwap bands")
	return nil
}
