package tick

import (
	"sort"

	"github.com/tradepulse/hft-controller/internal/market"
)

// Window is an ordered, time-monotonic sequence of valid ticks spanning at
// most the configured lookback. It may contain as few as one element;
// strategies must be total over any window size from 1 up.
type Window struct {
	Ticks []market.Tick
}

// NewWindow sorts ticks by time and keeps only the valid ones.
func NewWindow(ticks []market.Tick) Window {
	valid := make([]market.Tick, 0, len(ticks))
	for _, t := range ticks {
		if t.Valid() {
			valid = append(valid, t)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Time.Before(valid[j].Time) })
	return Window{Ticks: valid}
}

// Len returns |window|.
func (w Window) Len() int { return len(w.Ticks) }

// Bids returns the derived bid series.
func (w Window) Bids() []float64 {
	out := make([]float64, len(w.Ticks))
	for i, t := range w.Ticks {
		out[i] = t.Bid
	}
	return out
}

// Asks returns the derived ask series.
func (w Window) Asks() []float64 {
	out := make([]float64, len(w.Ticks))
	for i, t := range w.Ticks {
		out[i] = t.Ask
	}
	return out
}

// Mids returns the derived mid-price series.
func (w Window) Mids() []float64 {
	out := make([]float64, len(w.Ticks))
	for i, t := range w.Ticks {
		out[i] = t.Mid()
	}
	return out
}

// Last returns the most recent tick. Callers must check the ok result;
// this method never silently substitutes a zero tick as if it were real
// data.
func (w Window) Last() (market.Tick, bool) {
	if len(w.Ticks) == 0 {
		return market.Tick{}, false
	}
	return w.Ticks[len(w.Ticks)-1], true
}
