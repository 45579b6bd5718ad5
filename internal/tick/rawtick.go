// Package tick acquires and normalizes the rolling tick window a bot's
// strategy evaluates. Heterogeneous broker record shapes arrive from the
// Market Access Port as the market.RawTick sum type: field-named
// structured records, attribute-addressed records, and positional tuples.
// Normalization tries field access, then attribute access, then positional
// access, skipping (never panicking on) a record that fits none of the
// three shapes.
package tick

import (
	"time"

	"github.com/tradepulse/hft-controller/internal/market"
)

// TryExtractQuote normalizes one raw record into a canonical market.Tick.
// It attempts, in order: structured-field access, attribute access,
// positional access. Each attempt is independently guarded: a record
// that satisfies none of the three shapes, or whose extracted bid/ask
// fail validity, yields (Tick{}, false), never a panic and never a
// sentinel price.
func TryExtractQuote(raw market.RawTick) (market.Tick, bool) {
	switch r := raw.(type) {
	case market.StructuredTick:
		return fromStructured(r)
	case market.AttributedTick:
		return fromAttributed(r)
	case market.TupleTick:
		return fromTuple(r)
	default:
		return market.Tick{}, false
	}
}

// NormalizeAll normalizes a batch of raw records, dropping every record
// that fits no shape or fails validity. Records that carry no timestamp of
// their own are stamped with fallback so the window stays time-ordered.
func NormalizeAll(raws []market.RawTick, fallback time.Time) []market.Tick {
	out := make([]market.Tick, 0, len(raws))
	for _, raw := range raws {
		t, ok := TryExtractQuote(raw)
		if !ok {
			continue
		}
		if t.Time.IsZero() {
			t.Time = fallback
		}
		out = append(out, t)
	}
	return out
}

func fromStructured(r market.StructuredTick) (market.Tick, bool) {
	bid, okBid := r.Fields["bid"]
	ask, okAsk := r.Fields["ask"]
	if !okBid || !okAsk {
		// Fall back to price-like fields when bid or ask is absent,
		// synthesizing a zero-spread quote from the first one found.
		if p, ok := firstOf(r.Fields, "price", "last", "close", "open"); ok {
			bid, ask, okBid, okAsk = p, p, true, true
		}
	}
	if !okBid || !okAsk {
		return market.Tick{}, false
	}
	t := market.Tick{Time: r.Time, Bid: bid, Ask: ask}
	return t, t.Valid()
}

func firstOf(m map[string]float64, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, ok
		}
	}
	return 0, false
}

func fromAttributed(r market.AttributedTick) (market.Tick, bool) {
	if r.HasBid && r.HasAsk {
		t := market.Tick{Time: r.Time, Bid: r.Bid, Ask: r.Ask}
		return t, t.Valid()
	}
	return market.Tick{}, false
}

func fromTuple(r market.TupleTick) (market.Tick, bool) {
	if len(r.Values) < 2 {
		return market.Tick{}, false
	}
	t := market.Tick{Time: r.Time, Bid: r.Values[0], Ask: r.Values[1]}
	return t, t.Valid()
}
