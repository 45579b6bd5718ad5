package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradepulse/hft-controller/internal/market"
)

func TestTryExtractQuoteStructured(t *testing.T) {
	q, ok := TryExtractQuote(market.StructuredTick{Fields: map[string]float64{"bid": 1.1, "ask": 1.2}})
	require.True(t, ok)
	require.Equal(t, 1.1, q.Bid)
	require.Equal(t, 1.2, q.Ask)
}

func TestTryExtractQuoteStructuredPriceFallback(t *testing.T) {
	q, ok := TryExtractQuote(market.StructuredTick{Fields: map[string]float64{"price": 1.5}})
	require.True(t, ok)
	require.Equal(t, 1.5, q.Bid)
	require.Equal(t, 1.5, q.Ask)
}

func TestTryExtractQuoteAttributed(t *testing.T) {
	q, ok := TryExtractQuote(market.AttributedTick{Bid: 1.1, Ask: 1.2, HasBid: true, HasAsk: true})
	require.True(t, ok)
	require.Equal(t, 1.1, q.Bid)

	_, ok = TryExtractQuote(market.AttributedTick{HasBid: true})
	require.False(t, ok)
}

func TestTryExtractQuoteTuple(t *testing.T) {
	q, ok := TryExtractQuote(market.TupleTick{Values: []float64{1.1, 1.2}})
	require.True(t, ok)
	require.Equal(t, 1.1, q.Bid)
	require.Equal(t, 1.2, q.Ask)

	_, ok = TryExtractQuote(market.TupleTick{Values: []float64{1.1}})
	require.False(t, ok)
}

func TestTryExtractQuoteInvalidDropped(t *testing.T) {
	// ask < bid must never be admitted to the window.
	_, ok := TryExtractQuote(market.TupleTick{Values: []float64{1.2, 1.1}})
	require.False(t, ok)
}

func TestTryExtractQuoteUnknownShape(t *testing.T) {
	_, ok := TryExtractQuote(nil)
	require.False(t, ok)
}

func TestNormalizeAllMixedShapes(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	raws := []market.RawTick{
		market.StructuredTick{Time: now.Add(-2 * time.Second), Fields: map[string]float64{"bid": 1.1000, "ask": 1.1002}},
		market.AttributedTick{Bid: 1.1001, Ask: 1.1003, HasBid: true, HasAsk: true},
		market.TupleTick{Time: now, Values: []float64{1.1002, 1.1004}},
		market.TupleTick{Values: []float64{9.9}},            // too short, dropped
		market.AttributedTick{Bid: -1, Ask: 1, HasBid: true, HasAsk: true}, // invalid, dropped
	}

	ticks := NormalizeAll(raws, now)
	require.Len(t, ticks, 3)
	// The attributed record carried no timestamp and gets the fallback.
	require.Equal(t, now, ticks[1].Time)
}
