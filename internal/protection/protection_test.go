package protection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradepulse/hft-controller/internal/errs"
)

func baseLimits() Limits {
	return Limits{
		EnableSpreadFilter:    true,
		SymbolSpreadLimit:     5,
		MaxDailyTrades:        10,
		MaxOrdersPerMinute:    3,
		CooldownAfterTrade:    0,
		MaxLossThreshold:      100,
		MaxProfitThreshold:    100,
		MaxConsecutiveLosses:  3,
		MaxConsecutiveProfits: 3,
		MinSignalConfidence:   0.5,
	}
}

func TestStatusGateSuppressesWhenNotRunning(t *testing.T) {
	c := NewCounters(time.Now())
	c.Status = Stopped
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.9, time.Now())
	require.False(t, d.Allowed)
	require.Equal(t, errs.ProtectionPaused, d.SuppressErr.Kind)
}

func TestSpreadGateSuppressesOnWideSpread(t *testing.T) {
	c := NewCounters(time.Now())
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1010, PointSize: 0.0001}, 0.9, time.Now())
	require.False(t, d.Allowed)
	require.Equal(t, errs.SpreadTooWide, d.SuppressErr.Kind)
	require.Equal(t, Running, d.NewStatus)
}

func TestDailyLossGatePausesBot(t *testing.T) {
	c := NewCounters(time.Now())
	c.DailyPnLRealized = -150
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.9, time.Now())
	require.False(t, d.Allowed)
	require.Equal(t, PausedProtection, d.NewStatus)
}

func TestStreakGatePausesBot(t *testing.T) {
	c := NewCounters(time.Now())
	c.ConsecutiveLosses = 3
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.9, time.Now())
	require.False(t, d.Allowed)
	require.Equal(t, PausedProtection, d.NewStatus)
}

func TestDailyTradeGateSuppressesWithoutPausing(t *testing.T) {
	c := NewCounters(time.Now())
	c.TradesToday = 10
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.9, time.Now())
	require.False(t, d.Allowed)
	require.Equal(t, Running, d.NewStatus)
}

func TestRateGateSuppressesAtCap(t *testing.T) {
	c := NewCounters(time.Now())
	now := time.Now()
	c.OrdersInLastMinute = []time.Time{now, now, now}
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.9, now)
	require.False(t, d.Allowed)
}

func TestCooldownGateSuppressesWithinWindow(t *testing.T) {
	c := NewCounters(time.Now())
	now := time.Now()
	c.LastOrderAt = now
	limits := baseLimits()
	limits.CooldownAfterTrade = 30 * time.Second
	d := Evaluate(c, limits, QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.9, now.Add(5*time.Second))
	require.False(t, d.Allowed)
}

func TestConfidenceGateSuppressesBelowThreshold(t *testing.T) {
	c := NewCounters(time.Now())
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.1, time.Now())
	require.False(t, d.Allowed)
	require.Equal(t, errs.LowConfidence, d.SuppressErr.Kind)
}

func TestAllGatesOpenAllows(t *testing.T) {
	c := NewCounters(time.Now())
	d := Evaluate(c, baseLimits(), QuoteForSpread{Bid: 1.1, Ask: 1.1001, PointSize: 0.0001}, 0.9, time.Now())
	require.True(t, d.Allowed)
}

func TestMaybeResetDailyClearsCountersAtUTCBoundary(t *testing.T) {
	yesterday := time.Date(2026, 7, 28, 23, 0, 0, 0, time.UTC)
	c := NewCounters(yesterday)
	c.TradesToday = 5
	c.DailyPnLRealized = -40
	c.OrdersInLastMinute = []time.Time{yesterday}

	today := time.Date(2026, 7, 29, 0, 30, 0, 0, time.UTC)
	c.MaybeResetDaily(today)

	require.Equal(t, 0, c.TradesToday)
	require.Equal(t, 0.0, c.DailyPnLRealized)
	require.Empty(t, c.OrdersInLastMinute)
}

func TestMaybeResetDailyDoesNotClearStreaksOrStatus(t *testing.T) {
	yesterday := time.Date(2026, 7, 28, 23, 0, 0, 0, time.UTC)
	c := NewCounters(yesterday)
	c.Status = PausedProtection
	c.ConsecutiveLosses = 3

	today := time.Date(2026, 7, 29, 0, 30, 0, 0, time.UTC)
	c.MaybeResetDaily(today)

	require.Equal(t, PausedProtection, c.Status)
	require.Equal(t, 3, c.ConsecutiveLosses)
}

func TestRecordOutcomeResetsOppositeStreak(t *testing.T) {
	c := NewCounters(time.Now())
	c.RecordOutcome(OutcomeLoss)
	c.RecordOutcome(OutcomeLoss)
	require.Equal(t, 2, c.ConsecutiveLosses)

	c.RecordOutcome(OutcomeWin)
	require.Equal(t, 0, c.ConsecutiveLosses)
	require.Equal(t, 1, c.ConsecutiveWins)
}
