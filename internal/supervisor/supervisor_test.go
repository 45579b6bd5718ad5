package supervisor

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradepulse/hft-controller/internal/bot"
	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/market/memport"
	"github.com/tradepulse/hft-controller/internal/order"
	"github.com/tradepulse/hft-controller/internal/protection"
	"github.com/tradepulse/hft-controller/internal/strategy"
	"github.com/tradepulse/hft-controller/internal/telemetry"
)

func testLogger() *log.Logger {
	return log.New(os.Stdout, "[test] ", 0)
}

func baseConfig() bot.Config {
	return bot.Config{
		Mode:                   bot.ModeHFT,
		StrategyName:           "always_signal",
		Symbol:                 "XAUUSD",
		AnalysisIntervalSecs:   1,
		TickLookbackSecs:       5,
		MinSignalConfidence:    0,
		LotSizePerTrade:        0.1,
		StopLossPips:           20,
		TakeProfitPips:         40,
		UseManualSLTP:          true,
		MaxDailyTrades:         1000,
		MaxOrdersPerMinute:     1000,
		CooldownSecsAfterTrade: 0,
		MaxConsecutiveLosses:   1000,
		MaxConsecutiveProfits:  1000,
	}
}

func newTestSupervisor(t *testing.T, p *memport.Port) *Supervisor {
	t.Helper()
	router := telemetry.NewRouter(nil)
	reg := strategy.NewRegistry()
	return New(context.Background(), p, reg, router, nil, testLogger())
}

func TestStartAssignsMonotonicIDsAndListsActive(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	s := newTestSupervisor(t, p)
	defer func() {
		for _, d := range s.ListActive() {
			s.Stop(d.ID)
		}
	}()

	id1, err := s.Start(baseConfig())
	require.NoError(t, err)
	id2, err := s.Start(baseConfig())
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	active := s.ListActive()
	require.Len(t, active, 2)

	details, ok := s.GetDetails(id1)
	require.True(t, ok)
	require.Equal(t, id1, details.ID)
}

func TestStartDefaultsSpreadLimitFromResolver(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	router := telemetry.NewRouter(nil)
	reg := strategy.NewRegistry()
	s := New(context.Background(), p, reg, router, func(symbol string) float64 {
		require.Equal(t, "XAUUSD", symbol)
		return 50
	}, testLogger())
	defer func() {
		for _, d := range s.ListActive() {
			s.Stop(d.ID)
		}
	}()

	cfg := baseConfig()
	cfg.EnableSpreadFilter = true
	cfg.SymbolSpreadLimit = 0
	id, err := s.Start(cfg)
	require.NoError(t, err)

	details, ok := s.GetDetails(id)
	require.True(t, ok)
	require.Equal(t, 50.0, details.Config.SymbolSpreadLimit)

	// An explicit per-bot limit wins over the resolver's default.
	cfg.SymbolSpreadLimit = 200
	id2, err := s.Start(cfg)
	require.NoError(t, err)
	details2, ok := s.GetDetails(id2)
	require.True(t, ok)
	require.Equal(t, 200.0, details2.Config.SymbolSpreadLimit)
}

func TestStartRejectsInvalidConfigWithoutRegistering(t *testing.T) {
	p := memport.New()
	s := newTestSupervisor(t, p)

	cfg := baseConfig()
	cfg.Symbol = ""
	_, err := s.Start(cfg)
	require.Error(t, err)
	require.Empty(t, s.ListActive())
}

func TestStopIsIdempotentAndRemovesFromRegistry(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	s := newTestSupervisor(t, p)
	id, err := s.Start(baseConfig())
	require.NoError(t, err)

	s.Stop(id)
	_, ok := s.GetDetails(id)
	require.False(t, ok)

	// Second Stop on an already-removed id must be a no-op, not a panic.
	require.NotPanics(t, func() { s.Stop(id) })
}

func TestRouteCompletionAttributesPnLToCorrectBot(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	s := newTestSupervisor(t, p)
	defer func() {
		for _, d := range s.ListActive() {
			s.Stop(d.ID)
		}
	}()

	id, err := s.Start(baseConfig())
	require.NoError(t, err)

	comment := order.BuildTag(id, order.ModeHFT, market.Buy)
	ok := s.RouteCompletion(comment, 42.50)
	require.True(t, ok)

	details, found := s.GetDetails(id)
	require.True(t, found)
	require.Equal(t, 42.50, details.State.Performance.DailyPnLRealized)
	require.Equal(t, 1, details.State.Performance.ConsecutiveWins)
}

func TestRouteCompletionIgnoresUnknownBotOrMalformedTag(t *testing.T) {
	p := memport.New()
	s := newTestSupervisor(t, p)

	require.False(t, s.RouteCompletion("not_a_tradepulse_comment", 10))
	require.False(t, s.RouteCompletion(order.BuildTag(999, order.ModeHFT, market.Sell), 10))
}

func TestForcePerformanceUpdateSumsOpenPositionsForBot(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	s := newTestSupervisor(t, p)
	defer func() {
		for _, d := range s.ListActive() {
			s.Stop(d.ID)
		}
	}()

	id, err := s.Start(baseConfig())
	require.NoError(t, err)

	otherComment := order.BuildTag(id+1, order.ModeHFT, market.Buy)
	mine := order.BuildTag(id, order.ModeHFT, market.Buy)
	p.Positions_ = []market.Position{
		{Symbol: "XAUUSD", Ticket: 1, Comment: mine, Profit: 12.5},
		{Symbol: "XAUUSD", Ticket: 2, Comment: mine, Profit: 7.5},
		{Symbol: "XAUUSD", Ticket: 3, Comment: otherComment, Profit: 99},
	}

	require.NoError(t, s.ForcePerformanceUpdate(context.Background(), id))

	details, ok := s.GetDetails(id)
	require.True(t, ok)
	require.Equal(t, 20.0, details.State.Performance.DailyPnLUnrealized)
}

func TestForcePerformanceUpdateRejectsUnknownBot(t *testing.T) {
	p := memport.New()
	s := newTestSupervisor(t, p)
	err := s.ForcePerformanceUpdate(context.Background(), 9999)
	require.Error(t, err)
}

func TestReenableRestoresRunningStatus(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	s := newTestSupervisor(t, p)
	defer func() {
		for _, d := range s.ListActive() {
			s.Stop(d.ID)
		}
	}()

	id, err := s.Start(baseConfig())
	require.NoError(t, err)

	s.mu.RLock()
	rb := s.bots[id]
	s.mu.RUnlock()
	rb.b.State.SetStatus(protection.PausedProtection)

	require.True(t, s.Reenable(id))
	after, ok := s.GetDetails(id)
	require.True(t, ok)
	require.Equal(t, protection.Running, after.State.Status)

	require.False(t, s.Reenable(9999))
}
