package bot

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/market/memport"
	"github.com/tradepulse/hft-controller/internal/protection"
	"github.com/tradepulse/hft-controller/internal/strategy"
	"github.com/tradepulse/hft-controller/internal/telemetry"
)

func testLogger() *log.Logger {
	return log.New(os.Stdout, "[test] ", 0)
}

func baseConfig() Config {
	return Config{
		Mode:                   ModeHFT,
		StrategyName:           "rsi",
		Symbol:                 "XAUUSD",
		AnalysisIntervalSecs:   1,
		TickLookbackSecs:       5,
		MinSignalConfidence:    0.5,
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

func newTestBot(t *testing.T, cfg Config, port market.Port) (*Bot, *telemetry.Router, <-chan telemetry.Event) {
	t.Helper()
	router := telemetry.NewRouter(nil)
	events := router.Subscribe(64)
	reg := strategy.NewRegistry()
	b, err := New(context.Background(), 1, cfg, port, reg, router, testLogger())
	require.NoError(t, err)
	return b, router, events
}

// One-tick window end-to-end: quote -> signal -> order with forced SL/TP.
// Uses always_signal rather than rsi so the assertion doesn't depend on
// the frozen one-tick pseudo-indicator's numeric confidence (covered
// separately in strategy tests).
func TestOneTickWindowSubmitsOrderWithForcedSLTP(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300.00, Ask: 4300.50})

	cfg := baseConfig()
	cfg.StrategyName = "always_signal"
	b, _, events := newTestBot(t, cfg, p)

	b.runCycle(context.Background())

	orders := p.Orders()
	require.Len(t, orders, 1)
	require.Contains(t, orders[0].Comment, "TradePulse_bot_1_HFT_")
	require.Greater(t, orders[0].StopLoss, 0.0)
	require.Greater(t, orders[0].TakeProfit, 0.0)

	select {
	case ev := <-events:
		require.Equal(t, telemetry.EventTradeExecuted, ev.Type)
	default:
		t.Fatal("expected trade_executed event")
	}
}

// Spread gate suppresses submission.
func TestSpreadGateSuppressesSubmission(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4302})

	cfg := baseConfig()
	cfg.EnableSpreadFilter = true
	cfg.SymbolSpreadLimit = 100
	cfg.StrategyName = "always_signal"
	cfg.MinSignalConfidence = 0

	b, _, _ := newTestBot(t, cfg, p)
	b.runCycle(context.Background())

	require.Empty(t, p.Orders())
}

// Rate limit caps executed trades within a sliding minute.
func TestRateLimitCapsExecutedTrades(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	cfg := baseConfig()
	cfg.StrategyName = "always_signal"
	cfg.MinSignalConfidence = 0
	cfg.MaxOrdersPerMinute = 2
	cfg.CooldownSecsAfterTrade = 0

	b, _, _ := newTestBot(t, cfg, p)
	for i := 0; i < 5; i++ {
		b.runCycle(context.Background())
	}

	require.Len(t, p.Orders(), 2)
}

// Consecutive-loss pause halts further submissions.
func TestConsecutiveLossPauseHaltsSubmissions(t *testing.T) {
	p := memport.New()
	p.SetSymbolInfo(market.SymbolInfo{Symbol: "XAUUSD", PointSize: 0.01, Digits: 2})
	p.SeedTicks("XAUUSD", market.Tick{Time: time.Now(), Bid: 4300, Ask: 4300.10})

	cfg := baseConfig()
	cfg.StrategyName = "always_signal"
	cfg.MinSignalConfidence = 0
	cfg.MaxConsecutiveLosses = 3

	b, _, _ := newTestBot(t, cfg, p)
	b.OnTradeCompleted(-10)
	b.OnTradeCompleted(-10)
	b.OnTradeCompleted(-10)

	// The streak gate only flips Status on the next gate evaluation
	// (gates run inside the loop, not inside the completion notification
	// itself), so the first post-streak cycle is the one that both trips
	// PAUSED_PROTECTION and suppresses its own signal.
	b.runCycle(context.Background())
	require.Equal(t, protection.PausedProtection, b.State.Status())
	require.Empty(t, p.Orders())

	b.runCycle(context.Background())
	require.Empty(t, p.Orders())
}
