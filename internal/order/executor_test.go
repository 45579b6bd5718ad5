package order

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradepulse/hft-controller/internal/errs"
	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/market/memport"
	"github.com/tradepulse/hft-controller/internal/strategy"
)

func testLogger() *log.Logger {
	return log.New(os.Stdout, "[test] ", 0)
}

func baseParams() Params {
	return Params{
		BotID:          1,
		Mode:           ModeHFT,
		Symbol:         "EURUSD",
		Volume:         0.1,
		StopLossPips:   10,
		TakeProfitPips: 20,
		UseManualSLTP:  true,
		Digits:         5,
		PointSize:      0.00001,
	}
}

func TestExecuteSuccessForcesSLTP(t *testing.T) {
	p := memport.New()
	exec := NewExecutor(p, testLogger())
	sig := &strategy.Signal{Kind: strategy.BuySignal, Price: 1.10000, Confidence: 0.8}

	result, err := exec.Execute(context.Background(), baseParams(), sig)
	require.NoError(t, err)
	require.True(t, market.IsSuccess(result.RetCode))

	orders := p.Orders()
	require.Len(t, orders, 1)
	require.Greater(t, orders[0].StopLoss, 0.0)
	require.Greater(t, orders[0].TakeProfit, 0.0)
	require.Less(t, orders[0].StopLoss, sig.Price)
	require.Greater(t, orders[0].TakeProfit, sig.Price)
	require.Equal(t, "TradePulse_bot_1_HFT_BUY", orders[0].Comment)
}

func TestExecuteAdvancesFillingLadderOnUnsupportedFilling(t *testing.T) {
	p := memport.New()
	p.NextOrderResult = &market.OrderResult{RetCode: market.RetInvalidFill}
	exec := NewExecutor(p, testLogger())
	sig := &strategy.Signal{Kind: strategy.SellSignal, Price: 1.10000, Confidence: 0.8}

	result, err := exec.Execute(context.Background(), baseParams(), sig)
	require.NoError(t, err)
	require.True(t, market.IsSuccess(result.RetCode))

	orders := p.Orders()
	require.Len(t, orders, 2)
	require.Equal(t, market.FillIOC, orders[0].Filling)
	require.Equal(t, market.FillFOK, orders[1].Filling)
}

func TestExecuteClampsOnceOnStopDistanceRejection(t *testing.T) {
	p := memport.New()
	p.NextOrderResult = &market.OrderResult{RetCode: market.RetInvalidStops}
	exec := NewExecutor(p, testLogger())
	sig := &strategy.Signal{Kind: strategy.BuySignal, Price: 1.10000, Confidence: 0.8}

	result, err := exec.Execute(context.Background(), baseParams(), sig)
	require.NoError(t, err)
	require.True(t, market.IsSuccess(result.RetCode))

	orders := p.Orders()
	require.Len(t, orders, 2)
	// Clamped SL/TP widen outward (further from entry) on the retry.
	require.Less(t, orders[1].StopLoss, orders[0].StopLoss)
	require.Greater(t, orders[1].TakeProfit, orders[0].TakeProfit)
}

func TestExecuteSurfacesPlainRejectionWithoutRetry(t *testing.T) {
	p := memport.New()
	p.NextOrderResult = &market.OrderResult{RetCode: market.RetNoMoney}
	exec := NewExecutor(p, testLogger())
	sig := &strategy.Signal{Kind: strategy.BuySignal, Price: 1.10000, Confidence: 0.8}

	_, err := exec.Execute(context.Background(), baseParams(), sig)
	require.Error(t, err)
	require.Equal(t, errs.OrderRejected, errs.KindOf(err))
	require.Len(t, p.Orders(), 1)
}

func TestCloseManualSubmitsOppositeSideAtCrossingQuote(t *testing.T) {
	p := memport.New()
	p.SeedTicks("EURUSD", market.Tick{Bid: 1.1000, Ask: 1.1002})
	exec := NewExecutor(p, testLogger())

	_, err := exec.CloseManual(context.Background(), "EURUSD", 555, market.Buy, 0.1)
	require.NoError(t, err)

	orders := p.Orders()
	require.Len(t, orders, 1)
	require.Equal(t, market.ActionClose, orders[0].Action)
	require.Equal(t, uint64(555), orders[0].Ticket)
	require.Equal(t, "Manual_Close_555", orders[0].Comment)
	require.Equal(t, 1.1000, orders[0].Price)
}
