package order

import (
	"context"
	"log"

	"github.com/tradepulse/hft-controller/internal/errs"
	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/pip"
	"github.com/tradepulse/hft-controller/internal/strategy"
)

// Params carries the per-cycle inputs the executor needs beyond the
// signal itself.
type Params struct {
	BotID           int64
	Mode            Mode
	Symbol          string
	Volume          float64
	StopLossPips    float64
	TakeProfitPips  float64
	UseManualSLTP   bool
	RiskRewardRatio float64
	Digits          int32
	PointSize       float64
}

// Executor submits qualifying signals to the Market Access Port.
type Executor struct {
	Port   market.Port
	Logger *log.Logger
}

func NewExecutor(port market.Port, logger *log.Logger) *Executor {
	return &Executor{Port: port, Logger: logger}
}

// resolveSLTP applies the configured sl/tp pip distances: manual mode
// uses both directly, otherwise tp derives from the risk/reward ratio.
func resolveSLTP(p Params) (slPips, tpPips float64) {
	slPips = p.StopLossPips
	if p.UseManualSLTP {
		tpPips = p.TakeProfitPips
	} else {
		tpPips = p.RiskRewardRatio * slPips
	}
	return slPips, tpPips
}

// Execute constructs and submits an order for sig, retrying across the
// filling-mode ladder and clamping once on a stop-distance rejection.
func (e *Executor) Execute(ctx context.Context, p Params, sig *strategy.Signal) (market.OrderResult, error) {
	pipSize := pip.Size(p.PointSize, p.Digits)
	slPips, tpPips := resolveSLTP(p)

	entry := sig.Price
	dir := sig.Direction()

	slPrice, tpPrice := slTpPrices(entry, dir, slPips, tpPips, pipSize, p.Digits)

	tag := BuildTag(p.BotID, p.Mode, dir)

	req := market.OrderRequest{
		Action:     market.ActionDeal,
		Symbol:     p.Symbol,
		Direction:  dir,
		Volume:     p.Volume,
		Price:      entry,
		StopLoss:   slPrice,
		TakeProfit: tpPrice,
		Comment:    tag,
	}

	result, err := e.submitWithFillingLadder(ctx, req)
	if err == nil {
		return result, nil
	}

	if errs.KindOf(err) == errs.StopDistanceRejected {
		e.Logger.Printf("[order] stop distance rejected, clamping by one pip and retrying once")
		clampedSL, clampedTP := clampStops(entry, dir, slPrice, tpPrice, pipSize)
		req.StopLoss = clampedSL
		req.TakeProfit = clampedTP
		result, err2 := e.submitWithFillingLadder(ctx, req)
		if err2 == nil {
			return result, nil
		}
		return market.OrderResult{}, errs.Wrap(errs.StopDistanceRejected, "stop distance rejected after clamp retry", err2)
	}

	return market.OrderResult{}, err
}

// submitWithFillingLadder tries each filling mode in the strictly-ordered
// ladder IOC -> FOK -> RETURN, advancing only on an unsupported-filling
// rejection. Any other rejection is surfaced without further retry.
func (e *Executor) submitWithFillingLadder(ctx context.Context, req market.OrderRequest) (market.OrderResult, error) {
	var lastErr error
	for _, filling := range market.FillingLadder {
		req.Filling = filling
		result, err := e.Port.OrderSend(ctx, req)
		if err == nil && market.IsSuccess(result.RetCode) {
			e.Logger.Printf("[order] submitted ticket=%d filling=%s retcode=%d", result.Ticket, filling, result.RetCode)
			return result, nil
		}
		if err != nil {
			if errs.KindOf(err) == errs.FillingModeUnsupported {
				e.Logger.Printf("[order] filling mode %s unsupported, advancing ladder", filling)
				lastErr = err
				continue
			}
			return market.OrderResult{}, err
		}
		if market.IsFillingUnsupported(result.RetCode) {
			e.Logger.Printf("[order] filling mode %s rejected (retcode %d), advancing ladder", filling, result.RetCode)
			lastErr = errs.New(errs.FillingModeUnsupported, "filling mode rejected by broker")
			continue
		}
		if market.IsStopDistanceRejected(result.RetCode) {
			return market.OrderResult{}, errs.New(errs.StopDistanceRejected, "stop distance rejected by broker")
		}
		return market.OrderResult{}, errs.New(errs.OrderRejected, "order rejected by broker")
	}
	return market.OrderResult{}, errs.Wrap(errs.FillingModeUnsupported, "no filling mode accepted by broker", lastErr)
}

// CloseManual submits the opposite-side deal referencing ticket at the
// current crossing quote.
func (e *Executor) CloseManual(ctx context.Context, symbol string, ticket uint64, dir market.Direction, volume float64) (market.OrderResult, error) {
	quote, err := e.Port.CurrentQuote(ctx, symbol)
	if err != nil {
		return market.OrderResult{}, errs.Wrap(errs.MarketDataUnavailable, "manual close: current quote unavailable", err)
	}

	price := quote.Bid
	closeDir := market.Sell
	if dir == market.Sell {
		price = quote.Ask
		closeDir = market.Buy
	}

	req := market.OrderRequest{
		Action:    market.ActionClose,
		Symbol:    symbol,
		Direction: closeDir,
		Volume:    volume,
		Price:     price,
		Comment:   ManualCloseTag(ticket),
		Ticket:    ticket,
	}

	return e.submitWithFillingLadder(ctx, req)
}

// slTpPrices computes sl_price/tp_price: entry ∓ sl_pips for SL, entry ±
// tp_pips for TP, signs chosen by direction. SL/TP are forced whenever
// both distances are positive.
func slTpPrices(entry float64, dir market.Direction, slPips, tpPips, pipSize float64, digits int32) (slPrice, tpPrice float64) {
	slDist := pip.PipsToPrice(slPips, pipSize)
	tpDist := pip.PipsToPrice(tpPips, pipSize)

	if dir == market.Sell {
		slDist, tpDist = -slDist, -tpDist
	}

	if slPips > 0 {
		slPrice = pip.RoundToDigits(entry-slDist, digits)
	}
	if tpPips > 0 {
		tpPrice = pip.RoundToDigits(entry+tpDist, digits)
	}
	return slPrice, tpPrice
}

// clampStops widens SL/TP outward by one pip on a stop-distance
// rejection.
func clampStops(entry float64, dir market.Direction, slPrice, tpPrice, pipSize float64) (float64, float64) {
	sign := 1.0
	if dir == market.Sell {
		sign = -1.0
	}
	if slPrice > 0 {
		slPrice -= sign * pipSize
	}
	if tpPrice > 0 {
		tpPrice += sign * pipSize
	}
	return slPrice, tpPrice
}
