package market

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/tradepulse/hft-controller/internal/errs"
)

// Resilient wraps a Port with the cross-cutting concerns every bot loop
// needs from a shared, concurrently-accessed terminal connection:
//
//   - a circuit breaker (github.com/sony/gobreaker) so a dead or saturated
//     terminal gateway fails fast for every bot instead of each bot
//     hammering it individually;
//   - request de-duplication (golang.org/x/sync/singleflight) so N bots
//     polling the same symbol in the same instant collapse to one call.
type Resilient struct {
	inner Port
	cb    *gobreaker.CircuitBreaker
	sf    singleflight.Group
}

// NewResilient wraps inner with a circuit breaker named for logging/metrics.
func NewResilient(inner Port, name string) *Resilient {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Resilient{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return errs.Wrap(errs.MarketAccessUnavailable, "market access port circuit open", err)
	}
	return err
}

func (r *Resilient) SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error) {
	key := "symbol_info:" + symbol
	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		return r.cb.Execute(func() (interface{}, error) {
			return r.inner.SymbolInfo(ctx, symbol)
		})
	})
	if err != nil {
		return SymbolInfo{}, classify(err)
	}
	return v.(SymbolInfo), nil
}

func (r *Resilient) CurrentQuote(ctx context.Context, symbol string) (Tick, error) {
	key := "quote:" + symbol
	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		return r.cb.Execute(func() (interface{}, error) {
			return r.inner.CurrentQuote(ctx, symbol)
		})
	})
	if err != nil {
		return Tick{}, classify(err)
	}
	return v.(Tick), nil
}

func (r *Resilient) TicksRange(ctx context.Context, symbol string, from, to time.Time, class TickClass) ([]RawTick, error) {
	key := fmt.Sprintf("ticks_range:%s:%d:%d:%d", symbol, from.Unix(), to.Unix(), class)
	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		return r.cb.Execute(func() (interface{}, error) {
			return r.inner.TicksRange(ctx, symbol, from, to, class)
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return v.([]RawTick), nil
}

func (r *Resilient) TicksFrom(ctx context.Context, symbol string, from time.Time, n int) ([]RawTick, error) {
	key := fmt.Sprintf("ticks_from:%s:%d:%d", symbol, from.Unix(), n)
	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		return r.cb.Execute(func() (interface{}, error) {
			return r.inner.TicksFrom(ctx, symbol, from, n)
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return v.([]RawTick), nil
}

func (r *Resilient) Positions(ctx context.Context, symbol string, ticket uint64) ([]Position, error) {
	v, err := r.cb.Execute(func() (interface{}, error) {
		return r.inner.Positions(ctx, symbol, ticket)
	})
	if err != nil {
		return nil, classify(err)
	}
	return v.([]Position), nil
}

// OrderSend is never deduplicated or shared across callers: order
// submission must not be collapsed across concurrent requests. It still
// runs through the circuit breaker so a down gateway fails fast.
func (r *Resilient) OrderSend(ctx context.Context, req OrderRequest) (OrderResult, error) {
	v, err := r.cb.Execute(func() (interface{}, error) {
		return r.inner.OrderSend(ctx, req)
	})
	if err != nil {
		return OrderResult{}, classify(err)
	}
	return v.(OrderResult), nil
}
