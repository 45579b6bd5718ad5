// Package memport is an in-memory fake of market.Port for tests. It has no
// grounding beyond mirroring the Port interface: it is test scaffolding,
// not a production concern, so it stays on the standard library.
package memport

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tradepulse/hft-controller/internal/market"
)

// Port is a deterministic, in-memory market.Port implementation. Tests seed
// it with ticks, symbol info, and canned order results; it never does network
// I/O and never blocks.
type Port struct {
	mu sync.Mutex

	symbols map[string]market.SymbolInfo
	ticks   map[string][]market.Tick
	raws    map[string][]market.RawTick
	orders  []market.OrderRequest

	// NextOrderResult, when non-nil, is returned (and consumed) by the next
	// OrderSend call. NextOrderResultErr, similarly, is returned as an error.
	NextOrderResult    *market.OrderResult
	NextOrderResultErr error
	NextTicket         uint64

	SymbolInfoErr  error
	QuoteErr       error
	TicksRangeErr  error
	TicksFromErr   error
	PositionsErr   error
	Positions_     []market.Position
}

// New creates an empty fake port.
func New() *Port {
	return &Port{
		symbols: make(map[string]market.SymbolInfo),
		ticks:   make(map[string][]market.Tick),
		raws:    make(map[string][]market.RawTick),
	}
}

// SetSymbolInfo seeds static metadata for a symbol.
func (p *Port) SetSymbolInfo(info market.SymbolInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.symbols[info.Symbol] = info
}

// SeedTicks appends ticks for a symbol, kept time-sorted.
func (p *Port) SeedTicks(symbol string, ticks ...market.Tick) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks[symbol] = append(p.ticks[symbol], ticks...)
	sort.Slice(p.ticks[symbol], func(i, j int) bool {
		return p.ticks[symbol][i].Time.Before(p.ticks[symbol][j].Time)
	})
}

func (p *Port) SymbolInfo(_ context.Context, symbol string) (market.SymbolInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SymbolInfoErr != nil {
		return market.SymbolInfo{}, p.SymbolInfoErr
	}
	info, ok := p.symbols[symbol]
	if !ok {
		return market.SymbolInfo{Symbol: symbol, PointSize: 0.0001, Digits: 5}, nil
	}
	return info, nil
}

func (p *Port) CurrentQuote(_ context.Context, symbol string) (market.Tick, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.QuoteErr != nil {
		return market.Tick{}, p.QuoteErr
	}
	ticks := p.ticks[symbol]
	if len(ticks) == 0 {
		return market.Tick{}, errNoQuote{symbol}
	}
	return ticks[len(ticks)-1], nil
}

// SeedRawTicks seeds wire-shaped records served verbatim by TicksRange and
// TicksFrom, for exercising the normalization path with heterogeneous or
// malformed shapes. When raw records are seeded they take precedence over
// typed ticks.
func (p *Port) SeedRawTicks(symbol string, raws ...market.RawTick) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raws[symbol] = append(p.raws[symbol], raws...)
}

func (p *Port) TicksRange(_ context.Context, symbol string, from, to time.Time, _ market.TickClass) ([]market.RawTick, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TicksRangeErr != nil {
		return nil, p.TicksRangeErr
	}
	if raws := p.raws[symbol]; len(raws) > 0 {
		out := make([]market.RawTick, len(raws))
		copy(out, raws)
		return out, nil
	}
	var out []market.RawTick
	for _, t := range p.ticks[symbol] {
		if !t.Time.Before(from) && !t.Time.After(to) {
			out = append(out, t.Raw())
		}
	}
	return out, nil
}

func (p *Port) TicksFrom(_ context.Context, symbol string, from time.Time, n int) ([]market.RawTick, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TicksFromErr != nil {
		return nil, p.TicksFromErr
	}
	if raws := p.raws[symbol]; len(raws) > 0 {
		out := make([]market.RawTick, len(raws))
		copy(out, raws)
		return out, nil
	}
	var out []market.RawTick
	for _, t := range p.ticks[symbol] {
		if !t.Time.Before(from) {
			out = append(out, t.Raw())
			if len(out) >= n {
				break
			}
		}
	}
	return out, nil
}

func (p *Port) Positions(_ context.Context, symbol string, ticket uint64) ([]market.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PositionsErr != nil {
		return nil, p.PositionsErr
	}
	var out []market.Position
	for _, pos := range p.Positions_ {
		if symbol != "" && pos.Symbol != symbol {
			continue
		}
		if ticket != 0 && pos.Ticket != ticket {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

func (p *Port) OrderSend(_ context.Context, req market.OrderRequest) (market.OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, req)
	if p.NextOrderResultErr != nil {
		err := p.NextOrderResultErr
		p.NextOrderResultErr = nil
		return market.OrderResult{}, err
	}
	if p.NextOrderResult != nil {
		res := *p.NextOrderResult
		p.NextOrderResult = nil
		return res, nil
	}
	p.NextTicket++
	return market.OrderResult{
		RetCode: market.RetDone,
		Ticket:  p.NextTicket,
		Deal:    p.NextTicket,
		Price:   req.Price,
		Volume:  req.Volume,
		Comment: req.Comment,
	}, nil
}

// Orders returns every order submitted so far, for test assertions.
func (p *Port) Orders() []market.OrderRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]market.OrderRequest, len(p.orders))
	copy(out, p.orders)
	return out
}

type errNoQuote struct{ symbol string }

func (e errNoQuote) Error() string { return "memport: no quote seeded for " + e.symbol }
