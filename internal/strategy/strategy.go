package strategy

import (
	"log"

	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/tick"
)

// Input is the evaluation context passed to every strategy.
type Input struct {
	Symbol   string
	Settings Settings
	Window   tick.Window
	Quote    market.Tick
	PipSize  float64
}

// Strategy computes Some(Signal) or None for one evaluation cycle. Every
// implementation must be total over |window| ∈ [1, N]; it never panics and
// never blocks.
type Strategy interface {
	Name() string
	Evaluate(in Input, logger *log.Logger) *Signal
}

// Registry resolves strategy_name to a Strategy.
type Registry struct {
	byName map[string]Strategy
}

// NewRegistry builds the registry with every built-in strategy.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Strategy)}
	for _, s := range []Strategy{
		RSI{},
		MovingAverage{},
		MACD{},
		Stochastic{},
		Breakout{},
		VWAP{},
		BollingerBands{},
		&AlwaysSignal{},
	} {
		r.byName[s.Name()] = s
	}
	return r
}

// Lookup returns the strategy registered under name, or (nil, false).
func (r *Registry) Lookup(name string) (Strategy, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Register adds or replaces a strategy, letting callers extend the
// registry (e.g. for tests) without touching this package.
func (r *Registry) Register(s Strategy) {
	r.byName[s.Name()] = s
}
