package strategy

import (
	"log"
	"sync/atomic"
)

// AlwaysSignal is the test strategy: it deterministically
// alternates BUY/SELL on each invocation with a fixed confidence, and must
// always produce a signal, even against an empty window, using the
// current quote. It exists to exercise downstream gates independent of any
// indicator math.
type AlwaysSignal struct {
	counter int64
}

func (*AlwaysSignal) Name() string { return "always_signal" }

func (s *AlwaysSignal) Evaluate(in Input, logger *log.Logger) *Signal {
	n := atomic.AddInt64(&s.counter, 1)
	kind := BuySignal
	price := in.Quote.Ask
	if n%2 == 0 {
		kind = SellSignal
		price = in.Quote.Bid
	}
	logger.Printf("[always_signal] window=%d invocation=%d kind=%s", in.Window.Len(), n, kind)
	return &Signal{Kind: kind, Price: price, Confidence: 0.5, Reason: "always_signal test strategy"}
}
