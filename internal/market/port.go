package market

import (
	"context"
	"time"
)

// Port is the Market Access Port: the fixed capability set the broker
// terminal exposes. Implementations must be safe for concurrent use by
// multiple bot loops.
type Port interface {
	// SymbolInfo returns static metadata for a symbol.
	SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)

	// CurrentQuote returns the latest top-of-book for a symbol.
	CurrentQuote(ctx context.Context, symbol string) (Tick, error)

	// TicksRange returns historical tick records in [from, to] for a
	// symbol, restricted to the given class. Records arrive in whatever
	// wire shape the terminal uses; callers normalize.
	TicksRange(ctx context.Context, symbol string, from, to time.Time, class TickClass) ([]RawTick, error)

	// TicksFrom returns up to n tick records for symbol at or after from.
	TicksFrom(ctx context.Context, symbol string, from time.Time, n int) ([]RawTick, error)

	// Positions returns open positions, optionally filtered by symbol
	// and/or ticket (zero value means "no filter").
	Positions(ctx context.Context, symbol string, ticket uint64) ([]Position, error)

	// OrderSend submits a market deal or a position close.
	OrderSend(ctx context.Context, req OrderRequest) (OrderResult, error)
}
