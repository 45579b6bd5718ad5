// Package market models the Market Access Port: the abstract
// capability set the broker terminal exposes to the controller. Everything
// below this package boundary (the terminal DLL, its gRPC gateway, the wire
// protocol) is an external collaborator; the controller only ever depends
// on the Port interface.
package market

import "time"

// Direction is a trade side.
type Direction int

const (
	Buy Direction = iota
	Sell
)

func (d Direction) String() string {
	if d == Sell {
		return "SELL"
	}
	return "BUY"
}

// TickClass selects which tick stream a history query draws from.
type TickClass int

const (
	// TickClassAll returns every tick (trade + info).
	TickClassAll TickClass = iota
	// TickClassInfo returns only best bid/ask updates.
	TickClassInfo
)

// Tick is a single bid/ask observation.
type Tick struct {
	Time time.Time
	Bid  float64
	Ask  float64
}

// Valid reports whether the tick satisfies the canonical validity rule:
// bid > 0 ∧ ask > 0 ∧ ask ≥ bid.
func (t Tick) Valid() bool {
	return t.Bid > 0 && t.Ask > 0 && t.Ask >= t.Bid
}

// Mid returns the midpoint price.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// RawTick is one broker history record in whichever of the three wire
// shapes the terminal returns it: a field-named structured
// record, an attribute-addressed record, or a positional tuple. History
// queries surface records in this form; normalizing them into canonical
// Ticks is the tick acquisition pipeline's job, not the port's.
type RawTick interface {
	isRawTick()
}

// StructuredTick is a fixed-field record addressable by string key, e.g. a
// decoded JSON object or a database row map.
type StructuredTick struct {
	Time   time.Time
	Fields map[string]float64
}

func (StructuredTick) isRawTick() {}

// AttributedTick is a record addressable by attribute name, the duck-typed
// object shape the terminal's tick API returns. The Has* flags represent
// "this attribute is simply absent" without a sentinel price value.
type AttributedTick struct {
	Time           time.Time
	Bid, Ask       float64
	HasBid, HasAsk bool
}

func (AttributedTick) isRawTick() {}

// TupleTick is a positional record: slot 0 is bid, slot 1 is ask.
type TupleTick struct {
	Time   time.Time
	Values []float64
}

func (TupleTick) isRawTick() {}

// Raw wraps a canonical tick in its attribute-addressed wire shape, for
// port implementations that already hold typed ticks.
func (t Tick) Raw() RawTick {
	return AttributedTick{Time: t.Time, Bid: t.Bid, Ask: t.Ask, HasBid: true, HasAsk: true}
}

// SymbolInfo is the static metadata needed for pip math and spread checks.
type SymbolInfo struct {
	Symbol          string
	PointSize       float64
	Digits          int32
	StopLevelPoints float64
	VolumeStep      float64
}

// Position is an open position, used for unrealized P&L and manual close.
type Position struct {
	Ticket    uint64
	Symbol    string
	Direction Direction
	Volume    float64
	OpenPrice float64
	Profit    float64
	Comment   string
	OpenTime  time.Time
}

// FillingMode is a broker-side execution policy.
type FillingMode int

const (
	FillIOC FillingMode = iota
	FillFOK
	FillReturn
)

func (f FillingMode) String() string {
	switch f {
	case FillIOC:
		return "IOC"
	case FillFOK:
		return "FOK"
	case FillReturn:
		return "RETURN"
	default:
		return "UNKNOWN"
	}
}

// FillingLadder is the strictly-ordered retry sequence for unsupported
// filling mode rejections.
var FillingLadder = []FillingMode{FillIOC, FillFOK, FillReturn}

// OrderAction distinguishes a new deal from a position close.
type OrderAction int

const (
	ActionDeal OrderAction = iota
	ActionClose
)

// OrderRequest is submitted to order_send.
type OrderRequest struct {
	Action      OrderAction
	Symbol      string
	Direction   Direction
	Volume      float64
	Price       float64
	StopLoss    float64
	TakeProfit  float64
	Filling     FillingMode
	Comment     string
	Ticket      uint64 // only set for ActionClose
}

// RetCode is the broker's classification of an order_send outcome. The
// numeric space mirrors the MQL5 trade return codes so the abstract port
// keeps a fine-grained success/retry/reject taxonomy.
type RetCode uint32

const (
	RetDone            RetCode = 10009
	RetDonePartial     RetCode = 10010
	RetPlaced          RetCode = 10008
	RetRequote         RetCode = 10004
	RetPriceChanged    RetCode = 10020
	RetReject          RetCode = 10006
	RetInvalidStops    RetCode = 10016
	RetInvalidFill     RetCode = 10030
	RetNoMoney         RetCode = 10019
	RetTimeout         RetCode = 10012
	RetNoConnection    RetCode = 10031
	RetTradeDisabled   RetCode = 10017
	RetError           RetCode = 10011
)

// IsSuccess reports whether retCode indicates the order was executed.
func IsSuccess(retCode RetCode) bool {
	return retCode == RetDone || retCode == RetDonePartial || retCode == RetPlaced
}

// IsFillingUnsupported reports whether retCode indicates the requested
// filling mode is not accepted by the broker for this symbol.
func IsFillingUnsupported(retCode RetCode) bool {
	return retCode == RetInvalidFill
}

// IsStopDistanceRejected reports whether retCode indicates SL/TP violated
// the broker's minimum stop distance.
func IsStopDistanceRejected(retCode RetCode) bool {
	return retCode == RetInvalidStops
}

// OrderResult is the outcome of order_send.
type OrderResult struct {
	RetCode   RetCode
	Ticket    uint64
	Deal      uint64
	Price     float64
	Volume    float64
	Comment   string
	Profit    float64 // set on close, when the broker reports realized P&L
}
