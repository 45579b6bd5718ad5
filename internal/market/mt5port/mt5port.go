// Package mt5port implements market.Port over the broker terminal's gRPC
// gateway. Every reply carries a Data/Error envelope; transient transport
// failures are retried with jittered exponential backoff.
//
// The gateway does not expose arbitrary historical tick-range retrieval
// (it is not a backtesting API), and the tick acquisition ladder needs
// one, so this port maintains a small per-symbol ring buffer fed by the
// live OnSymbolTick stream and serves TicksRange/TicksFrom out of it.
package mt5port

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	pb "git.mtapi.io/root/mrpc-proto/mt5/libraries/go"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/tradepulse/hft-controller/internal/errs"
	"github.com/tradepulse/hft-controller/internal/market"
)

const ringCapacity = 4096

// Account is a gRPC client session against the broker terminal.
type Account struct {
	User       uint64
	Password   string
	GrpcServer string
	Id         uuid.UUID

	conn        *grpc.ClientConn
	connClient  pb.ConnectionClient
	subClient   pb.SubscriptionServiceClient
	mktClient   pb.MarketInfoClient
	acctClient  pb.AccountHelperClient
	tradeClient pb.TradingHelperClient

	mu      sync.Mutex
	rings   map[string]*ring
	streams map[string]context.CancelFunc
}

type ring struct {
	mu    sync.Mutex
	ticks []market.Tick
}

func (r *ring) push(t market.Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, t)
	if len(r.ticks) > ringCapacity {
		r.ticks = r.ticks[len(r.ticks)-ringCapacity:]
	}
}

func (r *ring) snapshot() []market.Tick {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]market.Tick, len(r.ticks))
	copy(out, r.ticks)
	return out
}

// New dials the broker terminal's gRPC gateway and returns a connected
// Account.
func New(user uint64, password, grpcServer string) (*Account, error) {
	if grpcServer == "" {
		grpcServer = "mt5.mrpc.pro:443"
	}

	host := grpcServer
	if strings.Contains(host, ":") {
		if h, _, err := net.SplitHostPort(grpcServer); err == nil {
			host = h
		}
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if ip := net.ParseIP(host); ip == nil && host != "" {
		tlsCfg.ServerName = host
	}

	dctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	bcfg := backoff.Config{
		BaseDelay:  200 * time.Millisecond,
		Multiplier: 1.6,
		Jitter:     0.2,
		MaxDelay:   3 * time.Second,
	}
	kp := keepalive.ClientParameters{
		Time:                20 * time.Second,
		Timeout:             5 * time.Second,
		PermitWithoutStream: true,
	}

	conn, err := grpc.DialContext(
		dctx,
		grpcServer,
		grpc.WithTransportCredentials(credentials.NewTLS(tlsCfg)),
		grpc.WithBlock(),
		grpc.WithConnectParams(grpc.ConnectParams{Backoff: bcfg, MinConnectTimeout: 5 * time.Second}),
		grpc.WithKeepaliveParams(kp),
	)
	if err != nil {
		return nil, errs.Wrap(errs.MarketAccessUnavailable, fmt.Sprintf("grpc dial to %s failed", grpcServer), err)
	}

	return &Account{
		User:        user,
		Password:    password,
		GrpcServer:  grpcServer,
		Id:          uuid.New(),
		conn:        conn,
		connClient:  pb.NewConnectionClient(conn),
		subClient:   pb.NewSubscriptionServiceClient(conn),
		mktClient:   pb.NewMarketInfoClient(conn),
		acctClient:  pb.NewAccountHelperClient(conn),
		tradeClient: pb.NewTradingHelperClient(conn),
		rings:       make(map[string]*ring),
		streams:     make(map[string]context.CancelFunc),
	}, nil
}

func (a *Account) headers() metadata.MD {
	return metadata.Pairs("id", a.Id.String())
}

// Close tears down the gRPC connection and any live tick subscriptions.
func (a *Account) Close() error {
	a.mu.Lock()
	for _, cancel := range a.streams {
		cancel()
	}
	a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// apiError is the gateway's in-band error envelope, present on every reply
// type as the Error arm of the Data/Error oneof.
type apiError interface {
	GetErrorCode() string
	GetErrorMessage() string
}

func fromAPIError(e apiError) error {
	return fmt.Errorf("api error %s: %s", e.GetErrorCode(), e.GetErrorMessage())
}

// withReconnectRetry retries transient network failures with jittered
// exponential backoff.
func withReconnectRetry[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T
	const (
		initialDelay = 300 * time.Millisecond
		maxDelay     = 3 * time.Second
	)
	delay := initialDelay
	for {
		res, err := call()
		if err == nil {
			return res, nil
		}
		if s, ok := status.FromError(err); ok && (s.Code() == codes.Unavailable || s.Code() == codes.DeadlineExceeded) {
			j := time.Duration(rand.Int63n(int64(delay/2+1))) - delay/4
			wait := delay + j
			select {
			case <-time.After(wait):
				delay *= 2
				if delay > maxDelay {
					delay = maxDelay
				}
				continue
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
		return zero, err
	}
}

func (a *Account) symbolInteger(ctx context.Context, symbol string, prop pb.SymbolInfoIntegerProperty) (int64, error) {
	reply, err := withReconnectRetry(ctx, func() (*pb.SymbolInfoIntegerReply, error) {
		return a.mktClient.SymbolInfoInteger(ctx, &pb.SymbolInfoIntegerRequest{Symbol: symbol, Type: prop})
	})
	if err != nil {
		return 0, err
	}
	if e := reply.GetError(); e != nil {
		return 0, fromAPIError(e)
	}
	return reply.GetData().Value, nil
}

func (a *Account) symbolDouble(ctx context.Context, symbol string, prop pb.SymbolInfoDoubleProperty) (float64, error) {
	reply, err := withReconnectRetry(ctx, func() (*pb.SymbolInfoDoubleReply, error) {
		return a.mktClient.SymbolInfoDouble(ctx, &pb.SymbolInfoDoubleRequest{Symbol: symbol, Type: prop})
	})
	if err != nil {
		return 0, err
	}
	if e := reply.GetError(); e != nil {
		return 0, fromAPIError(e)
	}
	return reply.GetData().Value, nil
}

// SymbolInfo implements market.Port.
func (a *Account) SymbolInfo(ctx context.Context, symbol string) (market.SymbolInfo, error) {
	ctx = metadata.NewOutgoingContext(ctx, a.headers())

	digits, err := a.symbolInteger(ctx, symbol, pb.SymbolInfoIntegerProperty_SYMBOL_DIGITS)
	if err != nil {
		return market.SymbolInfo{}, errs.Wrap(errs.MarketAccessUnavailable, "symbol digits lookup failed", err)
	}
	point, err := a.symbolDouble(ctx, symbol, pb.SymbolInfoDoubleProperty_SYMBOL_POINT)
	if err != nil {
		return market.SymbolInfo{}, errs.Wrap(errs.MarketAccessUnavailable, "symbol point lookup failed", err)
	}
	stopLevel, _ := a.symbolInteger(ctx, symbol, pb.SymbolInfoIntegerProperty_SYMBOL_TRADE_STOPS_LEVEL)
	volStep, _ := a.symbolDouble(ctx, symbol, pb.SymbolInfoDoubleProperty_SYMBOL_VOLUME_STEP)

	return market.SymbolInfo{
		Symbol:          symbol,
		PointSize:       point,
		Digits:          int32(digits),
		StopLevelPoints: float64(stopLevel),
		VolumeStep:      volStep,
	}, nil
}

// CurrentQuote implements market.Port.
func (a *Account) CurrentQuote(ctx context.Context, symbol string) (market.Tick, error) {
	ctx = metadata.NewOutgoingContext(ctx, a.headers())
	reply, err := withReconnectRetry(ctx, func() (*pb.SymbolInfoTickRequestReply, error) {
		return a.mktClient.SymbolInfoTick(ctx, &pb.SymbolInfoTickRequest{Symbol: symbol})
	})
	if err != nil {
		return market.Tick{}, errs.Wrap(errs.MarketDataUnavailable, "current quote unavailable", err)
	}
	if e := reply.GetError(); e != nil {
		return market.Tick{}, errs.Wrap(errs.MarketDataUnavailable, "current quote unavailable", fromAPIError(e))
	}
	tick := reply.GetData()
	t := market.Tick{Bid: tick.Bid, Ask: tick.Ask, Time: time.Unix(tick.Time, 0)}
	a.ringFor(symbol).push(t)
	return t, nil
}

// ensureStream lazily subscribes to the live tick stream for symbol so the
// ring buffer behind TicksRange/TicksFrom has data to serve.
func (a *Account) ensureStream(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.streams[symbol]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.streams[symbol] = cancel
	// a.mu is already held, so look up the ring inline rather than via
	// ringFor, which takes the same lock.
	r, ok := a.rings[symbol]
	if !ok {
		r = &ring{}
		a.rings[symbol] = r
	}
	go a.streamTicks(ctx, symbol, r)
}

func (a *Account) ringFor(symbol string) *ring {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.rings[symbol]
	if !ok {
		r = &ring{}
		a.rings[symbol] = r
	}
	return r
}

// streamTicks consumes the OnSymbolTick server stream and feeds the ring
// buffer, resubscribing after a short delay on stream failure.
func (a *Account) streamTicks(ctx context.Context, symbol string, r *ring) {
	sctx := metadata.NewOutgoingContext(ctx, a.headers())
	for {
		if ctx.Err() != nil {
			return
		}
		stream, err := a.subClient.OnSymbolTick(sctx, &pb.OnSymbolTickRequest{SymbolNames: []string{symbol}})
		if err != nil {
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}
		for {
			reply, err := stream.Recv()
			if err != nil {
				break
			}
			if reply.GetError() != nil {
				continue
			}
			data := reply.GetData()
			if data == nil || data.SymbolTick == nil {
				continue
			}
			st := data.SymbolTick
			t := market.Tick{Bid: st.Bid, Ask: st.Ask, Time: time.Now()}
			if st.Time != nil {
				t.Time = st.Time.AsTime()
			}
			r.push(t)
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return
		}
	}
}

// TicksRange implements market.Port by filtering the live-fed ring buffer.
// The INFO class restriction is a no-op here: the subscription stream only
// carries best bid/ask updates.
func (a *Account) TicksRange(ctx context.Context, symbol string, from, to time.Time, class market.TickClass) ([]market.RawTick, error) {
	a.ensureStream(symbol)
	all := a.ringFor(symbol).snapshot()
	var out []market.RawTick
	for _, t := range all {
		if t.Time.Before(from) || t.Time.After(to) {
			continue
		}
		out = append(out, t.Raw())
	}
	return out, nil
}

// TicksFrom implements market.Port by taking up to n ticks at/after from.
func (a *Account) TicksFrom(ctx context.Context, symbol string, from time.Time, n int) ([]market.RawTick, error) {
	a.ensureStream(symbol)
	all := a.ringFor(symbol).snapshot()
	var out []market.RawTick
	for _, t := range all {
		if t.Time.Before(from) {
			continue
		}
		out = append(out, t.Raw())
		if len(out) >= n {
			break
		}
	}
	return out, nil
}

// openedPositions fetches the gateway's open-position list.
func (a *Account) openedPositions(ctx context.Context) ([]*pb.PositionInfo, error) {
	reply, err := withReconnectRetry(ctx, func() (*pb.OpenedOrdersReply, error) {
		return a.acctClient.OpenedOrders(ctx, &pb.OpenedOrdersRequest{})
	})
	if err != nil {
		return nil, err
	}
	if e := reply.GetError(); e != nil {
		return nil, fromAPIError(e)
	}
	return reply.GetData().PositionInfos, nil
}

// Positions implements market.Port.
func (a *Account) Positions(ctx context.Context, symbol string, ticket uint64) ([]market.Position, error) {
	ctx = metadata.NewOutgoingContext(ctx, a.headers())
	infos, err := a.openedPositions(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.MarketAccessUnavailable, "positions lookup failed", err)
	}
	var out []market.Position
	for _, p := range infos {
		if symbol != "" && p.Symbol != symbol {
			continue
		}
		if ticket != 0 && p.Ticket != ticket {
			continue
		}
		dir := market.Buy
		if p.Type == pb.BMT5_ENUM_POSITION_TYPE_BMT5_POSITION_TYPE_SELL {
			dir = market.Sell
		}
		out = append(out, market.Position{
			Ticket:    p.Ticket,
			Symbol:    p.Symbol,
			Direction: dir,
			Volume:    p.Volume,
			OpenPrice: p.PriceOpen,
			Profit:    p.Profit,
			Comment:   p.Comment,
		})
	}
	return out, nil
}

// OrderSend implements market.Port.
//
// The gateway's OrderSendRequest carries no filling-mode field (the
// terminal negotiates filling per symbol), so req.Filling is accepted for
// interface compatibility and not forwarded. Unsupported-filling retcodes
// can still come back in the reply and are surfaced to the executor's
// ladder unchanged.
func (a *Account) OrderSend(ctx context.Context, req market.OrderRequest) (market.OrderResult, error) {
	ctx = metadata.NewOutgoingContext(ctx, a.headers())

	if req.Action == market.ActionClose {
		return a.orderClose(ctx, req)
	}

	orderType := pb.TMT5_ENUM_ORDER_TYPE_TMT5_ORDER_TYPE_BUY
	if req.Direction == market.Sell {
		orderType = pb.TMT5_ENUM_ORDER_TYPE_TMT5_ORDER_TYPE_SELL
	}

	slippage := uint64(10)
	sreq := &pb.OrderSendRequest{
		Symbol:    req.Symbol,
		Operation: orderType,
		Volume:    req.Volume,
		Slippage:  &slippage,
	}
	if req.Price > 0 {
		price := req.Price
		sreq.Price = &price
	}
	if req.StopLoss > 0 {
		sl := req.StopLoss
		sreq.StopLoss = &sl
	}
	if req.TakeProfit > 0 {
		tp := req.TakeProfit
		sreq.TakeProfit = &tp
	}
	if req.Comment != "" {
		comment := req.Comment
		sreq.Comment = &comment
	}

	reply, err := withReconnectRetry(ctx, func() (*pb.OrderSendReply, error) {
		return a.tradeClient.OrderSend(ctx, sreq)
	})
	if err != nil {
		return market.OrderResult{}, classifyOrderErr(err)
	}
	if e := reply.GetError(); e != nil {
		return market.OrderResult{}, errs.Wrap(errs.OrderRejected, "order_send failed", fromAPIError(e))
	}
	data := reply.GetData()
	return market.OrderResult{
		RetCode: market.RetCode(data.ReturnedCode),
		Ticket:  data.Order,
		Deal:    data.Deal,
		Price:   data.Price,
		Volume:  data.Volume,
		Comment: data.Comment,
	}, nil
}

// orderClose closes an open position by ticket. The close reply carries no
// realized-profit field, so the position's current Profit is captured just
// before closing and reported in the result.
func (a *Account) orderClose(ctx context.Context, req market.OrderRequest) (market.OrderResult, error) {
	var profit float64
	if infos, err := a.openedPositions(ctx); err == nil {
		for _, p := range infos {
			if p.Ticket == req.Ticket {
				profit = p.Profit
				break
			}
		}
	}

	reply, err := withReconnectRetry(ctx, func() (*pb.OrderCloseReply, error) {
		return a.tradeClient.OrderClose(ctx, &pb.OrderCloseRequest{
			Ticket:   req.Ticket,
			Volume:   req.Volume,
			Slippage: 10,
		})
	})
	if err != nil {
		return market.OrderResult{}, classifyOrderErr(err)
	}
	if e := reply.GetError(); e != nil {
		return market.OrderResult{}, errs.Wrap(errs.OrderRejected, "order_close failed", fromAPIError(e))
	}
	data := reply.GetData()
	return market.OrderResult{
		RetCode: market.RetCode(data.ReturnedCode),
		Ticket:  req.Ticket,
		Comment: data.ReturnedCodeDescription,
		Profit:  profit,
	}, nil
}

func classifyOrderErr(err error) error {
	if s, ok := status.FromError(err); ok && (s.Code() == codes.Unavailable || s.Code() == codes.DeadlineExceeded) {
		return errs.Wrap(errs.MarketAccessUnavailable, "order_send transport failure", err)
	}
	return errs.Wrap(errs.OrderRejected, "order_send failed", err)
}

var _ market.Port = (*Account)(nil)
