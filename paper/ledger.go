package paper

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"alortrader/metrics"
)

var (
	// ErrConfig marks an invalid ledger configuration.
	ErrConfig = errors.New("paper: invalid ledger configuration")
	// ErrInvalidOrder marks an order that fails validation. The ledger is
	// left untouched.
	ErrInvalidOrder = errors.New("paper: invalid order")
	// ErrInsufficientFunds marks a buy whose cost exceeds available cash.
	ErrInsufficientFunds = errors.New("paper: insufficient funds")
	// ErrInsufficientPosition marks a sell larger than the open quantity.
	ErrInsufficientPosition = errors.New("paper: insufficient position")
)

// Ledger simulates order execution against tracked cash and positions.
// Every applied order is appended to a durable trade log.
//
// A Ledger is not safe for concurrent use: validate→mutate→log is not atomic,
// so access must be serialized by a single logical writer.
type Ledger struct {
	cash      float64
	positions map[string]*Position
	tradeLog  *TradeLog
	log       zerolog.Logger
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) LedgerOption { return func(l *Ledger) { l.log = log } }

// NewLedger opens (creating if absent) the trade log at logPath and returns a
// ledger funded with initialCash.
func NewLedger(initialCash float64, logPath string, opts ...LedgerOption) (*Ledger, error) {
	if initialCash <= 0 {
		return nil, fmt.Errorf("%w: initial cash must be positive, got %.2f", ErrConfig, initialCash)
	}
	tl, err := OpenTradeLog(logPath)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	l := &Ledger{
		cash:      initialCash,
		positions: make(map[string]*Position),
		tradeLog:  tl,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Cash returns the current balance.
func (l *Ledger) Cash() float64 { return l.cash }

// Position returns a copy of the open position for symbol, if any.
func (l *Ledger) Position(symbol string) (Position, bool) {
	p, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns a copy of all open positions keyed by symbol.
func (l *Ledger) Positions() map[string]Position {
	out := make(map[string]Position, len(l.positions))
	for sym, p := range l.positions {
		out[sym] = *p
	}
	return out
}

// Close flushes and closes the trade log.
func (l *Ledger) Close() error { return l.tradeLog.Close() }

// ProcessOrder validates and applies one order. All validation runs before any
// mutation, so a rejected order leaves cash, positions and the trade log
// untouched. On success exactly one trade-log row is appended, and a position
// whose quantity returns to zero is dropped from the active map.
func (l *Ledger) ProcessOrder(order Order) error {
	if err := l.validate(order); err != nil {
		return err
	}

	pos := l.positions[order.Symbol]
	if pos == nil {
		pos = &Position{Symbol: order.Symbol}
	}

	switch order.Side {
	case Buy:
		cost := order.Quantity * order.Price
		if cost > l.cash {
			metrics.OrdersRejected.WithLabelValues("insufficient_funds").Inc()
			return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, cost, l.cash)
		}
		l.cash -= cost
		pos.applyBuy(order.Quantity, order.Price)
	case Sell:
		if pos.Quantity < order.Quantity {
			metrics.OrdersRejected.WithLabelValues("insufficient_position").Inc()
			return fmt.Errorf("%w: want to sell %v, hold %v %s", ErrInsufficientPosition, order.Quantity, pos.Quantity, order.Symbol)
		}
		l.cash += order.Quantity * order.Price
		pos.applySell(order.Quantity)
	}

	if pos.Quantity > 0 {
		// Only levels present on the order overwrite the position's.
		if order.StopLoss != nil {
			pos.StopLoss = order.StopLoss
		}
		if order.TakeProfit != nil {
			pos.TakeProfit = order.TakeProfit
		}
	} else {
		pos.StopLoss = nil
		pos.TakeProfit = nil
	}

	if err := l.tradeLog.Append(order, pos, l.cash); err != nil {
		return fmt.Errorf("append trade log: %w", err)
	}

	if pos.Quantity > 0 {
		l.positions[order.Symbol] = pos
	} else {
		delete(l.positions, order.Symbol)
	}

	metrics.OrdersProcessed.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	l.log.Info().
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Float64("quantity", order.Quantity).
		Float64("price", order.Price).
		Float64("cash", l.cash).
		Msg("order applied")
	return nil
}

func (l *Ledger) validate(order Order) error {
	var err error
	switch {
	case order.Side != Buy && order.Side != Sell:
		err = fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, order.Side)
	case order.Quantity <= 0:
		err = fmt.Errorf("%w: quantity must be positive, got %v", ErrInvalidOrder, order.Quantity)
	case order.Price <= 0:
		err = fmt.Errorf("%w: price must be positive, got %v", ErrInvalidOrder, order.Price)
	case order.StopLoss != nil && order.TakeProfit != nil && *order.StopLoss >= *order.TakeProfit:
		err = fmt.Errorf("%w: stop loss %v must be below take profit %v", ErrInvalidOrder, *order.StopLoss, *order.TakeProfit)
	}
	if err != nil {
		metrics.OrdersRejected.WithLabelValues("invalid_order").Inc()
	}
	return err
}

// CheckStopTake reports whether the current price has crossed the position's
// stop-loss or take-profit, returning a synthetic full-size SELL order if so.
// The stop-loss wins when both are crossed. The check is advisory: it mutates
// nothing, and the caller realizes the exit by feeding the returned order back
// into ProcessOrder.
func (l *Ledger) CheckStopTake(symbol string, currentPrice float64) *Order {
	pos := l.positions[symbol]
	if pos == nil || pos.Quantity == 0 {
		return nil
	}
	if pos.StopLoss != nil && currentPrice <= *pos.StopLoss {
		o := NewOrder(symbol, Sell, pos.Quantity, currentPrice)
		o.StopLoss = pos.StopLoss
		return &o
	}
	if pos.TakeProfit != nil && currentPrice >= *pos.TakeProfit {
		o := NewOrder(symbol, Sell, pos.Quantity, currentPrice)
		o.TakeProfit = pos.TakeProfit
		return &o
	}
	return nil
}
