package paper

import (
	"time"

	"alortrader/pkg/id"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is an immutable instruction to trade, either user-submitted or
// synthesized by the ledger as a stop/take exit. Nil stop-loss/take-profit
// means "leave the position's current value alone".
type Order struct {
	ID         string
	Symbol     string
	Side       Side
	Quantity   float64
	Price      float64
	StopLoss   *float64
	TakeProfit *float64
	CreatedAt  time.Time
}

// NewOrder builds an order stamped with a fresh ID and the current UTC time.
func NewOrder(symbol string, side Side, quantity, price float64) Order {
	return Order{
		ID:        id.New(),
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}
}
