package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide indicates whether an order buys or sells.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is recorded on the trade history only; every simulated order
// fills in full at the execution price regardless of type.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// TimeInForce is recorded on the trade history only.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
)

// OrderStatus of a trade-history record. The simulated ledger has no
// partial fills, so every committed order is filled.
type OrderStatus string

const OrderStatusFilled OrderStatus = "filled"

// Order is a trade-history record.
type Order struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	Symbol      string           `json:"symbol"`
	Side        OrderSide        `json:"side"`
	Type        OrderType        `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Status      OrderStatus      `json:"status"`
	LimitPrice  decimal.Decimal  `json:"limit_price"` // execution price used
	TimeInForce TimeInForce      `json:"time_in_force"`
	RealizedPL  *decimal.Decimal `json:"realized_pl,omitempty"` // sells only
}

func (o Order) clone() Order {
	if o.RealizedPL != nil {
		pl := *o.RealizedPL
		o.RealizedPL = &pl
	}
	return o
}

// OrderRequest is the caller's instruction to the ledger.
type OrderRequest struct {
	Symbol      string
	Side        OrderSide
	Type        OrderType
	Quantity    decimal.Decimal
	TimeInForce TimeInForce
}

// ValidOrderTypes lists the order types accepted on input.
var ValidOrderTypes = map[OrderType]bool{
	OrderTypeMarket:    true,
	OrderTypeLimit:     true,
	OrderTypeStop:      true,
	OrderTypeStopLimit: true,
}

// ValidTimeInForce lists the time-in-force values accepted on input.
var ValidTimeInForce = map[TimeInForce]bool{
	TimeInForceDay: true,
	TimeInForceGTC: true,
}
