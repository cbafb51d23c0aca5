package exchange

import (
	"errors"
	"time"
)

// Side represents order direction.
type Side string

const (
	// SideBuy executes a buy.
	SideBuy Side = "buy"
	// SideSell executes a sell.
	SideSell Side = "sell"
)

// OrderState tracks the lifecycle of a submitted order.
type OrderState string

const (
	// OrderStatePending means the order is accepted but not yet filled.
	OrderStatePending OrderState = "pending"
	// OrderStatePartiallyFilled means part of the quantity has executed.
	OrderStatePartiallyFilled OrderState = "partially-filled"
	// OrderStateFilled means the order is fully executed.
	OrderStateFilled OrderState = "filled"
	// OrderStateCancelled means the order was cancelled before filling.
	OrderStateCancelled OrderState = "cancelled"
	// OrderStateRejected means the venue refused the order.
	OrderStateRejected OrderState = "rejected"
)

// Sentinel errors shared across venue implementations.
var (
	ErrOrderNotFound     = errors.New("exchange: order not found")
	ErrInsufficientFunds = errors.New("exchange: insufficient funds")
	ErrNoShortSelling    = errors.New("exchange: sell exceeds held quantity")
)

// OrderRequest describes a normalized spot order. Quantities are in base
// units; a zero LimitPrice means execute at market.
type OrderRequest struct {
	Symbol        string  `json:"symbol"` // Pair as traded, e.g. "BTC-USDC"
	Side          Side    `json:"side"`
	Quantity      float64 `json:"quantity"`
	LimitPrice    float64 `json:"limitPrice,omitempty"`
	ClientOrderID string  `json:"clientOrderId"`
}

// Validate checks the request invariants common to all venues.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return errors.New("exchange: symbol is required")
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return errors.New("exchange: side must be buy or sell")
	}
	if r.Quantity <= 0 {
		return errors.New("exchange: quantity must be positive")
	}
	if r.LimitPrice < 0 {
		return errors.New("exchange: limit price cannot be negative")
	}
	if r.ClientOrderID == "" {
		return errors.New("exchange: client order id is required")
	}
	return nil
}

// OrderAck reports the venue's view of an order after submission or lookup.
type OrderAck struct {
	OrderID       string     `json:"orderId"`
	ClientOrderID string     `json:"clientOrderId"`
	Symbol        string     `json:"symbol"`
	Side          Side       `json:"side"`
	State         OrderState `json:"state"`
	FilledQty     float64    `json:"filledQty"`
	AvgFillPrice  float64    `json:"avgFillPrice"`
	Fee           float64    `json:"fee"` // Quote-denominated commission.
	Timestamp     time.Time  `json:"timestamp"`
}

// Filled reports whether the order fully executed.
func (a *OrderAck) Filled() bool {
	return a != nil && a.State == OrderStateFilled
}

// Balance holds one asset's funds on the venue.
type Balance struct {
	Asset     string  `json:"asset"`
	Available float64 `json:"available"`
	Hold      float64 `json:"hold"` // Reserved by resting orders.
}
