package exchange

import "context"

// Provider exposes spot trading capabilities in an exchange-agnostic fashion.
type Provider interface {
	// Order management.
	PlaceOrder(ctx context.Context, order OrderRequest) (*OrderAck, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error

	// Status lookup. OrderStatusByClientID supports reconciliation after an
	// ambiguous submission failure; both return ErrOrderNotFound when the
	// venue has no record of the order.
	OrderStatus(ctx context.Context, orderID string) (*OrderAck, error)
	OrderStatusByClientID(ctx context.Context, clientOrderID string) (*OrderAck, error)

	// Account information.
	Balances(ctx context.Context) ([]Balance, error)
}
