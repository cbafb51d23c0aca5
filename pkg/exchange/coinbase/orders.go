package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"earlybot/pkg/exchange"
)

// Wire payloads for the Advanced Trade order endpoints.

type createOrderRequest struct {
	ClientOrderID string             `json:"client_order_id"`
	ProductID     string             `json:"product_id"`
	Side          string             `json:"side"` // "BUY" or "SELL"
	OrderConfig   orderConfiguration `json:"order_configuration"`
}

type orderConfiguration struct {
	MarketIOC *marketIOCConfig `json:"market_market_ioc,omitempty"`
	LimitGTC  *limitGTCConfig  `json:"limit_limit_gtc,omitempty"`
}

type marketIOCConfig struct {
	BaseSize string `json:"base_size"`
}

type limitGTCConfig struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price"`
}

type createOrderResponse struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"order_id"`
	ErrorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"error_response"`
}

type wireOrder struct {
	OrderID            string `json:"order_id"`
	ClientOrderID      string `json:"client_order_id"`
	ProductID          string `json:"product_id"`
	Side               string `json:"side"`
	Status             string `json:"status"`
	FilledSize         string `json:"filled_size"`
	AverageFilledPrice string `json:"average_filled_price"`
	TotalFees          string `json:"total_fees"`
	CreatedTime        string `json:"created_time"`
}

type getOrderResponse struct {
	Order wireOrder `json:"order"`
}

type listOrdersResponse struct {
	Orders []wireOrder `json:"orders"`
}

type batchCancelRequest struct {
	OrderIDs []string `json:"order_ids"`
}

type batchCancelResponse struct {
	Results []struct {
		Success bool   `json:"success"`
		OrderID string `json:"order_id"`
	} `json:"results"`
}

type accountsResponse struct {
	Accounts []struct {
		Currency         string `json:"currency"`
		AvailableBalance struct {
			Value string `json:"value"`
		} `json:"available_balance"`
		Hold struct {
			Value string `json:"value"`
		} `json:"hold"`
	} `json:"accounts"`
}

// PlaceOrder submits a spot order. A zero limit price maps to a market IOC
// order; otherwise a GTC limit order is placed.
func (c *Client) PlaceOrder(ctx context.Context, order exchange.OrderRequest) (*exchange.OrderAck, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	req := createOrderRequest{
		ClientOrderID: order.ClientOrderID,
		ProductID:     order.Symbol,
		Side:          strings.ToUpper(string(order.Side)),
	}
	if order.LimitPrice > 0 {
		req.OrderConfig.LimitGTC = &limitGTCConfig{
			BaseSize:   formatDecimal(order.Quantity),
			LimitPrice: formatDecimal(order.LimitPrice),
		}
	} else {
		req.OrderConfig.MarketIOC = &marketIOCConfig{BaseSize: formatDecimal(order.Quantity)}
	}

	var resp createOrderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v3/brokerage/orders", "", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		if strings.Contains(strings.ToUpper(resp.ErrorResponse.Error), "INSUFFICIENT_FUND") {
			return nil, exchange.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("coinbase: order rejected: %s: %s", resp.ErrorResponse.Error, resp.ErrorResponse.Message)
	}

	// The create response does not carry fill details; query them so callers
	// see a consistent ack shape across venues.
	ack, err := c.OrderStatus(ctx, resp.OrderID)
	if err != nil {
		return &exchange.OrderAck{
			OrderID:       resp.OrderID,
			ClientOrderID: order.ClientOrderID,
			Symbol:        order.Symbol,
			Side:          order.Side,
			State:         exchange.OrderStatePending,
			Timestamp:     c.now().UTC(),
		}, nil
	}
	return ack, nil
}

// CancelOrder cancels a single order via the batch endpoint.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	var resp batchCancelResponse
	req := batchCancelRequest{OrderIDs: []string{orderID}}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v3/brokerage/orders/batch_cancel", "", req, &resp); err != nil {
		return err
	}
	for _, result := range resp.Results {
		if result.OrderID == orderID && result.Success {
			return nil
		}
	}
	return exchange.ErrOrderNotFound
}

// OrderStatus fetches the venue's view of a single order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (*exchange.OrderAck, error) {
	var resp getOrderResponse
	path := fmt.Sprintf("/api/v3/brokerage/orders/historical/%s", url.PathEscape(orderID))
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
			return nil, exchange.ErrOrderNotFound
		}
		return nil, err
	}
	if resp.Order.OrderID == "" {
		return nil, exchange.ErrOrderNotFound
	}
	return toAck(resp.Order), nil
}

// OrderStatusByClientID resolves an order through the historical listing,
// used to reconcile a submission whose outcome is unknown.
func (c *Client) OrderStatusByClientID(ctx context.Context, clientOrderID string) (*exchange.OrderAck, error) {
	query := url.Values{}
	query.Set("client_order_id", clientOrderID)

	var resp listOrdersResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/brokerage/orders/historical/batch", query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	for _, order := range resp.Orders {
		if order.ClientOrderID == clientOrderID {
			return toAck(order), nil
		}
	}
	return nil, exchange.ErrOrderNotFound
}

// Balances lists non-zero account balances.
func (c *Client) Balances(ctx context.Context) ([]exchange.Balance, error) {
	var resp accountsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/brokerage/accounts", "", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]exchange.Balance, 0, len(resp.Accounts))
	for _, account := range resp.Accounts {
		available := parseFloat(account.AvailableBalance.Value)
		hold := parseFloat(account.Hold.Value)
		if available == 0 && hold == 0 {
			continue
		}
		out = append(out, exchange.Balance{
			Asset:     account.Currency,
			Available: available,
			Hold:      hold,
		})
	}
	return out, nil
}

func toAck(order wireOrder) *exchange.OrderAck {
	ack := &exchange.OrderAck{
		OrderID:       order.OrderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.ProductID,
		Side:          exchange.Side(strings.ToLower(order.Side)),
		State:         mapState(order.Status),
		FilledQty:     parseFloat(order.FilledSize),
		AvgFillPrice:  parseFloat(order.AverageFilledPrice),
		Fee:           parseFloat(order.TotalFees),
	}
	if ts, err := time.Parse(time.RFC3339, order.CreatedTime); err == nil {
		ack.Timestamp = ts
	}
	return ack
}

func mapState(status string) exchange.OrderState {
	switch strings.ToUpper(status) {
	case "FILLED":
		return exchange.OrderStateFilled
	case "PARTIALLY_FILLED":
		return exchange.OrderStatePartiallyFilled
	case "CANCELLED", "EXPIRED":
		return exchange.OrderStateCancelled
	case "REJECTED", "FAILED":
		return exchange.OrderStateRejected
	default:
		return exchange.OrderStatePending
	}
}

// Registry hook for exchange.Config.
func init() {
	exchange.RegisterProvider("coinbase", func(name string, cfg *exchange.ProviderConfig) (exchange.Provider, error) {
		opts := []Option{}
		switch {
		case cfg.BaseURL != "":
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		case cfg.Sandbox:
			opts = append(opts, WithBaseURL(sandboxBaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.RateLimit > 0 {
			opts = append(opts, WithRateLimit(cfg.RateLimit))
		}
		return NewClient(cfg.APIKey, cfg.APISecret, opts...), nil
	})
}
