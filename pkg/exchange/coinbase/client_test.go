package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/exchange"
)

const (
	testKey    = "key-1"
	testSecret = "secret-1"
)

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func newTestClient(serverURL string) *Client {
	return NewClient(testKey, testSecret,
		WithBaseURL(serverURL),
		WithRateLimit(1000),
		WithClock(fixedClock),
	)
}

func TestRequestSigning(t *testing.T) {
	var captured *http.Request
	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		capturedBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(accountsResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Balances(context.Background())
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, testKey, captured.Header.Get("CB-ACCESS-KEY"))
	assert.Equal(t, "1700000000", captured.Header.Get("CB-ACCESS-TIMESTAMP"))

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte("1700000000" + http.MethodGet + "/api/v3/brokerage/accounts"))
	mac.Write(capturedBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), captured.Header.Get("CB-ACCESS-SIGN"))
}

func TestPlaceOrderMarketIOC(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/brokerage/orders", func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BUY", req.Side)
		require.NotNil(t, req.OrderConfig.MarketIOC)
		assert.Equal(t, "0.5", req.OrderConfig.MarketIOC.BaseSize)
		assert.Nil(t, req.OrderConfig.LimitGTC)
		_ = json.NewEncoder(w).Encode(createOrderResponse{Success: true, OrderID: "oid-1"})
	})
	mux.HandleFunc("/api/v3/brokerage/orders/historical/oid-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(getOrderResponse{Order: wireOrder{
			OrderID:            "oid-1",
			ClientOrderID:      "cloid-1",
			ProductID:          "BTC-USDC",
			Side:               "BUY",
			Status:             "FILLED",
			FilledSize:         "0.5",
			AverageFilledPrice: "65000",
			TotalFees:          "19.5",
			CreatedTime:        "2024-05-01T12:00:00Z",
		}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)
	ack, err := client.PlaceOrder(context.Background(), exchange.OrderRequest{
		Symbol:        "BTC-USDC",
		Side:          exchange.SideBuy,
		Quantity:      0.5,
		ClientOrderID: "cloid-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "oid-1", ack.OrderID)
	assert.True(t, ack.Filled())
	assert.InDelta(t, 65000.0, ack.AvgFillPrice, 1e-9)
	assert.InDelta(t, 19.5, ack.Fee, 1e-9)
}

func TestPlaceOrderInsufficientFunds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := createOrderResponse{Success: false}
		resp.ErrorResponse.Error = "INSUFFICIENT_FUND"
		resp.ErrorResponse.Message = "Insufficient balance in source account"
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.PlaceOrder(context.Background(), exchange.OrderRequest{
		Symbol:        "BTC-USDC",
		Side:          exchange.SideBuy,
		Quantity:      100,
		ClientOrderID: "cloid-2",
	})
	assert.ErrorIs(t, err, exchange.ErrInsufficientFunds)
}

func TestOrderStatusByClientID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/brokerage/orders/historical/batch", r.URL.Path)
		assert.Equal(t, "cloid-3", r.URL.Query().Get("client_order_id"))
		_ = json.NewEncoder(w).Encode(listOrdersResponse{Orders: []wireOrder{
			{OrderID: "oid-3", ClientOrderID: "cloid-3", Status: "OPEN"},
		}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ack, err := client.OrderStatusByClientID(context.Background(), "cloid-3")
	require.NoError(t, err)
	assert.Equal(t, "oid-3", ack.OrderID)
	assert.Equal(t, exchange.OrderStatePending, ack.State)
}

func TestOrderStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.OrderStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, exchange.ErrOrderNotFound)
}

func TestCancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req batchCancelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.OrderIDs, 1)
		resp := batchCancelResponse{}
		resp.Results = append(resp.Results, struct {
			Success bool   `json:"success"`
			OrderID string `json:"order_id"`
		}{Success: true, OrderID: req.OrderIDs[0]})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.NoError(t, client.CancelOrder(context.Background(), "BTC-USDC", "oid-4"))
}

func TestBalancesSkipZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accounts":[
			{"currency":"USDC","available_balance":{"value":"1500.5"},"hold":{"value":"0"}},
			{"currency":"BTC","available_balance":{"value":"0"},"hold":{"value":"0"}}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	balances, err := client.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "USDC", balances[0].Asset)
	assert.InDelta(t, 1500.5, balances[0].Available, 1e-9)
}
