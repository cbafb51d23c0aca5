package coinbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/brokerage/market/products/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Product{
			ProductID:            "BTC-USDC",
			Price:                "65000.25",
			PricePercentChange24: "-1.5",
			Volume24h:            "1234.5",
		})
	})
	mux.HandleFunc("/api/v3/brokerage/market/products/BTC-USDC/candles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ONE_HOUR", r.URL.Query().Get("granularity"))
		// Wire order is newest first.
		_ = json.NewEncoder(w).Encode(candlesResponse{Candles: []Candle{
			{Start: "7200", Open: "64900", High: "65100", Low: "64800", Close: "65000.25", Volume: "10"},
			{Start: "3600", Open: "64800", High: "65000", Low: "64700", Close: "64900", Volume: "12"},
		}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGetProduct(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(WithBaseURL(server.URL), WithTimeout(2*time.Second))

	product, err := client.GetProduct(context.Background(), "BTC-USDC")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDC", product.ProductID)
	assert.InDelta(t, 65000.25, parseFloat(product.Price), 1e-9)
}

func TestGetProductNotFound(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(WithBaseURL(server.URL))

	_, err := client.GetProduct(context.Background(), "NOPE-USDC")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSnapshotOrdersCandlesChronologically(t *testing.T) {
	server := newTestServer(t)
	provider, err := NewProvider(NewClient(WithBaseURL(server.URL)), "1h")
	require.NoError(t, err)

	snap, err := provider.Snapshot(context.Background(), "BTC-USDC")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDC", snap.Symbol)
	assert.InDelta(t, 65000.25, snap.Last, 1e-9)
	require.Len(t, snap.Candles, 2)
	assert.InDelta(t, 64900.0, snap.Candles[0].Close, 1e-9)
	assert.InDelta(t, 65000.25, snap.Candles[1].Close, 1e-9)
}

func TestCurrentPrice(t *testing.T) {
	server := newTestServer(t)
	provider, err := NewProvider(NewClient(WithBaseURL(server.URL)), "")
	require.NoError(t, err)

	price, err := provider.CurrentPrice(context.Background(), "BTC-USDC")
	require.NoError(t, err)
	assert.InDelta(t, 65000.25, price, 1e-9)
}

func TestNewProviderRejectsUnknownGranularity(t *testing.T) {
	_, err := NewProvider(NewClient(), "3h")
	assert.Error(t, err)
}
