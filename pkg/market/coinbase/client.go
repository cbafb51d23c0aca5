package coinbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.coinbase.com"
	defaultHTTPTimeout = 10 * time.Second
)

// ErrProductNotFound indicates that the requested product is not listed.
var ErrProductNotFound = errors.New("coinbase: product not found")

// Client wraps the Coinbase Advanced Trade public market data endpoints.
// These endpoints require no authentication.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API host.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout adjusts the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 && c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient constructs a Coinbase market data client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Product is the subset of the product payload the engine consumes.
type Product struct {
	ProductID            string `json:"product_id"`
	Price                string `json:"price"`
	PricePercentChange24 string `json:"price_percentage_change_24h"`
	Volume24h            string `json:"volume_24h"`
}

// Candle is one OHLCV bucket as returned by the candles endpoint. All
// numeric fields arrive as strings on the wire.
type Candle struct {
	Start  string `json:"start"` // Unix seconds
	Low    string `json:"low"`
	High   string `json:"high"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

type candlesResponse struct {
	Candles []Candle `json:"candles"`
}

// GetProduct fetches the current product summary for a trading pair.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var out Product
	path := fmt.Sprintf("/api/v3/brokerage/market/products/%s", url.PathEscape(productID))
	if err := c.doGet(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	if out.ProductID == "" {
		return nil, ErrProductNotFound
	}
	return &out, nil
}

// GetCandles fetches OHLCV buckets for the window [start, end]. The API
// returns newest-first; callers reverse to chronological order.
func (c *Client) GetCandles(ctx context.Context, productID, granularity string, start, end time.Time) ([]Candle, error) {
	query := url.Values{}
	query.Set("start", strconv.FormatInt(start.Unix(), 10))
	query.Set("end", strconv.FormatInt(end.Unix(), 10))
	query.Set("granularity", granularity)

	var out candlesResponse
	path := fmt.Sprintf("/api/v3/brokerage/market/products/%s/candles", url.PathEscape(productID))
	if err := c.doGet(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out.Candles, nil
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("coinbase: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("coinbase: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("coinbase: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrProductNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("coinbase: http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("coinbase: decode response: %w", err)
		}
	}
	return nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
