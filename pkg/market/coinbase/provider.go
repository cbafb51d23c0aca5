package coinbase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"earlybot/pkg/market"
	"earlybot/pkg/market/indicators"
)

// granularities maps config shorthand to API bucket names.
var granularities = map[string]struct {
	name string
	span time.Duration
}{
	"1m":  {"ONE_MINUTE", time.Minute},
	"5m":  {"FIVE_MINUTE", 5 * time.Minute},
	"15m": {"FIFTEEN_MINUTE", 15 * time.Minute},
	"30m": {"THIRTY_MINUTE", 30 * time.Minute},
	"1h":  {"ONE_HOUR", time.Hour},
	"2h":  {"TWO_HOUR", 2 * time.Hour},
	"6h":  {"SIX_HOUR", 6 * time.Hour},
	"1d":  {"ONE_DAY", 24 * time.Hour},
}

const defaultGranularity = "1h"

// Provider adapts the Coinbase client to the market.Provider interface.
type Provider struct {
	client      *Client
	granularity string
}

// NewProvider wraps a client with the given candle granularity shorthand.
func NewProvider(client *Client, granularity string) (*Provider, error) {
	g := strings.ToLower(strings.TrimSpace(granularity))
	if g == "" {
		g = defaultGranularity
	}
	if _, ok := granularities[g]; !ok {
		return nil, fmt.Errorf("coinbase: unsupported granularity %q", granularity)
	}
	return &Provider{client: client, granularity: g}, nil
}

// Snapshot fetches the product summary and a full candle window.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	product, err := p.client.GetProduct(ctx, symbol)
	if err != nil {
		return nil, err
	}

	g := granularities[p.granularity]
	end := time.Now().UTC()
	start := end.Add(-time.Duration(market.SnapshotWindow) * g.span)
	raw, err := p.client.GetCandles(ctx, symbol, g.name, start, end)
	if err != nil {
		return nil, err
	}

	candles := toChronological(raw)
	if len(candles) > market.SnapshotWindow {
		candles = candles[len(candles)-market.SnapshotWindow:]
	}
	return &market.Snapshot{
		Symbol:    product.ProductID,
		Last:      parseFloat(product.Price),
		Change24h: parseFloat(product.PricePercentChange24),
		Volume24h: parseFloat(product.Volume24h),
		Candles:   candles,
		Timestamp: end,
	}, nil
}

// CurrentPrice fetches the latest product price only.
func (p *Provider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	product, err := p.client.GetProduct(ctx, symbol)
	if err != nil {
		return 0, err
	}
	price := parseFloat(product.Price)
	if price <= 0 {
		return 0, fmt.Errorf("coinbase: no price for %s", symbol)
	}
	return price, nil
}

// toChronological converts wire candles (newest first) into oldest-first
// OHLCV values.
func toChronological(raw []Candle) []indicators.Candle {
	type stamped struct {
		start  int64
		candle indicators.Candle
	}
	buckets := make([]stamped, 0, len(raw))
	for _, c := range raw {
		start, err := strconv.ParseInt(strings.TrimSpace(c.Start), 10, 64)
		if err != nil {
			continue
		}
		buckets = append(buckets, stamped{
			start: start,
			candle: indicators.Candle{
				Open:   parseFloat(c.Open),
				High:   parseFloat(c.High),
				Low:    parseFloat(c.Low),
				Close:  parseFloat(c.Close),
				Volume: parseFloat(c.Volume),
			},
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].start < buckets[j].start })
	out := make([]indicators.Candle, len(buckets))
	for i, b := range buckets {
		out[i] = b.candle
	}
	return out
}

func init() {
	market.RegisterProvider("coinbase", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []Option{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		return NewProvider(NewClient(opts...), cfg.Granularity)
	})
}
