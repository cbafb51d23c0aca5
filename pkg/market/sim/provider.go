package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"earlybot/pkg/market"
	"earlybot/pkg/market/indicators"
)

const (
	defaultSeedPrice = 100.0
	defaultDriftPct  = 0.002 // per-step random walk amplitude
)

// Provider is a deterministic random-walk market data source used for
// paper trading and tests. Prices evolve per snapshot request; a fixed
// seed makes sequences reproducible.
type Provider struct {
	mu sync.Mutex

	rng    *rand.Rand
	prices map[string]float64
	series map[string][]indicators.Candle
}

// New constructs a simulator with the given seed.
func New(seed int64) *Provider {
	return &Provider{
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64),
		series: make(map[string][]indicators.Candle),
	}
}

// SetPrice pins the current price for a symbol, overriding the walk.
func (p *Provider) SetPrice(symbol string, price float64) error {
	if price <= 0 {
		return fmt.Errorf("sim market: price must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[canonical(symbol)] = price
	return nil
}

// Snapshot advances the walk one step and returns the snapshot.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sym := canonical(symbol)
	price := p.step(sym)
	candles := p.appendCandle(sym, price)

	change := 0.0
	if first := candles[0].Close; first > 0 {
		change = (price - first) / first * 100
	}
	return &market.Snapshot{
		Symbol:    sym,
		Last:      price,
		Change24h: change,
		Volume24h: 1_000_000 * (0.5 + p.rng.Float64()),
		Candles:   append([]indicators.Candle(nil), candles...),
		Timestamp: time.Now().UTC(),
	}, nil
}

// CurrentPrice returns the latest walked price without recording a candle.
func (p *Provider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sym := canonical(symbol)
	if price, ok := p.prices[sym]; ok {
		return price, nil
	}
	return defaultSeedPrice, nil
}

// Prime backfills n candles so indicator warmup succeeds immediately.
func (p *Provider) Prime(symbol string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sym := canonical(symbol)
	for i := 0; i < n; i++ {
		price := p.step(sym)
		p.appendCandle(sym, price)
	}
}

func (p *Provider) step(symbol string) float64 {
	price, ok := p.prices[symbol]
	if !ok || price <= 0 {
		price = defaultSeedPrice
	}
	drift := (p.rng.Float64()*2 - 1) * defaultDriftPct
	price = math.Max(0.01, price*(1+drift))
	p.prices[symbol] = price
	return price
}

func (p *Provider) appendCandle(symbol string, price float64) []indicators.Candle {
	spread := price * defaultDriftPct
	candle := indicators.Candle{
		Open:   price - spread/2,
		High:   price + spread,
		Low:    price - spread,
		Close:  price,
		Volume: 1000 * (0.5 + p.rng.Float64()),
	}
	series := append(p.series[symbol], candle)
	if len(series) > market.SnapshotWindow {
		series = series[len(series)-market.SnapshotWindow:]
	}
	p.series[symbol] = series
	return series
}

func canonical(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func init() {
	market.RegisterProvider("sim", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		return New(time.Now().UnixNano()), nil
	})
}
