package sim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"earlybot/pkg/exchange"
)

const (
	defaultInitialCash   = 100000.0
	defaultFallbackPrice = 100.0
	defaultSlippagePct   = 0.002
	defaultFeeRate       = 0.006 // Taker fee fraction of notional.

	quoteAsset = "USDC"
)

// Provider is a paper-trading spot exchange that keeps cash, holdings and an
// order ledger in memory. Orders fill synchronously at the latest mark price
// (plus slippage) or at the provided limit price. Short selling is refused.
type Provider struct {
	mu sync.Mutex

	nextOrderID int64

	cash     float64
	feeRate  float64
	markPx   map[string]float64
	holdings map[string]*holding

	orders         map[string]*exchange.OrderAck // by venue order id
	ordersByClient map[string]*exchange.OrderAck // by client order id
}

type holding struct {
	Symbol string
	Qty    float64 // Base units, never negative.
	Entry  float64 // Average entry price.
}

// Option configures the simulator.
type Option func(*Provider)

// WithInitialCash seeds the quote balance.
func WithInitialCash(cash float64) Option {
	return func(p *Provider) {
		if cash > 0 {
			p.cash = cash
		}
	}
}

// WithFeeRate overrides the taker fee fraction.
func WithFeeRate(rate float64) Option {
	return func(p *Provider) {
		if rate >= 0 {
			p.feeRate = rate
		}
	}
}

// New constructs a simulator with default cash.
func New(opts ...Option) *Provider {
	p := &Provider{
		nextOrderID:    1,
		cash:           defaultInitialCash,
		feeRate:        defaultFeeRate,
		markPx:         make(map[string]float64),
		holdings:       make(map[string]*holding),
		orders:         make(map[string]*exchange.OrderAck),
		ordersByClient: make(map[string]*exchange.OrderAck),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func canonical(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }

// SetMarkPrice updates the reference price used for market fills.
func (p *Provider) SetMarkPrice(symbol string, price float64) error {
	if price <= 0 {
		return fmt.Errorf("sim: mark price must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markPx[canonical(symbol)] = price
	return nil
}

// PlaceOrder fills the order synchronously. Resubmitting a client order id
// that already executed returns the original ack unchanged, so retries after
// an ambiguous failure are safe.
func (p *Provider) PlaceOrder(ctx context.Context, order exchange.OrderRequest) (*exchange.OrderAck, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if prior, ok := p.ordersByClient[order.ClientOrderID]; ok {
		return cloneAck(prior), nil
	}

	symbol := canonical(order.Symbol)
	price := order.LimitPrice
	if price <= 0 {
		price = p.resolveMarkPriceLocked(symbol)
		if order.Side == exchange.SideBuy {
			price *= 1 + defaultSlippagePct
		} else {
			price *= math.Max(0, 1-defaultSlippagePct)
		}
	}

	notional := order.Quantity * price
	fee := notional * p.feeRate

	switch order.Side {
	case exchange.SideBuy:
		if p.cash < notional+fee {
			return nil, exchange.ErrInsufficientFunds
		}
		p.cash -= notional + fee
		p.applyBuyLocked(symbol, order.Quantity, price)
	case exchange.SideSell:
		held := p.holdings[symbol]
		if held == nil || held.Qty < order.Quantity-1e-10 {
			return nil, exchange.ErrNoShortSelling
		}
		p.cash += notional - fee
		p.applySellLocked(symbol, order.Quantity)
	}
	p.markPx[symbol] = price

	ack := &exchange.OrderAck{
		OrderID:       strconv.FormatInt(p.nextOrderID, 10),
		ClientOrderID: order.ClientOrderID,
		Symbol:        symbol,
		Side:          order.Side,
		State:         exchange.OrderStateFilled,
		FilledQty:     order.Quantity,
		AvgFillPrice:  price,
		Fee:           fee,
		Timestamp:     time.Now().UTC(),
	}
	p.nextOrderID++
	p.orders[ack.OrderID] = ack
	p.ordersByClient[ack.ClientOrderID] = ack
	return cloneAck(ack), nil
}

func (p *Provider) applyBuyLocked(symbol string, qty, price float64) {
	state := p.holdings[symbol]
	if state == nil {
		p.holdings[symbol] = &holding{Symbol: symbol, Qty: qty, Entry: price}
		return
	}
	newQty := state.Qty + qty
	state.Entry = (state.Qty*state.Entry + qty*price) / newQty
	state.Qty = newQty
}

func (p *Provider) applySellLocked(symbol string, qty float64) {
	state := p.holdings[symbol]
	if state == nil {
		return
	}
	state.Qty -= qty
	if state.Qty < 1e-10 {
		delete(p.holdings, symbol)
	}
}

// CancelOrder is a no-op for filled ledger entries; unknown orders error.
func (p *Provider) CancelOrder(ctx context.Context, symbol, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.orders[orderID]; !ok {
		return exchange.ErrOrderNotFound
	}
	return nil
}

// OrderStatus returns the ledger entry for a venue order id.
func (p *Provider) OrderStatus(ctx context.Context, orderID string) (*exchange.OrderAck, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ack, ok := p.orders[orderID]
	if !ok {
		return nil, exchange.ErrOrderNotFound
	}
	return cloneAck(ack), nil
}

// OrderStatusByClientID returns the ledger entry for a client order id.
func (p *Provider) OrderStatusByClientID(ctx context.Context, clientOrderID string) (*exchange.OrderAck, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ack, ok := p.ordersByClient[clientOrderID]
	if !ok {
		return nil, exchange.ErrOrderNotFound
	}
	return cloneAck(ack), nil
}

// Balances reports quote cash plus every held base asset, sorted by asset.
func (p *Provider) Balances(ctx context.Context) ([]exchange.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := []exchange.Balance{{Asset: quoteAsset, Available: p.cash}}
	for symbol, state := range p.holdings {
		out = append(out, exchange.Balance{Asset: baseAsset(symbol), Available: state.Qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

// Cash returns the current quote balance.
func (p *Provider) Cash() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// Holding returns the held base quantity and average entry for a symbol.
func (p *Provider) Holding(symbol string) (qty, entry float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := p.holdings[canonical(symbol)]
	if state == nil {
		return 0, 0
	}
	return state.Qty, state.Entry
}

func (p *Provider) resolveMarkPriceLocked(symbol string) float64 {
	if price, ok := p.markPx[symbol]; ok && price > 0 {
		return price
	}
	if state, ok := p.holdings[symbol]; ok && state.Entry > 0 {
		return state.Entry
	}
	return defaultFallbackPrice
}

// baseAsset strips the quote suffix from a dash-separated pair.
func baseAsset(symbol string) string {
	if i := strings.IndexByte(symbol, '-'); i > 0 {
		return symbol[:i]
	}
	return symbol
}

func cloneAck(ack *exchange.OrderAck) *exchange.OrderAck {
	copied := *ack
	return &copied
}

// Registry hook for exchange.Config.
func init() {
	exchange.RegisterProvider("sim", func(name string, cfg *exchange.ProviderConfig) (exchange.Provider, error) {
		return New(), nil
	})
}
