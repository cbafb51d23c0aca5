package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (p *scriptedProvider) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[symbol] {
		return nil, errors.New("venue down")
	}
	p.calls++
	return &Snapshot{
		Symbol:    symbol,
		Last:      100 + float64(p.calls),
		Timestamp: time.Now(),
	}, nil
}

func (p *scriptedProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	snap, err := p.Snapshot(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return snap.Last, nil
}

func TestPollerKeepsLatestSnapshot(t *testing.T) {
	provider := &scriptedProvider{}
	poller := NewPoller(provider, []string{"BTC-USDC"}, 5*time.Millisecond)

	poller.Start(context.Background())
	defer poller.Stop()

	require.Eventually(t, func() bool {
		snap := poller.Latest("BTC-USDC")
		return snap != nil && snap.Last > 101
	}, time.Second, 5*time.Millisecond, "poller should refresh the latest snapshot")
}

func TestPollerToleratesProviderErrors(t *testing.T) {
	provider := &scriptedProvider{fail: map[string]bool{"ETH-USDC": true}}
	poller := NewPoller(provider, []string{"BTC-USDC", "ETH-USDC"}, 5*time.Millisecond)

	poller.Start(context.Background())
	defer poller.Stop()

	require.Eventually(t, func() bool {
		return poller.Latest("BTC-USDC") != nil
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, poller.Latest("ETH-USDC"), "failed symbol keeps no snapshot")
}

func TestPollerObserverSeesEverySnapshot(t *testing.T) {
	provider := &scriptedProvider{}

	var mu sync.Mutex
	var seen []string
	poller := NewPoller(provider, []string{"BTC-USDC"}, 5*time.Millisecond,
		WithObserver(func(snap *Snapshot) {
			mu.Lock()
			seen = append(seen, snap.Symbol)
			mu.Unlock()
		}))

	poller.Start(context.Background())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2
	}, time.Second, 5*time.Millisecond)
	poller.Stop()

	mu.Lock()
	defer mu.Unlock()
	for _, sym := range seen {
		assert.Equal(t, "BTC-USDC", sym)
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	poller := NewPoller(&scriptedProvider{}, []string{"BTC-USDC"}, time.Hour)
	poller.Start(context.Background())
	poller.Stop()
	poller.Stop()
}
