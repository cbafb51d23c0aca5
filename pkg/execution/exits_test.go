package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/exchange"
	"earlybot/pkg/portfolio"
)

func sellingVenue(price float64) *scriptedVenue {
	return &scriptedVenue{ack: &exchange.OrderAck{
		OrderID: "exit-1", State: exchange.OrderStateFilled, AvgFillPrice: price, Timestamp: time.Now(),
	}}
}

func openPosition(t *testing.T, state *portfolio.State, stop, take float64) {
	t.Helper()
	_, err := state.ApplyFill(portfolio.Fill{
		Symbol: "BTC-USDC", Side: exchange.SideBuy, Quantity: 2, Price: 100,
		StopLoss: stop, TakeProfit: take, Timestamp: time.Now(),
	})
	require.NoError(t, err)
}

func staticPrice(p float64) PriceFunc {
	return func(ctx context.Context, symbol string) (float64, error) { return p, nil }
}

func TestSweepClosesOnStopLoss(t *testing.T) {
	state := portfolio.NewState(10000)
	openPosition(t, state, 95, 110)

	venue := sellingVenue(94)
	watcher := NewExitWatcher(NewController(venue, state), state, staticPrice(94))

	exits := watcher.Sweep(context.Background())
	require.Len(t, exits, 1)
	assert.Equal(t, ExitStopLoss, exits[0].Kind)
	assert.Nil(t, state.Position("BTC-USDC"), "position fully closed")
	assert.InDelta(t, 2*(94.0-100.0), exits[0].Realized, 1e-6)
}

func TestSweepClosesOnTakeProfit(t *testing.T) {
	state := portfolio.NewState(10000)
	openPosition(t, state, 95, 110)

	venue := sellingVenue(111)
	watcher := NewExitWatcher(NewController(venue, state), state, staticPrice(111))

	exits := watcher.Sweep(context.Background())
	require.Len(t, exits, 1)
	assert.Equal(t, ExitTakeProfit, exits[0].Kind)
	assert.Greater(t, exits[0].Realized, 0.0)
}

func TestSweepLeavesPositionInsideBands(t *testing.T) {
	state := portfolio.NewState(10000)
	openPosition(t, state, 95, 110)

	watcher := NewExitWatcher(NewController(sellingVenue(100), state), state, staticPrice(102))
	exits := watcher.Sweep(context.Background())
	assert.Empty(t, exits)
	assert.NotNil(t, state.Position("BTC-USDC"))
}

func TestSweepSkipsSymbolOnPriceError(t *testing.T) {
	state := portfolio.NewState(10000)
	openPosition(t, state, 95, 110)

	failing := func(ctx context.Context, symbol string) (float64, error) {
		return 0, errors.New("feed down")
	}
	watcher := NewExitWatcher(NewController(sellingVenue(100), state), state, failing)
	exits := watcher.Sweep(context.Background())
	assert.Empty(t, exits)
	assert.NotNil(t, state.Position("BTC-USDC"))
}
