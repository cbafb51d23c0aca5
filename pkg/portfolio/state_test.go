package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/exchange"
)

func buyFill(symbol string, qty, price float64) Fill {
	return Fill{Symbol: symbol, Side: exchange.SideBuy, Quantity: qty, Price: price, Timestamp: time.Now()}
}

func sellFill(symbol string, qty, price float64) Fill {
	return Fill{Symbol: symbol, Side: exchange.SideSell, Quantity: qty, Price: price, Timestamp: time.Now()}
}

func TestApplyFillOpensPosition(t *testing.T) {
	s := NewState(10000)
	realized, err := s.ApplyFill(buyFill("BTC-USDC", 0.1, 50000))
	require.NoError(t, err)
	assert.Zero(t, realized)
	assert.InDelta(t, 5000.0, s.Cash(), 1e-6)

	pos := s.Position("BTC-USDC")
	require.NotNil(t, pos)
	assert.InDelta(t, 0.1, pos.Quantity, 1e-9)
	assert.InDelta(t, 50000.0, pos.AvgEntryPrice, 1e-6)
	assert.Equal(t, 1, s.DailyTrades())
}

func TestApplyFillAveragesEntry(t *testing.T) {
	s := NewState(100000)
	_, err := s.ApplyFill(buyFill("ETH-USDC", 10, 100))
	require.NoError(t, err)
	_, err = s.ApplyFill(buyFill("ETH-USDC", 10, 200))
	require.NoError(t, err)

	pos := s.Position("ETH-USDC")
	require.NotNil(t, pos)
	assert.InDelta(t, 150.0, pos.AvgEntryPrice, 1e-6)
	assert.InDelta(t, 20.0, pos.Quantity, 1e-9)
}

func TestRoundTripRealizesPnLOnce(t *testing.T) {
	s := NewState(10000)
	_, err := s.ApplyFill(buyFill("ETH-USDC", 10, 100))
	require.NoError(t, err)

	realized, err := s.ApplyFill(sellFill("ETH-USDC", 10, 120))
	require.NoError(t, err)
	assert.InDelta(t, 200.0, realized, 1e-6)
	assert.InDelta(t, 200.0, s.DailyRealizedPnL(), 1e-6)
	assert.InDelta(t, 10200.0, s.Cash(), 1e-6)
	assert.Nil(t, s.Position("ETH-USDC"))
}

func TestFeesReduceRealizedPnL(t *testing.T) {
	s := NewState(10000)
	_, err := s.ApplyFill(Fill{Symbol: "ETH-USDC", Side: exchange.SideBuy, Quantity: 10, Price: 100, Fee: 5, Timestamp: time.Now()})
	require.NoError(t, err)
	pos := s.Position("ETH-USDC")
	assert.InDelta(t, 100.5, pos.AvgEntryPrice, 1e-6, "buy fee folds into cost basis")

	realized, err := s.ApplyFill(Fill{Symbol: "ETH-USDC", Side: exchange.SideSell, Quantity: 10, Price: 110, Fee: 5, Timestamp: time.Now()})
	require.NoError(t, err)
	assert.InDelta(t, 10*(110-100.5)-5, realized, 1e-6)
}

func TestSellWithoutPositionFails(t *testing.T) {
	s := NewState(1000)
	_, err := s.ApplyFill(sellFill("BTC-USDC", 1, 100))
	assert.Error(t, err)
}

func TestBuyBeyondCashFails(t *testing.T) {
	s := NewState(100)
	_, err := s.ApplyFill(buyFill("BTC-USDC", 1, 1000))
	assert.Error(t, err)
}

func TestEquityMarksToMarket(t *testing.T) {
	s := NewState(10000)
	_, err := s.ApplyFill(buyFill("ETH-USDC", 10, 100))
	require.NoError(t, err)

	s.SetMark("ETH-USDC", 150)
	assert.InDelta(t, 9000+10*150, s.Equity(), 1e-6)
	assert.InDelta(t, 1500.0, s.TotalExposure(), 1e-6)
}

func TestDailyRolloverResetsCounters(t *testing.T) {
	s := NewState(10000)
	now := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.day = dateOf(now)

	_, err := s.ApplyFill(buyFill("ETH-USDC", 1, 100))
	require.NoError(t, err)
	require.Equal(t, 1, s.DailyTrades())

	now = now.Add(20 * time.Minute) // crosses UTC midnight
	assert.Equal(t, 0, s.DailyTrades())
	assert.Zero(t, s.DailyRealizedPnL())
}

func TestSetExits(t *testing.T) {
	s := NewState(10000)
	_, err := s.ApplyFill(buyFill("ETH-USDC", 1, 100))
	require.NoError(t, err)

	require.NoError(t, s.SetExits("ETH-USDC", 95, 110))
	pos := s.Position("ETH-USDC")
	assert.InDelta(t, 95.0, pos.StopLoss, 1e-9)
	assert.InDelta(t, 110.0, pos.TakeProfit, 1e-9)

	assert.Error(t, s.SetExits("BTC-USDC", 1, 2))
}

func TestSnapshotRoundTripThroughFile(t *testing.T) {
	s := NewState(10000)
	_, err := s.ApplyFill(Fill{
		Symbol: "BTC-USDC", Side: exchange.SideBuy, Quantity: 0.1, Price: 40000,
		StopLoss: 39000, TakeProfit: 42000, Timestamp: time.Now(),
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state.msgpack")
	require.NoError(t, s.SaveFile(path))

	restored := NewState(0)
	require.NoError(t, restored.LoadFile(path))

	assert.InDelta(t, s.Cash(), restored.Cash(), 1e-9)
	pos := restored.Position("BTC-USDC")
	require.NotNil(t, pos)
	assert.InDelta(t, 0.1, pos.Quantity, 1e-9)
	assert.InDelta(t, 39000.0, pos.StopLoss, 1e-9)
	assert.Equal(t, s.DailyTrades(), restored.DailyTrades())
}

func TestRestoreRejectsBadVersion(t *testing.T) {
	s := NewState(0)
	assert.Error(t, s.Restore(&Snapshot{Version: 99}))
	assert.Error(t, s.Restore(nil))
}

func TestEquityCurveBounded(t *testing.T) {
	s := NewState(1000)
	s.curveCap = 10
	for i := 0; i < 25; i++ {
		s.RecordEquity()
	}
	assert.Len(t, s.EquityCurve(), 10)
}
