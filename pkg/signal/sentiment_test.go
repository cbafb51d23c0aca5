package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/market"
)

func TestTrackerObserveBlends(t *testing.T) {
	tracker := NewSentimentTracker(time.Hour)
	tracker.Observe(1, 0.5)
	assert.InDelta(t, 0.5, tracker.Score(), 1e-9)

	tracker.Observe(-1, 0.5)
	assert.InDelta(t, -0.25, tracker.Score(), 1e-9)
}

func TestTrackerDecaysTowardZero(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tracker := NewSentimentTracker(time.Hour)
	tracker.now = func() time.Time { return now }

	tracker.Observe(0.8, 1)
	require.InDelta(t, 0.8, tracker.Score(), 1e-9)

	now = now.Add(time.Hour)
	assert.InDelta(t, 0.4, tracker.Score(), 1e-6, "one half-life halves the score")

	now = now.Add(10 * time.Hour)
	assert.Less(t, tracker.Score(), 0.001)
}

func TestLabelBands(t *testing.T) {
	assert.Equal(t, "bullish", Label(0.2))
	assert.Equal(t, "neutral", Label(0.19))
	assert.Equal(t, "neutral", Label(-0.19))
	assert.Equal(t, "bearish", Label(-0.2))
}

func TestSentimentGeneratorMapsLabelToAction(t *testing.T) {
	tracker := NewSentimentTracker(time.Hour)
	tracker.Observe(0.6, 1)
	g := NewSentimentGenerator(tracker, false)

	snap := &market.Snapshot{Symbol: "ETH-USDC", Timestamp: time.Now()}
	sig, err := g.Evaluate(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, sig.Action)
	assert.InDelta(t, 0.6, sig.Strength, 1e-6)

	tracker.Observe(-1, 1)
	sig, err = g.Evaluate(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, ActionSell, sig.Action)
}

func TestSentimentGeneratorMarketProxy(t *testing.T) {
	g := NewSentimentGenerator(NewSentimentTracker(time.Hour), true)
	snap := &market.Snapshot{Symbol: "ETH-USDC", Change24h: 9, Timestamp: time.Now()}

	// Repeated strongly positive tape pushes the proxy score bullish.
	var sig *Signal
	var err error
	for i := 0; i < 10; i++ {
		sig, err = g.Evaluate(context.Background(), snap)
		require.NoError(t, err)
	}
	assert.Equal(t, ActionBuy, sig.Action)
}
