package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/signal"
)

func sig(source signal.Source, action signal.Action, strength float64) *signal.Signal {
	return &signal.Signal{
		Symbol:   "BTC-USDC",
		Source:   source,
		Action:   action,
		Strength: strength,
	}
}

func newFuser(t *testing.T) *Fuser {
	t.Helper()
	f, err := New(nil, 0.5)
	require.NoError(t, err)
	return f
}

func TestFuseUnanimousBuy(t *testing.T) {
	f := newFuser(t)
	d := f.Fuse("BTC-USDC", []*signal.Signal{
		sig(signal.SourceTechnical, signal.ActionBuy, 0.8),
		sig(signal.SourceMLConfidence, signal.ActionBuy, 0.9),
		sig(signal.SourceSentiment, signal.ActionBuy, 0.7),
	}, time.Now())

	assert.Equal(t, signal.ActionBuy, d.Action)
	assert.Greater(t, d.Confidence, 0.5)
	assert.LessOrEqual(t, d.Confidence, 1.0)
	assert.Len(t, d.Contributions, 3)
}

func TestFuseConfidenceStaysInBounds(t *testing.T) {
	f := newFuser(t)
	d := f.Fuse("BTC-USDC", []*signal.Signal{
		sig(signal.SourceTechnical, signal.ActionBuy, 1),
		sig(signal.SourceMLConfidence, signal.ActionBuy, 1),
		sig(signal.SourceSentiment, signal.ActionBuy, 1),
	}, time.Now())
	assert.InDelta(t, 1.0, d.Confidence, 1e-9)
}

func TestFuseMissingSourceRedistributesWeight(t *testing.T) {
	f := newFuser(t)
	// Only technical and sentiment present; their weights renormalize to
	// .35/.65 and .30/.65.
	d := f.Fuse("BTC-USDC", []*signal.Signal{
		sig(signal.SourceTechnical, signal.ActionSell, 1),
		sig(signal.SourceSentiment, signal.ActionSell, 1),
	}, time.Now())

	assert.Equal(t, signal.ActionSell, d.Action)
	assert.InDelta(t, 1.0, d.Confidence, 1e-9, "full-strength agreement keeps confidence at 1 after renormalization")

	total := 0.0
	for _, c := range d.Contributions {
		total += c.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestFuseBelowThresholdHolds(t *testing.T) {
	f := newFuser(t)
	d := f.Fuse("BTC-USDC", []*signal.Signal{
		sig(signal.SourceTechnical, signal.ActionBuy, 0.3),
	}, time.Now())
	assert.Equal(t, signal.ActionHold, d.Action)
	assert.InDelta(t, 0.3, d.Confidence, 1e-9)
}

func TestFuseOpposingSignalsCancel(t *testing.T) {
	weights := Weights{
		signal.SourceTechnical:    0.5,
		signal.SourceMLConfidence: 0.5,
	}
	f, err := New(weights, 0.1)
	require.NoError(t, err)

	d := f.Fuse("BTC-USDC", []*signal.Signal{
		sig(signal.SourceTechnical, signal.ActionBuy, 0.8),
		sig(signal.SourceMLConfidence, signal.ActionSell, 0.8),
	}, time.Now())
	assert.Equal(t, signal.ActionHold, d.Action)
	assert.Zero(t, d.Confidence)
}

func TestFuseNoSignalsHoldsZero(t *testing.T) {
	f := newFuser(t)
	d := f.Fuse("BTC-USDC", nil, time.Now())
	assert.Equal(t, signal.ActionHold, d.Action)
	assert.Zero(t, d.Confidence)
}

func TestFuseIgnoresHoldVotes(t *testing.T) {
	f := newFuser(t)
	d := f.Fuse("BTC-USDC", []*signal.Signal{
		sig(signal.SourceTechnical, signal.ActionHold, 0.9),
		sig(signal.SourceMLConfidence, signal.ActionBuy, 0.9),
	}, time.Now())
	// Hold contributes zero direction but still absorbs its weight share.
	assert.Equal(t, signal.ActionHold, d.Action)
	assert.InDelta(t, 0.45, d.Confidence, 1e-9)
}

func TestNewRejectsBadWeights(t *testing.T) {
	_, err := New(Weights{signal.SourceTechnical: -1}, 0.5)
	assert.Error(t, err)

	_, err = New(Weights{}, 0.5)
	assert.Error(t, err)

	_, err = New(nil, 1.5)
	assert.Error(t, err)
}
