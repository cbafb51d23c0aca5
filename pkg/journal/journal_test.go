package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/fusion"
	"earlybot/pkg/signal"
)

func TestWriteCycleCreatesSequencedFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.nowFn = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

	first, err := w.WriteCycle(&CycleRecord{Symbol: "BTC-USDC", Outcome: "hold"})
	require.NoError(t, err)
	second, err := w.WriteCycle(&CycleRecord{Symbol: "ETH-USDC", Outcome: "filled"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriteCycleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	rec := &CycleRecord{
		Symbol: "BTC-USDC",
		Price:  65000,
		Signals: []SignalEntry{
			{Source: signal.SourceTechnical, Action: signal.ActionBuy, Strength: 0.7},
		},
		Decision: &fusion.Decision{Symbol: "BTC-USDC", Action: signal.ActionBuy, Confidence: 0.8},
		Outcome:  "filled",
		OrderID:  "oid-9",
	}
	path, err := w.WriteCycle(rec)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded CycleRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "filled", decoded.Outcome)
	assert.Equal(t, 1, decoded.CycleNumber)
	require.NotNil(t, decoded.Decision)
	assert.InDelta(t, 0.8, decoded.Decision.Confidence, 1e-9)
}

func TestWriteCycleNilRecord(t *testing.T) {
	w := NewWriter(t.TempDir())
	_, err := w.WriteCycle(nil)
	assert.Error(t, err)
}
