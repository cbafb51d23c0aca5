package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/signal"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
symbols:
  - btc-usdc
  - ETH-USDC
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USDC", "ETH-USDC"}, cfg.Symbols)
	assert.Equal(t, "normal", cfg.Mode)
	assert.Equal(t, time.Minute, cfg.TickInterval)
	assert.Equal(t, 45*time.Second, cfg.CycleTimeout)
	assert.InDelta(t, 10000.0, cfg.InitialCapital, 1e-9)
	assert.Equal(t, "journal", cfg.JournalDir)
}

func TestLoadConfigParsesFull(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
symbols: [BTC-USDC]
mode: aggressive
tick_interval: 30s
cycle_timeout: 10s
initial_capital: 2500
min_confidence: 0.7
fusion_weights:
  technical: 0.5
  ml-confidence: 0.3
  sentiment: 0.2
journal_dir: /tmp/journal
state_path: /tmp/state.bin
`))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.Equal(t, "aggressive", cfg.Mode)

	limits, err := cfg.Limits()
	require.NoError(t, err)
	assert.InDelta(t, 0.7, limits.MinConfidence, 1e-9, "config floor overrides preset")

	weights := cfg.Weights()
	assert.InDelta(t, 0.5, weights[signal.SourceTechnical], 1e-9)
	assert.InDelta(t, 0.2, weights[signal.SourceSentiment], 1e-9)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"no symbols":        `mode: normal`,
		"duplicate symbols": "symbols: [BTC-USDC, btc-usdc]",
		"unknown mode":      "symbols: [BTC-USDC]\nmode: reckless",
		"bad interval":      "symbols: [BTC-USDC]\ntick_interval: soon",
		"negative weight":   "symbols: [BTC-USDC]\nfusion_weights:\n  technical: -1",
		"confidence range":  "symbols: [BTC-USDC]\nmin_confidence: 1.5",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(yml))
			assert.Error(t, err)
		})
	}
}

func TestWeightsFallBackToDefaults(t *testing.T) {
	cfg := &Config{Symbols: []string{"BTC-USDC"}}
	weights := cfg.Weights()
	assert.InDelta(t, 0.35, weights[signal.SourceTechnical], 1e-9)
	assert.InDelta(t, 0.30, weights[signal.SourceSentiment], 1e-9)
}
