package svc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/internal/config"
	"earlybot/pkg/confkit"
	enginepkg "earlybot/pkg/engine"
	exchangepkg "earlybot/pkg/exchange"
	marketpkg "earlybot/pkg/market"
)

func marketSection() confkit.Section[marketpkg.Config] {
	return confkit.Section[marketpkg.Config]{Value: &marketpkg.Config{
		Default: "paper",
		Providers: map[string]*marketpkg.ProviderConfig{
			"paper": {Type: "sim"},
		},
	}}
}

func testEngineConfig(t *testing.T) *enginepkg.Config {
	t.Helper()
	return &enginepkg.Config{
		Symbols:        []string{"BTC-USDC"},
		Mode:           "normal",
		InitialCapital: 10_000,
		JournalDir:     t.TempDir(),
		TickInterval:   time.Minute,
		CycleTimeout:   30 * time.Second,
	}
}

// A test-env config with no provider sections falls back to the simulators
// and runs without persistence.
func TestNewServiceContextSimFallback(t *testing.T) {
	cfg := &config.Config{
		Env:       "test",
		SessionID: "unit",
		TTL:       config.CacheTTL{Short: 10, Medium: 60, Long: 300},
		Engine:    confkit.Section[enginepkg.Config]{Value: testEngineConfig(t)},
	}

	ctx := NewServiceContext(cfg)

	require.NotNil(t, ctx.Market)
	require.NotNil(t, ctx.Exchange)
	require.NotNil(t, ctx.Engine)
	require.NotNil(t, ctx.Poller)
	assert.Nil(t, ctx.DBConn)
	assert.Nil(t, ctx.Persistence)
	assert.Nil(t, ctx.MarketMirror)
	assert.Nil(t, ctx.LLMClient)
}

// Test sessions must never reach a live venue: sandbox is forced on every
// exchange provider when the environment is test.
func TestNewServiceContextForcesSandbox(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		configSandbox bool
		wantSandbox   bool
	}{
		{"test env forces sandbox", "test", false, true},
		{"test env keeps sandbox", "test", true, true},
		{"dev env respects config", "dev", false, false},
		{"dev env keeps sandbox", "dev", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exchangeCfg := &exchangepkg.Config{
				Default: "paper",
				Providers: map[string]*exchangepkg.ProviderConfig{
					"paper": {Type: "sim", Sandbox: tt.configSandbox},
				},
			}
			cfg := &config.Config{
				Env:      tt.env,
				TTL:      config.CacheTTL{Short: 10, Medium: 60, Long: 300},
				Engine:   confkit.Section[enginepkg.Config]{Value: testEngineConfig(t)},
				Exchange: confkit.Section[exchangepkg.Config]{Value: exchangeCfg},
				Market:   marketSection(),
			}

			ctx := NewServiceContext(cfg)

			require.NotNil(t, ctx.Exchange)
			assert.Equal(t, tt.wantSandbox, exchangeCfg.Providers["paper"].Sandbox)
		})
	}
}

// The engine's provider names win over the section defaults.
func TestNewServiceContextHonorsEngineProviderSelection(t *testing.T) {
	engineCfg := testEngineConfig(t)
	engineCfg.MarketProvider = "backup"

	marketCfg := marketSection()
	marketCfg.Value.Providers["backup"] = marketCfg.Value.Providers["paper"]

	cfg := &config.Config{
		Env:    "test",
		TTL:    config.CacheTTL{Short: 10, Medium: 60, Long: 300},
		Engine: confkit.Section[enginepkg.Config]{Value: engineCfg},
		Market: marketCfg,
	}

	ctx := NewServiceContext(cfg)

	require.Contains(t, ctx.MarketProviders, "backup")
	assert.Same(t, ctx.MarketProviders["backup"], ctx.Market)
}
