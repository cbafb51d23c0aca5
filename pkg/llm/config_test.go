package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	yaml := `
api_key: test-key
`
	cfg, err := LoadConfigFromReader(strings.NewReader(yaml))
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)
	assert.Equal(t, defaultModel, cfg.Model)
	assert.Equal(t, defaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("MY_KEY", "expanded-key")
	yaml := `
api_key: ${MY_KEY}
model: gpt-4o-mini
timeout: 10s
`
	cfg, err := LoadConfigFromReader(strings.NewReader(yaml))
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model, "env override wins over yaml")
	assert.Equal(t, "10s", cfg.Timeout.String())
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")
	_, err := LoadConfigFromReader(strings.NewReader("model: gpt-4o"))
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	temp := 0.3
	cfg := &Config{APIKey: "k", Model: "m", Temperature: &temp}
	copied := cfg.Clone()
	*copied.Temperature = 0.9
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-9)
}
