package llm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultModel      = "gpt-4o-mini"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// Config holds connection and model settings for the LLM client.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	MaxTokens   *int          `yaml:"max_tokens,omitempty"`
	MaxRetries  int           `yaml:"max_retries"`
	LogLevel    string        `yaml:"log_level"`
	Timeout     time.Duration `yaml:"-"`

	timeoutRaw string
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open llm config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read llm config: %w", err)
	}

	var aux struct {
		BaseURL     string   `yaml:"base_url"`
		APIKey      string   `yaml:"api_key"`
		Model       string   `yaml:"model"`
		Temperature *float64 `yaml:"temperature"`
		MaxTokens   *int     `yaml:"max_tokens"`
		MaxRetries  int      `yaml:"max_retries"`
		LogLevel    string   `yaml:"log_level"`
		Timeout     string   `yaml:"timeout"`
	}
	if err := yaml.Unmarshal(data, &aux); err != nil {
		return nil, fmt.Errorf("unmarshal llm config: %w", err)
	}

	cfg := &Config{
		BaseURL:     aux.BaseURL,
		APIKey:      aux.APIKey,
		Model:       aux.Model,
		Temperature: aux.Temperature,
		MaxTokens:   aux.MaxTokens,
		MaxRetries:  aux.MaxRetries,
		LogLevel:    aux.LogLevel,
		timeoutRaw:  aux.Timeout,
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	if err := cfg.parseTimeout(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.BaseURL = expandAndOverride(c.BaseURL, "LLM_BASE_URL")
	c.APIKey = expandAndOverride(c.APIKey, "LLM_API_KEY")
	if c.APIKey == "" {
		c.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	c.Model = expandAndOverride(c.Model, "LLM_MODEL")
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = defaultModel
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.Timeout <= 0 && c.timeoutRaw == "" {
		c.Timeout = defaultTimeout
	}
}

func (c *Config) parseTimeout() error {
	if strings.TrimSpace(c.timeoutRaw) == "" {
		return nil
	}
	d, err := time.ParseDuration(c.timeoutRaw)
	if err != nil {
		return fmt.Errorf("llm config: invalid timeout %q: %w", c.timeoutRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("llm config: timeout must be positive")
	}
	c.Timeout = d
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("llm config: api_key is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("llm config: model is required")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	copied := *c
	if c.Temperature != nil {
		t := *c.Temperature
		copied.Temperature = &t
	}
	if c.MaxTokens != nil {
		m := *c.MaxTokens
		copied.MaxTokens = &m
	}
	return &copied
}

// expandAndOverride expands ${VAR} references, then lets envKey win if set.
func expandAndOverride(current, envKey string) string {
	value := strings.TrimSpace(os.ExpandEnv(current))
	if env := strings.TrimSpace(os.Getenv(envKey)); env != "" {
		return env
	}
	return value
}
