package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultRequestTimeout = 8 * time.Second

// Config captures configuration for one or more market data providers.
type Config struct {
	Default   string                     `yaml:"default"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig describes how to construct one market data provider.
type ProviderConfig struct {
	Type        string `yaml:"type"` // "coinbase" or "sim"
	BaseURL     string `yaml:"base_url"`
	Granularity string `yaml:"granularity"` // Candle interval, e.g. "1h"
	Sandbox     bool   `yaml:"sandbox"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
}

// LoadConfig reads market configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read market config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal market config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for name, p := range c.Providers {
		if p == nil {
			p = &ProviderConfig{}
			c.Providers[name] = p
		}
		p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
		if strings.TrimSpace(p.TimeoutRaw) == "" {
			p.Timeout = defaultRequestTimeout
			continue
		}
		d, err := time.ParseDuration(p.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("market config: provider %s: invalid timeout %q: %w", name, p.TimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("market config: provider %s: timeout must be positive", name)
		}
		p.Timeout = d
	}
	return nil
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("market config: at least one provider is required")
	}
	for name, p := range c.Providers {
		if strings.TrimSpace(p.Type) == "" {
			return fmt.Errorf("market config: provider %s: type is required", name)
		}
	}
	if c.Default != "" {
		if _, ok := c.Providers[c.Default]; !ok {
			return fmt.Errorf("market config: default provider %q is not declared", c.Default)
		}
	}
	return nil
}
