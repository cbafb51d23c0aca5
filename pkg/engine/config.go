package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"earlybot/pkg/confkit"
	"earlybot/pkg/fusion"
	"earlybot/pkg/risk"
	"earlybot/pkg/signal"
)

// Config controls the trading loop: which symbols to trade, how often, and
// under which risk preset. Per-limit overrides sit on top of the preset.
type Config struct {
	Symbols          []string `yaml:"symbols"`
	Mode             string   `yaml:"mode"` // conservative | normal | aggressive | scalping
	MarketProvider   string   `yaml:"market_provider"`
	ExchangeProvider string   `yaml:"exchange_provider"`
	InitialCapital   float64  `yaml:"initial_capital"`

	MinConfidence float64            `yaml:"min_confidence"`
	FusionWeights map[string]float64 `yaml:"fusion_weights"`

	JournalDir string `yaml:"journal_dir"`
	StatePath  string `yaml:"state_path"`

	TickInterval time.Duration `yaml:"-"`
	CycleTimeout time.Duration `yaml:"-"`

	TickIntervalRaw string `yaml:"tick_interval"`
	CycleTimeoutRaw string `yaml:"cycle_timeout"`
}

// LoadConfig reads engine configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open engine config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads engine configuration from the default project location and
// panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/engine.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal engine config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.TickIntervalRaw) == "" {
		c.TickIntervalRaw = "1m"
	}
	if strings.TrimSpace(c.CycleTimeoutRaw) == "" {
		c.CycleTimeoutRaw = "45s"
	}
	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = "normal"
	}
	if c.InitialCapital <= 0 {
		c.InitialCapital = 10000
	}
	if strings.TrimSpace(c.JournalDir) == "" {
		c.JournalDir = "journal"
	}
	for i, sym := range c.Symbols {
		c.Symbols[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
}

func (c *Config) parseDurations() error {
	interval, err := time.ParseDuration(c.TickIntervalRaw)
	if err != nil {
		return fmt.Errorf("engine config: invalid tick_interval %q: %w", c.TickIntervalRaw, err)
	}
	if interval <= 0 {
		return fmt.Errorf("engine config: tick_interval must be positive, got %s", interval)
	}
	timeout, err := time.ParseDuration(c.CycleTimeoutRaw)
	if err != nil {
		return fmt.Errorf("engine config: invalid cycle_timeout %q: %w", c.CycleTimeoutRaw, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("engine config: cycle_timeout must be positive, got %s", timeout)
	}
	c.TickInterval = interval
	c.CycleTimeout = timeout
	return nil
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errors.New("engine config: at least one symbol is required")
	}
	seen := make(map[string]struct{}, len(c.Symbols))
	for _, sym := range c.Symbols {
		if sym == "" {
			return errors.New("engine config: symbols contains empty value")
		}
		if _, ok := seen[sym]; ok {
			return fmt.Errorf("engine config: symbols contains duplicate %q", sym)
		}
		seen[sym] = struct{}{}
	}
	if _, err := risk.Preset(c.Mode); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.New("engine config: min_confidence must be within [0,1]")
	}
	for source, w := range c.FusionWeights {
		if w < 0 {
			return fmt.Errorf("engine config: fusion weight for %s cannot be negative", source)
		}
	}
	return nil
}

// Limits resolves the risk limits for the configured trading mode.
func (c *Config) Limits() (risk.Limits, error) {
	limits, err := risk.Preset(c.Mode)
	if err != nil {
		return risk.Limits{}, err
	}
	if c.MinConfidence > 0 {
		limits.MinConfidence = c.MinConfidence
	}
	return limits, nil
}

// Weights converts the configured fusion weights, falling back to the
// defaults when none are set.
func (c *Config) Weights() fusion.Weights {
	if len(c.FusionWeights) == 0 {
		return fusion.DefaultWeights()
	}
	out := make(fusion.Weights, len(c.FusionWeights))
	for source, w := range c.FusionWeights {
		out[signal.Source(strings.ToLower(strings.TrimSpace(source)))] = w
	}
	return out
}
