package config

import (
	"fmt"

	"earlybot/pkg/confkit"
	enginepkg "earlybot/pkg/engine"
	exchangepkg "earlybot/pkg/exchange"
	llmpkg "earlybot/pkg/llm"
	marketpkg "earlybot/pkg/market"
)

// MustLoadExchange loads etc/exchange.yaml from the project root and panics
// on error. It isolates exchange config so tests that only need the venue
// providers do not pull in the other sections.
func MustLoadExchange() *exchangepkg.Config {
	path := confkit.MustProjectPath("etc/exchange.yaml")
	cfg, err := exchangepkg.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load exchange config %s: %w", path, err))
	}
	return cfg
}

// MustBuildExchangeProviders loads exchange config from the default path
// and builds provider instances; returns the map and default provider name.
func MustBuildExchangeProviders() (map[string]exchangepkg.Provider, string) {
	cfg := MustLoadExchange()
	providers, err := cfg.BuildProviders()
	if err != nil {
		panic(err)
	}
	return providers, cfg.Default
}

// MustLoadLLM loads etc/llm.yaml from the project root and panics on error.
func MustLoadLLM() *llmpkg.Config {
	path := confkit.MustProjectPath("etc/llm.yaml")
	cfg, err := llmpkg.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load llm config %s: %w", path, err))
	}
	return cfg
}

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
func MustLoadMarket() *marketpkg.Config {
	path := confkit.MustProjectPath("etc/market.yaml")
	cfg, err := marketpkg.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load market config %s: %w", path, err))
	}
	return cfg
}

// MustLoadEngine loads etc/engine.yaml from the project root and panics on error.
func MustLoadEngine() *enginepkg.Config {
	path := confkit.MustProjectPath("etc/engine.yaml")
	cfg, err := enginepkg.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load engine config %s: %w", path, err))
	}
	return cfg
}
