package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider exposes exchange-agnostic market data.
type Provider interface {
	// Snapshot returns a normalized market snapshot for the symbol.
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
	// CurrentPrice returns the latest price for the symbol.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// ProviderBuilder constructs a Provider from configuration.
type ProviderBuilder func(name string, cfg *ProviderConfig) (Provider, error)

var (
	providerRegistry   = make(map[string]ProviderBuilder)
	providerRegistryMu sync.RWMutex
)

// RegisterProvider associates a builder with a market provider type.
// Provider packages register themselves in init.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()
	builder, ok := providerRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// BuildProviders instantiates every provider declared in the config.
func BuildProviders(cfg *Config) (map[string]Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("market: nil config")
	}
	out := make(map[string]Provider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		builder, ok := lookupProviderBuilder(pc.Type)
		if !ok {
			return nil, fmt.Errorf("market: unsupported provider type %q for %s", pc.Type, name)
		}
		p, err := builder(name, pc)
		if err != nil {
			return nil, fmt.Errorf("market: build provider %s: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
