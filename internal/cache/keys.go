package cache

import (
	"fmt"
	"strings"
	"time"

	"earlybot/internal/config"
)

// Namespace is the Redis key prefix for the earlybot application.
const Namespace = "earlybot"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class, useful for half/double TTL variants.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Price & Market Keys ----------------------------------------------------

// PriceLatestKey returns the default latest price key without provider scoping.
func PriceLatestKey(symbol string) string {
	return formatKey("price", "latest", symbol)
}

// PriceLatestByProviderKey returns the latest price key scoped by provider.
func PriceLatestByProviderKey(provider, symbol string) string {
	return formatKey("price", "latest", provider, symbol)
}

// --- Positions Keys ---------------------------------------------------------

// PositionsOpenKey holds the open-position list payload.
func PositionsOpenKey() string {
	return formatKey("positions", "open")
}

// PositionKey holds a single open position by symbol.
func PositionKey(symbol string) string {
	return formatKey("position", symbol)
}

// --- Trades Keys ------------------------------------------------------------

func TradesRecentKey() string {
	return formatKey("trades", "recent")
}

// TradeIngestGuardKey prevents duplicate mirroring of the same client order ID.
func TradeIngestGuardKey(clientOrderID string) string {
	return formatKey("ingest", "trade", clientOrderID)
}

// --- Session State Keys -----------------------------------------------------

// BotStateKey caches the restart snapshot payload.
func BotStateKey(sessionID string) string {
	return formatKey("bot", sessionID, "state")
}

// EmergencyKey caches the supervisor condition for status read paths.
func EmergencyKey(sessionID string) string {
	return formatKey("bot", sessionID, "emergency")
}

// EquityCurveKey caches the rendered equity curve payload.
func EquityCurveKey(sessionID string) string {
	return formatKey("bot", sessionID, "equity")
}

// --- TTL Helpers ------------------------------------------------------------

// PriceTTL returns short-lived TTL for individual price keys.
func PriceTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// PositionsTTL returns the TTL for position payloads.
func PositionsTTL(ttl TTLSet) time.Duration {
	return ttl.Scaled(TTLMedium, 0.5) // target ~30s when medium=60s
}

// TradesRecentTTL returns the TTL for recent trades lists.
func TradesRecentTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// TradeIngestGuardTTL returns the TTL for trade idempotency guards.
func TradeIngestGuardTTL() time.Duration {
	return 24 * time.Hour
}

// BotStateTTL returns the TTL for cached session state.
func BotStateTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// EquityCurveTTL returns the TTL for equity curve payloads.
func EquityCurveTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}
