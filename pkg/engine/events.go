package engine

import (
	"context"
	"time"
)

// EventType labels engine notifications.
type EventType string

const (
	// EventTradeExecuted fires after a fill is applied to the portfolio.
	EventTradeExecuted EventType = "trade_executed"
	// EventRiskAlert fires on non-hold rejections and reconciliation alerts.
	EventRiskAlert EventType = "risk_alert"
	// EventEmergencyTriggered fires once when the supervisor trips.
	EventEmergencyTriggered EventType = "emergency_triggered"
	// EventEmergencyReset fires when an operator clears the emergency latch.
	EventEmergencyReset EventType = "emergency_reset"
)

// Event is one engine notification.
type Event struct {
	Type      EventType      `json:"type"`
	Symbol    string         `json:"symbol,omitempty"`
	Message   string         `json:"message,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier receives engine events. Implementations must not block for long;
// the engine calls them inline from the trading loop.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, event Event) {}

// NopNotifier returns a notifier that discards every event.
func NopNotifier() Notifier { return noopNotifier{} }
