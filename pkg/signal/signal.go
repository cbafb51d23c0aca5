package signal

import (
	"context"
	"time"

	"earlybot/pkg/market"
)

// Source identifies which generator produced a signal.
type Source string

const (
	SourceTechnical    Source = "technical"
	SourceMLConfidence Source = "ml-confidence"
	SourceSentiment    Source = "sentiment"
)

// Action is the directional vote carried by a signal.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Signal is one generator's vote for a symbol at a point in time.
// Strength is normalized to [0,1].
type Signal struct {
	Symbol    string    `json:"symbol"`
	Source    Source    `json:"source"`
	Action    Action    `json:"action"`
	Strength  float64   `json:"strength"`
	Rationale string    `json:"rationale,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Generator turns a market snapshot into a signal. A nil signal with a nil
// error means the generator abstains (for example, not enough history yet).
type Generator interface {
	Source() Source
	Evaluate(ctx context.Context, snap *market.Snapshot) (*Signal, error)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
