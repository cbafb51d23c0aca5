package signal

import (
	"context"
	"fmt"
	"strings"

	"earlybot/pkg/llm"
	"earlybot/pkg/market"
)

const confidenceMinHistory = 30

// Assessment is a scorer's directional read on a symbol.
type Assessment struct {
	Action      Action  `json:"action"`
	Probability float64 `json:"probability"` // [0,1]
	Reasoning   string  `json:"reasoning,omitempty"`
}

// Scorer produces a probabilistic assessment from a snapshot. Implementations
// may call out to a model service; failures surface as errors and the caller
// drops the source for that cycle.
type Scorer interface {
	Score(ctx context.Context, snap *market.Snapshot) (*Assessment, error)
}

// ConfidenceGenerator adapts a Scorer into the Generator interface.
type ConfidenceGenerator struct {
	scorer Scorer
}

// NewConfidenceGenerator wraps a scorer.
func NewConfidenceGenerator(scorer Scorer) *ConfidenceGenerator {
	return &ConfidenceGenerator{scorer: scorer}
}

// Source implements Generator.
func (g *ConfidenceGenerator) Source() Source { return SourceMLConfidence }

// Evaluate delegates to the scorer once enough history is available.
func (g *ConfidenceGenerator) Evaluate(ctx context.Context, snap *market.Snapshot) (*Signal, error) {
	if !snap.HasHistory(confidenceMinHistory) {
		return nil, nil
	}
	assessment, err := g.scorer.Score(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("confidence scorer: %w", err)
	}
	if assessment == nil {
		return nil, nil
	}

	action := assessment.Action
	switch action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		action = ActionHold
	}
	return &Signal{
		Symbol:    snap.Symbol,
		Source:    SourceMLConfidence,
		Action:    action,
		Strength:  clamp01(assessment.Probability),
		Rationale: assessment.Reasoning,
		Timestamp: snap.Timestamp,
	}, nil
}

// LLMScorer asks a language model to rate short-horizon direction from
// recent price action.
type LLMScorer struct {
	client llm.LLMClient
	model  string
}

// NewLLMScorer constructs a scorer on top of an LLM client. An empty model
// uses the client's configured default.
func NewLLMScorer(client llm.LLMClient, model string) *LLMScorer {
	return &LLMScorer{client: client, model: model}
}

const scorerSystemPrompt = `You are a quantitative trading assistant. Given recent market data for one trading pair, respond with a JSON object:
{"action": "buy"|"sell"|"hold", "probability": 0.0-1.0, "reasoning": "<one sentence>"}
probability is your confidence in the action. Respond with JSON only.`

// Score prompts the model and parses the structured verdict.
func (s *LLMScorer) Score(ctx context.Context, snap *market.Snapshot) (*Assessment, error) {
	var out struct {
		Action      string  `json:"action"`
		Probability float64 `json:"probability"`
		Reasoning   string  `json:"reasoning"`
	}
	req := &llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "system", Content: scorerSystemPrompt},
			{Role: "user", Content: describeSnapshot(snap)},
		},
	}
	if err := s.client.ChatStructured(ctx, req, &out); err != nil {
		return nil, err
	}
	return &Assessment{
		Action:      Action(strings.ToLower(strings.TrimSpace(out.Action))),
		Probability: clamp01(out.Probability),
		Reasoning:   out.Reasoning,
	}, nil
}

// describeSnapshot renders a compact textual view of recent price action.
func describeSnapshot(snap *market.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pair: %s\nLast price: %.6f\n24h change: %.2f%%\n24h volume: %.2f\n",
		snap.Symbol, snap.Last, snap.Change24h, snap.Volume24h)

	closes := snap.Closes()
	window := 20
	if len(closes) < window {
		window = len(closes)
	}
	b.WriteString("Recent closes (oldest first): ")
	for i, c := range closes[len(closes)-window:] {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%.6f", c)
	}
	return b.String()
}
