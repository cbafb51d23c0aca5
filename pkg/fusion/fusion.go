package fusion

import (
	"fmt"
	"math"
	"sort"
	"time"

	"earlybot/pkg/signal"
)

// DefaultMinConfidence is the composite threshold below which the engine
// holds rather than trades.
const DefaultMinConfidence = 0.65

// Weights maps signal sources to their fusion weight. Weights for sources
// absent from a cycle are redistributed proportionally across the present
// ones.
type Weights map[signal.Source]float64

// DefaultWeights mirrors the production tuning with the quantum source
// folded into the ML confidence bucket.
func DefaultWeights() Weights {
	return Weights{
		signal.SourceTechnical:    0.35,
		signal.SourceMLConfidence: 0.35,
		signal.SourceSentiment:    0.30,
	}
}

// Contribution records one source's share of a decision.
type Contribution struct {
	Source   signal.Source `json:"source"`
	Action   signal.Action `json:"action"`
	Strength float64       `json:"strength"`
	Weight   float64       `json:"weight"` // Renormalized weight actually applied.
}

// Decision is the fused verdict for one symbol in one cycle.
type Decision struct {
	Symbol        string         `json:"symbol"`
	Action        signal.Action  `json:"action"`
	Confidence    float64        `json:"confidence"` // [0,1]
	Contributions []Contribution `json:"contributions,omitempty"`
	Rationale     string         `json:"rationale,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Fuser combines per-source signals into a single decision.
type Fuser struct {
	weights       Weights
	minConfidence float64
}

// New constructs a fuser. Nil weights or a non-positive threshold fall back
// to the defaults.
func New(weights Weights, minConfidence float64) (*Fuser, error) {
	if weights == nil {
		weights = DefaultWeights()
	}
	total := 0.0
	for source, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("fusion: weight for %s cannot be negative", source)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("fusion: weights must sum to a positive value")
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	if minConfidence > 1 {
		return nil, fmt.Errorf("fusion: min confidence must be at most 1")
	}
	return &Fuser{weights: weights, minConfidence: minConfidence}, nil
}

// MinConfidence returns the configured gate.
func (f *Fuser) MinConfidence() float64 { return f.minConfidence }

// Fuse combines the signals present this cycle. Signals from sources with no
// configured weight are ignored. With no usable signals the decision is a
// hold with zero confidence.
func (f *Fuser) Fuse(symbol string, signals []*signal.Signal, now time.Time) *Decision {
	decision := &Decision{
		Symbol:    symbol,
		Action:    signal.ActionHold,
		Timestamp: now,
	}

	present := make([]*signal.Signal, 0, len(signals))
	presentWeight := 0.0
	for _, sig := range signals {
		if sig == nil {
			continue
		}
		w, ok := f.weights[sig.Source]
		if !ok || w == 0 {
			continue
		}
		present = append(present, sig)
		presentWeight += w
	}
	if len(present) == 0 || presentWeight <= 0 {
		decision.Rationale = "no signals"
		return decision
	}

	composite := 0.0
	for _, sig := range present {
		w := f.weights[sig.Source] / presentWeight
		composite += w * sig.Strength * directionOf(sig.Action)
		decision.Contributions = append(decision.Contributions, Contribution{
			Source:   sig.Source,
			Action:   sig.Action,
			Strength: sig.Strength,
			Weight:   w,
		})
	}
	sort.Slice(decision.Contributions, func(i, j int) bool {
		return decision.Contributions[i].Source < decision.Contributions[j].Source
	})

	decision.Confidence = math.Min(1, math.Abs(composite))
	switch {
	case composite == 0:
		decision.Rationale = "signals cancel out"
	case decision.Confidence < f.minConfidence:
		decision.Rationale = fmt.Sprintf("composite %.2f below threshold %.2f", decision.Confidence, f.minConfidence)
	case composite > 0:
		decision.Action = signal.ActionBuy
	default:
		decision.Action = signal.ActionSell
	}
	return decision
}

func directionOf(action signal.Action) float64 {
	switch action {
	case signal.ActionBuy:
		return 1
	case signal.ActionSell:
		return -1
	}
	return 0
}
