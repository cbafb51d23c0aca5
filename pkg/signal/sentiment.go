package signal

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"earlybot/pkg/market"
)

const (
	// Label bands for the rolling sentiment score.
	sentimentBullish = 0.2
	sentimentBearish = -0.2

	defaultSentimentHalfLife = 30 * time.Minute
)

// SentimentTracker keeps a decaying aggregate sentiment score in [-1,1].
// Observations blend in with a weight; absent new observations the score
// decays toward zero with the configured half-life.
type SentimentTracker struct {
	mu       sync.Mutex
	score    float64
	halfLife time.Duration
	updated  time.Time
	now      func() time.Time
}

// NewSentimentTracker constructs a tracker. A non-positive half-life uses
// the default.
func NewSentimentTracker(halfLife time.Duration) *SentimentTracker {
	if halfLife <= 0 {
		halfLife = defaultSentimentHalfLife
	}
	return &SentimentTracker{halfLife: halfLife, now: time.Now}
}

// Observe blends a new observation in [-1,1] into the score. Weight in (0,1]
// controls how strongly the observation pulls the aggregate.
func (t *SentimentTracker) Observe(value, weight float64) {
	value = clampSigned(value)
	if weight <= 0 {
		return
	}
	if weight > 1 {
		weight = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decayLocked()
	t.score = t.score*(1-weight) + value*weight
}

// Score returns the current decayed sentiment value.
func (t *SentimentTracker) Score() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decayLocked()
	return t.score
}

func (t *SentimentTracker) decayLocked() {
	now := t.now()
	if !t.updated.IsZero() && t.score != 0 {
		elapsed := now.Sub(t.updated)
		if elapsed > 0 {
			t.score *= math.Pow(0.5, elapsed.Seconds()/t.halfLife.Seconds())
		}
	}
	t.updated = now
}

// Label buckets a score into bullish / neutral / bearish.
func Label(score float64) string {
	switch {
	case score >= sentimentBullish:
		return "bullish"
	case score <= sentimentBearish:
		return "bearish"
	}
	return "neutral"
}

// SentimentGenerator reads the tracker and emits a directional signal. It
// also feeds the 24h price change back into the tracker as a weak market
// proxy so the score tracks tape even without external feeds.
type SentimentGenerator struct {
	tracker     *SentimentTracker
	marketProxy bool
}

// NewSentimentGenerator wraps a tracker. With marketProxy enabled each
// evaluation folds the snapshot's 24h change into the score.
func NewSentimentGenerator(tracker *SentimentTracker, marketProxy bool) *SentimentGenerator {
	if tracker == nil {
		tracker = NewSentimentTracker(0)
	}
	return &SentimentGenerator{tracker: tracker, marketProxy: marketProxy}
}

// Tracker exposes the underlying tracker for external feeds.
func (g *SentimentGenerator) Tracker() *SentimentTracker { return g.tracker }

// Source implements Generator.
func (g *SentimentGenerator) Source() Source { return SourceSentiment }

// Evaluate emits a signal from the current score.
func (g *SentimentGenerator) Evaluate(ctx context.Context, snap *market.Snapshot) (*Signal, error) {
	if g.marketProxy {
		// A ±10% day saturates the proxy observation.
		g.tracker.Observe(clampSigned(snap.Change24h/10), 0.2)
	}
	score := g.tracker.Score()

	action := ActionHold
	switch Label(score) {
	case "bullish":
		action = ActionBuy
	case "bearish":
		action = ActionSell
	}
	return &Signal{
		Symbol:    snap.Symbol,
		Source:    SourceSentiment,
		Action:    action,
		Strength:  clamp01(math.Abs(score)),
		Rationale: fmt.Sprintf("sentiment %s (%.2f)", Label(score), score),
		Timestamp: snap.Timestamp,
	}, nil
}

func clampSigned(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
