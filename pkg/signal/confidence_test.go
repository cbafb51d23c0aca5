package signal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/llm"
	"earlybot/pkg/market"
)

type stubScorer struct {
	assessment *Assessment
	err        error
}

func (s *stubScorer) Score(ctx context.Context, snap *market.Snapshot) (*Assessment, error) {
	return s.assessment, s.err
}

func TestConfidenceGeneratorMapsAssessment(t *testing.T) {
	g := NewConfidenceGenerator(&stubScorer{assessment: &Assessment{
		Action:      ActionBuy,
		Probability: 0.85,
		Reasoning:   "strong momentum",
	}})

	sig, err := g.Evaluate(context.Background(), snapshotFromCloses(rising(40)))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, SourceMLConfidence, sig.Source)
	assert.Equal(t, ActionBuy, sig.Action)
	assert.InDelta(t, 0.85, sig.Strength, 1e-9)
}

func TestConfidenceGeneratorAbstainsWithoutHistory(t *testing.T) {
	g := NewConfidenceGenerator(&stubScorer{assessment: &Assessment{Action: ActionBuy, Probability: 1}})
	sig, err := g.Evaluate(context.Background(), snapshotFromCloses(rising(5)))
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestConfidenceGeneratorSurfacesScorerError(t *testing.T) {
	g := NewConfidenceGenerator(&stubScorer{err: errors.New("model unavailable")})
	_, err := g.Evaluate(context.Background(), snapshotFromCloses(rising(40)))
	assert.Error(t, err)
}

func TestConfidenceGeneratorNormalizesUnknownAction(t *testing.T) {
	g := NewConfidenceGenerator(&stubScorer{assessment: &Assessment{Action: "long", Probability: 0.7}})
	sig, err := g.Evaluate(context.Background(), snapshotFromCloses(rising(40)))
	require.NoError(t, err)
	assert.Equal(t, ActionHold, sig.Action)
}

type stubLLM struct {
	content string
}

func (s *stubLLM) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: s.content}, nil
}

func (s *stubLLM) ChatStructured(ctx context.Context, req *llm.ChatRequest, target interface{}) error {
	return json.Unmarshal([]byte(s.content), target)
}

func TestLLMScorerParsesVerdict(t *testing.T) {
	scorer := NewLLMScorer(&stubLLM{content: `{"action":"SELL","probability":1.4,"reasoning":"overbought"}`}, "")
	assessment, err := scorer.Score(context.Background(), snapshotFromCloses(rising(40)))
	require.NoError(t, err)
	assert.Equal(t, ActionSell, assessment.Action)
	assert.InDelta(t, 1.0, assessment.Probability, 1e-9, "probability clamps to [0,1]")
}

func TestDescribeSnapshotMentionsPair(t *testing.T) {
	text := describeSnapshot(snapshotFromCloses(rising(40)))
	assert.Contains(t, text, "BTC-USDC")
	assert.Contains(t, text, "Recent closes")
}
