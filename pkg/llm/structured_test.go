package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scorePayload struct {
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func TestParseStructuredBareObject(t *testing.T) {
	var out scorePayload
	err := ParseStructured(`{"confidence":0.82,"reasoning":"momentum"}`, &out)
	require.NoError(t, err)
	assert.InDelta(t, 0.82, out.Confidence, 1e-9)
	assert.Equal(t, "momentum", out.Reasoning)
}

func TestParseStructuredStripsCodeFence(t *testing.T) {
	content := "```json\n{\"confidence\": 0.5, \"reasoning\": \"mixed\"}\n```"
	var out scorePayload
	require.NoError(t, ParseStructured(content, &out))
	assert.InDelta(t, 0.5, out.Confidence, 1e-9)
}

func TestParseStructuredIgnoresSurroundingProse(t *testing.T) {
	content := `Here is my assessment: {"confidence": 0.7, "reasoning": "trend"} hope that helps`
	var out scorePayload
	require.NoError(t, ParseStructured(content, &out))
	assert.InDelta(t, 0.7, out.Confidence, 1e-9)
}

func TestParseStructuredNoJSON(t *testing.T) {
	var out scorePayload
	assert.Error(t, ParseStructured("I cannot answer that.", &out))
}
