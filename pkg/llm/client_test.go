package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body["messages"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "cmpl-1",
			"model": body["model"],
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]interface{}{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]interface{}{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
		})
	}))
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(&Config{
		APIKey:     "test",
		BaseURL:    serverURL,
		Model:      "gpt-4o-mini",
		MaxRetries: 1,
		LogLevel:   "error",
	})
	require.NoError(t, err)
	return client
}

func TestChatReturnsContentAndUsage(t *testing.T) {
	server := newChatServer(t, "hello there")
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, 19, resp.Usage.TotalTokens)
}

func TestChatStructuredDecodesJSON(t *testing.T) {
	server := newChatServer(t, `{"confidence":0.66,"reasoning":"breakout"}`)
	defer server.Close()

	client := newTestClient(t, server.URL)
	var out scorePayload
	err := client.ChatStructured(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "score this"}},
	}, &out)
	require.NoError(t, err)
	assert.InDelta(t, 0.66, out.Confidence, 1e-9)
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	server := newChatServer(t, "unused")
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Chat(context.Background(), &ChatRequest{})
	assert.Error(t, err)
}
