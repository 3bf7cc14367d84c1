package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.Equal(t, 0.9, body["temperature"])

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content": []map[string]any{
				{"type": "text", "text": "Thinking... "},
				{"type": "text", "text": "Best: orchard"},
			},
			"usage": map[string]any{"input_tokens": 5, "output_tokens": 4},
		}))
	}))
	defer srv.Close()

	retries := 0
	g, err := NewGenerator(AnthropicConfig{APIKey: "test", BaseURL: srv.URL + "/", Model: "claude-test", MaxRetries: &retries})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), 0.9, "apple, tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"Thinking... Best: orchard"}, got)
	assert.Equal(t, types.Target{Kind: types.KindChat, Provider: "anthropic", Model: "claude-test", Choices: 1, MaxTokens: DefaultMaxTokens}, g.Target())
}

func TestNewGenerator_defaults(t *testing.T) {
	g, err := NewGenerator(AnthropicConfig{APIKey: "test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.Target().Model)
	assert.Equal(t, DefaultMaxTokens, g.maxTokens)
	assert.NotNil(t, g.Client())
}
