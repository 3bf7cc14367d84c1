package tokenizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAITokenizer(t *testing.T) {
	tok, err := NewOpenAITokenizer("gpt-4")
	require.NoError(t, err)

	n, err := tok.CountTokens(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = tok.CountTokens(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenAITokenizer_unknownModelFallsBack(t *testing.T) {
	tok, err := NewOpenAITokenizer("my-finetune")
	require.NoError(t, err)
	n, err := tok.CountTokens(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestFallbackEncoding(t *testing.T) {
	assert.Equal(t, "o200k_base", string(fallbackEncoding("gpt-4o-mini-2099")))
	assert.Equal(t, "cl100k_base", string(fallbackEncoding("text-embedding-ada-002-v9")))
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(RegistryConfig{Size: 2})
	require.NoError(t, err)

	first, err := reg.For("gpt-3.5-turbo")
	require.NoError(t, err)
	again, err := reg.For("gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Same(t, first.(*OpenAITokenizer), again.(*OpenAITokenizer))

	// Without an Anthropic client, claude models use the local approximation.
	claude, err := reg.For("claude-sonnet-4-5")
	require.NoError(t, err)
	assert.IsType(t, &OpenAITokenizer{}, claude)
}
