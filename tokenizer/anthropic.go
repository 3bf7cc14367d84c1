package tokenizer

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicTokenizer counts tokens for Anthropic models
type AnthropicTokenizer struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicTokenizer creates a new AnthropicTokenizer with the provided client and model
func NewAnthropicTokenizer(client *anthropic.Client, model string) *AnthropicTokenizer {
	return &AnthropicTokenizer{
		client: client,
		model:  model,
	}
}

// CountTokens counts tokens of text sent as a single user message
// This makes an API call to Anthropic's token counting endpoint
func (t *AnthropicTokenizer) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if t.client == nil {
		return 0, fmt.Errorf("anthropic client is required for token counting")
	}

	result, err := t.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model:    anthropic.Model(t.model),
		Messages: []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(text))},
	})
	if err != nil {
		return 0, fmt.Errorf("anthropic token counting failed: %w", err)
	}
	return int(result.InputTokens), nil
}
