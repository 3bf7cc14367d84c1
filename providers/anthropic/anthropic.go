// Package anthropic implements text generation with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 1024
)

// AnthropicConfig provides configuration options for the Anthropic generator
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// MaxRetries overrides the client's retry count when set.
	MaxRetries *int
}

// Generator produces responses with Claude models.
type Generator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewGenerator creates a generator for Anthropic.
func NewGenerator(config AnthropicConfig) (*Generator, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Anthropic API key is required")
		}
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*config.MaxRetries))
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	client := anthropic.NewClient(opts...)
	return &Generator{client: &client, model: model, maxTokens: maxTokens}, nil
}

// Client exposes the underlying client for token counting.
func (g *Generator) Client() *anthropic.Client {
	return g.client
}

// Generate returns the text of the reply as a single response.
func (g *Generator) Generate(ctx context.Context, temperature float64, prompt string) ([]string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(g.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(temperature),
	})
	if err != nil {
		return nil, err
	}

	var text []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = append(text, block.Text)
		}
	}
	if len(text) == 0 {
		return nil, errors.New("no text returned by Anthropic")
	}
	return []string{strings.Join(text, "")}, nil
}

// Target identifies the model.
func (g *Generator) Target() types.Target {
	return types.Target{
		Kind:      types.KindChat,
		Provider:  string(types.ProviderAnthropic),
		Model:     g.model,
		Choices:   1,
		MaxTokens: g.maxTokens,
	}
}

func (g *Generator) Close() {}
