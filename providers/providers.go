// Package providers constructs embedding providers and generators by name.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ForrestTrepte/SoCloverAI/providers/anthropic"
	"github.com/ForrestTrepte/SoCloverAI/providers/gemini"
	"github.com/ForrestTrepte/SoCloverAI/providers/openai"
	"github.com/ForrestTrepte/SoCloverAI/types"
)

// ErrUnsupportedProvider is returned for unknown provider names or
// operations a provider does not offer.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Config holds the settings shared by every provider.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Choices   int
	Normalize bool
}

// NewEmbeddingProvider creates an embedding provider
func NewEmbeddingProvider(ctx context.Context, provider types.ProviderType, cfg Config) (types.EmbeddingProvider, error) {
	switch provider {
	case types.ProviderOpenAI, "":
		return embedder(openai.NewEmbeddingProvider(openai.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Normalize: cfg.Normalize,
		}))
	case types.ProviderGemini:
		return embedder(gemini.NewEmbeddingProvider(ctx, gemini.GeminiConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Normalize: cfg.Normalize,
		}))
	default:
		return nil, fmt.Errorf("%w: %s has no embedding provider", ErrUnsupportedProvider, provider)
	}
}

// NewGenerator creates a response generator
func NewGenerator(ctx context.Context, provider types.ProviderType, cfg Config) (types.Generator, error) {
	switch provider {
	case types.ProviderOpenAI, "":
		return generator(openai.NewGenerator(openai.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Choices:   cfg.Choices,
		}))
	case types.ProviderAnthropic:
		return generator(anthropic.NewGenerator(anthropic.AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}))
	case types.ProviderGemini:
		return generator(gemini.NewGenerator(ctx, gemini.GeminiConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Choices:   cfg.Choices,
		}))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

func embedder[P types.EmbeddingProvider](p P, err error) (types.EmbeddingProvider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

func generator[G types.Generator](g G, err error) (types.Generator, error) {
	if err != nil {
		return nil, err
	}
	return g, nil
}
