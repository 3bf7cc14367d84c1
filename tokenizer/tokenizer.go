// Package tokenizer counts tokens of prompts and responses for usage accounting.
package tokenizer

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/genai"
)

// DefaultRegistrySize is the number of per-model counters kept.
const DefaultRegistrySize = 64

// Counter counts the tokens a model sees for a piece of text.
type Counter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// RegistryConfig configures a Registry. Clients are optional; without one,
// models of that family are counted with the tiktoken approximation.
type RegistryConfig struct {
	Anthropic *anthropic.Client
	Gemini    *genai.Client
	Size      int
}

// Registry resolves model names to token counters and keeps them for reuse.
type Registry struct {
	anthropic *anthropic.Client
	gemini    *genai.Client
	counters  *lru.Cache[string, Counter]
}

// NewRegistry creates a registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	size := cfg.Size
	if size <= 0 {
		size = DefaultRegistrySize
	}
	counters, err := lru.New[string, Counter](size)
	if err != nil {
		return nil, err
	}
	return &Registry{anthropic: cfg.Anthropic, gemini: cfg.Gemini, counters: counters}, nil
}

// For returns the counter for model.
func (r *Registry) For(model string) (Counter, error) {
	if c, ok := r.counters.Get(model); ok {
		return c, nil
	}

	var c Counter
	switch {
	case strings.HasPrefix(model, "claude") && r.anthropic != nil:
		c = NewAnthropicTokenizer(r.anthropic, model)
	case strings.HasPrefix(model, "gemini") && r.gemini != nil:
		c = NewGeminiTokenizer(r.gemini, model)
	default:
		t, err := NewOpenAITokenizer(model)
		if err != nil {
			return nil, err
		}
		c = t
	}
	r.counters.Add(model, c)
	return c, nil
}
