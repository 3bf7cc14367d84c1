// Package openai implements embedding and text generation with the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ForrestTrepte/SoCloverAI/similarity"
	"github.com/ForrestTrepte/SoCloverAI/types"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	DefaultEmbeddingModel = openai.EmbeddingModelTextEmbeddingAda002
	DefaultChatModel      = "gpt-4-1106-preview"
	// DefaultChoices is the number of completions requested per prompt.
	DefaultChoices = 1
)

// OpenAIConfig provides configuration options for OpenAI providers
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	OrgID   string
	Model   string
	// Choices is the number of completions per generation request.
	Choices int
	// MaxTokens caps completion length; zero leaves it to the API.
	MaxTokens int
	// Normalize rescales embeddings to unit length.
	Normalize bool
	// MaxRetries overrides the client's retry count when non-negative.
	MaxRetries *int
}

func newClient(config OpenAIConfig) (*openai.Client, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("OpenAI API key is required")
		}
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	if config.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*config.MaxRetries))
	}

	client := openai.NewClient(opts...)
	return &client, nil
}

// EmbeddingProvider uses OpenAI's API to embed text.
type EmbeddingProvider struct {
	client    *openai.Client
	model     string
	normalize bool
}

// NewEmbeddingProvider creates an embedding provider for OpenAI.
func NewEmbeddingProvider(config OpenAIConfig) (*EmbeddingProvider, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	model := config.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &EmbeddingProvider{client: client, model: model, normalize: config.Normalize}, nil
}

// Embed sends one embedding request for all documents.
func (p *EmbeddingProvider) Embed(ctx context.Context, documents []string) ([]types.Vector, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: documents,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(documents) {
		return nil, fmt.Errorf("%w: OpenAI returned %d embeddings for %d documents", types.ErrDataIntegrity, len(resp.Data), len(documents))
	}

	out := make([]types.Vector, len(documents))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("%w: OpenAI returned embedding index %d out of place", types.ErrDataIntegrity, d.Index)
		}
		// OpenAI returns []float64; convert to []float32
		v := make(types.Vector, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		if p.normalize {
			v = similarity.Normalize(v)
		}
		out[d.Index] = v
	}
	return out, nil
}

// Target identifies the embedding model.
func (p *EmbeddingProvider) Target() types.Target {
	return types.Target{Kind: types.KindEmbedding, Provider: string(types.ProviderOpenAI), Model: p.model}
}

func (p *EmbeddingProvider) Close() {}

// Generator produces chat completions.
type Generator struct {
	client    *openai.Client
	model     string
	choices   int
	maxTokens int
}

// NewGenerator creates a chat completion generator for OpenAI.
func NewGenerator(config OpenAIConfig) (*Generator, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	model := config.Model
	if model == "" {
		model = DefaultChatModel
	}
	choices := config.Choices
	if choices <= 0 {
		choices = DefaultChoices
	}
	return &Generator{client: client, model: model, choices: choices, maxTokens: config.MaxTokens}, nil
}

// Generate returns the content of every completion choice, in choice order.
func (g *Generator) Generate(ctx context.Context, temperature float64, prompt string) ([]string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	}
	if g.choices > 1 {
		params.N = openai.Int(int64(g.choices))
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(g.maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no completion returned by OpenAI")
	}
	out := make([]string, len(resp.Choices))
	for i, c := range resp.Choices {
		out[i] = c.Message.Content
	}
	return out, nil
}

// Target identifies the chat model and the request settings that shape its output.
func (g *Generator) Target() types.Target {
	return types.Target{
		Kind:      types.KindChat,
		Provider:  string(types.ProviderOpenAI),
		Model:     g.model,
		Choices:   g.choices,
		MaxTokens: g.maxTokens,
	}
}

func (g *Generator) Close() {}
