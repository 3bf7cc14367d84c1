// Package gemini implements embedding and text generation with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/similarity"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"google.golang.org/genai"
)

const (
	DefaultEmbeddingModel = "gemini-embedding-001"
	DefaultChatModel      = "gemini-2.5-flash"
)

// GeminiConfig provides configuration options for Gemini providers
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Choices is the number of candidates per generation request.
	Choices int
	// MaxTokens caps output length; zero leaves it to the API.
	MaxTokens int
	// Normalize rescales embeddings to unit length. Truncated output
	// dimensionalities are not unit length without it.
	Normalize bool
	// Dimensions requests a reduced embedding size when positive.
	Dimensions int
}

func newClient(ctx context.Context, config GeminiConfig) (*genai.Client, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Gemini API key is required")
		}
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions.BaseURL = config.BaseURL
	}
	return genai.NewClient(ctx, cc)
}

// EmbeddingProvider embeds text with Gemini embedding models.
type EmbeddingProvider struct {
	client     *genai.Client
	model      string
	normalize  bool
	dimensions int
}

// NewEmbeddingProvider creates an embedding provider for Gemini.
func NewEmbeddingProvider(ctx context.Context, config GeminiConfig) (*EmbeddingProvider, error) {
	client, err := newClient(ctx, config)
	if err != nil {
		return nil, err
	}
	model := config.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &EmbeddingProvider{client: client, model: model, normalize: config.Normalize, dimensions: config.Dimensions}, nil
}

// Embed sends one batch request for all documents.
func (p *EmbeddingProvider) Embed(ctx context.Context, documents []string) ([]types.Vector, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(documents))
	for i, doc := range documents {
		contents[i] = genai.NewContentFromText(doc, genai.RoleUser)
	}
	var cfg *genai.EmbedContentConfig
	if p.dimensions > 0 {
		cfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(p.dimensions))}
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(documents) {
		return nil, fmt.Errorf("%w: Gemini returned %d embeddings for %d documents", types.ErrDataIntegrity, len(resp.Embeddings), len(documents))
	}
	out := make([]types.Vector, len(documents))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("%w: Gemini returned no embedding for document %d", types.ErrDataIntegrity, i)
		}
		v := e.Values
		if p.normalize {
			v = similarity.Normalize(v)
		}
		out[i] = v
	}
	return out, nil
}

// Target identifies the embedding model and its output size.
func (p *EmbeddingProvider) Target() types.Target {
	return types.Target{
		Kind:       types.KindEmbedding,
		Provider:   string(types.ProviderGemini),
		Model:      p.model,
		Dimensions: p.dimensions,
	}
}

func (p *EmbeddingProvider) Close() {}

// Generator produces responses with Gemini models.
type Generator struct {
	client    *genai.Client
	model     string
	choices   int
	maxTokens int
}

// NewGenerator creates a generator for Gemini.
func NewGenerator(ctx context.Context, config GeminiConfig) (*Generator, error) {
	client, err := newClient(ctx, config)
	if err != nil {
		return nil, err
	}
	model := config.Model
	if model == "" {
		model = DefaultChatModel
	}
	return &Generator{client: client, model: model, choices: config.Choices, maxTokens: config.MaxTokens}, nil
}

// Client exposes the underlying client for token counting.
func (g *Generator) Client() *genai.Client {
	return g.client
}

// Generate returns the text of every candidate, in candidate order.
func (g *Generator) Generate(ctx context.Context, temperature float64, prompt string) ([]string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if g.choices > 1 {
		cfg.CandidateCount = int32(g.choices)
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
		out = append(out, b.String())
	}
	if len(out) == 0 {
		return nil, errors.New("no candidates returned by Gemini")
	}
	return out, nil
}

// Target identifies the chat model and the request settings that shape its output.
func (g *Generator) Target() types.Target {
	return types.Target{
		Kind:      types.KindChat,
		Provider:  string(types.ProviderGemini),
		Model:     g.model,
		Choices:   max(g.choices, 1),
		MaxTokens: g.maxTokens,
	}
}

func (g *Generator) Close() {}
