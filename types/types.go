package types

import (
	"context"
	"encoding/json"
)

// Vector is a fixed-dimension embedding. Vectors used in similarity search
// must have unit L2 norm.
type Vector = []float32

// Candidate is a vocabulary word with its cosine distance to a query.
type Candidate struct {
	Word     string  `json:"word"`
	Distance float64 `json:"distance"`
}

// Pair is the two words a clue must connect.
type Pair [2]string

// Kind identifies what an external call produces.
type Kind string

const (
	KindChat      Kind = "chat"
	KindEmbedding Kind = "embedding"
)

// Target describes the configuration an external call is issued against.
// Every setting that changes what a call returns belongs here, since the
// serialized Target is the cache key's signature. Model identity is a
// first-class field so cache keys never need to be parsed to find it.
type Target struct {
	Kind        Kind    `json:"kind"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model_name"`
	Temperature float64 `json:"temperature"`
	Choices     int     `json:"choices,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Dimensions  int     `json:"dimensions,omitempty"`
}

// Signature returns the serialized configuration used as the third component
// of a cache key.
func (t Target) Signature() string {
	b, err := json.Marshal(t)
	if err != nil {
		// Target only holds strings and a float; Marshal cannot fail for finite values.
		return `{"model_name":"` + t.Model + `"}`
	}
	return string(b)
}

// WithTemperature returns a copy of t using temperature.
func (t Target) WithTemperature(temperature float64) Target {
	t.Temperature = temperature
	return t
}

// EmbeddingProvider defines the interface all embedding backends must satisfy.
type EmbeddingProvider interface {
	// Embed turns each document into its embedding vector, in input order.
	Embed(ctx context.Context, documents []string) ([]Vector, error)
	// Target identifies the model used for embedding.
	Target() Target
	// Close frees any resources held by the provider.
	Close()
}

// Generator produces candidate responses for a prompt.
type Generator interface {
	// Generate returns one or more response texts for prompt.
	Generate(ctx context.Context, temperature float64, prompt string) ([]string, error)
	// Target identifies the model used for generation.
	Target() Target
	// Close frees any resources held by the generator.
	Close()
}

// MorphologyProvider returns the inflectional and derivational surface forms
// of a word.
type MorphologyProvider interface {
	FormsOf(word string) []string
}

// CorpusWord is a token from a pretrained corpus model with its occurrence count.
type CorpusWord struct {
	Word  string
	Count int64
}

// Corpus enumerates the tokens of a large pretrained corpus model, in the
// model's own order.
type Corpus interface {
	Words(ctx context.Context) ([]CorpusWord, error)
}

// ProviderType represents the type of model provider
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGemini    ProviderType = "gemini"
)

// BackendType represents the type of call cache backend
type BackendType string

const (
	BackendFile   BackendType = "file"
	BackendBolt   BackendType = "bolt"
	BackendRedis  BackendType = "redis"
	BackendMemory BackendType = "memory"
)

// BackendConfig provides configuration options for call cache backends
type BackendConfig struct {
	// For file and bolt backends
	Path string

	// For Redis
	ConnectionString string
	Username         string
	Password         string
	Database         int

	// Additional options
	Options map[string]any
}

// CacheBackend defines the interface for call cache storage.
// Keys are string-encoded cache keys; values are ordered response sequences.
// Backends never evict entries.
type CacheBackend interface {
	// Get retrieves the responses stored under key
	Get(ctx context.Context, key string) ([]string, bool, error)

	// Set stores responses under key, replacing any previous value, and
	// persists durably before returning
	Set(ctx context.Context, key string, responses []string) error

	// Len returns the number of entries
	Len(ctx context.Context) (int, error)

	// Close closes the backend and releases resources
	Close() error
}
