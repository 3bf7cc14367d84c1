// Package options provides functional options for configuring an Engine.
package options

import (
	"errors"

	"github.com/ForrestTrepte/SoCloverAI/backends"
	"github.com/ForrestTrepte/SoCloverAI/providers/openai"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/ForrestTrepte/SoCloverAI/usage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option represents a configuration option for an Engine
type Option func(*Config) error

// Config holds the configuration for building an Engine
type Config struct {
	Logger *zap.Logger

	VocabularyPath     string
	Corpus             types.Corpus
	MaxVocabularyWords int

	EmbeddingsPath     string
	MaxEmbeddingWords  int
	EmbeddingBatchSize int
	EmbeddingProvider  types.EmbeddingProvider
	EmbeddingTarget    types.Target
	EmbeddingBackend   types.CacheBackend

	SearchWords int
	PerSearch   int
	Morphology  types.MorphologyProvider

	Generator  types.Generator
	LLMBackend types.CacheBackend

	MaxInFlight int
	Prices      usage.PriceTable
	Registerer  prometheus.Registerer
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		VocabularyPath:     "words_by_frequency.json",
		MaxVocabularyWords: 200000,
		EmbeddingsPath:     "common_word_embeddings.db",
		MaxEmbeddingWords:  60000,
		SearchWords:        60000,
		PerSearch:          20,
		Prices:             usage.DefaultPrices(),
	}
}

// Apply applies all the given options to the config
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.EmbeddingBackend == nil {
		return errors.New("embedding cache backend is required - use WithEmbeddingCache, WithEmbeddingBoltCache, etc.")
	}
	if c.LLMBackend == nil {
		return errors.New("llm cache backend is required - use WithLLMCache, WithLLMFileCache, etc.")
	}
	if c.EmbeddingProvider == nil && c.EmbeddingTarget.Model == "" {
		return errors.New("embedding provider is required - use WithOpenAIProvider, WithEmbeddingProvider, etc.")
	}
	if c.SearchWords > c.MaxEmbeddingWords {
		return errors.New("search words cannot exceed the embedding matrix size")
	}
	if c.MaxEmbeddingWords > c.MaxVocabularyWords {
		return errors.New("embedding matrix size cannot exceed the vocabulary size")
	}
	return nil
}

// Close releases the cache backends and providers held by the config. New
// calls it when construction fails; once an Engine is built it owns them.
func (c *Config) Close() error {
	var errs []error
	for _, b := range []types.CacheBackend{c.EmbeddingBackend, c.LLMBackend} {
		if b != nil {
			if err := b.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	c.EmbeddingBackend, c.LLMBackend = nil, nil
	if c.EmbeddingProvider != nil {
		c.EmbeddingProvider.Close()
		c.EmbeddingProvider = nil
	}
	if c.Generator != nil {
		c.Generator.Close()
		c.Generator = nil
	}
	return errors.Join(errs...)
}

// replaceBackend stores next in slot, closing the backend it replaces.
func replaceBackend(slot *types.CacheBackend, next types.CacheBackend) error {
	prev := *slot
	*slot = next
	if prev != nil && prev != next {
		return prev.Close()
	}
	return nil
}

// WithLogger sets the logger shared by every component
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *Config) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.Logger = logger
		return nil
	}
}

// WithVocabulary sets the ranking file and the corpus used to rebuild it
func WithVocabulary(path string, corpus types.Corpus, maxWords int) Option {
	return func(cfg *Config) error {
		if path == "" {
			return errors.New("vocabulary path cannot be empty")
		}
		cfg.VocabularyPath = path
		cfg.Corpus = corpus
		if maxWords > 0 {
			cfg.MaxVocabularyWords = maxWords
		}
		return nil
	}
}

// WithEmbeddingMatrix sets the persisted matrix file, its size and the provider batch size
func WithEmbeddingMatrix(path string, maxWords, batchSize int) Option {
	return func(cfg *Config) error {
		if path == "" {
			return errors.New("embedding matrix path cannot be empty")
		}
		cfg.EmbeddingsPath = path
		if maxWords > 0 {
			cfg.MaxEmbeddingWords = maxWords
		}
		cfg.EmbeddingBatchSize = batchSize
		return nil
	}
}

// WithSearch sets the searched vocabulary size and candidates per search
func WithSearch(words, perSearch int) Option {
	return func(cfg *Config) error {
		if words < 0 || perSearch < 0 {
			return errors.New("search sizes must be non-negative")
		}
		if words > 0 {
			cfg.SearchWords = words
		}
		if perSearch > 0 {
			cfg.PerSearch = perSearch
		}
		return nil
	}
}

// WithMorphology sets the provider of word forms used to filter candidates
func WithMorphology(provider types.MorphologyProvider) Option {
	return func(cfg *Config) error {
		if provider == nil {
			return errors.New("morphology provider cannot be nil")
		}
		cfg.Morphology = provider
		return nil
	}
}

// WithEmbeddingCache uses a pre-configured backend for embedding calls
func WithEmbeddingCache(backend types.CacheBackend) Option {
	return func(cfg *Config) error {
		if backend == nil {
			return errors.New("backend cannot be nil")
		}
		return replaceBackend(&cfg.EmbeddingBackend, backend)
	}
}

// WithEmbeddingBoltCache stores embedding calls in a bbolt file
func WithEmbeddingBoltCache(path string) Option {
	return func(cfg *Config) error {
		backend, err := backends.NewBoltBackend(types.BackendConfig{Path: path})
		if err != nil {
			return err
		}
		return replaceBackend(&cfg.EmbeddingBackend, backend)
	}
}

// WithLLMCache uses a pre-configured backend for generation calls
func WithLLMCache(backend types.CacheBackend) Option {
	return func(cfg *Config) error {
		if backend == nil {
			return errors.New("backend cannot be nil")
		}
		return replaceBackend(&cfg.LLMBackend, backend)
	}
}

// WithLLMFileCache stores generation calls in a JSON file rewritten on every update
func WithLLMFileCache(path string) Option {
	return func(cfg *Config) error {
		backend, err := backends.NewFileBackend(types.BackendConfig{Path: path})
		if err != nil {
			return err
		}
		return replaceBackend(&cfg.LLMBackend, backend)
	}
}

// WithLLMRedisCache stores generation calls in Redis
func WithLLMRedisCache(addr string, db int, prefix string) Option {
	return func(cfg *Config) error {
		backend, err := backends.NewRedisBackend(types.BackendConfig{
			ConnectionString: addr,
			Database:         db,
			Options:          map[string]any{"prefix": prefix},
		})
		if err != nil {
			return err
		}
		return replaceBackend(&cfg.LLMBackend, backend)
	}
}

// WithOpenAIProvider sets up OpenAI embedding provider
func WithOpenAIProvider(apiKey string, model ...string) Option {
	return func(cfg *Config) error {
		config := openai.OpenAIConfig{
			APIKey: apiKey,
		}
		if len(model) > 0 {
			config.Model = model[0]
		}

		provider, err := openai.NewEmbeddingProvider(config)
		if err != nil {
			return err
		}
		cfg.EmbeddingProvider = provider
		return nil
	}
}

// WithEmbeddingProvider allows using a pre-configured embedding provider
func WithEmbeddingProvider(provider types.EmbeddingProvider) Option {
	return func(cfg *Config) error {
		if provider == nil {
			return errors.New("provider cannot be nil")
		}
		cfg.EmbeddingProvider = provider
		return nil
	}
}

// WithCachedEmbeddingsOnly serves embeddings for target from the cache and
// matrix alone; uncached documents fail
func WithCachedEmbeddingsOnly(target types.Target) Option {
	return func(cfg *Config) error {
		if target.Model == "" {
			return errors.New("target model cannot be empty")
		}
		cfg.EmbeddingTarget = target
		return nil
	}
}

// WithGenerator sets the response generator used by prompt methods
func WithGenerator(generator types.Generator) Option {
	return func(cfg *Config) error {
		if generator == nil {
			return errors.New("generator cannot be nil")
		}
		cfg.Generator = generator
		return nil
	}
}

// WithMaxInFlight bounds concurrent external calls
func WithMaxInFlight(n int) Option {
	return func(cfg *Config) error {
		if n < 0 {
			return errors.New("max in-flight calls must be non-negative")
		}
		cfg.MaxInFlight = n
		return nil
	}
}

// WithPrices overrides entries of the price table
func WithPrices(overrides usage.PriceTable) Option {
	return func(cfg *Config) error {
		cfg.Prices = cfg.Prices.With(overrides)
		return nil
	}
}

// WithMetrics registers usage counters with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *Config) error {
		if reg == nil {
			return errors.New("registerer cannot be nil")
		}
		cfg.Registerer = reg
		return nil
	}
}
