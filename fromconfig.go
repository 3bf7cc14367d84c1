package socloverai

import (
	"context"
	"errors"
	"fmt"

	"github.com/ForrestTrepte/SoCloverAI/backends"
	"github.com/ForrestTrepte/SoCloverAI/config"
	"github.com/ForrestTrepte/SoCloverAI/options"
	"github.com/ForrestTrepte/SoCloverAI/providers"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/ForrestTrepte/SoCloverAI/usage"
	"github.com/ForrestTrepte/SoCloverAI/vocab"
	"go.uber.org/zap"
)

// NewFromConfig builds an Engine from a loaded configuration. withGenerator
// controls whether a response generator is constructed.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger, withGenerator bool, extra ...options.Option) (*Engine, error) {
	var corpus types.Corpus
	if cfg.Storage.CorpusPath != "" {
		corpus = vocab.CountsFile(cfg.Storage.CorpusPath)
	}

	embedder, err := providers.NewEmbeddingProvider(ctx, types.ProviderType(cfg.Embedding.Provider), providers.Config{
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		Normalize: cfg.Embedding.Normalize,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	llmBackend, err := llmBackend(cfg)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("llm cache: %w", err)
	}

	// Options holding opened resources come first so a failing option
	// leaves them in the config, where New closes them.
	opts := []options.Option{
		options.WithEmbeddingProvider(embedder),
		options.WithLLMCache(llmBackend),
	}

	if withGenerator {
		generator, err := providers.NewGenerator(ctx, types.ProviderType(cfg.Generation.Provider), providers.Config{
			APIKey:    cfg.Generation.APIKey,
			BaseURL:   cfg.Generation.BaseURL,
			Model:     cfg.Generation.Model,
			MaxTokens: cfg.Generation.MaxTokens,
			Choices:   cfg.Generation.Choices,
		})
		if err != nil {
			embedder.Close()
			return nil, errors.Join(fmt.Errorf("generator: %w", err), llmBackend.Close())
		}
		opts = append(opts, options.WithGenerator(generator))
	}

	prices := make(usage.PriceTable, len(cfg.Pricing))
	for model, p := range cfg.Pricing {
		prices[model] = usage.Price{Input: p.Input, Output: p.Output}
	}

	opts = append(opts,
		options.WithLogger(logger),
		options.WithVocabulary(cfg.Storage.VocabularyPath, corpus, cfg.Vocabulary.MaxWords),
		options.WithEmbeddingMatrix(cfg.Storage.EmbeddingsPath, cfg.Embedding.MaxWords, cfg.Embedding.BatchSize),
		options.WithSearch(cfg.Search.Words, cfg.Search.PerSearch),
		options.WithMaxInFlight(cfg.Generation.Concurrency),
		options.WithPrices(prices),
		options.WithEmbeddingBoltCache(cfg.Storage.EmbeddingCachePath),
	)

	return New(append(opts, extra...)...)
}

func llmBackend(cfg *config.Config) (types.CacheBackend, error) {
	backendType := types.BackendType(cfg.Cache.Backend)
	switch backendType {
	case types.BackendRedis:
		return backends.NewBackend(backendType, types.BackendConfig{
			ConnectionString: cfg.Cache.RedisURL,
			Options:          map[string]any{"prefix": cfg.Cache.Prefix},
		})
	default:
		return backends.NewBackend(backendType, types.BackendConfig{Path: cfg.Storage.LLMCachePath})
	}
}
