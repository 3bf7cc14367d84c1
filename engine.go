// Package socloverai generates So Clover clues with embedding search and
// memoized, cost-accounted calls to generative models.
package socloverai

import (
	"context"
	"errors"
	"fmt"

	"github.com/ForrestTrepte/SoCloverAI/callcache"
	"github.com/ForrestTrepte/SoCloverAI/embedstore"
	"github.com/ForrestTrepte/SoCloverAI/generate"
	"github.com/ForrestTrepte/SoCloverAI/logging"
	"github.com/ForrestTrepte/SoCloverAI/morph"
	"github.com/ForrestTrepte/SoCloverAI/options"
	"github.com/ForrestTrepte/SoCloverAI/results"
	"github.com/ForrestTrepte/SoCloverAI/search"
	"github.com/ForrestTrepte/SoCloverAI/tokenizer"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/ForrestTrepte/SoCloverAI/usage"
	"github.com/ForrestTrepte/SoCloverAI/vocab"
	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Engine owns the stores, call caches and usage accountant of one process.
type Engine struct {
	logger *zap.Logger

	vocabulary *vocab.Store
	embeddings *embedstore.Store
	aggregator *search.Aggregator

	embeddingCache *callcache.Store
	llmCache       *callcache.Store
	llmMemo        *callcache.Memo
	accountant     *usage.Accountant

	embeddingProvider types.EmbeddingProvider
	generator         types.Generator
}

// FindResult is the outcome of an asynchronous FindNearPair.
type FindResult struct {
	Clues []string
	Error error
}

// New creates an Engine with functional options.
func New(opts ...options.Option) (*Engine, error) {
	cfg := options.NewConfig()

	if err := cfg.Apply(opts...); err != nil {
		return nil, errors.Join(err, cfg.Close())
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(err, cfg.Close())
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return nil, errors.Join(err, cfg.Close())
	}
	return engine, nil
}

func newEngine(cfg *options.Config) (*Engine, error) {
	logger := logging.OrNop(cfg.Logger)

	vocabulary, err := vocab.NewStore(vocab.Config{
		Path:     cfg.VocabularyPath,
		MaxWords: cfg.MaxVocabularyWords,
		Corpus:   cfg.Corpus,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	registryCfg := tokenizer.RegistryConfig{}
	if g, ok := cfg.Generator.(interface{ Client() *anthropic.Client }); ok {
		registryCfg.Anthropic = g.Client()
	}
	if g, ok := cfg.Generator.(interface{ Client() *genai.Client }); ok {
		registryCfg.Gemini = g.Client()
	}
	tokenizers, err := tokenizer.NewRegistry(registryCfg)
	if err != nil {
		return nil, err
	}

	var metrics *usage.Metrics
	if cfg.Registerer != nil {
		metrics = usage.NewMetrics(cfg.Registerer)
	}
	accountant := usage.NewAccountant(cfg.Prices, metrics)

	embeddingCache, err := callcache.New(cfg.EmbeddingBackend)
	if err != nil {
		return nil, err
	}
	trackedEmbeddings, err := usage.NewTrackedCache(embeddingCache, accountant, tokenizers, logger)
	if err != nil {
		return nil, err
	}
	llmCache, err := callcache.New(cfg.LLMBackend)
	if err != nil {
		return nil, err
	}
	trackedLLM, err := usage.NewTrackedCache(llmCache, accountant, tokenizers, logger)
	if err != nil {
		return nil, err
	}

	embeddings, err := embedstore.NewStore(embedstore.Config{
		Path:      cfg.EmbeddingsPath,
		MaxWords:  cfg.MaxEmbeddingWords,
		BatchSize: cfg.EmbeddingBatchSize,
		Words:     vocabulary,
		Provider:  cfg.EmbeddingProvider,
		Target:    cfg.EmbeddingTarget,
		Cache:     trackedEmbeddings,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	aggregator, err := search.NewAggregator(search.AggregatorConfig{
		Embedder:  embeddings,
		Filter:    morph.NewFilter(cfg.Morphology),
		Words:     cfg.SearchWords,
		PerSearch: cfg.PerSearch,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		logger:            logger,
		vocabulary:        vocabulary,
		embeddings:        embeddings,
		aggregator:        aggregator,
		embeddingCache:    embeddingCache,
		llmCache:          llmCache,
		llmMemo:           callcache.NewMemo(trackedLLM, cfg.MaxInFlight),
		accountant:        accountant,
		embeddingProvider: cfg.EmbeddingProvider,
		generator:         cfg.Generator,
	}, nil
}

// CommonWords returns the n most common vocabulary words.
func (e *Engine) CommonWords(ctx context.Context, n int) ([]string, error) {
	return e.vocabulary.CommonWords(ctx, n)
}

// Embeddings returns unit-length embeddings of documents through the embedding cache.
func (e *Engine) Embeddings(ctx context.Context, documents []string) ([]types.Vector, error) {
	return e.embeddings.Embeddings(ctx, documents)
}

// FindNearPair returns embedding search candidates for the pair, closest first.
func (e *Engine) FindNearPair(ctx context.Context, word0, word1 string) ([]string, error) {
	return e.aggregator.FindNearPair(ctx, word0, word1)
}

// FindNearPairAsync runs FindNearPair in a goroutine.
func (e *Engine) FindNearPairAsync(ctx context.Context, word0, word1 string) <-chan FindResult {
	resultCh := make(chan FindResult, 1)

	go func() {
		defer close(resultCh)

		clues, err := e.FindNearPair(ctx, word0, word1)

		select {
		case resultCh <- FindResult{Clues: clues, Error: err}:
		case <-ctx.Done():
		}
	}()

	return resultCh
}

// Methods resolves method names. The embedding search method is built in;
// any other name needs a prompt template, from prompts or the built-in set,
// and a generator.
func (e *Engine) Methods(names []string, prompts map[string]string) ([]generate.Method, error) {
	methods := make([]generate.Method, 0, len(names))
	for _, name := range names {
		if name == generate.EmbeddingMethodName {
			methods = append(methods, generate.NewEmbeddingMethod(e.aggregator))
			continue
		}
		template, ok := prompts[name]
		if !ok {
			template, ok = generate.BuiltinPrompts[name]
		}
		if !ok {
			return nil, fmt.Errorf("%w: no prompt template for method %s", types.ErrConfiguration, name)
		}
		if e.generator == nil {
			return nil, fmt.Errorf("%w: method %s needs a generator", types.ErrConfiguration, name)
		}
		m, err := generate.NewPromptMethod(name, template, e.generator, e.llmMemo)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// Generate runs a sweep. The usage summary is logged and reset afterwards.
func (e *Engine) Generate(ctx context.Context, sweep generate.Sweep, concurrency int) (*results.Results, error) {
	runner := generate.NewRunner(generate.RunnerConfig{
		Concurrency: concurrency,
		Accountant:  e.accountant,
		Logger:      e.logger,
	})
	return runner.Run(ctx, sweep)
}

// Accountant returns the usage accountant shared by both call caches.
func (e *Engine) Accountant() *usage.Accountant {
	return e.accountant
}

// Close releases the call caches and providers.
func (e *Engine) Close() error {
	var errs []error
	if err := e.llmCache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("llm cache: %w", err))
	}
	if err := e.embeddingCache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("embedding cache: %w", err))
	}
	if e.embeddingProvider != nil {
		e.embeddingProvider.Close()
	}
	if e.generator != nil {
		e.generator.Close()
	}
	return errors.Join(errs...)
}
