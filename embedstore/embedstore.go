// Package embedstore produces unit-length embeddings through the call cache
// and maintains the persisted embedding matrix of the most common words.
package embedstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/ForrestTrepte/SoCloverAI/callcache"
	"github.com/ForrestTrepte/SoCloverAI/logging"
	"github.com/ForrestTrepte/SoCloverAI/similarity"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"go.uber.org/zap"
)

const (
	// DefaultMaxWords is the number of common words the matrix covers.
	DefaultMaxWords = 60000
	// DefaultBatchSize is the number of documents sent per provider call.
	DefaultBatchSize = 512
)

// WordSource supplies the frequency-ranked vocabulary.
type WordSource interface {
	CommonWords(ctx context.Context, n int) ([]string, error)
}

// Config configures a Store.
type Config struct {
	// Path of the bbolt embedding matrix file.
	Path      string
	MaxWords  int
	BatchSize int
	Words     WordSource
	Provider  types.EmbeddingProvider
	// Target overrides Provider.Target() in cache keys; required when Provider is nil.
	Target types.Target
	Cache  callcache.Cache
	Logger *zap.Logger
}

// Store serves embeddings for arbitrary documents and for the common-word matrix.
type Store struct {
	path      string
	maxWords  int
	batchSize int
	words     WordSource
	provider  types.EmbeddingProvider
	target    types.Target
	cache     callcache.Cache
	logger    *zap.Logger

	embedMu sync.Mutex

	mu     sync.Mutex
	matrix *Matrix
}

// NewStore creates an embedding store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Cache == nil {
		return nil, errors.New("cache cannot be nil")
	}
	target := cfg.Target
	if target.Model == "" {
		if cfg.Provider == nil {
			return nil, fmt.Errorf("%w: embedding store needs a provider or a target model", types.ErrConfiguration)
		}
		target = cfg.Provider.Target()
	}
	target.Kind = types.KindEmbedding

	maxWords := cfg.MaxWords
	if maxWords == 0 {
		maxWords = DefaultMaxWords
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{
		path:      cfg.Path,
		maxWords:  maxWords,
		batchSize: batchSize,
		words:     cfg.Words,
		provider:  cfg.Provider,
		target:    target,
		cache:     cfg.Cache,
		logger:    logging.OrNop(cfg.Logger),
	}, nil
}

// MaxWords returns the number of common words the matrix covers.
func (s *Store) MaxWords() int {
	return s.maxWords
}

// Target returns the embedding target used in cache keys.
func (s *Store) Target() types.Target {
	return s.target
}

// Embeddings returns one unit-length vector per document, in order. Cached
// documents are never re-embedded; the rest are sent to the provider in batches.
func (s *Store) Embeddings(ctx context.Context, documents []string) ([]types.Vector, error) {
	s.embedMu.Lock()
	defer s.embedMu.Unlock()

	result := make([]types.Vector, len(documents))
	missing := make(map[string][]int)
	var order []string

	for i, doc := range documents {
		if idx, seen := missing[doc]; seen {
			missing[doc] = append(idx, i)
			continue
		}
		v, found, err := s.lookup(ctx, doc)
		if err != nil {
			return nil, err
		}
		if found {
			result[i] = v
			continue
		}
		missing[doc] = []int{i}
		order = append(order, doc)
	}

	if len(order) > 0 && s.provider == nil {
		return nil, fmt.Errorf("%w: %d documents are not cached and no embedding provider is configured", types.ErrConfiguration, len(order))
	}

	for start := 0; start < len(order); start += s.batchSize {
		batch := order[start:min(start+s.batchSize, len(order))]
		if len(order) > s.batchSize {
			s.logger.Info("embedding batch",
				zap.Int("from", start),
				zap.Int("to", start+len(batch)),
				zap.Int("of", len(order)),
			)
		}
		vectors, err := s.provider.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding provider failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: provider returned %d embeddings for %d documents", types.ErrDataIntegrity, len(vectors), len(batch))
		}
		for j, doc := range batch {
			v := vectors[j]
			if !similarity.IsNormalized(v) {
				return nil, fmt.Errorf("%w: embedding of %q has norm %g", types.ErrNotNormalized, doc, similarity.Norm(v))
			}
			if err := s.store(ctx, doc, v); err != nil {
				return nil, err
			}
			for _, i := range missing[doc] {
				result[i] = v
			}
		}
	}

	return result, nil
}

func (s *Store) lookup(ctx context.Context, doc string) (types.Vector, bool, error) {
	responses, found, err := s.cache.Lookup(ctx, callcache.NewKey(0, doc, s.target))
	if err != nil || !found {
		return nil, false, err
	}
	var v types.Vector
	if err := json.Unmarshal([]byte(responses[0]), &v); err != nil {
		return nil, false, fmt.Errorf("%w: cached embedding of %q is corrupt: %v", types.ErrDataIntegrity, doc, err)
	}
	if !similarity.IsNormalized(v) {
		return nil, false, fmt.Errorf("%w: cached embedding of %q has norm %g", types.ErrNotNormalized, doc, similarity.Norm(v))
	}
	return v, true, nil
}

func (s *Store) store(ctx context.Context, doc string, v types.Vector) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	return s.cache.Update(ctx, callcache.NewKey(0, doc, s.target), []string{string(data)})
}

// CommonWordEmbeddings returns the embedding matrix of the n most common
// words. The persisted matrix is rebuilt for all MaxWords words when it is
// missing, smaller than n, produced by another model, or out of step with
// the vocabulary.
func (s *Store) CommonWordEmbeddings(ctx context.Context, n int) (*Matrix, error) {
	if n < 0 || n > s.maxWords {
		return nil, fmt.Errorf("%w: requested %d common word embeddings, maximum is %d", types.ErrConfiguration, n, s.maxWords)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matrix != nil && s.matrix.Len() >= n {
		return s.matrix.Prefix(n), nil
	}
	if s.words == nil {
		return nil, fmt.Errorf("%w: embedding store has no vocabulary", types.ErrConfiguration)
	}

	m, err := s.loadMatrix(ctx, n)
	if err != nil {
		return nil, err
	}
	if m == nil {
		if m, err = s.buildMatrix(ctx); err != nil {
			return nil, err
		}
	}
	s.matrix = m
	return m.Prefix(n), nil
}

// loadMatrix returns the persisted matrix, or nil when it must be rebuilt.
func (s *Store) loadMatrix(ctx context.Context, n int) (*Matrix, error) {
	p, err := readMatrix(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("generating common word embeddings", zap.String("path", s.path))
		return nil, nil
	case err != nil:
		return nil, err
	}

	if p.count < n {
		s.logger.Info("common word embeddings are undersized, regenerating",
			zap.String("path", s.path), zap.Int("persisted", p.count), zap.Int("required", n))
		return nil, nil
	}
	if p.model != s.target.Model {
		s.logger.Info("common word embeddings were built by another model, regenerating",
			zap.String("path", s.path), zap.String("persisted", p.model), zap.String("model", s.target.Model))
		return nil, nil
	}

	expected, err := s.words.CommonWords(ctx, min(p.count, s.maxWords))
	if err != nil {
		return nil, err
	}
	if !slices.Equal(p.words[:len(expected)], expected) {
		s.logger.Info("common word embeddings do not match the vocabulary, regenerating", zap.String("path", s.path))
		return nil, nil
	}

	m, err := NewMatrix(p.words[:len(expected)], p.vectors[:len(expected)])
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded common word embeddings", zap.Int("words", m.Len()), zap.Int("dim", m.Dim()))
	return m, nil
}

func (s *Store) buildMatrix(ctx context.Context) (*Matrix, error) {
	words, err := s.words.CommonWords(ctx, s.maxWords)
	if err != nil {
		return nil, err
	}
	vectors, err := s.Embeddings(ctx, words)
	if err != nil {
		return nil, err
	}
	m, err := NewMatrix(words, vectors)
	if err != nil {
		return nil, err
	}
	if err := writeMatrix(s.path, s.target.Model, m); err != nil {
		return nil, fmt.Errorf("failed to persist embedding matrix: %w", err)
	}
	s.logger.Info("persisted common word embeddings", zap.String("path", s.path), zap.Int("words", m.Len()))
	return m, nil
}
