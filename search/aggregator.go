package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ForrestTrepte/SoCloverAI/embedstore"
	"github.com/ForrestTrepte/SoCloverAI/logging"
	"github.com/ForrestTrepte/SoCloverAI/morph"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"go.uber.org/zap"
)

const (
	// DefaultPerSearch is the number of candidates kept from each search.
	DefaultPerSearch = 20
	// DefaultWords is the vocabulary size searched.
	DefaultWords = 60000
)

// Embedder embeds documents and serves the common-word matrix.
// *embedstore.Store implements it.
type Embedder interface {
	Embeddings(ctx context.Context, documents []string) ([]types.Vector, error)
	CommonWordEmbeddings(ctx context.Context, n int) (*embedstore.Matrix, error)
}

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	Embedder  Embedder
	Filter    *morph.Filter
	Words     int
	PerSearch int
	Logger    *zap.Logger
}

// Aggregator produces clue candidates for a pair of words from three
// embedding searches.
type Aggregator struct {
	embedder  Embedder
	filter    *morph.Filter
	words     int
	perSearch int
	logger    *zap.Logger

	mu    sync.Mutex
	index *Index
}

// NewAggregator creates an aggregator. The index is built on first use.
func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if cfg.Embedder == nil {
		return nil, errors.New("embedder cannot be nil")
	}
	filter := cfg.Filter
	if filter == nil {
		filter = morph.NewFilter(nil)
	}
	words := cfg.Words
	if words == 0 {
		words = DefaultWords
	}
	perSearch := cfg.PerSearch
	if perSearch == 0 {
		perSearch = DefaultPerSearch
	}
	return &Aggregator{
		embedder:  cfg.Embedder,
		filter:    filter,
		words:     words,
		perSearch: perSearch,
		logger:    logging.OrNop(cfg.Logger),
	}, nil
}

// Index returns the search index, loading the common-word matrix on first
// success.
func (a *Aggregator) Index(ctx context.Context) (*Index, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.index != nil {
		return a.index, nil
	}
	m, err := a.embedder.CommonWordEmbeddings(ctx, a.words)
	if err != nil {
		return nil, fmt.Errorf("failed to load common word embeddings: %w", err)
	}
	a.index = NewIndex(m)
	return a.index, nil
}

// FindNearPair returns candidate clue words for word0 and word1, closest
// first. Words near both inputs, near "word0 word1" and near "word1 word0"
// are merged; forms of either input word are removed.
func (a *Aggregator) FindNearPair(ctx context.Context, word0, word1 string) ([]string, error) {
	index, err := a.Index(ctx)
	if err != nil {
		return nil, err
	}

	docs := []string{word0, word1, word0 + " " + word1, word1 + " " + word0}
	probes, err := a.embedder.Embeddings(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %q and %q: %w", word0, word1, err)
	}

	searches := []struct {
		name   string
		probes []types.Vector
	}{
		{docs[0] + " & " + docs[1], probes[0:2]},
		{docs[2], probes[2:3]},
		{docs[3], probes[3:4]},
	}

	set := NewCandidateSet()
	for _, s := range searches {
		found, err := index.FindNear(ctx, s.probes, a.perSearch)
		if err != nil {
			return nil, fmt.Errorf("search near %q failed: %w", s.name, err)
		}
		a.logger.Info("nearest words",
			zap.String("query", s.name),
			zap.Strings("words", Words(found)),
		)
		set.AddAll(found)
	}

	candidates := Words(set.Sorted())
	candidates = a.filter.RemoveWordFormsOf(word0, candidates)
	candidates = a.filter.RemoveWordFormsOf(word1, candidates)
	return candidates, nil
}
