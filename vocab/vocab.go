// Package vocab maintains the frequency-ranked English vocabulary the
// embedding search draws its candidates from.
package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ForrestTrepte/SoCloverAI/logging"
	"github.com/ForrestTrepte/SoCloverAI/types"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxWords is the size of the persisted ranking.
const DefaultMaxWords = 200000

// Config configures a Store.
type Config struct {
	// Path of the persisted ranking, a JSON array of words.
	Path string
	// MaxWords is the ranking size; requests above it fail.
	MaxWords int
	// Corpus rebuilds the ranking when the persisted file is missing or too short.
	Corpus types.Corpus
	Logger *zap.Logger
}

// Store serves the most common words, loading or rebuilding the ranking once.
type Store struct {
	path     string
	maxWords int
	corpus   types.Corpus
	logger   *zap.Logger

	mu    sync.Mutex
	words []string
}

// NewStore creates a vocabulary store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("vocabulary path cannot be empty")
	}
	maxWords := cfg.MaxWords
	if maxWords == 0 {
		maxWords = DefaultMaxWords
	}
	if maxWords < 0 {
		return nil, fmt.Errorf("%w: max words must be positive, got %d", types.ErrConfiguration, maxWords)
	}
	return &Store{
		path:     cfg.Path,
		maxWords: maxWords,
		corpus:   cfg.Corpus,
		logger:   logging.OrNop(cfg.Logger),
	}, nil
}

// MaxWords returns the configured ranking size.
func (s *Store) MaxWords() int {
	return s.maxWords
}

// CommonWords returns the n most frequent words.
func (s *Store) CommonWords(ctx context.Context, n int) ([]string, error) {
	if n < 0 || n > s.maxWords {
		return nil, fmt.Errorf("%w: requested %d common words, maximum is %d", types.ErrConfiguration, n, s.maxWords)
	}
	words, err := s.SortedWords(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(words) {
		return nil, fmt.Errorf("%w: requested %d common words, ranking holds %d", types.ErrDataIntegrity, n, len(words))
	}
	return words[:n:n], nil
}

// SortedWords returns the whole ranking, most frequent first.
func (s *Store) SortedWords(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.words != nil {
		return s.words, nil
	}

	words, err := s.load()
	switch {
	case err == nil && len(words) >= s.maxWords:
		s.words = words
		return words, nil
	case err == nil:
		s.logger.Info("maximum common words has increased, regenerating ranking",
			zap.String("path", s.path),
			zap.Int("persisted", len(words)),
			zap.Int("required", s.maxWords),
		)
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("generating ranking", zap.String("path", s.path))
	default:
		return nil, err
	}

	words, err = s.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	s.words = words
	return words, nil
}

func (s *Store) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("failed to parse ranking %s: %w", s.path, err)
	}
	return words, nil
}

func (s *Store) rebuild(ctx context.Context) ([]string, error) {
	if s.corpus == nil {
		return nil, fmt.Errorf("%w: ranking %s must be regenerated but no corpus is configured", types.ErrConfiguration, s.path)
	}
	tokens, err := s.corpus.Words(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	valid := make([]types.CorpusWord, 0, min(len(tokens), s.maxWords))
	var invalid []string
	for _, token := range tokens {
		if len(valid) >= s.maxWords {
			break
		}
		if IsValidWord(token.Word) {
			valid = append(valid, token)
		} else {
			invalid = append(invalid, token.Word)
		}
	}

	s.logger.Info("loaded corpus words",
		zap.Int("valid", len(valid)),
		zap.Int("invalid", len(invalid)),
	)
	if ce := s.logger.Check(zap.DebugLevel, "filtered out invalid words"); ce != nil {
		printable := make([]string, 0, len(invalid))
		for _, w := range invalid {
			if !ContainsProblematicCharacters(w) {
				printable = append(printable, w)
			}
		}
		ce.Write(zap.String("words", strings.Join(printable, ", ")))
	}

	// The corpus is usually sorted already; sort anyway so the ranking does not depend on it.
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Count > valid[j].Count
	})

	words := make([]string, len(valid))
	for i, token := range valid {
		words[i] = token.Word
	}
	if err := s.persist(words); err != nil {
		return nil, err
	}
	return words, nil
}

func (s *Store) persist(words []string) error {
	data, err := json.MarshalIndent(words, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ranking: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create ranking dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write ranking: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace ranking: %w", err)
	}
	return nil
}

// IsValidWord reports whether a corpus token belongs in the ranking: it must
// be encodable in Windows-1252 and either alphabetic or a single symbol such as "$".
func IsValidWord(word string) bool {
	if word == "" || ContainsProblematicCharacters(word) {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return utf8.RuneCountInString(word) == 1
		}
	}
	return true
}

// ContainsProblematicCharacters reports whether s cannot be represented in
// the Windows-1252 encoding.
func ContainsProblematicCharacters(s string) bool {
	_, err := charmap.Windows1252.NewEncoder().String(s)
	return err != nil
}
