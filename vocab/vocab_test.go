package vocab

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ForrestTrepte/SoCloverAI/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCorpus struct {
	words []types.CorpusWord
	calls int
}

func (c *countingCorpus) Words(ctx context.Context) ([]types.CorpusWord, error) {
	c.calls++
	return c.words, nil
}

func TestIsValidWord(t *testing.T) {
	cases := map[string]bool{
		"apple":    true,
		"Café":     true,
		"$":        true,
		"€":        true, // in Windows-1252
		"1":        true,
		"42":       false,
		"New_York": false,
		"don't":    false,
		"日本":       false,
		"":         false,
		"ŝ":        false,
	}
	for word, want := range cases {
		assert.Equal(t, want, IsValidWord(word), word)
	}
}

func TestCommonWords_rebuildsFromCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	corpus := &countingCorpus{words: []types.CorpusWord{
		{Word: "the", Count: 100},
		{Word: "New_York", Count: 90},
		{Word: "and", Count: 120},
		{Word: "$", Count: 5},
		{Word: "of", Count: 80},
		{Word: "extra", Count: 1},
	}}
	store, err := NewStore(Config{Path: path, MaxWords: 4, Corpus: corpus})
	require.NoError(t, err)

	words, err := store.CommonWords(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"and", "the", "of"}, words)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var persisted []string
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, []string{"and", "the", "of", "$"}, persisted)

	// Served from memory afterwards.
	_, err = store.CommonWords(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.calls)
}

func TestCommonWords_loadsPersistedRanking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a","b","c"]`), 0644))

	store, err := NewStore(Config{Path: path, MaxWords: 3})
	require.NoError(t, err)

	words, err := store.CommonWords(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, words)
}

func TestCommonWords_regeneratesUndersizedRanking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a"]`), 0644))

	corpus := &countingCorpus{words: []types.CorpusWord{
		{Word: "x", Count: 3}, {Word: "y", Count: 2},
	}}
	store, err := NewStore(Config{Path: path, MaxWords: 2, Corpus: corpus})
	require.NoError(t, err)

	words, err := store.CommonWords(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, words)
	assert.Equal(t, 1, corpus.calls)
}

func TestCommonWords_exceedsMaximum(t *testing.T) {
	store, err := NewStore(Config{Path: filepath.Join(t.TempDir(), "w.json"), MaxWords: 10})
	require.NoError(t, err)

	_, err = store.CommonWords(context.Background(), 11)
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestCommonWords_missingFileWithoutCorpus(t *testing.T) {
	store, err := NewStore(Config{Path: filepath.Join(t.TempDir(), "w.json"), MaxWords: 10})
	require.NoError(t, err)

	_, err = store.CommonWords(context.Background(), 1)
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestCountsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.txt")
	require.NoError(t, os.WriteFile(path, []byte("# header\nthe 10\n\nof 7\n"), 0644))

	words, err := CountsFile(path).Words(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.CorpusWord{{Word: "the", Count: 10}, {Word: "of", Count: 7}}, words)

	require.NoError(t, os.WriteFile(path, []byte("bad line here\n"), 0644))
	_, err = CountsFile(path).Words(context.Background())
	require.Error(t, err)
}
