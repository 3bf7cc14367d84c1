package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
embedding:
  model: "text-embedding-3-small"
  max_words: 1000
search:
  words: 500
generation:
  temperatures: [0.2]
  trials: 2
pricing:
  my-model:
    input: 0.5
    output: 1.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1000, cfg.Embedding.MaxWords)
	assert.Equal(t, 500, cfg.Search.Words)
	assert.Equal(t, []float64{0.2}, cfg.Generation.Temperatures)
	assert.Equal(t, 2, cfg.Generation.Trials)
	assert.Equal(t, PriceConfig{Input: 0.5, Output: 1.5}, cfg.Pricing["my-model"])
	assert.False(t, cfg.Debug, "debug should default to false when unset")
}

func TestLoad_defaults(t *testing.T) {
	path := writeConfig(t, "debug: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 200000, cfg.Vocabulary.MaxWords)
	assert.Equal(t, 60000, cfg.Embedding.MaxWords)
	assert.Equal(t, 20, cfg.Search.PerSearch)
	assert.Equal(t, "gpt-4-1106-preview", cfg.Generation.Model)
	assert.Equal(t, []float64{0.0, 0.5, 0.9}, cfg.Generation.Temperatures)
	assert.Equal(t, "file", cfg.Cache.Backend)
}

func TestLoad_pathsRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  llm_cache_path: "cache/llm.json"
  vocabulary_path: "/abs/words.json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "cache/llm.json"), cfg.Storage.LLMCachePath)
	assert.Equal(t, "/abs/words.json", cfg.Storage.VocabularyPath)
	assert.Equal(t, filepath.Join(dir, "embeddings-cache.db"), cfg.Storage.EmbeddingCachePath)
}

func TestLoad_rejectsSearchLargerThanEmbeddings(t *testing.T) {
	path := writeConfig(t, `
embedding:
  max_words: 100
search:
  words: 200
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.words")
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
