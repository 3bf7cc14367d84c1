// Package config provides configuration loading and structs for the clue engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool                   `yaml:"debug"`
	Storage    StorageConfig          `yaml:"storage"`
	Vocabulary VocabularyConfig       `yaml:"vocabulary"`
	Embedding  EmbeddingConfig        `yaml:"embedding"`
	Search     SearchConfig           `yaml:"search"`
	Generation GenerationConfig       `yaml:"generation"`
	Cache      CacheConfig            `yaml:"cache"`
	Pricing    map[string]PriceConfig `yaml:"pricing"`
}

// StorageConfig holds paths of every persisted file.
type StorageConfig struct {
	VocabularyPath     string `yaml:"vocabulary_path"`
	CorpusPath         string `yaml:"corpus_path"`
	EmbeddingsPath     string `yaml:"embeddings_path"`
	LLMCachePath       string `yaml:"llm_cache_path"`
	EmbeddingCachePath string `yaml:"embedding_cache_path"`
	ResultsPath        string `yaml:"results_path"`
}

// VocabularyConfig bounds the frequency-ranked vocabulary.
type VocabularyConfig struct {
	MaxWords int `yaml:"max_words"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	MaxWords  int    `yaml:"max_words"`
	BatchSize int    `yaml:"batch_size"`
	Normalize bool   `yaml:"normalize"`
}

// SearchConfig holds nearest-neighbor search settings.
type SearchConfig struct {
	Words     int `yaml:"words"`
	PerSearch int `yaml:"per_search"`
}

// GenerationConfig selects the response generator and the sweep to run.
type GenerationConfig struct {
	Provider     string            `yaml:"provider"`
	Model        string            `yaml:"model"`
	APIKey       string            `yaml:"api_key"`
	BaseURL      string            `yaml:"base_url"`
	MaxTokens    int               `yaml:"max_tokens"`
	Choices      int               `yaml:"choices"`
	Temperatures []float64         `yaml:"temperatures"`
	Trials       int               `yaml:"trials"`
	Concurrency  int               `yaml:"concurrency"`
	Methods      []string          `yaml:"methods"`
	Prompts      map[string]string `yaml:"prompts"`
}

// CacheConfig selects the call cache backend.
type CacheConfig struct {
	Backend  string `yaml:"backend"`
	RedisURL string `yaml:"redis_url"`
	Prefix   string `yaml:"prefix"`
}

// PriceConfig is the USD price per 1000 tokens for one model.
type PriceConfig struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.VocabularyPath = expandPath(cfg.Storage.VocabularyPath, configDir)
	cfg.Storage.EmbeddingsPath = expandPath(cfg.Storage.EmbeddingsPath, configDir)
	cfg.Storage.LLMCachePath = expandPath(cfg.Storage.LLMCachePath, configDir)
	cfg.Storage.EmbeddingCachePath = expandPath(cfg.Storage.EmbeddingCachePath, configDir)
	cfg.Storage.CorpusPath = expandPath(cfg.Storage.CorpusPath, configDir)
	cfg.Storage.ResultsPath = expandPath(cfg.Storage.ResultsPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Embedding.MaxWords > c.Vocabulary.MaxWords {
		return fmt.Errorf("embedding.max_words (%d) exceeds vocabulary.max_words (%d)", c.Embedding.MaxWords, c.Vocabulary.MaxWords)
	}
	if c.Search.Words > c.Embedding.MaxWords {
		return fmt.Errorf("search.words (%d) exceeds embedding.max_words (%d)", c.Search.Words, c.Embedding.MaxWords)
	}
	if c.Generation.Trials < 0 {
		return fmt.Errorf("generation.trials must be non-negative")
	}
	return nil
}

// expandPath makes relative paths relative to the directory holding the config file.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(configDir, path)
}
