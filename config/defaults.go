package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.VocabularyPath == "" {
		cfg.Storage.VocabularyPath = "words_by_frequency.json"
	}
	if cfg.Storage.EmbeddingsPath == "" {
		cfg.Storage.EmbeddingsPath = "common_word_embeddings.db"
	}
	if cfg.Storage.LLMCachePath == "" {
		cfg.Storage.LLMCachePath = "llm-cache.json"
	}
	if cfg.Storage.EmbeddingCachePath == "" {
		cfg.Storage.EmbeddingCachePath = "embeddings-cache.db"
	}
	if cfg.Storage.ResultsPath == "" {
		cfg.Storage.ResultsPath = "results.json"
	}
	if cfg.Vocabulary.MaxWords == 0 {
		cfg.Vocabulary.MaxWords = 200000
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.MaxWords == 0 {
		cfg.Embedding.MaxWords = 60000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 512
	}
	if cfg.Search.Words == 0 {
		cfg.Search.Words = 60000
	}
	if cfg.Search.PerSearch == 0 {
		cfg.Search.PerSearch = 20
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "openai"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-4-1106-preview"
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 1024
	}
	if cfg.Generation.Temperatures == nil {
		cfg.Generation.Temperatures = []float64{0.0, 0.5, 0.9}
	}
	if cfg.Generation.Trials == 0 {
		cfg.Generation.Trials = 3
	}
	if cfg.Generation.Methods == nil {
		cfg.Generation.Methods = []string{"m09_embeddings", "m01_direct"}
	}
	if cfg.Generation.Concurrency == 0 {
		cfg.Generation.Concurrency = 1
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "soclover:"
	}
}
