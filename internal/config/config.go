// Package config loads the process-wide startup configuration the spec
// requires (spec.md §6): LLM provider connection settings, the Milvus and
// SQLite connection settings, and the TranslationControlConfig thresholds.
// It is read once at startup (cmd/termextract, cmd/experiment) and passed
// down explicitly; nothing downstream re-reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/legalmt/hct/internal/errs"
)

// LLM holds the connection and policy settings for the LLM client (C1).
type LLM struct {
	APIKey        string
	BaseURL       string
	Model         string
	EmbedModel    string
	EmbeddingDim  int
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int
}

// Storage holds the termbase and TM index connection settings.
type Storage struct {
	TermbasePath     string
	BM25SnapshotPath string
	MilvusHost       string
	MilvusPort       int
	MilvusCollection string
}

// Config is the fully-resolved process configuration.
type Config struct {
	LLM     LLM
	Storage Storage
}

// Load reads a .env file if present (ignored if absent, matching
// godotenv's own "best effort" convention) and then the environment
// variables named in spec.md §6, returning a ConfigError if anything
// required is missing or malformed.
func Load() (*Config, error) {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required", errs.ConfigError)
	}

	embeddingDim, err := intEnv("EMBEDDING_DIM", 1536)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ConfigError, err)
	}

	timeoutSeconds, err := intEnv("LLM_TIMEOUT", 300)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ConfigError, err)
	}

	maxRetries, err := intEnv("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ConfigError, err)
	}

	maxConcurrent, err := intEnv("LLM_MAX_CONCURRENT", 8)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ConfigError, err)
	}

	milvusPort, err := intEnv("MILVUS_PORT", 19530)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ConfigError, err)
	}

	cfg := &Config{
		LLM: LLM{
			APIKey:        apiKey,
			BaseURL:       os.Getenv("OPENAI_BASE_URL"),
			Model:         envOr("OPENAI_API_MODEL", "gpt-4o-mini"),
			EmbedModel:    envOr("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
			EmbeddingDim:  embeddingDim,
			Timeout:       time.Duration(timeoutSeconds) * time.Second,
			MaxRetries:    maxRetries,
			MaxConcurrent: maxConcurrent,
		},
		Storage: Storage{
			TermbasePath:     envOr("TERMBASE_PATH", "terms.db"),
			BM25SnapshotPath: envOr("TM_BM25_INDEX_PATH", "tm_bm25_index.json"),
			MilvusHost:       envOr("MILVUS_HOST", "localhost"),
			MilvusPort:       milvusPort,
			MilvusCollection: envOr("TM_COLLECTION", "translation_memory"),
		},
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}
