package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/errs"
)

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ConfigError)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("EMBEDDING_DIM", "")
	t.Setenv("LLM_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 1536, cfg.LLM.EmbeddingDim)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, "terms.db", cfg.Storage.TermbasePath)
}

func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MAX_RETRIES", "not-a-number")
	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ConfigError)
}
