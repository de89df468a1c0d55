package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestMonoExtractor_HappyPath(t *testing.T) {
	client := llmtest.WithJSON(`{"terms": [{"term": "不可抗力", "score": 0.9, "category": "legal_concept"}]}`)
	extractor, err := NewMonoExtractor(MonoExtractConfig{Client: client})
	require.NoError(t, err)

	terms := extractor.Extract(context.Background(), "不可抗力条款适用于本合同")
	require.Len(t, terms, 1)
	assert.Equal(t, "不可抗力", terms[0].Term)
	assert.Equal(t, 0.9, terms[0].Score)
}

func TestMonoExtractor_DegradesOnSchemaFailure(t *testing.T) {
	client := llmtest.WithJSON(`not json`)
	extractor, err := NewMonoExtractor(MonoExtractConfig{Client: client})
	require.NoError(t, err)

	terms := extractor.Extract(context.Background(), "anything")
	assert.NotNil(t, terms)
	assert.Empty(t, terms)
}

func TestMonoExtractor_DegradesOnTransientError(t *testing.T) {
	client := llmtest.New(llmtest.Step{Err: llmtest.TransientError("rate limited")})
	extractor, err := NewMonoExtractor(MonoExtractConfig{Client: client})
	require.NoError(t, err)

	terms := extractor.Extract(context.Background(), "anything")
	assert.NotNil(t, terms)
	assert.Empty(t, terms)
}

func TestMonoExtractConfig_RequiresClient(t *testing.T) {
	_, err := NewMonoExtractor(MonoExtractConfig{})
	assert.Error(t, err)
}
