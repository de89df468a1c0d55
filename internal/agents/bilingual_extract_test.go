package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestBilingualExtractor_ExtractPair(t *testing.T) {
	client := llmtest.WithJSON(`{"terms": [{"source_term": "不可抗力", "target_term": "force majeure", "score": 0.95, "category": "legal_concept"}]}`)
	extractor, err := NewBilingualExtractor(BilingualExtractConfig{Client: client})
	require.NoError(t, err)

	terms := extractor.ExtractPair(context.Background(), TextPair{
		SourceText: "不可抗力条款", TargetText: "force majeure clause", SourceLang: "zh", TargetLang: "en",
	})
	require.Len(t, terms, 1)
	assert.Equal(t, "force majeure", terms[0].TargetTerm)
}

func TestBilingualExtractor_ExtractBatch_ChunksAndPreservesOrder(t *testing.T) {
	client := llmtest.New(
		llmtest.Step{Content: `{"pairs": [{"terms": [{"source_term": "a", "target_term": "A", "score": 0.5, "category": "x"}]}, {"terms": []}]}`},
		llmtest.Step{Content: `{"pairs": [{"terms": [{"source_term": "b", "target_term": "B", "score": 0.5, "category": "x"}]}]}`},
	)
	extractor, err := NewBilingualExtractor(BilingualExtractConfig{Client: client})
	require.NoError(t, err)

	pairs := []TextPair{
		{SourceText: "a1", TargetText: "A1"},
		{SourceText: "a2", TargetText: "A2"},
		{SourceText: "b1", TargetText: "B1"},
	}
	results := extractor.ExtractBatch(context.Background(), pairs, 2)
	require.Len(t, results, 3)
	require.Len(t, results[0], 1)
	assert.Equal(t, "A", results[0][0].TargetTerm)
	assert.Empty(t, results[1])
	require.Len(t, results[2], 1)
	assert.Equal(t, "B", results[2][0].TargetTerm)
	assert.Equal(t, 2, client.Calls())
}

func TestBilingualExtractor_ExtractBatch_DegradesChunkOnCountMismatch(t *testing.T) {
	client := llmtest.WithJSON(`{"pairs": [{"terms": []}]}`)
	extractor, err := NewBilingualExtractor(BilingualExtractConfig{Client: client})
	require.NoError(t, err)

	results := extractor.ExtractBatch(context.Background(), []TextPair{{SourceText: "a"}, {SourceText: "b"}}, 10)
	require.Len(t, results, 2)
	assert.Empty(t, results[0])
	assert.Empty(t, results[1])
}

func TestBilingualExtractor_ExtractBatch_EmptyInput(t *testing.T) {
	extractor, err := NewBilingualExtractor(BilingualExtractConfig{Client: llmtest.WithJSON(`{}`)})
	require.NoError(t, err)
	assert.Empty(t, extractor.ExtractBatch(context.Background(), nil, 10))
}
