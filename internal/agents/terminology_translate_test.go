package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestTerminologyTranslator_SingleRendering(t *testing.T) {
	client := llmtest.WithJSON(`{"translated_text": "This is subject to force majeure.", "confidence": 0.88}`)
	translator, err := NewTerminologyTranslator(TerminologyTranslateConfig{Client: client})
	require.NoError(t, err)

	result := translator.Translate(context.Background(), "source", []TermEntry{{SourceTerm: "不可抗力", TargetTerm: "force majeure"}}, Langs{Source: "zh", Target: "en"}, false, 0)
	assert.Equal(t, "This is subject to force majeure.", result.TranslatedText)
	assert.Equal(t, 0.88, result.Confidence)
	assert.Len(t, result.TermTable, 1)
	assert.Empty(t, result.Candidates)
}

func TestTerminologyTranslator_GeneratesCandidates(t *testing.T) {
	client := llmtest.WithJSON(`{"candidates": ["rendering one", "rendering two"], "confidence": 0.7}`)
	translator, err := NewTerminologyTranslator(TerminologyTranslateConfig{Client: client})
	require.NoError(t, err)

	result := translator.Translate(context.Background(), "source", nil, Langs{}, true, 2)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "rendering one", result.TranslatedText)
}

func TestTerminologyTranslator_DegradesOnFailure(t *testing.T) {
	client := llmtest.New(llmtest.Step{Err: llmtest.TransientError("down")})
	translator, err := NewTerminologyTranslator(TerminologyTranslateConfig{Client: client})
	require.NoError(t, err)

	termTable := []TermEntry{{SourceTerm: "a", TargetTerm: "b"}}
	result := translator.Translate(context.Background(), "source", termTable, Langs{}, false, 0)
	assert.Empty(t, result.TranslatedText)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, termTable, result.TermTable)
}
