package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestDiscourseRefiner_Refine(t *testing.T) {
	client := llmtest.WithJSON(`{"refined_text": "revised text", "confidence": 0.7}`)
	refiner, err := NewDiscourseRefiner(DiscourseRefineConfig{Client: client})
	require.NoError(t, err)

	result := refiner.Refine(context.Background(), "source", "current", nil, DiscourseEvaluation{}, Langs{})
	assert.Equal(t, "revised text", result.RefinedText)
}

func TestDiscourseRefiner_RefineWithCandidates_InsertsCurrentAsCandidateZero(t *testing.T) {
	client := llmtest.WithJSON(`{"candidates": ["alt one", "alt two"], "confidence": 0.6}`)
	refiner, err := NewDiscourseRefiner(DiscourseRefineConfig{Client: client})
	require.NoError(t, err)

	result := refiner.RefineWithCandidates(context.Background(), "source", "current translation", nil, DiscourseEvaluation{}, Langs{}, 3)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, "current translation", result.Candidates[0])
	assert.Equal(t, "alt one", result.Candidates[1])
	assert.Equal(t, "alt two", result.Candidates[2])
}

func TestDiscourseRefiner_RefineWithCandidates_SingleCandidateIsCurrentTranslation(t *testing.T) {
	refiner, err := NewDiscourseRefiner(DiscourseRefineConfig{Client: llmtest.New()})
	require.NoError(t, err)

	result := refiner.RefineWithCandidates(context.Background(), "source", "current", nil, DiscourseEvaluation{}, Langs{}, 1)
	assert.Equal(t, []string{"current"}, result.Candidates)
}

func TestDiscourseRefiner_DegradesToCurrentTranslation(t *testing.T) {
	client := llmtest.New(llmtest.Step{Err: llmtest.TransientError("down")})
	refiner, err := NewDiscourseRefiner(DiscourseRefineConfig{Client: client})
	require.NoError(t, err)

	result := refiner.Refine(context.Background(), "source", "current", nil, DiscourseEvaluation{}, Langs{})
	assert.Equal(t, "current", result.RefinedText)
}
