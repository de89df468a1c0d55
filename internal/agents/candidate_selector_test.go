package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestCandidateSelector_SingleCandidateShortCircuits(t *testing.T) {
	selector, err := NewCandidateSelector(CandidateSelectorConfig{Client: llmtest.New()})
	require.NoError(t, err)

	result := selector.Select(context.Background(), "source", []string{"only candidate"}, "", "terminology")
	assert.Equal(t, "only candidate", result.BestCandidate)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 0, result.BestIndex)
}

func TestCandidateSelector_HappyPath(t *testing.T) {
	client := llmtest.WithJSON(`{"best_index": 1, "confidence": 0.8, "reasoning": "clearer phrasing", "per_candidate_analysis": ["ok", "better"], "all_scores": [0.5, 0.8]}`)
	selector, err := NewCandidateSelector(CandidateSelectorConfig{Client: client})
	require.NoError(t, err)

	result := selector.Select(context.Background(), "source", []string{"a", "b"}, "", "syntax")
	assert.Equal(t, "b", result.BestCandidate)
	assert.Equal(t, 1, result.BestIndex)
}

func TestCandidateSelector_OutOfRangeIndexFallsBack(t *testing.T) {
	client := llmtest.WithJSON(`{"best_index": 5, "confidence": 0.9, "reasoning": "bogus"}`)
	selector, err := NewCandidateSelector(CandidateSelectorConfig{Client: client})
	require.NoError(t, err)

	result := selector.Select(context.Background(), "source", []string{"a", "b"}, "", "discourse")
	assert.Equal(t, 0, result.BestIndex)
	assert.Equal(t, "a", result.BestCandidate)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestCandidateSelector_CallFailureFallsBackWithReason(t *testing.T) {
	client := llmtest.New(llmtest.Step{Err: llmtest.TransientError("down")})
	selector, err := NewCandidateSelector(CandidateSelectorConfig{Client: client})
	require.NoError(t, err)

	result := selector.Select(context.Background(), "source", []string{"a", "b"}, "", "discourse")
	assert.Equal(t, 0, result.BestIndex)
	assert.Equal(t, "a", result.BestCandidate)
	assert.NotEmpty(t, result.Reasoning)
}

func TestCandidateSelector_NoCandidates(t *testing.T) {
	selector, err := NewCandidateSelector(CandidateSelectorConfig{Client: llmtest.New()})
	require.NoError(t, err)

	result := selector.Select(context.Background(), "source", nil, "", "discourse")
	assert.Equal(t, 0, result.BestIndex)
	assert.Equal(t, 0.5, result.Confidence)
}
