package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestDiscourseEvaluator_HappyPath(t *testing.T) {
	client := llmtest.WithJSON(`{
		"coherence": {"score": 0.8, "issues": []},
		"consistency": {"score": 0.5, "issues": ["term drift vs reference"]},
		"overall": 0.65,
		"terminology_differences": ["force majeure vs act of god"],
		"syntax_differences": [],
		"recommendations": ["align with reference terminology"]
	}`)
	evaluator, err := NewDiscourseEvaluator(DiscourseEvaluateConfig{Client: client})
	require.NoError(t, err)

	eval := evaluator.Evaluate(context.Background(), "source", "current", nil, Langs{})
	assert.Equal(t, 0.65, eval.Overall)
	assert.Len(t, eval.TerminologyDifferences, 1)
}

func TestDiscourseEvaluator_DegradesOnFailure(t *testing.T) {
	client := llmtest.New(llmtest.Step{Err: llmtest.TransientError("down")})
	evaluator, err := NewDiscourseEvaluator(DiscourseEvaluateConfig{Client: client})
	require.NoError(t, err)

	eval := evaluator.Evaluate(context.Background(), "source", "current", nil, Langs{})
	assert.Equal(t, 0.0, eval.Overall)
}
