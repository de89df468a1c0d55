package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestSyntaxEvaluator_HappyPath(t *testing.T) {
	client := llmtest.WithJSON(`{
		"modality": {"score": 0.9, "issues": []},
		"connectives": {"score": 0.4, "issues": ["dropped conditional connective"]},
		"conditional": {"score": 0.95, "issues": []},
		"passive": {"score": 0.6, "issues": []},
		"overall": 0.71,
		"recommendations": ["restore the connective"]
	}`)
	evaluator, err := NewSyntaxEvaluator(SyntaxEvaluateConfig{Client: client})
	require.NoError(t, err)

	eval := evaluator.Evaluate(context.Background(), "source", "current", nil, Langs{})
	assert.Equal(t, 0.71, eval.Overall)
	assert.Equal(t, []string{"connectives", "passive"}, eval.LowScoreDimensions(0.85))
}

func TestSyntaxEvaluator_DegradesToFailingEveryDimension(t *testing.T) {
	client := llmtest.New(llmtest.Step{Err: llmtest.TransientError("down")})
	evaluator, err := NewSyntaxEvaluator(SyntaxEvaluateConfig{Client: client})
	require.NoError(t, err)

	eval := evaluator.Evaluate(context.Background(), "source", "current", nil, Langs{})
	assert.Equal(t, 0.0, eval.Overall)
	assert.Len(t, eval.LowScoreDimensions(0.5), 4)
}
