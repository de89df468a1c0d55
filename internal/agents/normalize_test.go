package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestNormalizer_HappyPath(t *testing.T) {
	client := llmtest.WithJSON(`{"normalized": ["force majeure", "force majeure"]}`)
	normalizer, err := NewNormalizer(NormalizeConfig{Client: client})
	require.NoError(t, err)

	out := normalizer.Normalize(context.Background(), []string{"force majeures", "force majeure"}, "en", NormalizeTarget)
	assert.Equal(t, []string{"force majeure", "force majeure"}, out)
}

func TestNormalizer_DegradesToUnchangedOnFailure(t *testing.T) {
	client := llmtest.New(llmtest.Step{Err: llmtest.TransientError("down")})
	normalizer, err := NewNormalizer(NormalizeConfig{Client: client})
	require.NoError(t, err)

	in := []string{"不可抗力", "违约金"}
	out := normalizer.Normalize(context.Background(), in, "zh", NormalizeSource)
	assert.Equal(t, in, out)
}

func TestNormalizer_EmptyInput(t *testing.T) {
	normalizer, err := NewNormalizer(NormalizeConfig{Client: llmtest.New()})
	require.NoError(t, err)
	assert.Empty(t, normalizer.Normalize(context.Background(), nil, "en", NormalizeSource))
}
