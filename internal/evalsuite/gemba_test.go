package evalsuite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/llm/llmtest"
)

func TestGEMBA_DAScoreIsNormalizedToUnitRange(t *testing.T) {
	g, err := NewGEMBA(GEMBAConfig{Client: llmtest.WithJSON(`{"score": 85}`)})
	require.NoError(t, err)

	scores := g.Score(context.Background(), []Triple{{Source: "s", Prediction: "p", Reference: "r"}})
	assert.InDelta(t, 0.85, scores[0], 1e-9)
	assert.Equal(t, "gemba_da", g.Name())
}

func TestGEMBA_MQMScorePenalizesBySeverity(t *testing.T) {
	g, err := NewGEMBA(GEMBAConfig{
		Client: llmtest.WithJSON(`{"minor_errors": 2, "major_errors": 1, "critical_errors": 0}`),
		Mode:   GembaMQM,
	})
	require.NoError(t, err)

	scores := g.Score(context.Background(), []Triple{{Source: "s", Prediction: "p", Reference: "r"}})
	// penalty = 2 + 5*1 = 7; score = 1 - 7/25 = 0.72
	assert.InDelta(t, 0.72, scores[0], 1e-9)
	assert.Equal(t, "gemba_mqm", g.Name())
}

func TestGEMBA_DegradesToZeroOnFailure(t *testing.T) {
	g, err := NewGEMBA(GEMBAConfig{Client: llmtest.New()})
	require.NoError(t, err)

	scores := g.Score(context.Background(), []Triple{{Source: "s", Prediction: "p", Reference: "r"}})
	assert.Equal(t, []float64{0}, scores)
}

func TestGEMBA_MQMPenaltyNeverGoesNegative(t *testing.T) {
	g, err := NewGEMBA(GEMBAConfig{
		Client: llmtest.WithJSON(`{"minor_errors": 100, "major_errors": 0, "critical_errors": 0}`),
		Mode:   GembaMQM,
	})
	require.NoError(t, err)

	scores := g.Score(context.Background(), []Triple{{Source: "s", Prediction: "p", Reference: "r"}})
	assert.Equal(t, 0.0, scores[0])
}

func TestNewGEMBA_RequiresClient(t *testing.T) {
	_, err := NewGEMBA(GEMBAConfig{})
	assert.Error(t, err)
}
