package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalmt/hct/internal/translator"
)

func TestDeriveLayerResults_ProjectsRoundOutputs(t *testing.T) {
	full := []SampleResult{
		{
			SampleID:   "s1",
			Source:     "合同双方应当遵守本协议。",
			Target:     "ref",
			Prediction: "final r3 text",
			Success:    true,
			Trace: map[string]any{
				"r1": translator.R1Trace{Output: "r1 text"},
				"r2": translator.R2Trace{Output: "r2 text"},
				"r3": translator.R3Trace{Output: "final r3 text"},
			},
		},
	}

	terminology, terminologySyntax := DeriveLayerResults(full)

	require := assert.New(t)
	require.Equal("s1", terminology[0].SampleID)
	require.Equal("r1 text", terminology[0].Prediction)
	require.True(terminology[0].Success)

	require.Equal("r2 text", terminologySyntax[0].Prediction)
	require.True(terminologySyntax[0].Success)
}

func TestDeriveLayerResults_MissingTraceYieldsFailedProjection(t *testing.T) {
	full := []SampleResult{
		{SampleID: "s1", Source: "合同", Success: true, Trace: nil},
	}

	terminology, terminologySyntax := DeriveLayerResults(full)

	assert.False(t, terminology[0].Success)
	assert.Equal(t, "Empty translation result", terminology[0].Error)
	assert.Equal(t, "合同", terminology[0].Prediction)
	assert.False(t, terminologySyntax[0].Success)
}
