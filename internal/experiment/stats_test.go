package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalmt/hct/internal/translator"
)

func TestComputeStats_ModificationAndGatingRates(t *testing.T) {
	results := []SampleResult{
		{
			Success: true,
			Metrics: map[string]float64{"lexical_overlap_placeholder": 0.8},
			Trace: map[string]any{
				"r1": translator.R1Trace{Output: "same text"},
				"r2": translator.R2Trace{Output: "same text", Gated: true},
				"r3": translator.R3Trace{Output: "changed text", Gated: false},
			},
		},
		{
			Success: true,
			Metrics: map[string]float64{"lexical_overlap_placeholder": 0.4},
			Trace: map[string]any{
				"r1": translator.R1Trace{Output: "a"},
				"r2": translator.R2Trace{Output: "b", Gated: false},
				"r3": translator.R3Trace{Output: "b", Gated: true},
			},
		},
		{Success: false},
	}

	stats := ComputeStats(results)

	assert.Equal(t, 3, stats.TotalSamples)
	assert.Equal(t, 2, stats.SuccessfulSamples)
	assert.InDelta(t, 0.5, stats.ModificationRates["r1_to_r2"], 1e-9)
	assert.InDelta(t, 0.5, stats.ModificationRates["r2_to_r3"], 1e-9)
	assert.InDelta(t, 1.0, stats.ModificationRates["r1_to_r3"], 1e-9)
	assert.InDelta(t, 0.5, stats.GatingRates["r2"], 1e-9)
	assert.InDelta(t, 0.5, stats.GatingRates["r3"], 1e-9)
	assert.InDelta(t, 0.6, stats.AverageMetrics["lexical_overlap_placeholder"], 1e-9)
}

func TestComputeStats_NoTraceYieldsZeroRates(t *testing.T) {
	results := []SampleResult{{Success: true, Metrics: map[string]float64{"x": 1}}}

	stats := ComputeStats(results)

	assert.Equal(t, 0.0, stats.ModificationRates["r1_to_r2"])
	assert.Equal(t, 0.0, stats.GatingRates["r2"])
	assert.Equal(t, 1.0, stats.AverageMetrics["x"])
}
