package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/control"
	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/experiment"
	"github.com/legalmt/hct/internal/translator"
)

func writeTestSetFile(t *testing.T, entries []testSetEntry) string {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "test_set.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadSamples_ParsesEveryField(t *testing.T) {
	path := writeTestSetFile(t, []testSetEntry{
		{ID: "s1", Source: "合同", Reference: "contract", SourceLang: "zh", TargetLang: "en"},
	})

	samples, err := loadSamples(path, 0)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "s1", samples[0].ID)
	assert.Equal(t, "contract", samples[0].Reference)
}

func TestLoadSamples_LimitCapsCount(t *testing.T) {
	path := writeTestSetFile(t, []testSetEntry{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}})

	samples, err := loadSamples(path, 2)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestLoadSamples_ZeroLimitReturnsAll(t *testing.T) {
	path := writeTestSetFile(t, []testSetEntry{{ID: "s1"}, {ID: "s2"}})

	samples, err := loadSamples(path, 0)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestLoadSamples_MissingFileIsConfigError(t *testing.T) {
	_, err := loadSamples(filepath.Join(t.TempDir(), "missing.json"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ConfigError)
}

func TestParseLayers_SplitsAndTrims(t *testing.T) {
	got := parseLayers(" terminology, syntax ,discourse")
	assert.Equal(t, []control.Layer{control.Terminology, control.Syntax, control.Discourse}, got)
}

func TestParseLayers_EmptyStringYieldsNil(t *testing.T) {
	assert.Nil(t, parseLayers(""))
	assert.Nil(t, parseLayers("   "))
}

func TestBuildControl_AppliesFlagValues(t *testing.T) {
	selectionLayers = "terminology"
	gatingLayers = "syntax,discourse"
	numCandidates = 4
	termGateThreshold = 0.6
	syntaxGateThreshold = 0.8
	discourseGateThreshold = 0.9
	tmGateThreshold = 0.4
	t.Cleanup(func() {
		selectionLayers, gatingLayers = "", ""
		numCandidates = 3
	})

	cfg, err := buildControl()
	require.NoError(t, err)
	assert.True(t, cfg.SelectionEnabled(control.Terminology))
	assert.False(t, cfg.SelectionEnabled(control.Syntax))
	assert.True(t, cfg.GatingEnabled(control.Syntax))
	assert.Equal(t, 4, cfg.NumCandidates)
	assert.Equal(t, 0.6, cfg.Thresholds.Terminology)
}

func TestBuildIntermediate_ReadsOutputFromEveryRoundType(t *testing.T) {
	trace := map[string]any{
		"r1": translator.R1Trace{Output: "r1 out"},
		"r2": translator.R2Trace{Output: "r2 out"},
		"r3": translator.R3Trace{Output: "r3 out"},
	}
	got := buildIntermediate(trace)
	assert.Equal(t, "r1 out", got["r1"])
	assert.Equal(t, "r2 out", got["r2"])
	assert.Equal(t, "r3 out", got["r3"])
}

func TestBuildIntermediate_EmptyTraceYieldsNil(t *testing.T) {
	assert.Nil(t, buildIntermediate(nil))
	assert.Nil(t, buildIntermediate(map[string]any{}))
}

func TestApplyQualityAssessment_SkipsSamplesWithoutReference(t *testing.T) {
	results := map[string][]experiment.SampleResult{
		"full": {
			{SampleID: "s1", Source: "hello", Prediction: "hello", Target: "hello"},
			{SampleID: "s2", Source: "hi", Prediction: "hi", Target: ""},
		},
	}

	applyQualityAssessment(nil, results)

	assert.NotNil(t, results["full"][0].QualityAssessment)
	assert.Contains(t, results["full"][0].QualityAssessment, "bleu")
	assert.Nil(t, results["full"][1].QualityAssessment)
}
