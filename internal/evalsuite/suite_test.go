package evalsuite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuite_Score_OneMapPerTripleWithEveryMetric(t *testing.T) {
	s := NewSuite(NewBLEU(), NewChrF())
	triples := []Triple{
		{Prediction: "hello world", Reference: "hello world"},
		{Prediction: "goodbye", Reference: "hello"},
	}

	scores := s.Score(context.Background(), triples)

	require.Len(t, scores, 2)
	assert.Contains(t, scores[0], "bleu")
	assert.Contains(t, scores[0], "chrf++")
	// A two-token sentence has no 3- or 4-grams, so BLEU-4 floors those
	// orders at 1/16 and 1/32: (1 * 1 * 1/16 * 1/32)^(1/4) = 2^-2.25.
	assert.InDelta(t, 0.2102241, scores[0]["bleu"], 1e-6)
}

func TestSuite_BuildReport_ComputesOverallAverage(t *testing.T) {
	s := NewSuite(NewBLEU())
	triples := []Triple{
		{Prediction: "hello world", Reference: "hello world"},
		{Prediction: "nothing alike", Reference: "hello world"},
	}

	report := s.BuildReport(context.Background(), triples, "")

	assert.Contains(t, report.AvgScores, "bleu")
	assert.Nil(t, report.GroupedAvg)
	assert.Nil(t, report.GroupCounts)
}

func TestSuite_BuildReport_GroupsByMetadataField(t *testing.T) {
	s := NewSuite(NewBLEU())
	triples := []Triple{
		{Prediction: "hello world", Reference: "hello world", Metadata: map[string]string{"law": "contract"}},
		{Prediction: "hello world", Reference: "hello world", Metadata: map[string]string{"law": "tort"}},
		{Prediction: "nothing alike", Reference: "hello world", Metadata: map[string]string{}},
	}

	report := s.BuildReport(context.Background(), triples, "law")

	require.Contains(t, report.GroupedAvg, "contract")
	require.Contains(t, report.GroupedAvg, "tort")
	require.Contains(t, report.GroupedAvg, "unknown")
	assert.Equal(t, 1, report.GroupCounts["contract"])
	assert.InDelta(t, 0.2102241, report.GroupedAvg["contract"]["bleu"], 1e-6)
}

func TestSuite_MetricNames_Sorted(t *testing.T) {
	s := NewSuite(NewChrF(), NewBLEU())
	assert.Equal(t, []string{"bleu", "chrf++"}, s.MetricNames())
}

func TestAverageScores_SkipsMissingKeysPerMetric(t *testing.T) {
	scores := []ScoreMap{
		{"bleu": 1.0, "comet": 0.5},
		{"bleu": 0.0},
	}
	avg := averageScores(scores)
	assert.InDelta(t, 0.5, avg["bleu"], 1e-9)
	assert.InDelta(t, 0.5, avg["comet"], 1e-9)
}
