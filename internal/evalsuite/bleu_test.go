package evalsuite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBLEU_IdenticalPredictionScoresOne(t *testing.T) {
	b := NewBLEU()
	scores := b.Score(context.Background(), []Triple{
		{Prediction: "the parties shall comply with this agreement", Reference: "the parties shall comply with this agreement"},
	})
	assert.InDelta(t, 1.0, scores[0], 1e-6)
}

func TestBLEU_CompletelyDifferentPredictionScoresLow(t *testing.T) {
	b := NewBLEU()
	scores := b.Score(context.Background(), []Triple{
		{Prediction: "completely unrelated text here", Reference: "the parties shall comply with this agreement"},
	})
	assert.Less(t, scores[0], 0.2)
}

func TestBLEU_EmptyPredictionScoresZero(t *testing.T) {
	b := NewBLEU()
	scores := b.Score(context.Background(), []Triple{{Prediction: "", Reference: "something"}})
	assert.Equal(t, 0.0, scores[0])
}

func TestBrevityPenalty_ShorterCandidatePenalized(t *testing.T) {
	assert.Equal(t, 1.0, brevityPenalty(10, 10))
	assert.Equal(t, 1.0, brevityPenalty(12, 10))
	assert.Less(t, brevityPenalty(5, 10), 1.0)
	assert.Equal(t, 0.0, brevityPenalty(0, 10))
}

func TestNgramCounts_CountsOverlappingWindows(t *testing.T) {
	counts := ngramCounts([]string{"a", "b", "a", "b"}, 2)
	assert.Equal(t, 2, counts[joinNgram([]string{"a", "b"})])
	assert.Equal(t, 1, counts[joinNgram([]string{"b", "a"})])
}
