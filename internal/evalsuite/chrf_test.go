package evalsuite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChrF_IdenticalTextScoresOne(t *testing.T) {
	c := NewChrF()
	scores := c.Score(context.Background(), []Triple{
		{Prediction: "合同双方应当遵守本协议", Reference: "合同双方应当遵守本协议"},
	})
	assert.InDelta(t, 1.0, scores[0], 1e-6)
}

func TestChrF_CompletelyDifferentTextScoresLow(t *testing.T) {
	c := NewChrF()
	scores := c.Score(context.Background(), []Triple{
		{Prediction: "完全不相关的文字内容", Reference: "合同双方应当遵守本协议"},
	})
	assert.Less(t, scores[0], 0.3)
}

func TestChrF_EmptyBothScoresZero(t *testing.T) {
	c := NewChrF()
	scores := c.Score(context.Background(), []Triple{{Prediction: "", Reference: ""}})
	assert.Equal(t, 0.0, scores[0])
}

func TestNgramPR_TooShortOrderReturnsInvalid(t *testing.T) {
	p, r := ngramPR(map[string]int{}, map[string]int{}, 0, 5)
	assert.Equal(t, -1.0, p)
	assert.Equal(t, -1.0, r)
}

func TestCharGrams_DropsWhitespace(t *testing.T) {
	grams := charGrams("ab cd")
	assert.Equal(t, []string{"a", "b", "c", "d"}, grams)
}
