package evalsuite

import (
	"context"
	"math"
)

// BLEU implements sentence-level BLEU-N with additive smoothing
// (Chen & Cherry 2014's method 1 — every n-gram order's precision is
// floored at epsilon/|candidate n-grams| instead of zero), so a single
// missing higher-order n-gram doesn't collapse the whole score to zero
// the way unsmoothed corpus BLEU does on short sentences.
type BLEU struct {
	// MaxOrder is the highest n-gram order scored; the original metric
	// is BLEU-4.
	MaxOrder int
}

// NewBLEU returns a BLEU-4 scorer, the metric's standard configuration.
func NewBLEU() *BLEU { return &BLEU{MaxOrder: 4} }

func (b *BLEU) Name() string { return "bleu" }

func (b *BLEU) Score(_ context.Context, triples []Triple) []float64 {
	order := b.MaxOrder
	if order <= 0 {
		order = 4
	}
	out := make([]float64, len(triples))
	for i, t := range triples {
		out[i] = sentenceBLEU(tokenize(t.Prediction), tokenize(t.Reference), order)
	}
	return out
}

func sentenceBLEU(candidate, reference []string, maxOrder int) float64 {
	if len(candidate) == 0 || len(reference) == 0 {
		return 0
	}

	logSum := 0.0
	for n := 1; n <= maxOrder; n++ {
		candCounts := ngramCounts(candidate, n)
		refCounts := ngramCounts(reference, n)

		candTotal := len(candidate) - n + 1
		if candTotal <= 0 {
			// Candidate too short for this order: smoothing keeps the
			// order from zeroing the whole product.
			logSum += math.Log(1.0 / float64(2<<uint(n)))
			continue
		}

		matches := 0
		for gram, c := range candCounts {
			if r, ok := refCounts[gram]; ok {
				matches += min(c, r)
			}
		}

		precision := float64(matches) / float64(candTotal)
		if precision == 0 {
			precision = 1.0 / float64(2<<uint(n)) / float64(candTotal)
		}
		logSum += math.Log(precision)
	}

	geoMean := math.Exp(logSum / float64(maxOrder))
	bp := brevityPenalty(len(candidate), len(reference))
	return bp * geoMean
}

func brevityPenalty(candLen, refLen int) float64 {
	if candLen == 0 {
		return 0
	}
	if candLen >= refLen {
		return 1
	}
	if refLen == 0 {
		return 1
	}
	return math.Exp(1 - float64(refLen)/float64(candLen))
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		key := joinNgram(tokens[i : i+n])
		counts[key]++
	}
	return counts
}

func joinNgram(tokens []string) string {
	out := tokens[0]
	for _, t := range tokens[1:] {
		out += "\x1f" + t
	}
	return out
}
