// Package evalsuite implements the Evaluation Suite (spec.md §4.8): a
// thin façade over BLEU, chrF++, BERTScore, COMET and GEMBA that scores
// {source, prediction, reference} triples, supports batch scoring and
// grouped aggregation, and emits a per-ablation report.
//
// Per spec.md §1, evaluation metric libraries are wrapped, not
// re-implemented: BERTScore and COMET are reached through an HTTP
// Backend pointed at an external scoring service, and GEMBA is reached
// through internal/llm.Client the same way the translation agents are.
// BLEU and chrF++ are the exception — closed-form, self-contained
// scorers with no neural-model dependency and no published Go
// implementation anywhere in the example corpus — so they are
// implemented locally, grounded on the original's small self-contained
// src/metrics/bleu.py and chrf.py rather than on any teacher pattern.
package evalsuite

import "context"

// Triple is one scored unit: a source sentence, the system's prediction,
// and a reference translation, plus whatever sample metadata the caller
// wants grouped aggregation to key on (spec.md §4.8, e.g. "law" or
// "domain").
type Triple struct {
	Source     string
	Prediction string
	Reference  string
	Metadata   map[string]string
}

// ScoreMap is one triple's per-metric scores, keyed by metric name
// ("bleu", "chrf++", "bertscore_f1", "bertscore_precision",
// "bertscore_recall", "comet", "gemba_da"/"gemba_mqm").
type ScoreMap map[string]float64

// Metric scores one batch of triples in a single call, so a Backend
// that supports true batch inference (BERTScore, COMET) only pays one
// round trip per ablation rather than one per sample.
type Metric interface {
	// Name is the metric's key in ScoreMap and in the report's
	// avg_scores.
	Name() string
	// Score returns one score per triple, in the same order. A triple
	// this metric can't score (backend error, empty reference) gets a
	// zero score rather than shrinking the result.
	Score(ctx context.Context, triples []Triple) []float64
}
