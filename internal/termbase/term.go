// Package termbase implements the single-writer SQLite-backed bilingual
// term store (spec.md §4.2): add_term, batch_add_terms, search_terms and
// get_term_stats over a Term table indexed the way the spec requires so
// concurrent HTE readers stay fast while BTEP imports write in bulk.
package termbase

import "time"

// ScoreWeights are the combined_score weights a Term was computed with.
// w_conf + w_qual must equal 1; Stage 4 of BTEP uses the 0.4/0.6 default
// (spec.md §4.7), but the termbase itself is weight-agnostic — it stores
// whatever combined_score the caller computed.
type ScoreWeights struct {
	Confidence float64
	Quality    float64
}

// DefaultScoreWeights mirrors the Stage 4 standardization defaults.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Confidence: 0.4, Quality: 0.6}
}

// CombinedScore applies w to a confidence/quality pair.
func (w ScoreWeights) CombinedScore(confidence, quality float64) float64 {
	return w.Confidence*confidence + w.Quality*quality
}

// Term is one bilingual terminology record, persisted in the termbase.
// (source_term, target_term, source_lang, target_lang) is its logical
// identity (spec.md §3); ID is the storage-layer surrogate key.
type Term struct {
	ID                 int64
	SourceTerm         string
	TargetTerm         string
	SourceLang         string
	TargetLang         string
	Domain             string
	Confidence         float64
	QualityScore       float64
	CombinedScore      float64
	Category           string
	Law                string
	Year               int
	EntryID            string
	SourceContext      string
	TargetContext      string
	OccurrenceCount    int
	OriginalSourceTerm string
	OriginalTargetTerm string
	Metadata           map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
