// Package extraction implements the Bilingual Term Extraction Pipeline
// (BTEP, spec.md §4.7): four cascaded stages — Extract, Quality-Check,
// Normalize, Standardize — each running only over items missing from a
// resumable checkpoint, producing the canonical term records imported
// into internal/termbase. Stage concurrency is grounded on
// flow/batch.go's runN, the same errgroup.SetLimit-plus-order-slice
// idiom internal/agents.Search and internal/experiment.Runner use.
package extraction

// LawPair is one parallel-corpus entry the pipeline consumes: a
// source/target sentence pair plus the law-metadata BTEP attaches to
// every term extracted from it.
type LawPair struct {
	EntryID    string
	SourceText string
	TargetText string
	SourceLang string
	TargetLang string
	Domain     string
	Law        string
	Year       int
}

// ExtractedTerm accumulates fields across BTEP's four stages, per
// spec.md §3: Stage 1 populates the core fields only; Stage 2 adds
// IsValid/QualityScore; Stage 3 adds the Normalized* fields; Stage 4
// adds CombinedScore and folds EntryIDs into a merged, comma-joined set.
type ExtractedTerm struct {
	SourceTerm    string
	TargetTerm    string
	Confidence    float64
	Category      string
	SourceContext string
	TargetContext string

	// IsValid and QualityScore are zero-value until Stage 2 runs.
	IsValid      bool
	QualityScore float64

	// NormalizedSource/NormalizedTarget are empty until Stage 3 runs.
	NormalizedSource  string
	NormalizedTarget  string
	NormalizationNote string

	Law             string
	Domain          string
	Year            int
	EntryID         string
	OccurrenceCount int

	// CombinedScore is zero until Stage 4 runs.
	CombinedScore float64
}

// Key is the (source_term, target_term) identity BTEP deduplicates on
// after every stage (spec.md §8 property 5).
type Key struct {
	SourceTerm string
	TargetTerm string
}

func (t ExtractedTerm) key() Key {
	return Key{SourceTerm: t.SourceTerm, TargetTerm: t.TargetTerm}
}

// normalizedKey is the Stage 4 merge identity: (normalized_source,
// normalized_target).
func (t ExtractedTerm) normalizedKey() Key {
	return Key{SourceTerm: t.NormalizedSource, TargetTerm: t.NormalizedTarget}
}
