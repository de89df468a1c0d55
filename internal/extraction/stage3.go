package extraction

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/pkg/slices"
)

// topRecordsPerPair bounds how many quality-ranked records per
// (source_term, target_term) pair Stage 3 keeps before normalization,
// per spec.md §4.7 Stage 3.
const topRecordsPerPair = 3

// Stage3Normalize implements spec.md §4.7 Stage 3: sort by
// source_term, collapse to the top topRecordsPerPair records per
// (source_term, target_term) pair by quality_score (unioning their
// entry ids), re-sort for chunk locality, then run the source- and
// target-side Normalize calls separately per chunk. A normalization
// that fails the language-appropriate validator reverts to the
// original term. Deduplicates on (source_term, target_term) again
// before returning.
func Stage3Normalize(ctx context.Context, normalizer *agents.Normalizer, terms []ExtractedTerm, chunkSize int, sourceLang, targetLang string, log *zap.Logger) []ExtractedTerm {
	if log == nil {
		log = logging.Nop()
	}
	if len(terms) == 0 {
		return []ExtractedTerm{}
	}
	if chunkSize <= 0 {
		chunkSize = len(terms)
	}

	collapsed := collapseTopByPair(terms, topRecordsPerPair)
	sortBySourceTerm(collapsed)

	chunks := slices.Chunk(collapsed, chunkSize)
	var out []ExtractedTerm
	for _, chunk := range chunks {
		out = append(out, normalizeChunk(ctx, normalizer, chunk, sourceLang, targetLang)...)
	}

	log.Info("stage3 normalize complete", zap.Int("input", len(terms)), zap.Int("output", len(out)))
	return DedupByKey(out)
}

// collapseTopByPair groups terms by (source_term, target_term), keeps
// the top n by quality_score, and unions their entry ids into a
// comma-joined list on the surviving record with the highest score.
func collapseTopByPair(terms []ExtractedTerm, n int) []ExtractedTerm {
	groups := make(map[Key][]ExtractedTerm)
	var order []Key
	for _, t := range terms {
		k := t.key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], t)
	}

	out := make([]ExtractedTerm, 0, len(order))
	for _, k := range order {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].QualityScore > group[j].QualityScore })
		if len(group) > n {
			group = group[:n]
		}
		best := group[0]
		best.EntryID = unionEntryIDs(group)
		out = append(out, best)
	}
	return out
}

func unionEntryIDs(group []ExtractedTerm) string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range group {
		for _, id := range strings.Split(t.EntryID, ",") {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func sortBySourceTerm(terms []ExtractedTerm) {
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].SourceTerm < terms[j].SourceTerm })
}

func normalizeChunk(ctx context.Context, normalizer *agents.Normalizer, chunk []ExtractedTerm, sourceLang, targetLang string) []ExtractedTerm {
	sourceTerms := make([]string, len(chunk))
	targetTerms := make([]string, len(chunk))
	for i, t := range chunk {
		sourceTerms[i] = t.SourceTerm
		targetTerms[i] = t.TargetTerm
	}

	normalizedSource := normalizer.Normalize(ctx, sourceTerms, sourceLang, agents.NormalizeSource)
	normalizedTarget := normalizer.Normalize(ctx, targetTerms, targetLang, agents.NormalizeTarget)

	out := make([]ExtractedTerm, len(chunk))
	for i, t := range chunk {
		t.NormalizedSource = acceptOrRevert(t.SourceTerm, valueAt(normalizedSource, i, t.SourceTerm), sourceLang)
		t.NormalizedTarget = acceptOrRevert(t.TargetTerm, valueAt(normalizedTarget, i, t.TargetTerm), targetLang)
		if t.NormalizedSource != t.SourceTerm || t.NormalizedTarget != t.TargetTerm {
			t.NormalizationNote = "normalized"
		}
		out[i] = t
	}
	return out
}

func valueAt(values []string, i int, fallback string) string {
	if i < 0 || i >= len(values) {
		return fallback
	}
	return values[i]
}

func acceptOrRevert(original, normalized, lang string) string {
	if validateNormalization(original, normalized, lang) {
		return normalized
	}
	return original
}
