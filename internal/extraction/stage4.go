package extraction

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/internal/termbase"
)

// Stage4Standardize implements spec.md §4.7 Stage 4: compute
// combined_score, revalidate normalized fields, merge on
// (normalized_source, normalized_target) keeping the highest
// combined_score (occurrence_count = merged record count, entry ids
// unioned), fold singular/plural English composites, then cap targets
// per source at maxTargetsPerSource by combined_score. The result is
// sorted by (normalized_source, normalized_target) for deterministic
// output (spec.md §8 scenario E's byte-for-byte resumability check).
func Stage4Standardize(terms []ExtractedTerm, weights termbase.ScoreWeights, maxTargetsPerSource int, sourceLang, targetLang string, log *zap.Logger) []ExtractedTerm {
	if log == nil {
		log = logging.Nop()
	}
	if len(terms) == 0 {
		return []ExtractedTerm{}
	}

	cleaned := make([]ExtractedTerm, len(terms))
	for i, t := range terms {
		t.NormalizedSource = acceptOrRevert(t.SourceTerm, t.NormalizedSource, sourceLang)
		t.NormalizedTarget = acceptOrRevert(t.TargetTerm, t.NormalizedTarget, targetLang)
		t.CombinedScore = weights.CombinedScore(t.Confidence, t.QualityScore)
		cleaned[i] = t
	}

	merged := mergeByNormalizedKey(cleaned)
	merged = foldSingularPluralComposites(merged)
	merged = limitTargetsPerSource(merged, maxTargetsPerSource)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].NormalizedSource != merged[j].NormalizedSource {
			return merged[i].NormalizedSource < merged[j].NormalizedSource
		}
		return merged[i].NormalizedTarget < merged[j].NormalizedTarget
	})

	log.Info("stage4 standardize complete", zap.Int("input", len(terms)), zap.Int("output", len(merged)))
	return merged
}

func mergeByNormalizedKey(terms []ExtractedTerm) []ExtractedTerm {
	groups, order := groupByNormalizedKey(terms)
	out := make([]ExtractedTerm, 0, len(order))
	for _, k := range order {
		out = append(out, mergeGroup(groups[k]))
	}
	return out
}

// mergeGroup collapses one (normalized_source, normalized_target)
// group into a single record: highest combined_score wins as the base,
// occurrence_count counts the merged records, entry ids union.
func mergeGroup(group []ExtractedTerm) ExtractedTerm {
	best := group[0]
	for _, t := range group[1:] {
		if t.CombinedScore > best.CombinedScore {
			best = t
		}
	}
	best.OccurrenceCount = len(group)
	best.EntryID = unionEntryIDs(group)
	return best
}

// foldSingularPluralComposites folds a singular normalized_target that
// is one half of an existing "singular/plural" composite target — in
// the same normalized_source group — into that composite, keeping the
// composite's target form and the max combined_score, per spec.md §4.7
// Stage 4.
func foldSingularPluralComposites(terms []ExtractedTerm) []ExtractedTerm {
	bySource := make(map[string][]int)
	var order []string
	for i, t := range terms {
		if _, ok := bySource[t.NormalizedSource]; !ok {
			order = append(order, t.NormalizedSource)
		}
		bySource[t.NormalizedSource] = append(bySource[t.NormalizedSource], i)
	}

	dropped := make(map[int]bool)
	for _, source := range order {
		indices := bySource[source]
		for _, ci := range indices {
			singular, plural, isComposite := splitComposite(terms[ci].NormalizedTarget)
			if !isComposite {
				continue
			}
			for _, mi := range indices {
				if mi == ci || dropped[mi] {
					continue
				}
				member := terms[mi].NormalizedTarget
				if !strings.EqualFold(member, singular) && !strings.EqualFold(member, plural) {
					continue
				}
				if terms[mi].CombinedScore > terms[ci].CombinedScore {
					terms[ci].CombinedScore = terms[mi].CombinedScore
				}
				terms[ci].OccurrenceCount += terms[mi].OccurrenceCount
				dropped[mi] = true
			}
		}
	}

	out := make([]ExtractedTerm, 0, len(terms))
	for i, t := range terms {
		if !dropped[i] {
			out = append(out, t)
		}
	}
	return out
}

// limitTargetsPerSource keeps, per normalized_source, at most max
// distinct normalized_target records by combined_score descending.
func limitTargetsPerSource(terms []ExtractedTerm, max int) []ExtractedTerm {
	if max <= 0 {
		return terms
	}

	bySource := make(map[string][]ExtractedTerm)
	var order []string
	for _, t := range terms {
		if _, ok := bySource[t.NormalizedSource]; !ok {
			order = append(order, t.NormalizedSource)
		}
		bySource[t.NormalizedSource] = append(bySource[t.NormalizedSource], t)
	}

	out := make([]ExtractedTerm, 0, len(terms))
	for _, source := range order {
		group := bySource[source]
		sort.SliceStable(group, func(i, j int) bool { return group[i].CombinedScore > group[j].CombinedScore })
		if len(group) > max {
			group = group[:max]
		}
		out = append(out, group...)
	}
	return out
}
