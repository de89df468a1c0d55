package extraction

import (
	"github.com/samber/lo"

	"github.com/legalmt/hct/pkg/sets"
)

// DedupByKey deduplicates terms on (source_term, target_term), keeping
// the first occurrence per spec.md §8 property 5 ("after Stage N, no
// pair appears twice in the output list"). Grounded on pkg/sets.HashSet
// for membership tracking across the concatenated result of many
// micro-batches, exactly the cross-batch dedup shape spec.md §4.7
// Stage 1 and Stage 2 both require.
func DedupByKey(terms []ExtractedTerm) []ExtractedTerm {
	seen := sets.NewHashSet[Key](len(terms))
	out := make([]ExtractedTerm, 0, len(terms))
	for _, t := range terms {
		if seen.Add(t.key()) {
			out = append(out, t)
		}
	}
	return out
}

// groupByNormalizedKey is Stage 4's merge-identity grouping: buckets by
// (normalized_source, normalized_target), keeping first-seen bucket
// order so the merge pass (see stage4.go's mergeGroup) is deterministic
// ahead of the stage's final sort.
func groupByNormalizedKey(terms []ExtractedTerm) (groups map[Key][]ExtractedTerm, order []Key) {
	groups = lo.GroupBy(terms, func(t ExtractedTerm) Key { return t.normalizedKey() })
	order = lo.Map(lo.UniqBy(terms, func(t ExtractedTerm) Key { return t.normalizedKey() }),
		func(t ExtractedTerm, _ int) Key { return t.normalizedKey() })
	return groups, order
}
