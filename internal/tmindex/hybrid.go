package tmindex

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// HybridWeights are the w_bm25/w_vec weights spec.md §4.3 defaults to
// 0.5/0.5.
type HybridWeights struct {
	BM25   float64
	Vector float64
}

// DefaultHybridWeights is the spec's 0.5/0.5 default.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{BM25: 0.5, Vector: 0.5}
}

// HybridSearch runs the BM25 and (if available) vector branches at
// topK*2 each, combines scores by summing the weighted branch scores on
// shared entry IDs, sorts descending, and returns the top topK. Either
// branch's absence degrades gracefully: with no vector store the result
// is pure BM25, and vice versa, per spec.md §4.3.
func (idx *Index) HybridSearch(ctx context.Context, query string, queryVector []float32, sourceLang, targetLang string, topK int, weights HybridWeights) []Result {
	overfetch := topK * 2
	if overfetch <= 0 {
		overfetch = 1
	}

	bm25Hits := idx.bm25.Search(query, sourceLang, targetLang, overfetch)

	var vectorHits []Result
	if idx.vector != nil && len(queryVector) > 0 {
		hits, err := idx.vector.Search(ctx, queryVector, sourceLang, targetLang, overfetch)
		if err == nil {
			vectorHits = hits
		} else if idx.log != nil {
			idx.log.Warn("vector search unavailable, falling back to bm25 only", zap.Error(err))
		}
	}

	merged := map[string]*mergedHit{}
	for _, h := range bm25Hits {
		merged[h.Entry.ID] = &mergedHit{entry: h.Entry, score: weights.BM25 * h.Score}
	}
	for _, h := range vectorHits {
		entry := h.Entry
		if full, ok := idx.bm25EntryByID(entry.ID); ok {
			entry = full
		}
		if existing, ok := merged[h.Entry.ID]; ok {
			existing.score += weights.Vector * h.Score
			if existing.entry.SourceText == "" {
				existing.entry = entry
			}
		} else {
			merged[h.Entry.ID] = &mergedHit{entry: entry, score: weights.Vector * h.Score}
		}
	}

	results := make([]Result, 0, len(merged))
	for _, m := range merged {
		results = append(results, Result{Entry: m.entry, Score: m.score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

type mergedHit struct {
	entry Entry
	score float64
}

func (idx *Index) bm25EntryByID(id string) (Entry, bool) {
	idx.bm25.mu.RLock()
	defer idx.bm25.mu.RUnlock()
	e, ok := idx.bm25.entriesRef[id]
	return e, ok
}
