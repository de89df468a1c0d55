package tmindex

import (
	"context"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/pkg/slices"
)

// Index is the hybrid TM index: a local BM25 corpus always present, and
// an optional Milvus-backed vector branch. vector is nil when the
// backend is unconfigured or unreachable, in which case every operation
// degrades to BM25-only, per spec.md §4.3's "tolerates either backend
// being absent".
type Index struct {
	bm25         *BM25Index
	vector       *VectorStore
	snapshotPath string
	log          *zap.Logger
}

// New builds an Index from a pre-loaded BM25 corpus (see LoadSnapshot)
// and an optional vector store. Pass a nil vector store to run BM25-only.
func New(bm25 *BM25Index, vector *VectorStore, snapshotPath string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Index{bm25: bm25, vector: vector, snapshotPath: snapshotPath, log: logger.Named("tmindex")}
}

// AddEntry adds a single entry to both branches (spec.md §4.3's
// add_entry) by delegating to BatchAddEntries, so the BM25 branch is
// rebuilt and snapshotted immediately — HTE's runtime path only ever
// reads the index, so a single add_entry (used by tooling, not the hot
// path) rebuilds immediately to keep single-entry semantics simple.
func (idx *Index) AddEntry(ctx context.Context, e Entry) error {
	return idx.BatchAddEntries(ctx, []Entry{e}, 1)
}

// BatchAddEntries implements spec.md §4.3's batch_add_entries: Milvus
// inserts happen in chunks of batchSize, BM25 is rebuilt once at the
// end over the union of previously indexed entries plus the new ones,
// and the result is snapshotted to disk.
func (idx *Index) BatchAddEntries(ctx context.Context, entries []Entry, batchSize int) error {
	if len(entries) == 0 {
		return nil
	}
	for i, e := range entries {
		entries[i] = e.WithID()
	}

	if idx.vector != nil {
		if batchSize <= 0 {
			batchSize = len(entries)
		}
		for _, chunk := range slices.Chunk(entries, batchSize) {
			if err := idx.vector.Insert(ctx, chunk); err != nil {
				idx.log.Warn("milvus insert failed, continuing with bm25 only", zap.Error(err))
			}
		}
	}

	all := append(idx.bm25.Entries(), entries...)
	idx.bm25.Rebuild(dedupeEntries(all))

	if idx.snapshotPath != "" {
		if err := SaveSnapshot(idx.bm25, idx.snapshotPath); err != nil {
			idx.log.Warn("bm25 snapshot persist failed", zap.Error(err))
		}
	}
	return nil
}

func dedupeEntries(entries []Entry) []Entry {
	seen := make(map[string]Entry, len(entries))
	for _, e := range entries {
		seen[e.ID] = e
	}
	out := make([]Entry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	return out
}

// SearchBM25 implements spec.md §4.3's search_bm25.
func (idx *Index) SearchBM25(query, sourceLang, targetLang string, topK int) []Result {
	return idx.bm25.Search(query, sourceLang, targetLang, topK)
}

// SearchVector implements spec.md §4.3's search_vector. Returns an
// empty slice, not an error, when the vector branch is unavailable —
// callers that want to distinguish "no results" from "no backend"
// should check HasVectorBackend first.
func (idx *Index) SearchVector(ctx context.Context, queryVector []float32, sourceLang, targetLang string, topK int) []Result {
	if idx.vector == nil {
		return nil
	}
	results, err := idx.vector.Search(ctx, queryVector, sourceLang, targetLang, topK)
	if err != nil {
		idx.log.Warn("vector search failed", zap.Error(err))
		return nil
	}
	return results
}

// HybridSearch is re-exported from hybrid.go; HasVectorBackend lets
// callers decide whether to even attempt computing a query embedding.
func (idx *Index) HasVectorBackend() bool { return idx.vector != nil }

// Close releases the vector backend connection, if any.
func (idx *Index) Close() error {
	if idx.vector != nil {
		return idx.vector.Close()
	}
	return nil
}
