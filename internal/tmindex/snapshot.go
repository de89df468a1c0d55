package tmindex

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/legalmt/hct/internal/errs"
)

// snapshot is the on-disk shape of a BM25 index snapshot, per spec.md
// §6's "BM25 snapshot JSON".
type snapshot struct {
	Entries []Entry `json:"entries"`
}

// SaveSnapshot persists idx's current corpus to path as JSON, replacing
// any existing file atomically via a temp-file rename.
func SaveSnapshot(idx *BM25Index, path string) error {
	data, err := json.Marshal(snapshot{Entries: idx.Entries()})
	if err != nil {
		return fmt.Errorf("%w: tmindex: marshal snapshot: %v", errs.StorageError, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: tmindex: write snapshot: %v", errs.StorageError, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: tmindex: rename snapshot: %v", errs.StorageError, err)
	}
	return nil
}

// LoadSnapshot reads a BM25 snapshot from path and rebuilds an index
// from it. A missing file is not an error — it means "no prior
// snapshot" and returns an empty index.
func LoadSnapshot(path string) (*BM25Index, error) {
	idx := NewBM25Index()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: tmindex: read snapshot: %v", errs.StorageError, err)
	}

	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: tmindex: unmarshal snapshot: %v", errs.StorageError, err)
	}
	idx.Rebuild(s.Entries)
	return idx, nil
}
