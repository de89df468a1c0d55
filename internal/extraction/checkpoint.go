package extraction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Stats is the running counters section of a Checkpoint, reported to
// the user as BTEP progresses.
type Stats struct {
	ProcessedBatches  int `json:"processed_batches"`
	ExtractedCount    int `json:"extracted_count"`
	FilteredCount     int `json:"filtered_count"`
	NormalizedCount   int `json:"normalized_count"`
	StandardizedCount int `json:"standardized_count"`
}

// Checkpoint is the full resumable pipeline state, persisted as one
// JSON file plus a per-stage snapshot file (spec.md §3, §4.7). Its
// invariant: at any time it reflects the union of results from stages
// that have completed at least once; ClearFromStage discards data of
// stages >= N so a restart at N recomputes them from scratch.
type Checkpoint struct {
	ProcessedBatches     []string        `json:"processed_batches"`
	AllExtractedTerms    []ExtractedTerm `json:"all_extracted_terms"`
	AllFilteredTerms     []ExtractedTerm `json:"all_filtered_terms"`
	AllNormalizedTerms   []ExtractedTerm `json:"all_normalized_terms"`
	AllStandardizedTerms []ExtractedTerm `json:"all_standardized_terms"`
	AllTerms             []ExtractedTerm `json:"all_terms"`
	Stats                Stats           `json:"stats"`
}

// NewCheckpoint returns an empty Checkpoint.
func NewCheckpoint() *Checkpoint {
	return &Checkpoint{
		ProcessedBatches:     []string{},
		AllExtractedTerms:    []ExtractedTerm{},
		AllFilteredTerms:     []ExtractedTerm{},
		AllNormalizedTerms:   []ExtractedTerm{},
		AllStandardizedTerms: []ExtractedTerm{},
		AllTerms:             []ExtractedTerm{},
	}
}

// ClearFromStage discards checkpoint data for stages >= n, per
// spec.md's "--start-from-stage N clears checkpoint fields for stages
// >= N and restarts from there". Stage numbering matches the pipeline:
// 1=Extract, 2=Quality-Check, 3=Normalize, 4=Standardize.
func (c *Checkpoint) ClearFromStage(n int) {
	if n <= 1 {
		c.ProcessedBatches = []string{}
		c.AllExtractedTerms = []ExtractedTerm{}
	}
	if n <= 2 {
		c.AllFilteredTerms = []ExtractedTerm{}
	}
	if n <= 3 {
		c.AllNormalizedTerms = []ExtractedTerm{}
	}
	if n <= 4 {
		c.AllStandardizedTerms = []ExtractedTerm{}
		c.AllTerms = []ExtractedTerm{}
	}
}

// LoadCheckpoint reads path, returning a fresh Checkpoint if the file
// does not exist (the "no --resume yet" case is not an error).
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewCheckpoint(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("extraction: read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("extraction: parse checkpoint: %w", err)
	}
	return &cp, nil
}

// Save persists the checkpoint JSON plus one snapshot file for each of
// the four stage lists (empty lists included) under stageDir, when
// stageDir is set. The checkpoint file itself is
// written last so a crash mid-snapshot never leaves a checkpoint that
// claims more progress than what's on disk.
func (c *Checkpoint) Save(checkpointPath, stageDir string) error {
	if stageDir != "" {
		if err := os.MkdirAll(stageDir, 0o755); err != nil {
			return fmt.Errorf("extraction: create stage dir: %w", err)
		}
		snapshots := map[string][]ExtractedTerm{
			"stage1_extracted.json":    c.AllExtractedTerms,
			"stage2_filtered.json":     c.AllFilteredTerms,
			"stage3_normalized.json":   c.AllNormalizedTerms,
			"stage4_standardized.json": c.AllStandardizedTerms,
		}
		for name, terms := range snapshots {
			if err := writeJSON(filepath.Join(stageDir, name), terms); err != nil {
				return err
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(checkpointPath), 0o755); err != nil {
		return fmt.Errorf("extraction: create checkpoint dir: %w", err)
	}
	return writeJSON(checkpointPath, c)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("extraction: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("extraction: write %s: %w", path, err)
	}
	return nil
}
