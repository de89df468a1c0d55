package extraction

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCheckpoint() *Checkpoint {
	cp := NewCheckpoint()
	cp.ProcessedBatches = []string{"batch-1"}
	cp.AllExtractedTerms = []ExtractedTerm{{SourceTerm: "应当"}}
	cp.AllFilteredTerms = []ExtractedTerm{{SourceTerm: "应当"}}
	cp.AllNormalizedTerms = []ExtractedTerm{{SourceTerm: "应当"}}
	cp.AllStandardizedTerms = []ExtractedTerm{{SourceTerm: "应当"}}
	cp.AllTerms = cp.AllStandardizedTerms
	cp.Stats = Stats{ProcessedBatches: 1, ExtractedCount: 1, FilteredCount: 1, NormalizedCount: 1, StandardizedCount: 1}
	return cp
}

func TestClearFromStage_CascadesToDownstreamFields(t *testing.T) {
	cp := newTestCheckpoint()
	cp.ClearFromStage(3)

	assert.NotEmpty(t, cp.ProcessedBatches)
	assert.NotEmpty(t, cp.AllExtractedTerms)
	assert.NotEmpty(t, cp.AllFilteredTerms)
	assert.Empty(t, cp.AllNormalizedTerms)
	assert.Empty(t, cp.AllStandardizedTerms)
	assert.Empty(t, cp.AllTerms)
}

func TestClearFromStage_OneClearsEverything(t *testing.T) {
	cp := newTestCheckpoint()
	cp.ClearFromStage(1)

	assert.Empty(t, cp.ProcessedBatches)
	assert.Empty(t, cp.AllExtractedTerms)
	assert.Empty(t, cp.AllFilteredTerms)
	assert.Empty(t, cp.AllNormalizedTerms)
	assert.Empty(t, cp.AllStandardizedTerms)
}

func TestLoadCheckpoint_MissingFileReturnsFreshCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cp, err := LoadCheckpoint(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cp.AllExtractedTerms)
	assert.NotNil(t, cp.AllExtractedTerms)
}

func TestCheckpoint_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	checkpointPath := filepath.Join(dir, "checkpoint.json")
	stageDir := filepath.Join(dir, "stages")

	cp := newTestCheckpoint()
	require.NoError(t, cp.Save(checkpointPath, stageDir))

	assert.FileExists(t, checkpointPath)
	assert.FileExists(t, filepath.Join(stageDir, "stage1_extracted.json"))
	assert.FileExists(t, filepath.Join(stageDir, "stage4_standardized.json"))

	loaded, err := LoadCheckpoint(checkpointPath)
	require.NoError(t, err)
	assert.Equal(t, cp.Stats, loaded.Stats)
	require.Len(t, loaded.AllStandardizedTerms, 1)
	assert.Equal(t, "应当", loaded.AllStandardizedTerms[0].SourceTerm)
}
