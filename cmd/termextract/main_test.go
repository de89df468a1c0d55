package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/errs"
)

func writeCorpusFile(t *testing.T, entries []corpusEntry) string {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadCorpus_AttachesLangsAndMetadata(t *testing.T) {
	path := writeCorpusFile(t, []corpusEntry{
		{EntryID: "e1", SourceText: "合同", TargetText: "contract", Law: "民法典", Year: 2021},
	})

	corpus, err := loadCorpus(path, "zh", "en")
	require.NoError(t, err)
	require.Len(t, corpus, 1)
	assert.Equal(t, "e1", corpus[0].EntryID)
	assert.Equal(t, "zh", corpus[0].SourceLang)
	assert.Equal(t, "en", corpus[0].TargetLang)
	assert.Equal(t, "民法典", corpus[0].Law)
	assert.Equal(t, 2021, corpus[0].Year)
}

func TestLoadCorpus_MissingFileIsConfigError(t *testing.T) {
	_, err := loadCorpus(filepath.Join(t.TempDir(), "missing.json"), "zh", "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ConfigError)
}

func TestLoadCorpus_MalformedJSONIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := loadCorpus(path, "zh", "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ConfigError)
}

func TestLoadCorpus_EmptyArrayYieldsEmptySlice(t *testing.T) {
	path := writeCorpusFile(t, []corpusEntry{})
	corpus, err := loadCorpus(path, "zh", "en")
	require.NoError(t, err)
	assert.Empty(t, corpus)
}
