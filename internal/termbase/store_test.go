package termbase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddTerm_AndSearchExact(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.AddTerm(ctx, Term{
		SourceTerm: "不可抗力", TargetTerm: "force majeure",
		SourceLang: "zh", TargetLang: "en",
		Domain: "contract", Confidence: 0.95, QualityScore: 0.9,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	results, err := store.SearchTerms(ctx, SearchParams{Term: "不可抗力", ExactMatch: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "force majeure", results[0].TargetTerm)
	assert.Equal(t, 1, results[0].OccurrenceCount)
}

func TestSearchTerms_SubstringAndFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, batchInsert(ctx, store, []Term{
		{SourceTerm: "合同", TargetTerm: "contract", SourceLang: "zh", TargetLang: "en", Domain: "civil", Confidence: 0.8},
		{SourceTerm: "合同法", TargetTerm: "contract law", SourceLang: "zh", TargetLang: "en", Domain: "civil", Confidence: 0.6},
		{SourceTerm: "合同", TargetTerm: "agreement", SourceLang: "zh", TargetLang: "ja", Domain: "civil", Confidence: 0.5},
	}))

	results, err := store.SearchTerms(ctx, SearchParams{Term: "合同", TargetLang: "en", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "contract", results[0].TargetTerm) // highest confidence first
}

func TestBatchAddTerms_EmptyIsNoOpAndInsertsAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.BatchAddTerms(ctx, nil)
	require.NoError(t, err)

	err = store.BatchAddTerms(ctx, []Term{
		{SourceTerm: "a", TargetTerm: "b", SourceLang: "zh", TargetLang: "en"},
		{SourceTerm: "c", TargetTerm: "d", SourceLang: "zh", TargetLang: "en"},
	})
	require.NoError(t, err)

	stats, err := store.GetTermStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTerms)
}

func TestGetTermStats_GroupsByDomainAndLangPair(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, batchInsert(ctx, store, []Term{
		{SourceTerm: "a", TargetTerm: "b", SourceLang: "zh", TargetLang: "en", Domain: "civil"},
		{SourceTerm: "c", TargetTerm: "d", SourceLang: "zh", TargetLang: "en", Domain: "civil"},
		{SourceTerm: "e", TargetTerm: "f", SourceLang: "zh", TargetLang: "ja", Domain: "criminal"},
	}))

	stats, err := store.GetTermStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTerms)
	assert.Equal(t, 2, stats.DomainCounts["civil"])
	assert.Equal(t, 1, stats.DomainCounts["criminal"])
	assert.Equal(t, 2, stats.LangPairCounts["zh->en"])
	assert.Equal(t, 1, stats.LangPairCounts["zh->ja"])
}

func TestDeleteTerm(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.AddTerm(ctx, Term{SourceTerm: "x", TargetTerm: "y", SourceLang: "zh", TargetLang: "en"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTerm(ctx, id))

	stats, err := store.GetTermStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTerms)
}

func batchInsert(ctx context.Context, s *Store, terms []Term) error {
	return s.BatchAddTerms(ctx, terms)
}
