package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/termbase"
)

type fakeTermStore struct {
	byTerm map[string][]termbase.Term
	err    error
}

func (f *fakeTermStore) SearchTerms(ctx context.Context, p termbase.SearchParams) ([]termbase.Term, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byTerm[p.Term], nil
}

func TestSearch_LookupDeduplicatesAcrossTerms(t *testing.T) {
	store := &fakeTermStore{byTerm: map[string][]termbase.Term{
		"不可抗力":   {{SourceTerm: "不可抗力", TargetTerm: "force majeure", SourceLang: "zh", TargetLang: "en", Confidence: 0.9}},
		"不可抗力条款": {{SourceTerm: "不可抗力", TargetTerm: "force majeure", SourceLang: "zh", TargetLang: "en", Confidence: 0.9}},
	}}
	search, err := NewSearch(SearchConfig{Store: store})
	require.NoError(t, err)

	results := search.Lookup(context.Background(), []string{"不可抗力", "不可抗力条款"}, "zh", "en", "", false)
	require.Len(t, results, 1)
	assert.Equal(t, "force majeure", results[0].Translation)
}

func TestSearch_LookupSkipsFailingTermsWithoutAborting(t *testing.T) {
	store := &fakeTermStore{err: assert.AnError}
	search, err := NewSearch(SearchConfig{Store: store})
	require.NoError(t, err)

	results := search.Lookup(context.Background(), []string{"a", "b"}, "zh", "en", "", false)
	assert.Empty(t, results)
}

func TestSearch_LookupEmptyTerms(t *testing.T) {
	search, err := NewSearch(SearchConfig{Store: &fakeTermStore{}})
	require.NoError(t, err)
	assert.Empty(t, search.Lookup(context.Background(), nil, "zh", "en", "", false))
}

func TestSearchConfig_RequiresStore(t *testing.T) {
	_, err := NewSearch(SearchConfig{})
	assert.Error(t, err)
}
