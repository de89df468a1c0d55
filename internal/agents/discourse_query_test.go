package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/tmindex"
)

type fakeTMSearcher struct {
	results []tmindex.Result
}

func (f *fakeTMSearcher) HybridSearch(ctx context.Context, query string, queryVector []float32, sourceLang, targetLang string, topK int, weights tmindex.HybridWeights) []tmindex.Result {
	return f.results
}

func TestDiscourseQuery_MapsResultsToMatches(t *testing.T) {
	searcher := &fakeTMSearcher{results: []tmindex.Result{
		{Entry: tmindex.Entry{SourceText: "合同法", TargetText: "contract law", Domain: "civil"}, Score: 0.8},
	}}
	query, err := NewDiscourseQuery(DiscourseQueryConfig{Index: searcher})
	require.NoError(t, err)

	matches := query.Query(context.Background(), "合同法第一条", Langs{Source: "zh", Target: "en"}, 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "contract law", matches[0].TargetText)
	assert.Equal(t, "civil", matches[0].LegalDomain)
	assert.Equal(t, 0.8, matches[0].SimilarityScore)
}

func TestDiscourseQueryConfig_RequiresIndex(t *testing.T) {
	_, err := NewDiscourseQuery(DiscourseQueryConfig{})
	assert.Error(t, err)
}
