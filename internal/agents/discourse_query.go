package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/internal/tmindex"
)

// TMMatch is one DiscourseQuery result row, sourced from the hybrid TM
// index (spec.md §4.3).
type TMMatch struct {
	SourceText      string
	TargetText      string
	SimilarityScore float64
	Context         string
	LegalDomain     string
}

// TMSearcher is the subset of *tmindex.Index DiscourseQuery needs.
// DiscourseQuery has no embedding model of its own, so it always
// searches with a nil query vector — HybridSearch degrades that to a
// BM25-only lookup exactly as it does when no vector backend is
// configured at all.
type TMSearcher interface {
	HybridSearch(ctx context.Context, query string, queryVector []float32, sourceLang, targetLang string, topK int, weights tmindex.HybridWeights) []tmindex.Result
}

// DiscourseQueryConfig configures a DiscourseQuery agent.
type DiscourseQueryConfig struct {
	Index  TMSearcher
	Logger *zap.Logger
}

func (c DiscourseQueryConfig) validate() error {
	if c.Index == nil {
		return fmt.Errorf("agents: discourse query config: index must not be nil")
	}
	return nil
}

// DiscourseQuery implements spec.md §4.4's DiscourseQuery agent: a TM
// lookup, not an LLM call.
type DiscourseQuery struct {
	index TMSearcher
	log   *zap.Logger
}

// NewDiscourseQuery builds a DiscourseQuery agent from cfg.
func NewDiscourseQuery(cfg DiscourseQueryConfig) (*DiscourseQuery, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &DiscourseQuery{index: cfg.Index, log: log.Named("agents.discourse_query")}, nil
}

// Query returns up to topK TM matches for text. Returns an empty,
// non-nil slice when the index has nothing relevant.
func (a *DiscourseQuery) Query(ctx context.Context, text string, langs Langs, topK int) []TMMatch {
	results := a.index.HybridSearch(ctx, text, nil, langs.Source, langs.Target, topK, tmindex.DefaultHybridWeights())
	out := make([]TMMatch, 0, len(results))
	for _, r := range results {
		out = append(out, TMMatch{
			SourceText:      r.Entry.SourceText,
			TargetText:      r.Entry.TargetText,
			SimilarityScore: r.Score,
			Context:         r.Entry.Context,
			LegalDomain:     r.Entry.Domain,
		})
	}
	return out
}
