package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/internal/termbase"
)

// searchMaxConcurrency is the hard ceiling spec.md §4.4 sets on
// concurrent Search termbase reads.
const searchMaxConcurrency = 10

// SearchResult is one termbase hit surfaced by the Search agent.
type SearchResult struct {
	Term        string
	Translation string
	Confidence  float64
	Source      string
	Context     string
}

// TermStore is the subset of *termbase.Store the Search agent needs.
// Declared as an interface so tests can substitute an in-memory fake
// without a real SQLite file.
type TermStore interface {
	SearchTerms(ctx context.Context, p termbase.SearchParams) ([]termbase.Term, error)
}

// SearchConfig configures a Search agent.
type SearchConfig struct {
	Store  TermStore
	Logger *zap.Logger
}

func (c SearchConfig) validate() error {
	if c.Store == nil {
		return fmt.Errorf("agents: search config: store must not be nil")
	}
	return nil
}

// Search implements spec.md §4.4's Search agent: a termbase lookup
// fanned out per term, bounded to searchMaxConcurrency concurrent
// blocking DB calls, grounded on flow/batch.go's runN (errgroup.SetLimit
// over a fixed, known-size batch of segments — one segment per term).
type Search struct {
	store TermStore
	log   *zap.Logger
}

// NewSearch builds a Search agent from cfg.
func NewSearch(cfg SearchConfig) (*Search, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: search config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Search{store: cfg.Store, log: log.Named("agents.search")}, nil
}

// Lookup runs Search over terms, deduplicated on (source_term,
// target_term, source_lang, target_lang). A failed lookup for one term
// is logged and skipped; it never aborts the others.
func (a *Search) Lookup(ctx context.Context, terms []string, sourceLang, targetLang, domain string, exactMatch bool) []SearchResult {
	if len(terms) == 0 {
		return []SearchResult{}
	}

	perTerm := make([][]termbase.Term, len(terms))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(searchMaxConcurrency)
	for i, term := range terms {
		group.Go(func() error {
			rows, err := a.store.SearchTerms(groupCtx, termbase.SearchParams{
				Term:       term,
				SourceLang: sourceLang,
				TargetLang: targetLang,
				Domain:     domain,
				ExactMatch: exactMatch,
			})
			if err != nil {
				a.log.Warn("search_terms failed, skipping term", zap.String("term", term), zap.Error(err))
				return nil
			}
			perTerm[i] = rows
			return nil
		})
	}
	_ = group.Wait()

	seen := make(map[string]bool)
	out := make([]SearchResult, 0, len(terms))
	for _, rows := range perTerm {
		for _, t := range rows {
			key := t.SourceTerm + "\x00" + t.TargetTerm + "\x00" + t.SourceLang + "\x00" + t.TargetLang
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, SearchResult{
				Term:        t.SourceTerm,
				Translation: t.TargetTerm,
				Confidence:  t.Confidence,
				Source:      t.Law,
				Context:     t.SourceContext,
			})
		}
	}
	return out
}
