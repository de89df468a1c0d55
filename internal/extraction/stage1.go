package extraction

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/pkg/slices"
)

// Stage1Extract runs BilingualExtract over pairs, bounded by
// concurrency, in micro-batches of extractionBatchSize. Each
// micro-batch is one extractor call: ExtractBatch when the micro-batch
// has more than one entry (spec.md §4.7 Stage 1's "batch mode when
// >1"), ExtractPair when it has one. Per-entry metadata (law, domain,
// year, entry id) is attached by matching the extracted source term as
// a substring of an entry's source text, falling back to the entry the
// term was returned for when no entry matches. The result is
// deduplicated on (source_term, target_term) before being returned, per
// spec.md §8 property 5.
func Stage1Extract(ctx context.Context, extractor *agents.BilingualExtractor, pairs []LawPair, extractionBatchSize, concurrency int, log *zap.Logger) []ExtractedTerm {
	if log == nil {
		log = logging.Nop()
	}
	if len(pairs) == 0 {
		return []ExtractedTerm{}
	}
	if extractionBatchSize <= 0 {
		extractionBatchSize = len(pairs)
	}

	microBatches := slices.Chunk(pairs, extractionBatchSize)
	perBatch := make([][]ExtractedTerm, len(microBatches))

	group, groupCtx := errgroup.WithContext(ctx)
	if concurrency <= 0 {
		concurrency = 1
	}
	group.SetLimit(concurrency)

	for i, batch := range microBatches {
		i, batch := i, batch
		group.Go(func() error {
			perBatch[i] = extractMicroBatch(groupCtx, extractor, batch)
			return nil
		})
	}
	_ = group.Wait()

	var all []ExtractedTerm
	for _, batch := range perBatch {
		all = append(all, batch...)
	}
	log.Info("stage1 extract complete", zap.Int("pairs", len(pairs)), zap.Int("raw_terms", len(all)))
	return DedupByKey(all)
}

func extractMicroBatch(ctx context.Context, extractor *agents.BilingualExtractor, batch []LawPair) []ExtractedTerm {
	textPairs := make([]agents.TextPair, len(batch))
	for i, p := range batch {
		textPairs[i] = agents.TextPair{
			SourceText: p.SourceText, TargetText: p.TargetText,
			SourceLang: p.SourceLang, TargetLang: p.TargetLang,
		}
	}

	var perEntry [][]agents.BilingualTerm
	if len(batch) == 1 {
		perEntry = [][]agents.BilingualTerm{extractor.ExtractPair(ctx, textPairs[0])}
	} else {
		perEntry = extractor.ExtractBatch(ctx, textPairs, len(batch))
	}

	var out []ExtractedTerm
	for i, terms := range perEntry {
		entry := batch[i]
		for _, term := range terms {
			matched := matchEntry(batch, term.SourceTerm, entry)
			out = append(out, ExtractedTerm{
				SourceTerm:    term.SourceTerm,
				TargetTerm:    term.TargetTerm,
				Confidence:    term.Score,
				Category:      term.Category,
				SourceContext: matched.SourceText,
				TargetContext: matched.TargetText,
				Law:           matched.Law,
				Domain:        matched.Domain,
				Year:          matched.Year,
				EntryID:       matched.EntryID,
			})
		}
	}
	return out
}

// matchEntry attaches a term to the batch entry whose source text
// contains it; falling back to fallback (the entry the term's index
// was drawn from) when no entry matches, per spec.md §4.7 Stage 1's
// "attach by term-in-text matching, else the first entry".
func matchEntry(batch []LawPair, sourceTerm string, fallback LawPair) LawPair {
	if sourceTerm == "" {
		return fallback
	}
	for _, e := range batch {
		if strings.Contains(e.SourceText, sourceTerm) {
			return e
		}
	}
	return fallback
}
