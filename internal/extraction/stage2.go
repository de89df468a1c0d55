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

// maxSharedContextChars bounds the synthesized context string Stage 2
// sends per chunk, per spec.md §4.7 Stage 2 ("truncated to ~5000
// chars").
const maxSharedContextChars = 5000

// Stage2QualityCheck groups terms (ignoring entry boundaries) into
// fixed-size chunks, synthesizes a shared source/target context per
// chunk from every contributing entry's SourceContext/TargetContext,
// and judges each chunk with QualityChecker in batch mode. Terms with
// is_valid=false are dropped; survivors get quality_score recorded.
// The result is deduplicated on (source_term, target_term) again,
// per spec.md §8 property 5.
func Stage2QualityCheck(ctx context.Context, checker *agents.QualityChecker, terms []ExtractedTerm, chunkSize, concurrency int, log *zap.Logger) []ExtractedTerm {
	if log == nil {
		log = logging.Nop()
	}
	if len(terms) == 0 {
		return []ExtractedTerm{}
	}
	if chunkSize <= 0 {
		chunkSize = len(terms)
	}

	chunks := slices.Chunk(terms, chunkSize)
	perChunk := make([][]ExtractedTerm, len(chunks))

	group, groupCtx := errgroup.WithContext(ctx)
	if concurrency <= 0 {
		concurrency = 1
	}
	group.SetLimit(concurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			perChunk[i] = qualityCheckChunk(groupCtx, checker, chunk)
			return nil
		})
	}
	_ = group.Wait()

	var survivors []ExtractedTerm
	for _, chunk := range perChunk {
		survivors = append(survivors, chunk...)
	}
	log.Info("stage2 quality check complete", zap.Int("input", len(terms)), zap.Int("survivors", len(survivors)))
	return DedupByKey(survivors)
}

func qualityCheckChunk(ctx context.Context, checker *agents.QualityChecker, chunk []ExtractedTerm) []ExtractedTerm {
	sourceCtx, targetCtx := sharedContext(chunk)

	pairs := make([]agents.TermEntry, len(chunk))
	for i, t := range chunk {
		pairs[i] = agents.TermEntry{SourceTerm: t.SourceTerm, TargetTerm: t.TargetTerm}
	}

	results := checker.Check(ctx, pairs, sourceCtx, targetCtx)

	survivors := make([]ExtractedTerm, 0, len(chunk))
	for i, t := range chunk {
		if i >= len(results) || !results[i].IsValid {
			continue
		}
		t.IsValid = true
		t.QualityScore = results[i].QualityScore
		survivors = append(survivors, t)
	}
	return survivors
}

// sharedContext concatenates the distinct SourceContext/TargetContext
// strings of every term in chunk, truncated to maxSharedContextChars.
func sharedContext(chunk []ExtractedTerm) (source, target string) {
	var sourceParts, targetParts []string
	seenSource := make(map[string]bool)
	seenTarget := make(map[string]bool)
	for _, t := range chunk {
		if t.SourceContext != "" && !seenSource[t.SourceContext] {
			seenSource[t.SourceContext] = true
			sourceParts = append(sourceParts, t.SourceContext)
		}
		if t.TargetContext != "" && !seenTarget[t.TargetContext] {
			seenTarget[t.TargetContext] = true
			targetParts = append(targetParts, t.TargetContext)
		}
	}
	return truncate(strings.Join(sourceParts, " "), maxSharedContextChars), truncate(strings.Join(targetParts, " "), maxSharedContextChars)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
