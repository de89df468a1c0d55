package extraction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/internal/termbase"
)

// TermWriter is the subset of *termbase.Store the pipeline's final
// import step needs.
type TermWriter interface {
	BatchAddTerms(ctx context.Context, terms []termbase.Term) error
}

// Config holds every tunable spec.md §6's term-extraction CLI surface
// names.
type Config struct {
	BatchSize              int
	MaxConcurrent          int
	ExtractionBatchSize    int
	QualityCheckBatchSize  int
	NormalizationBatchSize int
	MaxTargetsPerSource    int
	Weights                termbase.ScoreWeights
	CheckpointPath         string
	StageDir               string
	NoResume               bool
	StartFromStage         int
	MaxEntries             int
	SourceLang             string
	TargetLang             string
}

// DefaultConfig returns the spec's documented defaults: 0.4/0.6
// confidence/quality weights (spec.md §4.7 Stage 4), fixed batch sizes,
// a concurrency of 5 and at most 5 targets per source term.
func DefaultConfig() Config {
	return Config{
		BatchSize:              50,
		MaxConcurrent:          5,
		ExtractionBatchSize:    10,
		QualityCheckBatchSize:  20,
		NormalizationBatchSize: 20,
		MaxTargetsPerSource:    5,
		Weights:                termbase.DefaultScoreWeights(),
	}
}

// Deps bundles the BTEP-only agents and the termbase writer the
// pipeline drives.
type Deps struct {
	Extractor  *agents.BilingualExtractor
	Checker    *agents.QualityChecker
	Normalizer *agents.Normalizer
	Store      TermWriter
	Logger     *zap.Logger
}

// Pipeline runs the four BTEP stages over a corpus, per spec.md §4.7.
type Pipeline struct {
	deps Deps
	cfg  Config
	log  *zap.Logger
}

// New builds a Pipeline from deps and cfg.
func New(deps Deps, cfg Config) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Pipeline{deps: deps, cfg: cfg, log: log.Named("extraction.pipeline")}
}

// Result is the pipeline's final summary: the imported term count and
// the checkpoint reached.
type Result struct {
	ImportedTerms int
	Checkpoint    *Checkpoint
}

// Run executes the pipeline over corpus. Blank-source-or-target entries
// are skipped (per original_source's data_processor.py), then entries
// are capped to MaxEntries if set (per original_source's
// import_terms_to_db.py --max-entries). Stages run only over the
// portions of the checkpoint that are empty for that stage — a prior
// run's checkpoint, loaded by the caller, is honored unless NoResume or
// StartFromStage force a stage to recompute. On any error, or on ctx
// cancellation, the checkpoint accumulated so far is returned alongside
// the error so the caller can persist it before exiting.
func (p *Pipeline) Run(ctx context.Context, corpus []LawPair, checkpoint *Checkpoint) (Result, error) {
	if checkpoint == nil {
		checkpoint = NewCheckpoint()
	}
	if p.cfg.NoResume {
		checkpoint = NewCheckpoint()
	}
	if p.cfg.StartFromStage > 1 {
		checkpoint.ClearFromStage(p.cfg.StartFromStage)
	}

	corpus = filterBlankEntries(corpus)
	if p.cfg.MaxEntries > 0 && len(corpus) > p.cfg.MaxEntries {
		corpus = corpus[:p.cfg.MaxEntries]
	}

	if len(checkpoint.AllExtractedTerms) == 0 {
		checkpoint.AllExtractedTerms = Stage1Extract(ctx, p.deps.Extractor, corpus, p.cfg.ExtractionBatchSize, p.cfg.MaxConcurrent, p.log)
		checkpoint.Stats.ExtractedCount = len(checkpoint.AllExtractedTerms)
		if err := ctx.Err(); err != nil {
			return Result{Checkpoint: checkpoint}, err
		}
	}

	if len(checkpoint.AllFilteredTerms) == 0 {
		checkpoint.AllFilteredTerms = Stage2QualityCheck(ctx, p.deps.Checker, checkpoint.AllExtractedTerms, p.cfg.QualityCheckBatchSize, p.cfg.MaxConcurrent, p.log)
		checkpoint.Stats.FilteredCount = len(checkpoint.AllFilteredTerms)
		if err := ctx.Err(); err != nil {
			return Result{Checkpoint: checkpoint}, err
		}
	}

	if len(checkpoint.AllNormalizedTerms) == 0 {
		checkpoint.AllNormalizedTerms = Stage3Normalize(ctx, p.deps.Normalizer, checkpoint.AllFilteredTerms, p.cfg.NormalizationBatchSize, p.cfg.SourceLang, p.cfg.TargetLang, p.log)
		checkpoint.Stats.NormalizedCount = len(checkpoint.AllNormalizedTerms)
		if err := ctx.Err(); err != nil {
			return Result{Checkpoint: checkpoint}, err
		}
	}

	if len(checkpoint.AllStandardizedTerms) == 0 {
		checkpoint.AllStandardizedTerms = Stage4Standardize(checkpoint.AllNormalizedTerms, p.cfg.Weights, p.cfg.MaxTargetsPerSource, p.cfg.SourceLang, p.cfg.TargetLang, p.log)
		checkpoint.Stats.StandardizedCount = len(checkpoint.AllStandardizedTerms)
		checkpoint.AllTerms = checkpoint.AllStandardizedTerms
	}

	if len(checkpoint.AllStandardizedTerms) == 0 && len(corpus) > 0 {
		return Result{Checkpoint: checkpoint}, fmt.Errorf("extraction: stage 4 produced an empty termbase from a non-empty corpus: %w", errs.FatalLogicError)
	}

	imported, err := p.importTerms(ctx, checkpoint.AllStandardizedTerms)
	if err != nil {
		return Result{Checkpoint: checkpoint}, err
	}
	return Result{ImportedTerms: imported, Checkpoint: checkpoint}, nil
}

func (p *Pipeline) importTerms(ctx context.Context, terms []ExtractedTerm) (int, error) {
	if len(terms) == 0 || p.deps.Store == nil {
		return 0, nil
	}
	rows := make([]termbase.Term, len(terms))
	for i, t := range terms {
		rows[i] = termbase.Term{
			SourceTerm:         t.NormalizedSource,
			TargetTerm:         t.NormalizedTarget,
			SourceLang:         p.cfg.SourceLang,
			TargetLang:         p.cfg.TargetLang,
			Domain:             t.Domain,
			Confidence:         t.Confidence,
			QualityScore:       t.QualityScore,
			CombinedScore:      t.CombinedScore,
			Category:           t.Category,
			Law:                t.Law,
			Year:               t.Year,
			EntryID:            t.EntryID,
			SourceContext:      t.SourceContext,
			TargetContext:      t.TargetContext,
			OccurrenceCount:    t.OccurrenceCount,
			OriginalSourceTerm: t.SourceTerm,
			OriginalTargetTerm: t.TargetTerm,
		}
	}
	if err := p.deps.Store.BatchAddTerms(ctx, rows); err != nil {
		return 0, fmt.Errorf("extraction: import terms: %w", err)
	}
	return len(rows), nil
}

func filterBlankEntries(corpus []LawPair) []LawPair {
	out := make([]LawPair, 0, len(corpus))
	for _, e := range corpus {
		if strings.TrimSpace(e.SourceText) == "" || strings.TrimSpace(e.TargetText) == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
