package experiment

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/translator"
	"github.com/legalmt/hct/internal/workflow"
	"github.com/legalmt/hct/pkg/safe"
)

// Deps bundles the shared, stateless internal/agents pointers every
// ablation's translator is built from. Each ablation still needs its
// own *control.Config (carried on AblationConfig), since
// internal/workflow's round structs bake their gating/selection
// behavior in at construction.
type Deps struct {
	MonoExtract   *agents.MonoExtractor
	Search        *agents.Search
	TermEval      *agents.TerminologyEvaluator
	TermTranslate *agents.TerminologyTranslator
	Baseline      *agents.Baseline
	Selector      *agents.CandidateSelector

	BiExtract    *agents.SyntaxBiExtractor
	SyntaxEval   *agents.SyntaxEvaluator
	SyntaxRefine *agents.SyntaxRefiner

	DiscourseQuery  *agents.DiscourseQuery
	DiscourseEval   *agents.DiscourseEvaluator
	DiscourseRefine *agents.DiscourseRefiner

	Concurrency int
	Logger      *zap.Logger
}

// Runner drives one or more ablations over a fixed sample set,
// producing a SampleResult per (ablation, sample) pair. Its bounded
// concurrent loop is grounded on flow/batch.go's runN: an
// errgroup.SetLimit over a known-size slice, with an index-addressed
// output slice so result order tracks input order rather than
// completion order.
type Runner struct {
	deps Deps
	log  *zap.Logger
}

// New returns a Runner built from deps.
func New(deps Deps) *Runner {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{deps: deps, log: log}
}

func (r *Runner) buildTranslator(ablation AblationConfig) *translator.Translator {
	terminology := workflow.NewTerminology(workflow.TerminologyDeps{
		MonoExtract: r.deps.MonoExtract,
		Search:      r.deps.Search,
		Evaluate:    r.deps.TermEval,
		Translate:   r.deps.TermTranslate,
		Baseline:    r.deps.Baseline,
		Selector:    r.deps.Selector,
		Control:     ablation.Control,
	})
	syntax := workflow.NewSyntax(workflow.SyntaxDeps{
		BiExtract: r.deps.BiExtract,
		Evaluate:  r.deps.SyntaxEval,
		Refine:    r.deps.SyntaxRefine,
		Selector:  r.deps.Selector,
		Control:   ablation.Control,
	})
	discourse := workflow.NewDiscourse(workflow.DiscourseDeps{
		Query:    r.deps.DiscourseQuery,
		Evaluate: r.deps.DiscourseEval,
		Refine:   r.deps.DiscourseRefine,
		Selector: r.deps.Selector,
		Control:  ablation.Control,
	})
	return translator.New(translator.Deps{
		Terminology: terminology,
		Syntax:      syntax,
		Discourse:   discourse,
		Logger:      r.log,
	})
}

// Run executes ablation over samples with the configured concurrency
// bound, returning one SampleResult per sample in input order. A
// single sample's panic is isolated by pkg/safe.WithRecover and turned
// into a failed SampleResult rather than aborting the batch.
func (r *Runner) Run(ctx context.Context, ablationName string, ablation AblationConfig, samples []Sample) []SampleResult {
	r.log.Info("running ablation", zap.String("ablation", ablationName), zap.Int("samples", len(samples)))
	tr := r.buildTranslator(ablation)
	order := make([]SampleResult, len(samples))

	group, groupCtx := errgroup.WithContext(ctx)
	limit := r.deps.Concurrency
	if limit <= 0 {
		limit = 1
	}
	group.SetLimit(limit)

	for i, sample := range samples {
		i, sample := i, sample
		group.Go(func() error {
			order[i] = r.runSample(groupCtx, tr, ablation, sample)
			return nil
		})
	}
	_ = group.Wait()

	return order
}

func (r *Runner) runSample(ctx context.Context, tr *translator.Translator, ablation AblationConfig, sample Sample) SampleResult {
	result := SampleResult{
		SampleID: sample.ID,
		Source:   sample.Source,
		Target:   sample.Reference,
		Metadata: sample.Metadata,
	}

	var panicErr error
	recovered := safe.WithRecover(func() {
		out := tr.Translate(ctx, translator.Input{
			SourceText:   sample.Source,
			Langs:        agents.Langs{Source: sample.SourceLang, Target: sample.TargetLang},
			Domain:       ablation.Domain,
			Hierarchical: ablation.Hierarchical,
			UseTermbase:  ablation.UseTermbase,
			UseTM:        ablation.UseTM,
			MaxRounds:    ablation.MaxRounds,
		})
		result.Prediction = out.FinalText
		result.Trace = out.Trace.Snapshot()
	}, func(err error) {
		panicErr = err
	})
	recovered()

	if panicErr != nil {
		result.Success = false
		result.Error = panicErr.Error()
		return result
	}

	if strings.TrimSpace(result.Prediction) == "" {
		result.Success = false
		result.Error = "Empty translation result"
		result.Prediction = sample.Source
		return result
	}

	result.Success = true
	termTable := termTableFromTrace(result.Trace)
	result.Metrics = legacyMetrics(sample.Source, result.Prediction, sample.Reference, sample.SourceLang, termTable)
	return result
}

func termTableFromTrace(trace map[string]any) []agents.TermEntry {
	if trace == nil {
		return nil
	}
	r1, ok := trace["r1"]
	if !ok {
		return nil
	}
	r1Trace, ok := r1.(translator.R1Trace)
	if !ok {
		return nil
	}
	return r1Trace.TermTable
}
