package translator

import (
	"context"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/internal/workflow"
)

// Input is one translation request.
type Input struct {
	SourceText string
	Langs      agents.Langs
	Domain     string
	// Hierarchical selects the full R1/R2/R3 pipeline; false runs only
	// the Baseline agent via the Terminology round, per spec.md §4.5.4.
	Hierarchical bool
	UseTermbase  bool
	UseTM        bool
	// MaxRounds is clamped to [1,3]: R1 always runs, R2 runs when
	// MaxRounds>=2, R3 when MaxRounds>=3.
	MaxRounds int
	// TopK is the width of R3's TM retrieval before the fixed top-3 cap.
	TopK int
}

// Result is a translation run's final output plus its full trace.
type Result struct {
	FinalText  string
	Confidence float64
	Trace      *Trace
}

// Translator implements spec.md §4.5.4: it runs the Terminology,
// Syntax and Discourse workflow rounds (internal/workflow) in sequence
// according to MaxRounds, threading each round's output text into the
// next exactly as flow/flow.go's Flow.Then chains nodes — here
// specialized to a fixed three-step chain instead of a general DAG,
// since the round count and order are fixed by the spec rather than
// assembled at runtime.
type Translator struct {
	terminology *workflow.Terminology
	syntax      *workflow.Syntax
	discourse   *workflow.Discourse
	log         *zap.Logger
}

// Deps bundles the three round workflows a Translator needs.
type Deps struct {
	Terminology *workflow.Terminology
	Syntax      *workflow.Syntax
	Discourse   *workflow.Discourse
	Logger      *zap.Logger
}

// New builds a Translator from deps.
func New(deps Deps) *Translator {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Translator{
		terminology: deps.Terminology,
		syntax:      deps.Syntax,
		discourse:   deps.Discourse,
		log:         log.Named("translator"),
	}
}

// Translate runs in through however many rounds MaxRounds selects,
// recording each round's outcome in the returned trace.
func (t *Translator) Translate(ctx context.Context, in Input) Result {
	trace := NewTrace()

	if !in.Hierarchical {
		r1 := t.terminology.Run(ctx, workflow.TerminologyInput{
			SourceText: in.SourceText, Langs: in.Langs, Domain: in.Domain, Hierarchical: false,
		})
		trace.Set("baseline", BaselineTrace{Output: r1.TranslatedText})
		return Result{FinalText: r1.TranslatedText, Trace: trace}
	}

	maxRounds := in.MaxRounds
	if maxRounds < 1 {
		maxRounds = 1
	}
	if maxRounds > 3 {
		maxRounds = 3
	}

	r1 := t.terminology.Run(ctx, workflow.TerminologyInput{
		SourceText: in.SourceText, Langs: in.Langs, Domain: in.Domain,
		UseTermbase: in.UseTermbase, Hierarchical: true,
	})
	trace.Set("r1", R1Trace{
		SourceText: in.SourceText, Output: r1.TranslatedText,
		TermTable: r1.TermTable, Confidence: r1.Confidence,
	})

	current := r1.TranslatedText
	confidence := r1.Confidence

	if maxRounds >= 2 {
		r2 := t.syntax.Run(ctx, workflow.SyntaxInput{
			SourceText: in.SourceText, R1Text: current, TermTable: r1.TermTable, Langs: in.Langs,
		})
		trace.Set("r2", R2Trace{Output: r2.TranslatedText, Confidence: r2.Confidence, Gated: r2.Gated})
		current = r2.TranslatedText
		confidence = r2.Confidence
	}

	if maxRounds >= 3 {
		r3 := t.discourse.Run(ctx, workflow.DiscourseInput{
			SourceText: in.SourceText, R2Text: current, Langs: in.Langs, UseTM: in.UseTM, TopK: in.TopK,
		})
		trace.Set("r3", R3Trace{
			Output: r3.TranslatedText, Confidence: r3.Confidence, Gated: r3.Gated,
			Candidates: r3.Candidates, SelectedIndex: r3.SelectedIndex,
		})
		current = r3.TranslatedText
		confidence = r3.Confidence
	}

	return Result{FinalText: current, Confidence: confidence, Trace: trace}
}
