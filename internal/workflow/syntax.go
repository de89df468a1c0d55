package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/control"
	"github.com/legalmt/hct/internal/logging"
)

// patternConfidenceThreshold and dimensionScoreThreshold are spec.md
// §4.5.2 step 3's fixed 0.9 cutoffs for "low-confidence pattern" and
// "low-score dimension" — distinct from control.Thresholds.Syntax,
// which gates whether a rewrite happens at all.
const (
	patternConfidenceThreshold = 0.9
	dimensionScoreThreshold    = 0.9
)

// SyntaxInput is everything the Syntax workflow needs for one sentence.
type SyntaxInput struct {
	SourceText string
	R1Text     string
	TermTable  []agents.TermEntry
	Langs      agents.Langs
}

// SyntaxOutput is R2's result.
type SyntaxOutput struct {
	TranslatedText string
	// Confidence is 1.0 when Gated, since R1's text was judged already
	// acceptable; otherwise it is SyntaxRefine's own confidence.
	Confidence float64
	// Gated is true when the round emitted R1Text unchanged because
	// gating was enabled and no rewrite signal fired.
	Gated bool
}

// Syntax implements spec.md §4.5.2.
type Syntax struct {
	biExtract *agents.SyntaxBiExtractor
	evaluate  *agents.SyntaxEvaluator
	refine    *agents.SyntaxRefiner
	selector  *agents.CandidateSelector
	control   *control.Config
	log       *zap.Logger
}

// SyntaxDeps bundles the agents and control config a Syntax workflow
// needs.
type SyntaxDeps struct {
	BiExtract *agents.SyntaxBiExtractor
	Evaluate  *agents.SyntaxEvaluator
	Refine    *agents.SyntaxRefiner
	Selector  *agents.CandidateSelector
	Control   *control.Config
	Logger    *zap.Logger
}

// NewSyntax builds a Syntax workflow from deps.
func NewSyntax(deps SyntaxDeps) *Syntax {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Syntax{
		biExtract: deps.BiExtract,
		evaluate:  deps.Evaluate,
		refine:    deps.Refine,
		selector:  deps.Selector,
		control:   deps.Control,
		log:       log.Named("workflow.syntax"),
	}
}

// Run executes R2 for in.
func (w *Syntax) Run(ctx context.Context, in SyntaxInput) SyntaxOutput {
	patterns := w.biExtract.Extract(ctx, in.SourceText, in.R1Text, in.Langs)
	evaluation := w.evaluate.Evaluate(ctx, in.SourceText, in.R1Text, patterns, in.Langs)

	lowConfidencePatterns := lowConfidencePatternContexts(patterns)
	lowScoreDimensions := evaluation.LowScoreDimensions(dimensionScoreThreshold)

	gatingEnabled := w.control.GatingEnabled(control.Syntax)
	if gatingEnabled && len(lowConfidencePatterns) == 0 && len(lowScoreDimensions) == 0 && evaluation.Overall >= w.control.Thresholds.Syntax {
		return SyntaxOutput{TranslatedText: in.R1Text, Confidence: 1.0, Gated: true}
	}

	mode := agents.SyntaxRefineFull
	if len(lowConfidencePatterns) > 0 || len(lowScoreDimensions) > 0 {
		mode = agents.SyntaxRefineTargeted
	}

	if !w.control.SelectionEnabled(control.Syntax) {
		result := w.refine.Refine(ctx, in.SourceText, in.R1Text, patterns, evaluation, in.TermTable, lowConfidencePatterns, lowScoreDimensions, mode, in.Langs)
		return SyntaxOutput{TranslatedText: result.RefinedText, Confidence: result.Confidence}
	}

	candidates := w.generateCandidates(ctx, in, patterns, evaluation, lowConfidencePatterns, lowScoreDimensions, mode)
	selection := w.selector.Select(ctx, in.SourceText, candidates, "", string(control.Syntax))
	return SyntaxOutput{TranslatedText: selection.BestCandidate, Confidence: selection.Confidence}
}

// generateCandidates builds the syntax round's candidate set with the
// original R1 text always first, per spec.md §4.5.2 step 6's "the first
// candidate is always the original R1 text — the gating prior".
func (w *Syntax) generateCandidates(ctx context.Context, in SyntaxInput, patterns []agents.SyntaxPattern, evaluation agents.SyntaxEvaluation, lowConfidencePatterns, lowScoreDimensions []string, mode agents.SyntaxRefineMode) []string {
	candidates := []string{in.R1Text}
	for i := 1; i < w.control.NumCandidates; i++ {
		result := w.refine.Refine(ctx, in.SourceText, in.R1Text, patterns, evaluation, in.TermTable, lowConfidencePatterns, lowScoreDimensions, mode, in.Langs)
		candidates = append(candidates, result.RefinedText)
	}
	return candidates
}

func lowConfidencePatternContexts(patterns []agents.SyntaxPattern) []string {
	var out []string
	for _, p := range patterns {
		if p.Confidence < patternConfidenceThreshold {
			out = append(out, p.SourcePattern)
		}
	}
	return out
}
