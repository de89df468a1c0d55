// Package workflow implements the three cascaded rounds (spec.md §4.5):
// Terminology (R1), Syntax (R2) and Discourse (R3). Each round's
// Run method follows the shared structural pattern spec.md states
// explicitly — analyze, evaluate, gate, rewrite, select, emit — wired
// from the internal/agents layer agents and gated by internal/control's
// process-wide Config.
package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/control"
	"github.com/legalmt/hct/internal/logging"
)

// TerminologyInput is everything the Terminology workflow needs for one
// sentence.
type TerminologyInput struct {
	SourceText  string
	Langs       agents.Langs
	Domain      string
	UseTermbase bool
	// Hierarchical selects between the full terminology pipeline
	// (true) and the zero-glossary Baseline agent (false), per
	// spec.md §4.5.1's "if the baseline path is selected".
	Hierarchical bool
}

// TerminologyOutput is R1's result, threaded into R2/R3 and recorded in
// the translation trace.
type TerminologyOutput struct {
	TranslatedText string
	TermTable      []agents.TermEntry
	Confidence     float64
	// Baseline is true when Hierarchical was false and the output came
	// from the Baseline agent rather than the full pipeline.
	Baseline bool
}

// Terminology implements spec.md §4.5.1. Every agent is injected, not
// constructed internally — the workflow owns orchestration, not agent
// lifecycle.
type Terminology struct {
	monoExtract *agents.MonoExtractor
	search      *agents.Search
	evaluate    *agents.TerminologyEvaluator
	translate   *agents.TerminologyTranslator
	baseline    *agents.Baseline
	selector    *agents.CandidateSelector
	control     *control.Config
	log         *zap.Logger
}

// TerminologyDeps bundles the agents and control config a Terminology
// workflow needs.
type TerminologyDeps struct {
	MonoExtract *agents.MonoExtractor
	Search      *agents.Search
	Evaluate    *agents.TerminologyEvaluator
	Translate   *agents.TerminologyTranslator
	Baseline    *agents.Baseline
	Selector    *agents.CandidateSelector
	Control     *control.Config
	Logger      *zap.Logger
}

// NewTerminology builds a Terminology workflow from deps.
func NewTerminology(deps TerminologyDeps) *Terminology {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Terminology{
		monoExtract: deps.MonoExtract,
		search:      deps.Search,
		evaluate:    deps.Evaluate,
		translate:   deps.Translate,
		baseline:    deps.Baseline,
		selector:    deps.Selector,
		control:     deps.Control,
		log:         log.Named("workflow.terminology"),
	}
}

// Run executes R1 for in.
func (w *Terminology) Run(ctx context.Context, in TerminologyInput) TerminologyOutput {
	if !in.Hierarchical {
		result := w.baseline.Translate(ctx, in.SourceText, in.Langs.Source, in.Langs.Target)
		return TerminologyOutput{TranslatedText: result.TranslatedText, Baseline: true}
	}

	monoTerms := w.monoExtract.Extract(ctx, in.SourceText)

	termTable := w.buildTermTable(ctx, monoTerms, in)
	termTable = w.evaluateAndGate(ctx, termTable, in)

	if !w.control.SelectionEnabled(control.Terminology) {
		result := w.translate.Translate(ctx, in.SourceText, termTable, in.Langs, false, 0)
		return TerminologyOutput{TranslatedText: result.TranslatedText, TermTable: result.TermTable, Confidence: result.Confidence}
	}

	result := w.translate.Translate(ctx, in.SourceText, termTable, in.Langs, true, w.control.NumCandidates)
	if len(result.Candidates) == 0 {
		return TerminologyOutput{TranslatedText: result.TranslatedText, TermTable: result.TermTable, Confidence: result.Confidence}
	}

	selection := w.selector.Select(ctx, in.SourceText, result.Candidates, termTableContext(termTable), string(control.Terminology))
	return TerminologyOutput{TranslatedText: selection.BestCandidate, TermTable: termTable, Confidence: selection.Confidence}
}

// buildTermTable runs Search (when enabled) over the extracted mono
// terms and assembles the candidate term table with contexts, per
// spec.md §4.5.1 step 2.
func (w *Terminology) buildTermTable(ctx context.Context, monoTerms []agents.MonoTerm, in TerminologyInput) []agents.TermEntry {
	if !in.UseTermbase || len(monoTerms) == 0 {
		return nil
	}
	terms := make([]string, len(monoTerms))
	for i, t := range monoTerms {
		terms[i] = t.Term
	}

	hits := w.search.Lookup(ctx, terms, in.Langs.Source, in.Langs.Target, in.Domain, false)
	table := make([]agents.TermEntry, 0, len(hits))
	for _, h := range hits {
		table = append(table, agents.TermEntry{SourceTerm: h.Term, TargetTerm: h.Translation})
	}
	return table
}

// evaluateAndGate runs Evaluate (terminology), keeps only is_valid
// terms, and applies terminology gating (spec.md §4.5.1 steps 3-4).
func (w *Terminology) evaluateAndGate(ctx context.Context, termTable []agents.TermEntry, in TerminologyInput) []agents.TermEntry {
	if len(termTable) == 0 {
		return termTable
	}

	evaluations := w.evaluate.Evaluate(ctx, termTable, in.SourceText, in.Langs)
	byTerm := make(map[string]agents.TermEvaluation, len(evaluations))
	for _, e := range evaluations {
		byTerm[e.Term+"\x00"+e.Translation] = e
	}

	gatingEnabled := w.control.GatingEnabled(control.Terminology)
	threshold := w.control.Thresholds.Terminology

	out := make([]agents.TermEntry, 0, len(termTable))
	for _, t := range termTable {
		eval, ok := byTerm[t.SourceTerm+"\x00"+t.TargetTerm]
		if !ok || !eval.IsValid {
			continue
		}
		if gatingEnabled && eval.Confidence < threshold {
			continue
		}
		out = append(out, t)
	}
	return out
}

func termTableContext(termTable []agents.TermEntry) string {
	if len(termTable) == 0 {
		return ""
	}
	ctx := ""
	for _, t := range termTable {
		if ctx != "" {
			ctx += "; "
		}
		ctx += t.SourceTerm + " -> " + t.TargetTerm
	}
	return ctx
}
