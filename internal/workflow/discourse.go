package workflow

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/control"
	"github.com/legalmt/hct/internal/logging"
)

// discourseTopReferences is spec.md §4.5.3 step 1's fixed "keep the top
// 3" cap on TM references, independent of the top_k passed to
// DiscourseQuery itself.
const discourseTopReferences = 3

// DiscourseInput is everything the Discourse workflow needs for one
// sentence.
type DiscourseInput struct {
	SourceText string
	R2Text     string
	Langs      agents.Langs
	UseTM      bool
	TopK       int
}

// DiscourseOutput is R3's result, the translator's final output when
// max_rounds>=3.
type DiscourseOutput struct {
	TranslatedText string
	// Confidence is 1.0 when Gated, since R2's text was judged already
	// acceptable; 0 when the round is skipped for lack of TM references;
	// otherwise it is DiscourseRefine's or the selector's own confidence.
	Confidence float64
	Gated      bool
	// Candidates and SelectedIndex are only populated when candidate
	// selection ran; Candidates[0] is always R2Text.
	Candidates    []string
	SelectedIndex int
}

// Discourse implements spec.md §4.5.3.
type Discourse struct {
	query    *agents.DiscourseQuery
	evaluate *agents.DiscourseEvaluator
	refine   *agents.DiscourseRefiner
	selector *agents.CandidateSelector
	control  *control.Config
	log      *zap.Logger
}

// DiscourseDeps bundles the agents and control config a Discourse
// workflow needs.
type DiscourseDeps struct {
	Query    *agents.DiscourseQuery
	Evaluate *agents.DiscourseEvaluator
	Refine   *agents.DiscourseRefiner
	Selector *agents.CandidateSelector
	Control  *control.Config
	Logger   *zap.Logger
}

// NewDiscourse builds a Discourse workflow from deps.
func NewDiscourse(deps DiscourseDeps) *Discourse {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Discourse{
		query:    deps.Query,
		evaluate: deps.Evaluate,
		refine:   deps.Refine,
		selector: deps.Selector,
		control:  deps.Control,
		log:      log.Named("workflow.discourse"),
	}
}

// Run executes R3 for in.
func (w *Discourse) Run(ctx context.Context, in DiscourseInput) DiscourseOutput {
	var references []agents.TMMatch
	if in.UseTM {
		topK := in.TopK
		if topK <= 0 {
			topK = discourseTopReferences
		}
		matches := w.query.Query(ctx, in.SourceText, in.Langs, topK)
		references = topReferences(matches, discourseTopReferences)
	}

	if len(references) == 0 {
		return DiscourseOutput{TranslatedText: in.R2Text}
	}

	evaluation := w.evaluate.Evaluate(ctx, in.SourceText, in.R2Text, references, in.Langs)

	gatingEnabled := w.control.GatingEnabled(control.Discourse)
	if gatingEnabled && evaluation.Overall >= w.control.Thresholds.Discourse {
		return DiscourseOutput{TranslatedText: in.R2Text, Confidence: 1.0, Gated: true}
	}

	if gatingEnabled {
		references = filterBySimilarity(references, w.control.Thresholds.TMSimilarity)
	}

	if !w.control.SelectionEnabled(control.Discourse) {
		result := w.refine.Refine(ctx, in.SourceText, in.R2Text, references, evaluation, in.Langs)
		return DiscourseOutput{TranslatedText: result.RefinedText, Confidence: result.Confidence}
	}

	result := w.refine.RefineWithCandidates(ctx, in.SourceText, in.R2Text, references, evaluation, in.Langs, w.control.NumCandidates)
	if len(result.Candidates) <= 1 {
		return DiscourseOutput{TranslatedText: result.RefinedText, Confidence: result.Confidence, Candidates: result.Candidates}
	}
	selection := w.selector.Select(ctx, in.SourceText, result.Candidates, "", string(control.Discourse))
	return DiscourseOutput{
		TranslatedText: selection.BestCandidate,
		Confidence:     selection.Confidence,
		Candidates:     result.Candidates,
		SelectedIndex:  selection.BestIndex,
	}
}

// topReferences sorts matches by similarity descending and keeps the
// top n, per spec.md §4.5.3 step 1.
func topReferences(matches []agents.TMMatch, n int) []agents.TMMatch {
	sorted := make([]agents.TMMatch, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SimilarityScore > sorted[j].SimilarityScore })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func filterBySimilarity(references []agents.TMMatch, threshold float64) []agents.TMMatch {
	out := make([]agents.TMMatch, 0, len(references))
	for _, r := range references {
		if r.SimilarityScore >= threshold {
			out = append(out, r)
		}
	}
	return out
}
