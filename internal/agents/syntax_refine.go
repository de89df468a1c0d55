package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

// SyntaxRefineMode selects how aggressively SyntaxRefine rewrites.
type SyntaxRefineMode string

const (
	// SyntaxRefineFull rewrites the whole sentence.
	SyntaxRefineFull SyntaxRefineMode = "full"
	// SyntaxRefineTargeted rewrites only the flagged patterns/dimensions.
	SyntaxRefineTargeted SyntaxRefineMode = "targeted"
)

const syntaxRefinePrompt = `You are correcting the syntactic structure of a legal translation. Mode: {{.mode}}.

Source ({{.langs.source_lang}}): {{.source}}
Current translation ({{.langs.target_lang}}): {{.current_translation}}

Extracted patterns:
{{.patterns}}

Evaluation:
{{.evaluation}}

Low-confidence patterns to prioritize: {{.low_confidence_patterns}}
Low-scoring dimensions to prioritize: {{.low_score_dimensions}}

Term table (every target term below must appear verbatim in your output wherever it currently appears in the current translation):
{{.term_table}}

Respond with a JSON object: {"refined_text": string, "confidence": number between 0 and 1, "applied_corrections": [string]}.`

// SyntaxRefineResult is the SyntaxRefine agent's output.
type SyntaxRefineResult struct {
	RefinedText        string   `json:"refined_text"`
	Confidence         float64  `json:"confidence"`
	AppliedCorrections []string `json:"applied_corrections"`
	Candidates         []string `json:"candidates,omitempty"`
	// FellBack is true when the model's output was rejected (empty,
	// too short, or broke the term-table protection invariant) and
	// RefinedText was replaced with the input current_translation.
	FellBack bool `json:"-"`
}

type syntaxRefineResponse struct {
	RefinedText        string   `json:"refined_text"`
	Confidence         float64  `json:"confidence"`
	AppliedCorrections []string `json:"applied_corrections"`
}

// SyntaxRefineConfig configures a SyntaxRefiner.
type SyntaxRefineConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c SyntaxRefineConfig) validate() error {
	return validateClient(c.Client)
}

// SyntaxRefiner implements spec.md §4.4's SyntaxRefine agent, including
// its two invariants: term-table protection (every (source,target) pair
// whose target term is present in current_translation must still be
// present, verbatim, in refined_text) and the non-collapse rule
// (refined_text must not be empty or under half the length of
// current_translation).
type SyntaxRefiner struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewSyntaxRefiner builds a SyntaxRefiner from cfg.
func NewSyntaxRefiner(cfg SyntaxRefineConfig) (*SyntaxRefiner, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: syntax refine config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &SyntaxRefiner{client: cfg.Client, model: cfg.Model, log: log.Named("agents.syntax_refine")}, nil
}

// Refine rewrites currentTranslation per patterns/evaluation. On LLM or
// schema failure, or on a response that violates either invariant, it
// falls back to currentTranslation unchanged with FellBack=true.
func (a *SyntaxRefiner) Refine(
	ctx context.Context,
	source, currentTranslation string,
	patterns []SyntaxPattern,
	evaluation SyntaxEvaluation,
	termTable []TermEntry,
	lowConfidencePatterns, lowScoreDimensions []string,
	mode SyntaxRefineMode,
	langs Langs,
) SyntaxRefineResult {
	fallback := SyntaxRefineResult{RefinedText: currentTranslation, FellBack: true}

	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		a.log.Warn("patterns marshal failed", zap.Error(err))
		return fallback
	}
	evaluationJSON, err := json.Marshal(evaluation)
	if err != nil {
		a.log.Warn("evaluation marshal failed", zap.Error(err))
		return fallback
	}
	termTableJSON, err := json.Marshal(termTable)
	if err != nil {
		a.log.Warn("term table marshal failed", zap.Error(err))
		return fallback
	}

	user, err := render(syntaxRefinePrompt, map[string]any{
		"source":                  source,
		"current_translation":     currentTranslation,
		"patterns":                string(patternsJSON),
		"evaluation":              string(evaluationJSON),
		"low_confidence_patterns": lowConfidencePatterns,
		"low_score_dimensions":    lowScoreDimensions,
		"term_table":              string(termTableJSON),
		"mode":                    mode,
		"langs":                   langs,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return fallback
	}

	var resp syntaxRefineResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You correct legal-translation syntax as strict JSON.", user, &resp) {
		return fallback
	}

	if !refineOutputIsAcceptable(resp.RefinedText, currentTranslation, termTable) {
		a.log.Warn("syntax refine output rejected by invariants, falling back to current translation")
		return fallback
	}

	return SyntaxRefineResult{
		RefinedText:        resp.RefinedText,
		Confidence:         resp.Confidence,
		AppliedCorrections: resp.AppliedCorrections,
	}
}

// refineOutputIsAcceptable enforces SyntaxRefine's two invariants:
// non-collapse (not empty, not under half the input length) and
// term-table protection (every target term present in
// currentTranslation survives verbatim in refined).
func refineOutputIsAcceptable(refined, currentTranslation string, termTable []TermEntry) bool {
	if refined == "" {
		return false
	}
	if len(currentTranslation) > 0 && len(refined) < len(currentTranslation)/2 {
		return false
	}
	for _, t := range termTable {
		if t.TargetTerm == "" {
			continue
		}
		if strings.Contains(currentTranslation, t.TargetTerm) && !strings.Contains(refined, t.TargetTerm) {
			return false
		}
	}
	return true
}
