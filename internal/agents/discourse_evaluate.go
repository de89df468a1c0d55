package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const discourseEvaluatePrompt = `You are evaluating a legal translation's discourse-level consistency against reference translations of similar legal text drawn from a translation memory.

Source ({{.langs.source_lang}}): {{.source_text}}
Current translation ({{.langs.target_lang}}): {{.current_translation}}

Reference translations:
{{.references}}

Score coherence (internal flow, register, logical connectors across the passage) and consistency (terminology and phrasing alignment with the references) in [0,1], list concrete terminology differences and syntax differences against the references, give an overall score, and general recommendations. Respond with a JSON object: {"coherence": {"score": number, "issues": [string]}, "consistency": {"score": number, "issues": [string]}, "overall": number, "terminology_differences": [string], "syntax_differences": [string], "recommendations": [string]}.`

// DiscourseEvaluation is the DiscourseEvaluate agent's result.
type DiscourseEvaluation struct {
	Coherence              DimensionScore `json:"coherence"`
	Consistency            DimensionScore `json:"consistency"`
	Overall                float64        `json:"overall"`
	TerminologyDifferences []string       `json:"terminology_differences"`
	SyntaxDifferences      []string       `json:"syntax_differences"`
	Recommendations        []string       `json:"recommendations"`
}

// DiscourseEvaluateConfig configures a DiscourseEvaluator.
type DiscourseEvaluateConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c DiscourseEvaluateConfig) validate() error {
	return validateClient(c.Client)
}

// DiscourseEvaluator implements spec.md §4.4's DiscourseEvaluate agent.
type DiscourseEvaluator struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewDiscourseEvaluator builds a DiscourseEvaluator from cfg.
func NewDiscourseEvaluator(cfg DiscourseEvaluateConfig) (*DiscourseEvaluator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: discourse evaluate config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &DiscourseEvaluator{client: cfg.Client, model: cfg.Model, log: log.Named("agents.discourse_evaluate")}, nil
}

// Evaluate compares currentTranslation against references. Degrades to
// a zero-value DiscourseEvaluation (every score 0) on any failure, so a
// downstream gate that requires "overall >= threshold to skip" always
// chooses to refine instead.
func (a *DiscourseEvaluator) Evaluate(ctx context.Context, sourceText, currentTranslation string, references []TMMatch, langs Langs) DiscourseEvaluation {
	listing, err := json.Marshal(references)
	if err != nil {
		a.log.Warn("references marshal failed", zap.Error(err))
		return DiscourseEvaluation{}
	}
	user, err := render(discourseEvaluatePrompt, map[string]any{
		"source_text":         sourceText,
		"current_translation": currentTranslation,
		"references":          string(listing),
		"langs":               langs,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return DiscourseEvaluation{}
	}

	var resp DiscourseEvaluation
	if !runJSON(ctx, a.client, a.log, a.model, "You evaluate legal-translation discourse consistency as strict JSON.", user, &resp) {
		return DiscourseEvaluation{}
	}
	return resp
}
