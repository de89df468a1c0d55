package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const terminologyEvaluatePrompt = `You are reviewing terminology choices in a legal translation. Given the source sentence and the candidate term translations below, judge whether each translation is a contextually valid rendering of the term as used IN THIS SENTENCE — not just a generically correct dictionary equivalent.

Source ({{.langs.source_lang}} -> {{.langs.target_lang}}): {{.source_text}}

Candidate term translations:
{{.translations}}

For each candidate, score confidence in [0,1] reflecting how well the translation fits the term's original usage context against its use in this sentence; is_valid should be true only when confidence clears ordinary acceptability. Respond with a JSON object: {"evaluations": [{"term": string, "translation": string, "is_valid": bool, "confidence": number, "reason": string, "suggestions": [string]}]}.`

// TermEvaluation is one Evaluate (terminology) result row.
type TermEvaluation struct {
	Term        string   `json:"term"`
	Translation string   `json:"translation"`
	IsValid     bool     `json:"is_valid"`
	Confidence  float64  `json:"confidence"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions"`
}

type terminologyEvaluateResponse struct {
	Evaluations []TermEvaluation `json:"evaluations"`
}

// TerminologyEvaluateConfig configures a TerminologyEvaluator.
type TerminologyEvaluateConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c TerminologyEvaluateConfig) validate() error {
	return validateClient(c.Client)
}

// TerminologyEvaluator implements spec.md §4.4's Evaluate (terminology)
// agent.
type TerminologyEvaluator struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewTerminologyEvaluator builds a TerminologyEvaluator from cfg.
func NewTerminologyEvaluator(cfg TerminologyEvaluateConfig) (*TerminologyEvaluator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: terminology evaluate config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &TerminologyEvaluator{client: cfg.Client, model: cfg.Model, log: log.Named("agents.terminology_evaluate")}, nil
}

// Evaluate scores translations against sourceText. Degrades to an
// empty, non-nil slice on any failure.
func (a *TerminologyEvaluator) Evaluate(ctx context.Context, translations []TermEntry, sourceText string, langs Langs) []TermEvaluation {
	listing, err := json.Marshal(translations)
	if err != nil {
		a.log.Warn("translations marshal failed", zap.Error(err))
		return []TermEvaluation{}
	}
	user, err := render(terminologyEvaluatePrompt, map[string]any{
		"translations": string(listing),
		"source_text":  sourceText,
		"langs":        langs,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return []TermEvaluation{}
	}

	var resp terminologyEvaluateResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You evaluate legal terminology usage as strict JSON.", user, &resp) {
		return []TermEvaluation{}
	}
	if resp.Evaluations == nil {
		resp.Evaluations = []TermEvaluation{}
	}
	return resp.Evaluations
}
