package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const syntaxEvaluatePrompt = `You are scoring the syntactic fidelity of a legal translation along four dimensions: modality, connectives, conditional structure and passive voice.

Source ({{.langs.source_lang}}): {{.source_text}}
Current translation ({{.langs.target_lang}}): {{.current_translation}}

Extracted patterns:
{{.patterns}}

For each dimension, give a score in [0,1] and list concrete issues found (empty list if none). Also give an overall score and general recommendations. Respond with a JSON object: {"modality": {"score": number, "issues": [string]}, "connectives": {"score": number, "issues": [string]}, "conditional": {"score": number, "issues": [string]}, "passive": {"score": number, "issues": [string]}, "overall": number, "recommendations": [string]}.`

// DimensionScore is one syntax-evaluation dimension's score and issue
// list.
type DimensionScore struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// SyntaxEvaluation is the SyntaxEvaluate agent's full result.
type SyntaxEvaluation struct {
	Modality        DimensionScore `json:"modality"`
	Connectives     DimensionScore `json:"connectives"`
	Conditional     DimensionScore `json:"conditional"`
	Passive         DimensionScore `json:"passive"`
	Overall         float64        `json:"overall"`
	Recommendations []string       `json:"recommendations"`
}

// LowScoreDimensions returns the names of every dimension whose score
// is strictly below threshold, in a fixed order — the input
// SyntaxRefine needs for its low_score_dimensions field.
func (e SyntaxEvaluation) LowScoreDimensions(threshold float64) []string {
	var out []string
	for _, d := range []struct {
		name  string
		score float64
	}{
		{"modality", e.Modality.Score},
		{"connectives", e.Connectives.Score},
		{"conditional", e.Conditional.Score},
		{"passive", e.Passive.Score},
	} {
		if d.score < threshold {
			out = append(out, d.name)
		}
	}
	return out
}

// SyntaxEvaluateConfig configures a SyntaxEvaluator.
type SyntaxEvaluateConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c SyntaxEvaluateConfig) validate() error {
	return validateClient(c.Client)
}

// SyntaxEvaluator implements spec.md §4.4's SyntaxEvaluate agent.
type SyntaxEvaluator struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewSyntaxEvaluator builds a SyntaxEvaluator from cfg.
func NewSyntaxEvaluator(cfg SyntaxEvaluateConfig) (*SyntaxEvaluator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: syntax evaluate config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &SyntaxEvaluator{client: cfg.Client, model: cfg.Model, log: log.Named("agents.syntax_evaluate")}, nil
}

// Evaluate scores currentTranslation against patterns. Degrades to a
// zero-value SyntaxEvaluation (all scores 0, meaning "fails every
// dimension") on any failure, so a downstream gate that checks
// "overall >= threshold" correctly chooses to refine rather than skip.
func (a *SyntaxEvaluator) Evaluate(ctx context.Context, sourceText, currentTranslation string, patterns []SyntaxPattern, langs Langs) SyntaxEvaluation {
	listing, err := json.Marshal(patterns)
	if err != nil {
		a.log.Warn("patterns marshal failed", zap.Error(err))
		return SyntaxEvaluation{}
	}
	user, err := render(syntaxEvaluatePrompt, map[string]any{
		"source_text":         sourceText,
		"current_translation": currentTranslation,
		"patterns":            string(listing),
		"langs":               langs,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return SyntaxEvaluation{}
	}

	var resp SyntaxEvaluation
	if !runJSON(ctx, a.client, a.log, a.model, "You score legal-translation syntax fidelity as strict JSON.", user, &resp) {
		return SyntaxEvaluation{}
	}
	return resp
}
