package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const qualityCheckPrompt = `You are validating candidate bilingual legal term pairs extracted from a batch of documents, judged against the context they were extracted from.

Source context: {{.source_context}}
Target context: {{.target_context}}

Term pairs to judge:
{{.term_pairs}}

For each pair, judge whether it is a genuine, correctly-aligned bilingual term (not noise, not a partial phrase, not a mistranslation) and give a quality score in [0,1]. Respond with a JSON object: {"results": [{"is_valid": bool, "quality_score": number, "reason": string}]}. results must have exactly one entry per input pair, in the same order.`

// QualityCheckResult is one QualityCheck agent result row.
type QualityCheckResult struct {
	IsValid      bool    `json:"is_valid"`
	QualityScore float64 `json:"quality_score"`
	Reason       string  `json:"reason"`
}

type qualityCheckResponse struct {
	Results []QualityCheckResult `json:"results"`
}

// QualityCheckConfig configures a QualityChecker.
type QualityCheckConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c QualityCheckConfig) validate() error {
	return validateClient(c.Client)
}

// QualityChecker implements the BTEP-only QualityCheck agent
// (SPEC_FULL.md §4.4 expansion, grounded on spec.md §4.7 Stage 2's
// quality check): batch-mode judging of extracted term pairs against
// the context they were found in.
type QualityChecker struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewQualityChecker builds a QualityChecker from cfg.
func NewQualityChecker(cfg QualityCheckConfig) (*QualityChecker, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: quality check config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &QualityChecker{client: cfg.Client, model: cfg.Model, log: log.Named("agents.quality_check")}, nil
}

// Check judges termPairs against sourceContext/targetContext. On any
// failure, or a response whose result count doesn't match the input,
// every pair degrades to is_valid=false, quality_score=0 — BTEP treats
// an unjudgeable pair as failing validation rather than passing it
// through.
func (a *QualityChecker) Check(ctx context.Context, termPairs []TermEntry, sourceContext, targetContext string) []QualityCheckResult {
	degraded := make([]QualityCheckResult, len(termPairs))

	listing, err := json.Marshal(termPairs)
	if err != nil {
		a.log.Warn("term pairs marshal failed", zap.Error(err))
		return degraded
	}
	user, err := render(qualityCheckPrompt, map[string]any{
		"term_pairs":     string(listing),
		"source_context": sourceContext,
		"target_context": targetContext,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return degraded
	}

	var resp qualityCheckResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You judge bilingual legal term pair quality as strict JSON.", user, &resp) {
		return degraded
	}
	if len(resp.Results) != len(termPairs) {
		a.log.Warn("quality check result count mismatch, degrading",
			zap.Int("want", len(termPairs)), zap.Int("got", len(resp.Results)))
		return degraded
	}
	return resp.Results
}
