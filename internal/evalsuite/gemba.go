package evalsuite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/pkg/text"
)

// GembaMode selects GEMBA's judgment protocol: a single 0-100 direct
// quality score, or a structured error count converted to a 0-1 score
// (spec.md §4.8's "DA or MQM").
type GembaMode string

const (
	GembaDA  GembaMode = "da"
	GembaMQM GembaMode = "mqm"
)

const gembaDAPrompt = `Score the quality of this translation from {{.source}} to the target language on a scale from 0 to 100, where 100 is perfect.

Source: {{.source_text}}
Translation: {{.prediction}}
Reference: {{.reference}}

Respond with a JSON object: {"score": number between 0 and 100}.`

const gembaMQMPrompt = `Evaluate this translation using the Multidimensional Quality Metrics (MQM) framework. Count translation errors by severity.

Source: {{.source_text}}
Translation: {{.prediction}}
Reference: {{.reference}}

Respond with a JSON object: {"minor_errors": integer, "major_errors": integer, "critical_errors": integer}. A critical error counts as 10 minor-error-equivalents, a major error as 5.`

type gembaDAResponse struct {
	Score float64 `json:"score"`
}

type gembaMQMResponse struct {
	MinorErrors    int `json:"minor_errors"`
	MajorErrors    int `json:"major_errors"`
	CriticalErrors int `json:"critical_errors"`
}

// GEMBAConfig configures a GEMBA metric.
type GEMBAConfig struct {
	Client llm.Client
	Model  string
	Mode   GembaMode
	Logger *zap.Logger
}

func (c GEMBAConfig) validate() error {
	if c.Client == nil {
		return fmt.Errorf("evalsuite: gemba: client must not be nil")
	}
	return nil
}

// GEMBA implements the GEMBA metric (spec.md §4.8) as a thin
// prompt-and-parse LLM judge through the same internal/llm.Client the
// translation agents use — grounded on Tangerg-lynx/ai/evaluation's
// RelevancyEvaluator/FactCheckingEvaluator pattern (a Config+validate
// constructor, a template, a single chat call, a typed parse). GEMBA is
// the one metric genuinely re-implemented rather than wrapped, because
// in the original it already is an LLM-prompting metric, not a neural
// scorer out of scope for this module.
type GEMBA struct {
	client llm.Client
	model  string
	mode   GembaMode
	log    *zap.Logger
}

// NewGEMBA builds a GEMBA metric from cfg. Mode defaults to GembaDA.
func NewGEMBA(cfg GEMBAConfig) (*GEMBA, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	mode := cfg.Mode
	if mode == "" {
		mode = GembaDA
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &GEMBA{client: cfg.Client, model: cfg.Model, mode: mode, log: log.Named("evalsuite.gemba")}, nil
}

func (g *GEMBA) Name() string {
	if g.mode == GembaMQM {
		return "gemba_mqm"
	}
	return "gemba_da"
}

// Score judges each triple independently — GEMBA is an LLM-judge
// metric, not a batchable model inference call, so one chat call is
// made per triple. A triple whose judgment fails or fails to parse
// degrades to a zero score.
func (g *GEMBA) Score(ctx context.Context, triples []Triple) []float64 {
	out := make([]float64, len(triples))
	for i, t := range triples {
		out[i] = g.scoreOne(ctx, t)
	}
	return out
}

func (g *GEMBA) scoreOne(ctx context.Context, t Triple) float64 {
	if g.mode == GembaMQM {
		return g.scoreMQM(ctx, t)
	}
	return g.scoreDA(ctx, t)
}

func (g *GEMBA) scoreDA(ctx context.Context, t Triple) float64 {
	var resp gembaDAResponse
	if !g.runJSON(ctx, gembaDAPrompt, t, &resp) {
		return 0
	}
	score := resp.Score / 100
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (g *GEMBA) scoreMQM(ctx context.Context, t Triple) float64 {
	var resp gembaMQMResponse
	if !g.runJSON(ctx, gembaMQMPrompt, t, &resp) {
		return 0
	}
	penalty := float64(resp.MinorErrors) + 5*float64(resp.MajorErrors) + 10*float64(resp.CriticalErrors)
	score := 1 - penalty/25
	if score < 0 {
		return 0
	}
	return score
}

func (g *GEMBA) runJSON(ctx context.Context, promptTmpl string, t Triple, out any) bool {
	user, err := text.NewRenderer().WithTemplate(promptTmpl).WithVariables(map[string]any{
		"source":      "the source language",
		"source_text": t.Source,
		"prediction":  t.Prediction,
		"reference":   t.Reference,
	}).Render()
	if err != nil {
		g.log.Warn("prompt render failed", zap.Error(err))
		return false
	}

	resp, err := g.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			llm.System("You judge machine translation quality as strict JSON."),
			llm.User(user),
		},
		Model:    g.model,
		JSONMode: true,
	})
	if err != nil {
		g.log.Warn("gemba call failed, degrading", zap.Error(err))
		return false
	}
	if err := llm.DecodeJSON(resp, out); err != nil {
		g.log.Warn("gemba response failed schema validation, degrading", zap.Error(err))
		return false
	}
	return true
}
