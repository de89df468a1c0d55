package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const candidateSelectorPrompt = `You are selecting the best of several candidate legal translations for the {{.layer_type}} layer.

Source: {{.source_text}}
{{if .context}}Context: {{.context}}
{{end}}
Candidates (0-indexed):
{{.candidates}}

Respond with a JSON object: {"best_index": integer, "confidence": number between 0 and 1, "reasoning": string, "per_candidate_analysis": [string], "all_scores": [number]}. best_index must be a valid index into the candidates list. per_candidate_analysis and all_scores must each have exactly one entry per candidate.`

// CandidateSelection is the CandidateSelector agent's result.
type CandidateSelection struct {
	BestCandidate        string    `json:"-"`
	BestIndex            int       `json:"best_index"`
	Confidence           float64   `json:"confidence"`
	Reasoning            string    `json:"reasoning"`
	PerCandidateAnalysis []string  `json:"per_candidate_analysis"`
	AllScores            []float64 `json:"all_scores"`
}

type candidateSelectorResponse struct {
	BestIndex            int       `json:"best_index"`
	Confidence           float64   `json:"confidence"`
	Reasoning            string    `json:"reasoning"`
	PerCandidateAnalysis []string  `json:"per_candidate_analysis"`
	AllScores            []float64 `json:"all_scores"`
}

// CandidateSelectorConfig configures a CandidateSelector.
type CandidateSelectorConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c CandidateSelectorConfig) validate() error {
	return validateClient(c.Client)
}

// CandidateSelector implements spec.md §4.4's CandidateSelector agent
// and its three explicit fallback rules: a single candidate is returned
// unconditionally with confidence 1.0; an out-of-range index from the
// model falls back to index 0 with confidence 0.5; a failed call falls
// back to index 0 with a reason string explaining the failure.
type CandidateSelector struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewCandidateSelector builds a CandidateSelector from cfg.
func NewCandidateSelector(cfg CandidateSelectorConfig) (*CandidateSelector, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: candidate selector config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &CandidateSelector{client: cfg.Client, model: cfg.Model, log: log.Named("agents.candidate_selector")}, nil
}

// Select picks the best of candidates for sourceText, optionally given
// free-form context and the layer (terminology/syntax/discourse) this
// selection is for.
func (a *CandidateSelector) Select(ctx context.Context, sourceText string, candidates []string, selectionContext, layerType string) CandidateSelection {
	if len(candidates) == 1 {
		return CandidateSelection{BestCandidate: candidates[0], BestIndex: 0, Confidence: 1.0, Reasoning: "only one candidate"}
	}
	if len(candidates) == 0 {
		return CandidateSelection{BestIndex: 0, Confidence: 0.5, Reasoning: "no candidates provided"}
	}

	listing, err := json.Marshal(candidates)
	if err != nil {
		a.log.Warn("candidates marshal failed", zap.Error(err))
		return CandidateSelection{BestCandidate: candidates[0], BestIndex: 0, Reasoning: "candidates marshal failed: " + err.Error()}
	}
	user, err := render(candidateSelectorPrompt, map[string]any{
		"source_text": sourceText,
		"context":     selectionContext,
		"layer_type":  layerType,
		"candidates":  string(listing),
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return CandidateSelection{BestCandidate: candidates[0], BestIndex: 0, Reasoning: "prompt render failed: " + err.Error()}
	}

	var resp candidateSelectorResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You select the best legal translation candidate as strict JSON.", user, &resp) {
		return CandidateSelection{BestCandidate: candidates[0], BestIndex: 0, Reasoning: "candidate selection call failed, defaulting to first candidate"}
	}

	if resp.BestIndex < 0 || resp.BestIndex >= len(candidates) {
		a.log.Warn("candidate selector returned out-of-range index", zap.Int("best_index", resp.BestIndex), zap.Int("num_candidates", len(candidates)))
		return CandidateSelection{
			BestCandidate:        candidates[0],
			BestIndex:            0,
			Confidence:           0.5,
			Reasoning:            resp.Reasoning,
			PerCandidateAnalysis: resp.PerCandidateAnalysis,
			AllScores:            resp.AllScores,
		}
	}

	return CandidateSelection{
		BestCandidate:        candidates[resp.BestIndex],
		BestIndex:            resp.BestIndex,
		Confidence:           resp.Confidence,
		Reasoning:            resp.Reasoning,
		PerCandidateAnalysis: resp.PerCandidateAnalysis,
		AllScores:            resp.AllScores,
	}
}
