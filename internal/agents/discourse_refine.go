package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const discourseRefinePrompt = `You are revising a legal translation for discourse-level consistency with reference translations of similar legal text.

Source ({{.langs.source_lang}}): {{.source}}
Current translation ({{.langs.target_lang}}): {{.current_translation}}

Reference translations:
{{.references}}

Evaluation:
{{.evaluation}}

Respond with a JSON object: {"refined_text": string, "confidence": number between 0 and 1}.`

const discourseRefineCandidatesPrompt = `You are revising a legal translation for discourse-level consistency with reference translations of similar legal text. Produce {{.num_new_candidates}} distinct alternative renderings, different from the current translation and from each other.

Source ({{.langs.source_lang}}): {{.source}}
Current translation ({{.langs.target_lang}}): {{.current_translation}}

Reference translations:
{{.references}}

Evaluation:
{{.evaluation}}

Respond with a JSON object: {"candidates": [string], "confidence": number between 0 and 1}. candidates must have exactly {{.num_new_candidates}} entries.`

// DiscourseRefineResult is the DiscourseRefine agent's output.
type DiscourseRefineResult struct {
	RefinedText string   `json:"refined_text"`
	Confidence  float64  `json:"confidence"`
	Candidates  []string `json:"candidates,omitempty"`
}

type discourseRefineSingleResponse struct {
	RefinedText string  `json:"refined_text"`
	Confidence  float64 `json:"confidence"`
}

type discourseRefineCandidatesResponse struct {
	Candidates []string `json:"candidates"`
	Confidence float64  `json:"confidence"`
}

// DiscourseRefineConfig configures a DiscourseRefiner.
type DiscourseRefineConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c DiscourseRefineConfig) validate() error {
	return validateClient(c.Client)
}

// DiscourseRefiner implements spec.md §4.4's DiscourseRefine agent.
type DiscourseRefiner struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewDiscourseRefiner builds a DiscourseRefiner from cfg.
func NewDiscourseRefiner(cfg DiscourseRefineConfig) (*DiscourseRefiner, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: discourse refine config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &DiscourseRefiner{client: cfg.Client, model: cfg.Model, log: log.Named("agents.discourse_refine")}, nil
}

// Refine rewrites currentTranslation for discourse consistency against
// references. On any failure it degrades to returning currentTranslation
// unchanged with Confidence 0.
func (a *DiscourseRefiner) Refine(ctx context.Context, source, currentTranslation string, references []TMMatch, evaluation DiscourseEvaluation, langs Langs) DiscourseRefineResult {
	fallback := DiscourseRefineResult{RefinedText: currentTranslation}

	refsJSON, evalJSON, err := marshalRefsAndEval(references, evaluation)
	if err != nil {
		a.log.Warn("marshal failed", zap.Error(err))
		return fallback
	}
	user, err := render(discourseRefinePrompt, map[string]any{
		"source":              source,
		"current_translation": currentTranslation,
		"references":          refsJSON,
		"evaluation":          evalJSON,
		"langs":               langs,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return fallback
	}

	var resp discourseRefineSingleResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You revise legal translations for discourse consistency as strict JSON.", user, &resp) {
		return fallback
	}
	if resp.RefinedText == "" {
		return fallback
	}
	return DiscourseRefineResult{RefinedText: resp.RefinedText, Confidence: resp.Confidence}
}

// RefineWithCandidates generates numCandidates distinct renderings, per
// spec.md §4.4's rule that "the current translation itself is always
// inserted as candidate 0" — the model is only ever asked for
// numCandidates-1 new ones. When numCandidates<=1 no model call is made:
// currentTranslation is returned unchanged as RefinedText and as the
// sole candidate.
func (a *DiscourseRefiner) RefineWithCandidates(ctx context.Context, source, currentTranslation string, references []TMMatch, evaluation DiscourseEvaluation, langs Langs, numCandidates int) DiscourseRefineResult {
	if numCandidates < 1 {
		numCandidates = 1
	}
	if numCandidates == 1 {
		return DiscourseRefineResult{RefinedText: currentTranslation, Candidates: []string{currentTranslation}}
	}

	fallback := DiscourseRefineResult{RefinedText: currentTranslation, Candidates: []string{currentTranslation}}

	refsJSON, evalJSON, err := marshalRefsAndEval(references, evaluation)
	if err != nil {
		a.log.Warn("marshal failed", zap.Error(err))
		return fallback
	}
	numNew := numCandidates - 1
	user, err := render(discourseRefineCandidatesPrompt, map[string]any{
		"source":              source,
		"current_translation": currentTranslation,
		"references":          refsJSON,
		"evaluation":          evalJSON,
		"langs":               langs,
		"num_new_candidates":  numNew,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return fallback
	}

	var resp discourseRefineCandidatesResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You revise legal translations for discourse consistency as strict JSON.", user, &resp) {
		return fallback
	}
	if len(resp.Candidates) == 0 {
		return fallback
	}

	candidates := append([]string{currentTranslation}, resp.Candidates...)
	return DiscourseRefineResult{RefinedText: candidates[0], Confidence: resp.Confidence, Candidates: candidates}
}

func marshalRefsAndEval(references []TMMatch, evaluation DiscourseEvaluation) (string, string, error) {
	refsJSON, err := json.Marshal(references)
	if err != nil {
		return "", "", err
	}
	evalJSON, err := json.Marshal(evaluation)
	if err != nil {
		return "", "", err
	}
	return string(refsJSON), string(evalJSON), nil
}
