package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const terminologyTranslatePromptSingle = `You are a legal translator. Translate the source sentence below into the target language, using exactly the term table provided wherever its source terms occur.

Source ({{.langs.source_lang}} -> {{.langs.target_lang}}): {{.source_text}}

Term table (must be honored verbatim):
{{.term_table}}

Respond with a JSON object: {"translated_text": string, "confidence": number between 0 and 1}.`

const terminologyTranslatePromptCandidates = `You are a legal translator. Translate the source sentence below into the target language {{.num_candidates}} distinct ways, using exactly the term table provided wherever its source terms occur in every rendering.

Source ({{.langs.source_lang}} -> {{.langs.target_lang}}): {{.source_text}}

Term table (must be honored verbatim in every candidate):
{{.term_table}}

Respond with a JSON object: {"candidates": [string], "confidence": number between 0 and 1}. candidates must have exactly {{.num_candidates}} distinct entries.`

// TermTranslation is the Translate (terminology) agent's result.
type TermTranslation struct {
	TranslatedText string      `json:"translated_text"`
	TermTable      []TermEntry `json:"-"`
	Confidence     float64     `json:"confidence"`
	Candidates     []string    `json:"candidates,omitempty"`
}

type terminologyTranslateSingleResponse struct {
	TranslatedText string  `json:"translated_text"`
	Confidence     float64 `json:"confidence"`
}

type terminologyTranslateCandidatesResponse struct {
	Candidates []string `json:"candidates"`
	Confidence float64  `json:"confidence"`
}

// TerminologyTranslateConfig configures a TerminologyTranslator.
type TerminologyTranslateConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c TerminologyTranslateConfig) validate() error {
	return validateClient(c.Client)
}

// TerminologyTranslator implements spec.md §4.4's Translate
// (terminology) agent.
type TerminologyTranslator struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewTerminologyTranslator builds a TerminologyTranslator from cfg.
func NewTerminologyTranslator(cfg TerminologyTranslateConfig) (*TerminologyTranslator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: terminology translate config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &TerminologyTranslator{client: cfg.Client, model: cfg.Model, log: log.Named("agents.terminology_translate")}, nil
}

// Translate renders sourceText honoring termTable. When
// generateCandidates is true, numCandidates distinct renderings are
// requested and returned via Candidates; TranslatedText is then the
// first candidate. Degrades to a zero-value TermTranslation (empty
// TranslatedText, zero Confidence) with TermTable still echoed back on
// any failure, so callers can at least report which terms were in
// play.
func (a *TerminologyTranslator) Translate(ctx context.Context, sourceText string, termTable []TermEntry, langs Langs, generateCandidates bool, numCandidates int) TermTranslation {
	degraded := TermTranslation{TermTable: termTable}

	listing, err := json.Marshal(termTable)
	if err != nil {
		a.log.Warn("term table marshal failed", zap.Error(err))
		return degraded
	}

	if !generateCandidates {
		user, err := render(terminologyTranslatePromptSingle, map[string]any{
			"source_text": sourceText,
			"term_table":  string(listing),
			"langs":       langs,
		})
		if err != nil {
			a.log.Warn("prompt render failed", zap.Error(err))
			return degraded
		}
		var resp terminologyTranslateSingleResponse
		if !runJSON(ctx, a.client, a.log, a.model, "You translate legal text honoring a fixed term table, as strict JSON.", user, &resp) {
			return degraded
		}
		return TermTranslation{TranslatedText: resp.TranslatedText, TermTable: termTable, Confidence: resp.Confidence}
	}

	if numCandidates < 1 {
		numCandidates = 1
	}
	user, err := render(terminologyTranslatePromptCandidates, map[string]any{
		"source_text":    sourceText,
		"term_table":     string(listing),
		"langs":          langs,
		"num_candidates": numCandidates,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return degraded
	}
	var resp terminologyTranslateCandidatesResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You translate legal text honoring a fixed term table, as strict JSON.", user, &resp) {
		return degraded
	}
	if len(resp.Candidates) == 0 {
		return degraded
	}
	return TermTranslation{
		TranslatedText: resp.Candidates[0],
		TermTable:      termTable,
		Confidence:     resp.Confidence,
		Candidates:     resp.Candidates,
	}
}
