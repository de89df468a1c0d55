package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const monoExtractPrompt = `You are a legal terminology extraction assistant. Given the legal text below, extract candidate terms of art: specialized legal or domain terminology, not ordinary vocabulary.

Text:
{{.text}}

Respond with a JSON object: {"terms": [{"term": string, "score": number between 0 and 1, "category": string}]}. score reflects how confident you are that the span is a genuine term of art. Return an empty list if none are found.`

// MonoTerm is one extracted monolingual term candidate.
type MonoTerm struct {
	Term     string  `json:"term"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

type monoExtractResponse struct {
	Terms []MonoTerm `json:"terms"`
}

// MonoExtractConfig configures a MonoExtractor.
type MonoExtractConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c MonoExtractConfig) validate() error {
	return validateClient(c.Client)
}

// MonoExtractor implements spec.md §4.4's MonoExtract agent: single-text
// term-of-art extraction with no external state.
type MonoExtractor struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewMonoExtractor builds a MonoExtractor from cfg.
func NewMonoExtractor(cfg MonoExtractConfig) (*MonoExtractor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: mono extract config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &MonoExtractor{client: cfg.Client, model: cfg.Model, log: log.Named("agents.mono_extract")}, nil
}

// Extract runs MonoExtract over text. On any LLM or schema failure it
// returns an empty, non-nil slice rather than an error.
func (a *MonoExtractor) Extract(ctx context.Context, text string) []MonoTerm {
	user, err := render(monoExtractPrompt, map[string]any{"text": text})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return []MonoTerm{}
	}

	var resp monoExtractResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You extract legal terminology as strict JSON.", user, &resp) {
		return []MonoTerm{}
	}
	if resp.Terms == nil {
		resp.Terms = []MonoTerm{}
	}
	return resp.Terms
}
