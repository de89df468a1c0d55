package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const syntaxBiExtractPrompt = `You are analyzing the syntactic structure of a legal translation for modal, connective, conditional and passive-voice mappings between source and target.

Source ({{.langs.source_lang}}): {{.source_text}}
Target ({{.langs.target_lang}}): {{.target_text}}

Identify every modality/connective/conditional/passive mapping you find. Respond with a JSON object: {"patterns": [{"source_pattern": string, "target_pattern": string, "modality_type": string, "confidence": number between 0 and 1, "context": string}]}. modality_type must be one of "modal", "connective", "conditional", "passive". Return an empty list if none are found.`

// SyntaxPattern is one BiExtract (syntax) result row.
type SyntaxPattern struct {
	SourcePattern string  `json:"source_pattern"`
	TargetPattern string  `json:"target_pattern"`
	ModalityType  string  `json:"modality_type"`
	Confidence    float64 `json:"confidence"`
	Context       string  `json:"context"`
}

type syntaxBiExtractResponse struct {
	Patterns []SyntaxPattern `json:"patterns"`
}

// SyntaxBiExtractConfig configures a SyntaxBiExtractor.
type SyntaxBiExtractConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c SyntaxBiExtractConfig) validate() error {
	return validateClient(c.Client)
}

// SyntaxBiExtractor implements spec.md §4.4's BiExtract (syntax) agent.
type SyntaxBiExtractor struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewSyntaxBiExtractor builds a SyntaxBiExtractor from cfg.
func NewSyntaxBiExtractor(cfg SyntaxBiExtractConfig) (*SyntaxBiExtractor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: syntax biextract config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &SyntaxBiExtractor{client: cfg.Client, model: cfg.Model, log: log.Named("agents.syntax_biextract")}, nil
}

// Extract finds modality/connective/conditional/passive pattern
// mappings between sourceText and targetText. Degrades to an empty,
// non-nil slice on any failure.
func (a *SyntaxBiExtractor) Extract(ctx context.Context, sourceText, targetText string, langs Langs) []SyntaxPattern {
	user, err := render(syntaxBiExtractPrompt, map[string]any{
		"source_text": sourceText,
		"target_text": targetText,
		"langs":       langs,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return []SyntaxPattern{}
	}

	var resp syntaxBiExtractResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You analyze legal-translation syntax as strict JSON.", user, &resp) {
		return []SyntaxPattern{}
	}
	if resp.Patterns == nil {
		resp.Patterns = []SyntaxPattern{}
	}
	return resp.Patterns
}
