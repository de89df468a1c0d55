package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

const normalizePrompt = `You are normalizing a list of {{.side}}-side legal terms in {{.lang}} extracted across many documents, so that singular/plural and minor orthographic variants of the same term collapse to one canonical surface form.

Terms:
{{.terms}}

Respond with a JSON object: {"normalized": [string]}. normalized must have exactly one entry per input term, in the same order — the canonical form of that term (unchanged if already canonical).`

// NormalizeSide identifies which side of a bilingual pair a Normalize
// call is standardizing.
type NormalizeSide string

const (
	NormalizeSource NormalizeSide = "source"
	NormalizeTarget NormalizeSide = "target"
)

type normalizeResponse struct {
	Normalized []string `json:"normalized"`
}

// NormalizeConfig configures a Normalizer.
type NormalizeConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c NormalizeConfig) validate() error {
	return validateClient(c.Client)
}

// Normalizer implements the BTEP-only Normalize agent (SPEC_FULL.md
// §4.4 expansion, grounded on spec.md §4.7 Stage 3): one call per side
// per chunk, folding singular/plural and minor surface variants of the
// same term to a canonical form before the cross-document merge in
// Stage 4.
type Normalizer struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewNormalizer builds a Normalizer from cfg.
func NewNormalizer(cfg NormalizeConfig) (*Normalizer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: normalize config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Normalizer{client: cfg.Client, model: cfg.Model, log: log.Named("agents.normalize")}, nil
}

// Normalize returns the canonical form of each entry in terms. On any
// failure, or a response whose length doesn't match the input, it
// degrades to returning terms unchanged — Stage 4's merge still works
// correctly on un-normalized terms, just with less folding.
func (a *Normalizer) Normalize(ctx context.Context, terms []string, lang string, side NormalizeSide) []string {
	if len(terms) == 0 {
		return []string{}
	}

	listing, err := json.Marshal(terms)
	if err != nil {
		a.log.Warn("terms marshal failed", zap.Error(err))
		return terms
	}
	user, err := render(normalizePrompt, map[string]any{
		"terms": string(listing),
		"lang":  lang,
		"side":  side,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return terms
	}

	var resp normalizeResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You normalize legal terminology surface forms as strict JSON.", user, &resp) {
		return terms
	}
	if len(resp.Normalized) != len(terms) {
		a.log.Warn("normalize result count mismatch, degrading to unchanged terms",
			zap.Int("want", len(terms)), zap.Int("got", len(resp.Normalized)))
		return terms
	}
	return resp.Normalized
}
