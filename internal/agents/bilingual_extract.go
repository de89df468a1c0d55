package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/pkg/slices"
)

const bilingualExtractSinglePrompt = `You are a bilingual legal terminology alignment assistant. Align candidate terms of art between the source and target sentences below.

Source ({{.src_lang}}): {{.source_text}}
Target ({{.tgt_lang}}): {{.target_text}}

Respond with a JSON object: {"terms": [{"source_term": string, "target_term": string, "score": number between 0 and 1, "category": string}]}. Return an empty list if no aligned terms are found.`

const bilingualExtractBatchPrompt = `You are a bilingual legal terminology alignment assistant. Below is a numbered list of source/target sentence pairs. For each pair, align candidate terms of art between source and target.

{{.pairs}}

Respond with a JSON object: {"pairs": [{"terms": [{"source_term": string, "target_term": string, "score": number between 0 and 1, "category": string}]}]}. The "pairs" array must have exactly one entry per input pair, in the same order, even when a pair yields no terms (use an empty "terms" list).`

// BilingualTerm is one aligned source/target term candidate.
type BilingualTerm struct {
	SourceTerm string  `json:"source_term"`
	TargetTerm string  `json:"target_term"`
	Score      float64 `json:"score"`
	Category   string  `json:"category"`
}

// TextPair is one source/target sentence pair submitted to batch
// extraction.
type TextPair struct {
	SourceText string
	TargetText string
	SourceLang string
	TargetLang string
}

type bilingualSingleResponse struct {
	Terms []BilingualTerm `json:"terms"`
}

type bilingualBatchResponse struct {
	Pairs []bilingualSingleResponse `json:"pairs"`
}

// BilingualExtractConfig configures a BilingualExtractor.
type BilingualExtractConfig struct {
	Client llm.Client
	Model  string
	Logger *zap.Logger
}

func (c BilingualExtractConfig) validate() error {
	return validateClient(c.Client)
}

// BilingualExtractor implements spec.md §4.4's BilingualExtract agent in
// both its single-pair and batch modes.
type BilingualExtractor struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

// NewBilingualExtractor builds a BilingualExtractor from cfg.
func NewBilingualExtractor(cfg BilingualExtractConfig) (*BilingualExtractor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: bilingual extract config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &BilingualExtractor{client: cfg.Client, model: cfg.Model, log: log.Named("agents.bilingual_extract")}, nil
}

// ExtractPair runs single-pair mode. Degrades to an empty, non-nil
// slice on any failure.
func (a *BilingualExtractor) ExtractPair(ctx context.Context, pair TextPair) []BilingualTerm {
	user, err := render(bilingualExtractSinglePrompt, map[string]any{
		"source_text": pair.SourceText,
		"target_text": pair.TargetText,
		"src_lang":    pair.SourceLang,
		"tgt_lang":    pair.TargetLang,
	})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return []BilingualTerm{}
	}

	var resp bilingualSingleResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You align bilingual legal terminology as strict JSON.", user, &resp) {
		return []BilingualTerm{}
	}
	if resp.Terms == nil {
		resp.Terms = []BilingualTerm{}
	}
	return resp.Terms
}

// ExtractBatch runs batch mode: pairs are chunked into groups of
// batchSize, one chat call per chunk, and the result is the per-pair
// term list in input order. Any chunk whose call fails or whose
// response doesn't line up with the chunk size degrades to empty term
// lists for every pair in that chunk — it never shrinks the output
// below len(pairs).
func (a *BilingualExtractor) ExtractBatch(ctx context.Context, pairs []TextPair, batchSize int) [][]BilingualTerm {
	if len(pairs) == 0 {
		return [][]BilingualTerm{}
	}
	if batchSize <= 0 {
		batchSize = len(pairs)
	}

	out := make([][]BilingualTerm, 0, len(pairs))
	for _, chunk := range slices.Chunk(pairs, batchSize) {
		out = append(out, a.extractChunk(ctx, chunk)...)
	}
	return out
}

func (a *BilingualExtractor) extractChunk(ctx context.Context, chunk []TextPair) [][]BilingualTerm {
	empty := make([][]BilingualTerm, len(chunk))
	for i := range empty {
		empty[i] = []BilingualTerm{}
	}

	listing, err := json.Marshal(chunk)
	if err != nil {
		a.log.Warn("batch prompt marshal failed", zap.Error(err))
		return empty
	}
	user, err := render(bilingualExtractBatchPrompt, map[string]any{"pairs": string(listing)})
	if err != nil {
		a.log.Warn("prompt render failed", zap.Error(err))
		return empty
	}

	var resp bilingualBatchResponse
	if !runJSON(ctx, a.client, a.log, a.model, "You align bilingual legal terminology as strict JSON.", user, &resp) {
		return empty
	}
	if len(resp.Pairs) != len(chunk) {
		a.log.Warn("batch response pair count mismatch, degrading chunk",
			zap.Int("want", len(chunk)), zap.Int("got", len(resp.Pairs)))
		return empty
	}

	result := make([][]BilingualTerm, len(chunk))
	for i, p := range resp.Pairs {
		if p.Terms == nil {
			p.Terms = []BilingualTerm{}
		}
		result[i] = p.Terms
	}
	return result
}
