package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/control"
	"github.com/legalmt/hct/internal/llm/llmtest"
)

func newSyntaxDeps(t *testing.T, cfg *control.Config, biExtractJSON, evaluateJSON, refineJSON, selectJSON string) *Syntax {
	t.Helper()
	biExtract, err := agents.NewSyntaxBiExtractor(agents.SyntaxBiExtractConfig{Client: llmtest.WithJSON(biExtractJSON)})
	require.NoError(t, err)
	evaluate, err := agents.NewSyntaxEvaluator(agents.SyntaxEvaluateConfig{Client: llmtest.WithJSON(evaluateJSON)})
	require.NoError(t, err)
	refine, err := agents.NewSyntaxRefiner(agents.SyntaxRefineConfig{Client: llmtest.WithJSON(refineJSON)})
	require.NoError(t, err)
	selector, err := agents.NewCandidateSelector(agents.CandidateSelectorConfig{Client: llmtest.WithJSON(selectJSON)})
	require.NoError(t, err)

	return NewSyntax(SyntaxDeps{BiExtract: biExtract, Evaluate: evaluate, Refine: refine, Selector: selector, Control: cfg})
}

func TestSyntax_GatingSkipsRewriteWhenAllSignalsClear(t *testing.T) {
	cfg := defaultControl(t, nil, []control.Layer{control.Syntax})
	w := newSyntaxDeps(t, cfg,
		`{"patterns": [{"source_pattern": "应当", "target_pattern": "shall", "modality_type": "modal", "confidence": 0.95, "context": "x"}]}`,
		`{"modality": {"score": 0.95, "issues": []}, "connectives": {"score": 0.95, "issues": []}, "conditional": {"score": 0.95, "issues": []}, "passive": {"score": 0.95, "issues": []}, "overall": 0.9, "recommendations": []}`,
		``, ``,
	)

	out := w.Run(context.Background(), SyntaxInput{
		SourceText: "source", R1Text: "the first round translation",
		Langs: agents.Langs{Source: "zh", Target: "en"},
	})
	assert.True(t, out.Gated)
	assert.Equal(t, "the first round translation", out.TranslatedText)
	assert.Equal(t, 1.0, out.Confidence)
}

func TestSyntax_LowConfidencePatternForcesTargetedRefine(t *testing.T) {
	cfg := defaultControl(t, nil, []control.Layer{control.Syntax})
	w := newSyntaxDeps(t, cfg,
		`{"patterns": [{"source_pattern": "应当", "target_pattern": "shall", "modality_type": "modal", "confidence": 0.4, "context": "x"}]}`,
		`{"modality": {"score": 0.95, "issues": []}, "connectives": {"score": 0.95, "issues": []}, "conditional": {"score": 0.95, "issues": []}, "passive": {"score": 0.95, "issues": []}, "overall": 0.95, "recommendations": []}`,
		`{"refined_text": "the corrected first round translation", "confidence": 0.8, "applied_corrections": ["modal fix"]}`,
		``,
	)

	out := w.Run(context.Background(), SyntaxInput{
		SourceText: "source", R1Text: "the first round translation",
		Langs: agents.Langs{Source: "zh", Target: "en"},
	})
	assert.False(t, out.Gated)
	assert.Equal(t, "the corrected first round translation", out.TranslatedText)
	assert.Equal(t, 0.8, out.Confidence)
}

func TestSyntax_SelectionEnabledIncludesR1TextAsFirstCandidate(t *testing.T) {
	cfg := defaultControl(t, []control.Layer{control.Syntax}, nil)
	w := newSyntaxDeps(t, cfg,
		`{"patterns": []}`,
		`{"modality": {"score": 0.5, "issues": ["weak"]}, "connectives": {"score": 0.95, "issues": []}, "conditional": {"score": 0.95, "issues": []}, "passive": {"score": 0.95, "issues": []}, "overall": 0.7, "recommendations": []}`,
		`{"refined_text": "the corrected first round translation", "confidence": 0.8, "applied_corrections": ["modal fix"]}`,
		`{"best_index": 1, "confidence": 0.85, "reasoning": "better modal", "per_candidate_analysis": ["a","b"], "all_scores": [0.5, 0.85]}`,
	)

	out := w.Run(context.Background(), SyntaxInput{
		SourceText: "source", R1Text: "the first round translation",
		Langs: agents.Langs{Source: "zh", Target: "en"},
	})
	assert.Equal(t, "the corrected first round translation", out.TranslatedText)
	assert.Equal(t, 0.85, out.Confidence)
}
