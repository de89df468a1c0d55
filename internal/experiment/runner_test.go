package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/control"
	"github.com/legalmt/hct/internal/llm/llmtest"
	"github.com/legalmt/hct/internal/termbase"
	"github.com/legalmt/hct/internal/tmindex"
)

type fakeTermStore struct{ rows []termbase.Term }

func (s *fakeTermStore) SearchTerms(ctx context.Context, p termbase.SearchParams) ([]termbase.Term, error) {
	return s.rows, nil
}

type fakeTMSearcher struct{ results []tmindex.Result }

func (s *fakeTMSearcher) HybridSearch(ctx context.Context, query string, queryVector []float32, sourceLang, targetLang string, topK int, weights tmindex.HybridWeights) []tmindex.Result {
	return s.results
}

func buildDeps(t *testing.T) Deps {
	t.Helper()

	monoExtract, err := agents.NewMonoExtractor(agents.MonoExtractConfig{
		Client: llmtest.WithJSON(`{"terms": [{"term": "应当", "score": 0.9, "category": "modal"}]}`),
	})
	require.NoError(t, err)
	search, err := agents.NewSearch(agents.SearchConfig{
		Store: &fakeTermStore{rows: []termbase.Term{{SourceTerm: "应当", TargetTerm: "shall", Confidence: 0.9}}},
	})
	require.NoError(t, err)
	termEval, err := agents.NewTerminologyEvaluator(agents.TerminologyEvaluateConfig{
		Client: llmtest.WithJSON(`{"evaluations": [{"term": "应当", "translation": "shall", "is_valid": true, "confidence": 0.9, "reason": "fits", "suggestions": []}]}`),
	})
	require.NoError(t, err)
	termTranslate, err := agents.NewTerminologyTranslator(agents.TerminologyTranslateConfig{
		Client: llmtest.WithJSON(`{"translated_text": "The parties shall comply with this agreement.", "confidence": 0.9}`),
	})
	require.NoError(t, err)
	baseline, err := agents.NewBaseline(agents.BaselineConfig{Client: llmtest.New()})
	require.NoError(t, err)
	candSelector, err := agents.NewCandidateSelector(agents.CandidateSelectorConfig{Client: llmtest.New()})
	require.NoError(t, err)

	biExtract, err := agents.NewSyntaxBiExtractor(agents.SyntaxBiExtractConfig{
		Client: llmtest.WithJSON(`{"patterns": [{"source_pattern": "应当", "target_pattern": "shall", "modality_type": "modal", "confidence": 0.95, "context": "x"}]}`),
	})
	require.NoError(t, err)
	syntaxEval, err := agents.NewSyntaxEvaluator(agents.SyntaxEvaluateConfig{
		Client: llmtest.WithJSON(`{"modality": {"score": 0.9, "issues": []}, "connectives": {"score": 0.9, "issues": []}, "conditional": {"score": 0.9, "issues": []}, "passive": {"score": 0.9, "issues": []}, "overall": 0.9, "recommendations": []}`),
	})
	require.NoError(t, err)
	syntaxRefine, err := agents.NewSyntaxRefiner(agents.SyntaxRefineConfig{
		Client: llmtest.WithJSON(`{"refined_text": "The parties shall fully comply with this agreement.", "confidence": 0.85, "applied_corrections": []}`),
	})
	require.NoError(t, err)

	dQuery, err := agents.NewDiscourseQuery(agents.DiscourseQueryConfig{
		Index: &fakeTMSearcher{results: []tmindex.Result{{Entry: tmindex.Entry{SourceText: "s", TargetText: "t"}, Score: 0.8}}},
	})
	require.NoError(t, err)
	dEval, err := agents.NewDiscourseEvaluator(agents.DiscourseEvaluateConfig{
		Client: llmtest.WithJSON(`{"coherence": {"score": 0.9, "issues": []}, "consistency": {"score": 0.9, "issues": []}, "overall": 0.9, "terminology_differences": [], "syntax_differences": [], "recommendations": []}`),
	})
	require.NoError(t, err)
	dRefine, err := agents.NewDiscourseRefiner(agents.DiscourseRefineConfig{
		Client: llmtest.WithJSON(`{"candidates": ["Alternate final rendering."], "confidence": 0.8}`),
	})
	require.NoError(t, err)

	return Deps{
		MonoExtract: monoExtract, Search: search, TermEval: termEval, TermTranslate: termTranslate,
		Baseline: baseline, Selector: candSelector,
		BiExtract: biExtract, SyntaxEval: syntaxEval, SyntaxRefine: syntaxRefine,
		DiscourseQuery: dQuery, DiscourseEval: dEval, DiscourseRefine: dRefine,
		Concurrency: 4,
	}
}

func TestRunner_RunPreservesSampleOrderAndRecordsMetrics(t *testing.T) {
	cfg, err := control.New(nil, nil, 1, control.DefaultThresholds())
	require.NoError(t, err)
	runner := New(buildDeps(t))

	samples := []Sample{
		{ID: "s1", Source: "合同双方应当遵守本协议。", Reference: "The parties shall comply.", SourceLang: "zh", TargetLang: "en"},
		{ID: "s2", Source: "如果发生违约，应当承担责任。", Reference: "If breach occurs, liability follows.", SourceLang: "zh", TargetLang: "en"},
		{ID: "s3", Source: "本协议自签署之日起生效。", Reference: "This agreement takes effect upon signing.", SourceLang: "zh", TargetLang: "en"},
	}

	results := runner.Run(context.Background(), "full", AblationConfig{
		Hierarchical: true, UseTermbase: true, UseTM: true, MaxRounds: 3, Control: cfg,
	}, samples)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, samples[i].ID, r.SampleID, "result order must track input order")
		assert.True(t, r.Success)
		assert.NotEmpty(t, r.Prediction)
		assert.Contains(t, r.Metrics, "termbase_hit_rate")
		assert.Contains(t, r.Trace, "r3")
	}
}

func TestRunner_EmptyTranslationMarkedFailed(t *testing.T) {
	cfg, err := control.New(nil, nil, 1, control.DefaultThresholds())
	require.NoError(t, err)
	deps := buildDeps(t)
	emptyClient := &llmtest.Client{TranslateFunc: func(ctx context.Context, sourceText, sourceLang, targetLang string) (string, error) {
		return "   ", nil
	}}
	deps.Baseline, err = agents.NewBaseline(agents.BaselineConfig{Client: emptyClient})
	require.NoError(t, err)
	runner := New(deps)

	results := runner.Run(context.Background(), "baseline", AblationConfig{
		Hierarchical: false, Control: cfg,
	}, []Sample{{ID: "s1", Source: "合同", SourceLang: "zh", TargetLang: "en"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "Empty translation result", results[0].Error)
	assert.Equal(t, "合同", results[0].Prediction)
}
