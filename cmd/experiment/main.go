// Command experiment runs the bounded-parallel ablation loop (spec.md
// §4.6) over a fixed sample set, writing a per-ablation result file,
// an aggregate statistics file, and optionally derived intermediate
// layers and local quality-assessment scores.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/config"
	"github.com/legalmt/hct/internal/control"
	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/evalsuite"
	"github.com/legalmt/hct/internal/experiment"
	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/internal/termbase"
	"github.com/legalmt/hct/internal/tmindex"
	"github.com/legalmt/hct/internal/translator"
)

const (
	resultsFile       = "experiment_results.json"
	statsFile         = "experiment_stats.json"
	qualityReportFile = "quality_report.json"

	// qualityReportGroupField is the sample metadata key grouped reports
	// aggregate on. Not a flag: the CLI surface is fixed, so this picks
	// the field withDomain copies from each test-set entry's top-level
	// domain; entries with an empty domain and no metadata "domain" key
	// carry no value for it.
	qualityReportGroupField = "domain"
)

// ablationSpec is one entry of the fixed ablation dictionary spec.md
// §4.6 describes: a name mapped to the hierarchical/termbase/TM/round
// knobs. Selection and gating settings come from the CLI instead,
// shared across every ablation run in one invocation.
type ablationSpec struct {
	hierarchical bool
	useTermbase  bool
	useTM        bool
	maxRounds    int
}

var ablationDictionary = map[string]ablationSpec{
	"baseline":    {hierarchical: false},
	"full":        {hierarchical: true, useTermbase: true, useTM: true, maxRounds: 3},
	"no_termbase": {hierarchical: true, useTermbase: false, useTM: true, maxRounds: 3},
	"no_tm":       {hierarchical: true, useTermbase: true, useTM: false, maxRounds: 3},
	"r1_only":     {hierarchical: true, useTermbase: true, useTM: true, maxRounds: 1},
	"r1_r2":       {hierarchical: true, useTermbase: true, useTM: true, maxRounds: 2},
}

var (
	verbose bool
	logger  *zap.Logger

	samplesCap              int
	ablationNames           string
	maxConcurrent           int
	testSetPath             string
	saveIntermediate        bool
	selectionLayers         string
	numCandidates           int
	gatingLayers            string
	termGateThreshold       float64
	syntaxGateThreshold     float64
	discourseGateThreshold  float64
	tmGateThreshold         float64
	enableQualityAssessment bool
)

var rootCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Run ablations of the hierarchical translator over a sample set",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{Debug: verbose || logging.IsDebugEnv()})
		if err != nil {
			return fmt.Errorf("experiment: build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runExperiment,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	flags := rootCmd.Flags()
	flags.IntVar(&samplesCap, "samples", 0, "cap the test set to the first N samples (0 = all)")
	flags.StringVar(&ablationNames, "ablations", "baseline,full", "comma-separated ablation names to run")
	flags.IntVar(&maxConcurrent, "max-concurrent", 5, "max concurrent samples in flight per ablation")
	flags.StringVar(&testSetPath, "test-set", "", "path to the JSON test-set file")
	flags.BoolVar(&saveIntermediate, "save-intermediate", false, "record per-round intermediate output and derive terminology/terminology_syntax from full")
	flags.StringVar(&selectionLayers, "selection-layers", "", "comma-separated layers with candidate selection enabled (terminology,syntax,discourse)")
	flags.IntVar(&numCandidates, "num-candidates", 3, "candidates generated per round when selection is enabled")
	flags.StringVar(&gatingLayers, "gating-layers", "", "comma-separated layers with gating enabled (terminology,syntax,discourse)")
	flags.Float64Var(&termGateThreshold, "term-gate-threshold", control.DefaultThresholds().Terminology, "terminology gating confidence threshold")
	flags.Float64Var(&syntaxGateThreshold, "syntax-gate-threshold", control.DefaultThresholds().Syntax, "syntax gating score threshold")
	flags.Float64Var(&discourseGateThreshold, "discourse-gate-threshold", control.DefaultThresholds().Discourse, "discourse gating score threshold")
	flags.Float64Var(&tmGateThreshold, "tm-gate-threshold", control.DefaultThresholds().TMSimilarity, "TM reference similarity floor")
	flags.BoolVar(&enableQualityAssessment, "enable-quality-assessment", false, "score every prediction against its reference with local BLEU/chrF++ metrics")
	_ = rootCmd.MarkFlagRequired("test-set")
}

// testSetEntry is the on-disk shape of one --test-set record.
type testSetEntry struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Reference  string         `json:"reference"`
	SourceLang string         `json:"source_lang"`
	TargetLang string         `json:"target_lang"`
	Domain     string         `json:"domain"`
	Metadata   map[string]any `json:"metadata"`
}

func loadSamples(path string, limit int) ([]experiment.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: experiment: read test set: %v", errs.ConfigError, err)
	}
	var entries []testSetEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: experiment: parse test set: %v", errs.ConfigError, err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	samples := make([]experiment.Sample, len(entries))
	for i, e := range entries {
		samples[i] = experiment.Sample{
			ID: e.ID, Source: e.Source, Reference: e.Reference,
			SourceLang: e.SourceLang, TargetLang: e.TargetLang, Metadata: withDomain(e.Metadata, e.Domain),
		}
	}
	return samples, nil
}

// withDomain folds a test-set entry's top-level domain field into its
// metadata map under "domain", so grouped quality-assessment reporting
// can key on it the same way it would key on any other metadata field.
func withDomain(metadata map[string]any, domain string) map[string]any {
	if domain == "" {
		return metadata
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, ok := metadata["domain"]; !ok {
		metadata["domain"] = domain
	}
	return metadata
}

func parseLayers(csv string) []control.Layer {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var out []control.Layer
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, control.Layer(part))
		}
	}
	return out
}

func buildControl() (*control.Config, error) {
	return control.New(parseLayers(selectionLayers), parseLayers(gatingLayers), numCandidates, control.Thresholds{
		Terminology:  termGateThreshold,
		Syntax:       syntaxGateThreshold,
		Discourse:    discourseGateThreshold,
		TMSimilarity: tmGateThreshold,
	})
}

func buildDeps(appCfg *config.Config, store *termbase.Store, tmIndex *tmindex.Index) (experiment.Deps, error) {
	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:        appCfg.LLM.APIKey,
		BaseURL:       appCfg.LLM.BaseURL,
		Model:         appCfg.LLM.Model,
		Timeout:       appCfg.LLM.Timeout,
		MaxRetries:    appCfg.LLM.MaxRetries,
		MaxConcurrent: appCfg.LLM.MaxConcurrent,
	}, logger)
	if err != nil {
		return experiment.Deps{}, err
	}
	model := appCfg.LLM.Model

	monoExtract, err := agents.NewMonoExtractor(agents.MonoExtractConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	search, err := agents.NewSearch(agents.SearchConfig{Store: store, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	termEval, err := agents.NewTerminologyEvaluator(agents.TerminologyEvaluateConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	termTranslate, err := agents.NewTerminologyTranslator(agents.TerminologyTranslateConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	baseline, err := agents.NewBaseline(agents.BaselineConfig{Client: client, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	selector, err := agents.NewCandidateSelector(agents.CandidateSelectorConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	biExtract, err := agents.NewSyntaxBiExtractor(agents.SyntaxBiExtractConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	syntaxEval, err := agents.NewSyntaxEvaluator(agents.SyntaxEvaluateConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	syntaxRefine, err := agents.NewSyntaxRefiner(agents.SyntaxRefineConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	discourseQuery, err := agents.NewDiscourseQuery(agents.DiscourseQueryConfig{Index: tmIndex, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	discourseEval, err := agents.NewDiscourseEvaluator(agents.DiscourseEvaluateConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}
	discourseRefine, err := agents.NewDiscourseRefiner(agents.DiscourseRefineConfig{Client: client, Model: model, Logger: logger})
	if err != nil {
		return experiment.Deps{}, err
	}

	return experiment.Deps{
		MonoExtract: monoExtract, Search: search, TermEval: termEval, TermTranslate: termTranslate,
		Baseline: baseline, Selector: selector,
		BiExtract: biExtract, SyntaxEval: syntaxEval, SyntaxRefine: syntaxRefine,
		DiscourseQuery: discourseQuery, DiscourseEval: discourseEval, DiscourseRefine: discourseRefine,
		Concurrency: maxConcurrent, Logger: logger,
	}, nil
}

// buildTMIndex loads the BM25 snapshot and best-effort dials Milvus:
// an unreachable or unconfigured vector backend degrades to BM25-only,
// per spec.md §7's StorageError policy for tmindex.
func buildTMIndex(ctx context.Context, appCfg *config.Config) (*tmindex.Index, error) {
	bm25, err := tmindex.LoadSnapshot(appCfg.Storage.BM25SnapshotPath)
	if err != nil {
		return nil, err
	}
	vector, err := tmindex.NewVectorStore(ctx, tmindex.VectorConfig{
		Host:           appCfg.Storage.MilvusHost,
		Port:           appCfg.Storage.MilvusPort,
		CollectionName: appCfg.Storage.MilvusCollection,
		Dimension:      appCfg.LLM.EmbeddingDim,
	}, false, logger)
	if err != nil {
		logger.Warn("milvus unavailable, running TM lookups BM25-only", zap.Error(err))
		vector = nil
	}
	return tmindex.New(bm25, vector, appCfg.Storage.BM25SnapshotPath, logger), nil
}

func buildIntermediate(trace map[string]any) map[string]string {
	if len(trace) == 0 {
		return nil
	}
	out := map[string]string{}
	for round, entry := range trace {
		switch v := entry.(type) {
		case translator.BaselineTrace:
			out[round] = v.Output
		case translator.R1Trace:
			out[round] = v.Output
		case translator.R2Trace:
			out[round] = v.Output
		case translator.R3Trace:
			out[round] = v.Output
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func runExperiment(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	names := strings.Split(ablationNames, ",")
	specs := make(map[string]ablationSpec, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		spec, ok := ablationDictionary[n]
		if !ok {
			return fmt.Errorf("%w: experiment: unknown ablation %q", errs.ConfigError, n)
		}
		specs[n] = spec
	}

	samples, err := loadSamples(testSetPath, samplesCap)
	if err != nil {
		return err
	}

	ctrl, err := buildControl()
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ConfigError, err)
	}

	store, err := termbase.Open(appCfg.Storage.TermbasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	tmIndex, err := buildTMIndex(ctx, appCfg)
	if err != nil {
		return err
	}

	deps, err := buildDeps(appCfg, store, tmIndex)
	if err != nil {
		return err
	}
	runner := experiment.New(deps)

	results := make(map[string][]experiment.SampleResult, len(specs))
	statsOut := make(map[string]experiment.AblationStats, len(specs))

	for name, spec := range specs {
		logger.Info("running ablation", zap.String("ablation", name), zap.Int("samples", len(samples)))
		ablationCfg := experiment.AblationConfig{
			Hierarchical: spec.hierarchical, UseTermbase: spec.useTermbase, UseTM: spec.useTM,
			MaxRounds: spec.maxRounds, Control: ctrl,
		}
		sampleResults := runner.Run(ctx, name, ablationCfg, samples)
		statsOut[name] = experiment.ComputeStats(sampleResults)

		if name == "full" && saveIntermediate {
			terminology, terminologySyntax := experiment.DeriveLayerResults(sampleResults)
			results["terminology"] = terminology
			results["terminology_syntax"] = terminologySyntax
			statsOut["terminology"] = experiment.ComputeStats(terminology)
			statsOut["terminology_syntax"] = experiment.ComputeStats(terminologySyntax)
		}

		for i := range sampleResults {
			if saveIntermediate {
				sampleResults[i].Intermediate = buildIntermediate(sampleResults[i].Trace)
			} else {
				sampleResults[i].Trace = nil
			}
			if sampleResults[i].Trace != nil {
				sampleResults[i].Trace = experiment.CleanTrace(sampleResults[i].Trace)
			}
		}
		results[name] = sampleResults

		if ctx.Err() != nil {
			break
		}
	}

	if enableQualityAssessment {
		reports := applyQualityAssessment(ctx, results)
		if writeErr := writeJSONFile(qualityReportFile, reports); writeErr != nil {
			return writeErr
		}
	}

	if writeErr := writeJSONFile(resultsFile, results); writeErr != nil {
		return writeErr
	}
	if writeErr := writeJSONFile(statsFile, statsOut); writeErr != nil {
		return writeErr
	}

	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "interrupted: partial results written to %s\n", resultsFile)
		return ctx.Err()
	}

	fmt.Printf("results: %s\nstats: %s\n", resultsFile, statsFile)
	return nil
}

// applyQualityAssessment scores every prediction/reference pair and, per
// ablation, builds a report grouped by qualityReportGroupField so a
// reader can see whether quality holds up across domains rather than
// only in aggregate.
func applyQualityAssessment(ctx context.Context, results map[string][]experiment.SampleResult) map[string]evalsuite.Report {
	suite := evalsuite.NewSuite(evalsuite.NewBLEU(), evalsuite.NewChrF())
	reports := make(map[string]evalsuite.Report, len(results))
	for name, sampleResults := range results {
		var triples []evalsuite.Triple
		var indices []int
		for i, r := range sampleResults {
			if strings.TrimSpace(r.Target) == "" {
				continue
			}
			triples = append(triples, evalsuite.Triple{
				Source: r.Source, Prediction: r.Prediction, Reference: r.Target,
				Metadata: stringifyMetadata(r.Metadata),
			})
			indices = append(indices, i)
		}
		if len(triples) == 0 {
			continue
		}
		scores := suite.Score(ctx, triples)
		for j, idx := range indices {
			results[name][idx].QualityAssessment = scores[j]
		}
		reports[name] = suite.BuildReport(ctx, triples, qualityReportGroupField)
	}
	return reports
}

// stringifyMetadata coerces a sample's dynamically-typed metadata into
// the plain string map evalsuite.Triple groups reports by.
func stringifyMetadata(metadata map[string]any) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = cast.ToString(v)
	}
	return out
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("experiment: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("experiment: write %s: %w", path, err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
