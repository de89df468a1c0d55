// Command termextract drives the Bilingual Term Extraction Pipeline
// (BTEP, spec.md §4.7) over a parallel legal corpus, importing its
// output into the termbase.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/agents"
	"github.com/legalmt/hct/internal/config"
	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/extraction"
	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
	"github.com/legalmt/hct/internal/termbase"
)

var (
	verbose bool
	logger  *zap.Logger

	cfg extraction.Config

	checkpointPath   string
	stageDir         string
	noResume         bool
	cleanCheckpoint  bool
	sourceLang       string
	targetLang       string
	confidenceWeight float64
	qualityWeight    float64
)

var rootCmd = &cobra.Command{
	Use:   "termextract input_file",
	Short: "Run the bilingual term extraction pipeline over a parallel corpus",
	Long: `termextract reads a JSON corpus of source/target law-pair entries and
runs the four-stage BTEP cascade (Extract, Quality-Check, Normalize,
Standardize) over it, importing the resulting terms into the termbase.
Progress is checkpointed between stages so an interrupted run resumes
without redoing completed work.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{Debug: verbose || logging.IsDebugEnv()})
		if err != nil {
			return fmt.Errorf("termextract: build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTermExtract,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	flags := rootCmd.Flags()
	flags.IntVar(&cfg.BatchSize, "batch-size", 50, "corpus batch size")
	flags.IntVar(&cfg.MaxConcurrent, "max-concurrent", 5, "max concurrent LLM calls per stage")
	flags.IntVar(&cfg.ExtractionBatchSize, "extraction-batch-size", 10, "law pairs per Stage 1 micro-batch")
	flags.IntVar(&cfg.QualityCheckBatchSize, "quality-check-batch-size", 20, "terms per Stage 2 chunk")
	flags.IntVar(&cfg.NormalizationBatchSize, "normalization-batch-size", 20, "terms per Stage 3 chunk")
	flags.IntVar(&cfg.MaxTargetsPerSource, "max-targets-per-source", 5, "cap on distinct targets kept per normalized source")
	flags.Float64Var(&confidenceWeight, "confidence-weight", 0.4, "Stage 4 combined_score confidence weight")
	flags.Float64Var(&qualityWeight, "quality-weight", 0.6, "Stage 4 combined_score quality weight")
	flags.StringVar(&checkpointPath, "checkpoint", "btep_checkpoint.json", "checkpoint file path")
	flags.StringVar(&stageDir, "stage-dir", "btep_stages", "per-stage snapshot directory")
	flags.BoolVar(&noResume, "no-resume", false, "ignore any existing checkpoint and start fresh")
	flags.BoolVar(&cleanCheckpoint, "clean-checkpoint", false, "delete the checkpoint and stage directory before running")
	flags.IntVar(&cfg.StartFromStage, "start-from-stage", 1, "restart from stage N (1-4), clearing checkpoint data for stages >= N")
	flags.IntVar(&cfg.MaxEntries, "max-entries", 0, "cap the corpus to the first N entries (0 = no cap)")
	flags.StringVar(&sourceLang, "source-lang", "zh", "corpus source language")
	flags.StringVar(&targetLang, "target-lang", "en", "corpus target language")
}

// corpusEntry is the on-disk shape of one input_file record.
type corpusEntry struct {
	EntryID    string `json:"entry_id"`
	SourceText string `json:"source_text"`
	TargetText string `json:"target_text"`
	Domain     string `json:"domain"`
	Law        string `json:"law"`
	Year       int    `json:"year"`
}

func loadCorpus(path, sourceLang, targetLang string) ([]extraction.LawPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: termextract: read input file: %v", errs.ConfigError, err)
	}
	var entries []corpusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: termextract: parse input file: %v", errs.ConfigError, err)
	}
	corpus := make([]extraction.LawPair, len(entries))
	for i, e := range entries {
		corpus[i] = extraction.LawPair{
			EntryID:    e.EntryID,
			SourceText: e.SourceText,
			TargetText: e.TargetText,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Domain:     e.Domain,
			Law:        e.Law,
			Year:       e.Year,
		}
	}
	return corpus, nil
}

func runTermExtract(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	if cfg.StartFromStage < 1 || cfg.StartFromStage > 4 {
		return fmt.Errorf("%w: termextract: --start-from-stage must be in {1,2,3,4}", errs.ConfigError)
	}
	cfg.Weights = termbase.ScoreWeights{Confidence: confidenceWeight, Quality: qualityWeight}
	cfg.SourceLang = sourceLang
	cfg.TargetLang = targetLang

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	if cleanCheckpoint {
		_ = os.Remove(checkpointPath)
		_ = os.RemoveAll(stageDir)
	}

	corpus, err := loadCorpus(inputFile, sourceLang, targetLang)
	if err != nil {
		return err
	}

	checkpoint, err := extraction.LoadCheckpoint(checkpointPath)
	if err != nil {
		return err
	}

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:        appCfg.LLM.APIKey,
		BaseURL:       appCfg.LLM.BaseURL,
		Model:         appCfg.LLM.Model,
		Timeout:       appCfg.LLM.Timeout,
		MaxRetries:    appCfg.LLM.MaxRetries,
		MaxConcurrent: appCfg.LLM.MaxConcurrent,
	}, logger)
	if err != nil {
		return err
	}

	extractor, err := agents.NewBilingualExtractor(agents.BilingualExtractConfig{Client: client, Model: appCfg.LLM.Model, Logger: logger})
	if err != nil {
		return err
	}
	checker, err := agents.NewQualityChecker(agents.QualityCheckConfig{Client: client, Model: appCfg.LLM.Model, Logger: logger})
	if err != nil {
		return err
	}
	normalizer, err := agents.NewNormalizer(agents.NormalizeConfig{Client: client, Model: appCfg.LLM.Model, Logger: logger})
	if err != nil {
		return err
	}

	store, err := termbase.Open(appCfg.Storage.TermbasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := extraction.New(extraction.Deps{
		Extractor:  extractor,
		Checker:    checker,
		Normalizer: normalizer,
		Store:      store,
		Logger:     logger,
	}, cfg)

	if noResume {
		checkpoint = extraction.NewCheckpoint()
	}

	result, runErr := pipeline.Run(ctx, corpus, checkpoint)

	if saveErr := result.Checkpoint.Save(checkpointPath, stageDir); saveErr != nil {
		logger.Error("failed to persist checkpoint", zap.Error(saveErr))
		if runErr == nil {
			runErr = saveErr
		}
	}

	if runErr != nil {
		if ctx.Err() != nil {
			fmt.Fprintf(os.Stderr, "interrupted: partial checkpoint written to %s\n", checkpointPath)
		}
		return runErr
	}

	fmt.Printf("imported %d terms; checkpoint: %s\n", result.ImportedTerms, checkpointPath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
