package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/internal/logging"
)

// BaselineResult is the Baseline agent's output: a single unconstrained
// rendering, no term table, no syntax or discourse passes.
type BaselineResult struct {
	TranslatedText string
	// Degraded is true when the LLM call failed and TranslatedText was
	// left empty; callers surface this as the run's non-hierarchical
	// failure mode rather than crashing.
	Degraded bool
}

// BaselineConfig configures a Baseline agent.
type BaselineConfig struct {
	Client llm.Client
	Logger *zap.Logger
}

func (c BaselineConfig) validate() error {
	return validateClient(c.Client)
}

// Baseline implements spec.md §4.5.1's non-hierarchical path: a
// separate agent with zero glossary and zero constraints, calling
// llm.Client.Translate directly rather than building a JSON-mode
// prompt — there is no structured shape to validate, so the "degrade,
// don't crash" rule here is simply "empty string, Degraded=true".
type Baseline struct {
	client llm.Client
	log    *zap.Logger
}

// NewBaseline builds a Baseline agent from cfg.
func NewBaseline(cfg BaselineConfig) (*Baseline, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("agents: baseline config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Baseline{client: cfg.Client, log: log.Named("agents.baseline")}, nil
}

// Translate runs the unconstrained baseline translation.
func (a *Baseline) Translate(ctx context.Context, sourceText, sourceLang, targetLang string) BaselineResult {
	text, err := a.client.Translate(ctx, sourceText, sourceLang, targetLang)
	if err != nil {
		a.log.Warn("baseline translate failed, degrading", zap.Bool("transient", errs.IsRetryable(err)), zap.Error(err))
		return BaselineResult{Degraded: true}
	}
	return BaselineResult{TranslatedText: text}
}
