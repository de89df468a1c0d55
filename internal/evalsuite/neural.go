package evalsuite

import (
	"context"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/logging"
)

// bertScoreMetric exposes one of the three BackendScore fields as its
// own Metric, so Suite can treat "bertscore_f1", "bertscore_precision",
// "bertscore_recall" as independent report columns. Each of the three
// metrics sends its own batched request to the shared Backend.
type bertScoreMetric struct {
	backend Backend
	log     *zap.Logger
	field   func(BackendScore) float64
	name    string
}

func (m *bertScoreMetric) Name() string { return m.name }

func (m *bertScoreMetric) Score(ctx context.Context, triples []Triple) []float64 {
	return scoreViaBackend(ctx, m.backend, m.log, triples, m.field)
}

// NewBERTScore returns the three BERTScore Metrics (F1, precision,
// recall) backed by a single Backend. A service that cannot be reached,
// or returns a malformed batch, degrades every triple to a zero score —
// BERTScore/COMET are optional report columns, not a pipeline-fatal
// dependency (spec.md §7's StorageError-style degrade policy).
func NewBERTScore(backend Backend, logger *zap.Logger) []Metric {
	log := namedOrNop(logger, "evalsuite.bertscore")
	return []Metric{
		&bertScoreMetric{backend: backend, log: log, name: "bertscore_f1", field: func(s BackendScore) float64 { return s.Score }},
		&bertScoreMetric{backend: backend, log: log, name: "bertscore_precision", field: func(s BackendScore) float64 { return s.Precision }},
		&bertScoreMetric{backend: backend, log: log, name: "bertscore_recall", field: func(s BackendScore) float64 { return s.Recall }},
	}
}

// COMET wraps a Backend as a single-valued Metric.
type COMET struct {
	Backend Backend
	log     *zap.Logger
}

// NewCOMET builds a COMET metric over backend.
func NewCOMET(backend Backend, logger *zap.Logger) *COMET {
	return &COMET{Backend: backend, log: namedOrNop(logger, "evalsuite.comet")}
}

func (c *COMET) Name() string { return "comet" }

func (c *COMET) Score(ctx context.Context, triples []Triple) []float64 {
	return scoreViaBackend(ctx, c.Backend, c.log, triples, func(s BackendScore) float64 { return s.Score })
}

func scoreViaBackend(ctx context.Context, backend Backend, log *zap.Logger, triples []Triple, field func(BackendScore) float64) []float64 {
	out := make([]float64, len(triples))
	if len(triples) == 0 {
		return out
	}

	pairs := make([]ScorePair, len(triples))
	for i, t := range triples {
		pairs[i] = ScorePair{Prediction: t.Prediction, Reference: t.Reference, Source: t.Source}
	}

	scores, err := backend.ScoreBatch(ctx, pairs)
	if err != nil {
		log.Warn("backend scoring failed, degrading to zero", zap.Error(err))
		return out
	}
	for i, s := range scores {
		out[i] = field(s)
	}
	return out
}

func namedOrNop(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = logging.Nop()
	}
	return logger.Named(name)
}
