// Package experiment implements the Experiment Runner (spec.md §4.6):
// an ablation dictionary mapping names to translator configurations, a
// bounded-parallel sample loop grounded on flow/batch.go's runN
// (errgroup.SetLimit over a fixed, known-size batch, order preserved by
// index rather than completion), legacy local metrics, empty-translation
// detection, per-sample panic isolation via pkg/safe.WithRecover, derived
// pseudo-ablations, a trace-cleaning serializer and aggregate statistics.
package experiment

import (
	"github.com/legalmt/hct/internal/control"
)

// AblationConfig is one named entry in the ablation dictionary: the
// translator settings plus the control.Config that governs gating and
// candidate selection for this ablation. Different ablations generally
// need different control settings, so each gets its own *control.Config
// even though they may share the same underlying internal/agents
// instances.
type AblationConfig struct {
	Hierarchical bool
	UseTermbase  bool
	UseTM        bool
	MaxRounds    int
	Domain       string
	Control      *control.Config
}

// Sample is one translation task: a source sentence, its reference (if
// any, for local metrics), and free-form metadata carried through to
// the result for grouped aggregation (spec.md §4.8).
type Sample struct {
	ID         string
	Source     string
	Reference  string
	SourceLang string
	TargetLang string
	Metadata   map[string]any
}

// SampleResult is one ablation's outcome for one sample, matching
// spec.md §6's experiment result file record shape.
type SampleResult struct {
	SampleID     string             `json:"sample_id"`
	Source       string             `json:"source"`
	Target       string             `json:"target,omitempty"`
	Prediction   string             `json:"prediction"`
	Success      bool               `json:"success"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Trace        map[string]any     `json:"trace,omitempty"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
	Intermediate map[string]string  `json:"intermediate,omitempty"`
	// QualityAssessment is populated by cmd/experiment when
	// --enable-quality-assessment is set: the evalsuite scores of
	// Prediction against Reference, keyed by metric name.
	QualityAssessment map[string]float64 `json:"quality_assessment,omitempty"`
	Error             string             `json:"error,omitempty"`
}
