// Package control holds the process-wide TranslationControlConfig
// (spec.md §3): the single record capturing the two orthogonal runtime
// controls — candidate selection and gating — that every workflow reads
// by name. It replaces the "per-agent ad-hoc config dict" the original
// implementation used (spec.md §9).
package control

import (
	"fmt"

	"github.com/samber/lo"
)

// Layer identifies one of the three cascaded rounds a control setting
// (selection or gating) can be scoped to.
type Layer string

const (
	Terminology Layer = "terminology"
	Syntax      Layer = "syntax"
	Discourse   Layer = "discourse"
)

// Thresholds bundles the four confidence/similarity cutoffs used by the
// gating policies across all three rounds plus TM reference filtering.
type Thresholds struct {
	// Terminology is the minimum post-evaluation confidence a term must
	// have to survive terminology gating.
	Terminology float64
	// Syntax is the overall-evaluation-score cutoff above which a syntax
	// rewrite is skipped when no low-confidence pattern or low-score
	// dimension exists.
	Syntax float64
	// Discourse is the overall-evaluation-score cutoff above which a
	// discourse rewrite is skipped.
	Discourse float64
	// TMSimilarity is the minimum hybrid similarity score a TM reference
	// must clear to be kept for discourse evaluation/refinement.
	TMSimilarity float64
}

// DefaultThresholds mirrors the defaults the original implementation
// ships with: comfortably permissive so an un-configured run still
// exercises gating rather than rewriting everything or nothing.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Terminology:  0.7,
		Syntax:       0.85,
		Discourse:    0.85,
		TMSimilarity: 0.5,
	}
}

// Config is the process-wide, set-once-at-startup TranslationControlConfig.
// It is treated as immutable after Validate succeeds; workflows only ever
// read it.
type Config struct {
	// SelectionEnabledLayers is the subset of {terminology, syntax,
	// discourse} for which candidate generation + CandidateSelector runs.
	SelectionEnabledLayers map[Layer]bool
	// GatingEnabledLayers is the subset of {terminology, syntax,
	// discourse} for which the round may emit its input unchanged.
	GatingEnabledLayers map[Layer]bool
	// NumCandidates is how many renderings a round generates when
	// selection is enabled for it. Must be >= 1.
	NumCandidates int
	// Thresholds holds the four gating/filtering cutoffs.
	Thresholds Thresholds
}

// New builds a Config from explicit layer sets and thresholds. th is
// stored as given: a zero-valued threshold is not replaced by a default.
func New(selection, gating []Layer, numCandidates int, th Thresholds) (*Config, error) {
	c := &Config{
		SelectionEnabledLayers: toSet(selection),
		GatingEnabledLayers:    toSet(gating),
		NumCandidates:          numCandidates,
		Thresholds:             th,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func toSet(layers []Layer) map[Layer]bool {
	return lo.SliceToMap(layers, func(l Layer) (Layer, bool) { return l, true })
}

// Validate enforces the invariants a process-wide control config must
// hold before any workflow is allowed to read it.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("control: nil config")
	}
	if c.NumCandidates < 1 {
		return fmt.Errorf("control: num_candidates must be >= 1, got %d", c.NumCandidates)
	}
	for name, v := range map[string]float64{
		"terminology_threshold":   c.Thresholds.Terminology,
		"syntax_threshold":        c.Thresholds.Syntax,
		"discourse_threshold":     c.Thresholds.Discourse,
		"tm_similarity_threshold": c.Thresholds.TMSimilarity,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("control: %s must be in [0,1], got %f", name, v)
		}
	}
	if c.SelectionEnabledLayers == nil {
		c.SelectionEnabledLayers = map[Layer]bool{}
	}
	if c.GatingEnabledLayers == nil {
		c.GatingEnabledLayers = map[Layer]bool{}
	}
	return nil
}

// SelectionEnabled reports whether candidate selection runs for layer l.
func (c *Config) SelectionEnabled(l Layer) bool {
	return c != nil && c.SelectionEnabledLayers[l]
}

// GatingEnabled reports whether gating runs for layer l.
func (c *Config) GatingEnabled(l Layer) bool {
	return c != nil && c.GatingEnabledLayers[l]
}
