// Package translator implements the Hierarchical Translator (spec.md
// §4.5.4): the R1→R2→R3 sequencing that drives internal/workflow's three
// rounds according to max_rounds, plus the per-run trace every round
// writes into.
package translator

import (
	"encoding/json"
	"sync"

	"github.com/legalmt/hct/internal/agents"
)

// Trace is the strictly hierarchical, write-once-per-round record a
// translator run produces: a flat map keyed by round name
// ("baseline", "r1", "r2", "r3"), never mutated or removed from once a
// round has written its entry. internal/experiment's serializer runs a
// separate handle-stripping pass before this is persisted to
// disk; Trace itself never holds an object capable of forming a cycle.
type Trace struct {
	mu      sync.Mutex
	entries map[string]any
}

// NewTrace returns an empty Trace.
func NewTrace() *Trace {
	return &Trace{entries: make(map[string]any)}
}

// Set records value under round. Calling Set twice for the same round
// is a programmer error — each round in a single translator run writes
// its trace entry exactly once — and the second write is dropped with
// the first preserved, rather than silently overwriting history.
func (t *Trace) Set(round string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[round]; exists {
		return
	}
	t.entries[round] = value
}

// Get returns the entry for round, if any.
func (t *Trace) Get(round string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[round]
	return v, ok
}

// Snapshot returns a shallow copy of every round entry recorded so far,
// safe for a caller (e.g. internal/experiment's serializer) to hold and
// mutate independently of this Trace.
func (t *Trace) Snapshot() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]any, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the trace as a plain JSON object.
func (t *Trace) MarshalJSON() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.Marshal(t.entries)
}

// BaselineTrace is trace.baseline's payload, written only in
// non-hierarchical mode.
type BaselineTrace struct {
	Output string `json:"output"`
}

// R1Trace is trace.r1's payload.
type R1Trace struct {
	SourceText string             `json:"source_text"`
	Output     string             `json:"output"`
	TermTable  []agents.TermEntry `json:"term_table"`
	Confidence float64            `json:"confidence"`
}

// R2Trace is trace.r2's payload.
type R2Trace struct {
	Output     string  `json:"output"`
	Confidence float64 `json:"confidence"`
	Gated      bool    `json:"gated"`
}

// R3Trace is trace.r3's payload.
type R3Trace struct {
	Output     string  `json:"output"`
	Confidence float64 `json:"confidence"`
	Gated      bool    `json:"gated"`
	// Candidates and SelectedIndex are only set when discourse candidate
	// selection ran; Candidates[0] is always the R2 text.
	Candidates    []string `json:"candidates,omitempty"`
	SelectedIndex int      `json:"selected_index,omitempty"`
}
