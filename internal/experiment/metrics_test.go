package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalmt/hct/internal/agents"
)

func TestTermbaseHitRate(t *testing.T) {
	terms := []agents.TermEntry{{SourceTerm: "应当", TargetTerm: "shall"}, {SourceTerm: "合同", TargetTerm: "contract"}}

	assert.Equal(t, 1.0, termbaseHitRate(terms, "The contract parties shall comply."))
	assert.Equal(t, 0.5, termbaseHitRate(terms, "The contract parties must comply."))
	assert.Equal(t, 0.0, termbaseHitRate(nil, "anything"))
}

func TestMarkerPreservation(t *testing.T) {
	// "应当" overlaps the shorter marker "应", so the source side counts
	// two marker hits against the prediction's one ("shall") here.
	assert.Equal(t, 0.5, markerPreservation(deonticMarkers, "双方应当遵守", "The parties shall comply.", "zh"))
	assert.Equal(t, 1.0, markerPreservation(deonticMarkers, "无情态动词", "No modal here.", "zh"))
	assert.Equal(t, 0.0, markerPreservation(deonticMarkers, "双方应当遵守", "The parties comply.", "zh"))
	assert.Equal(t, 0.0, markerPreservation(deonticMarkers, "x", "y", "fr"))
}

func TestLexicalOverlapScore(t *testing.T) {
	score := lexicalOverlapScore("the parties shall comply", "the parties shall comply")
	assert.Equal(t, 1.0, score)

	assert.Equal(t, 0.0, lexicalOverlapScore("anything", ""))

	partial := lexicalOverlapScore("the parties shall comply", "the parties must comply fully")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestLegacyMetrics(t *testing.T) {
	terms := []agents.TermEntry{{SourceTerm: "应当", TargetTerm: "shall"}}
	metrics := legacyMetrics("双方应当遵守本协议", "The parties shall comply with this agreement.", "The parties shall comply with this agreement.", "zh", terms)

	assert.Contains(t, metrics, "termbase_hit_rate")
	assert.Contains(t, metrics, "deontic_preservation")
	assert.Contains(t, metrics, "conditional_preservation")
	assert.Contains(t, metrics, "lexical_overlap_placeholder")
	assert.Equal(t, 1.0, metrics["lexical_overlap_placeholder"])
}
