package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupByKey_KeepsFirstOccurrence(t *testing.T) {
	terms := []ExtractedTerm{
		{SourceTerm: "应当", TargetTerm: "shall", Confidence: 0.9},
		{SourceTerm: "应当", TargetTerm: "shall", Confidence: 0.1},
		{SourceTerm: "合同", TargetTerm: "contract"},
	}

	out := DedupByKey(terms)

	assert.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Confidence)
}

func TestGroupByNormalizedKey_PreservesFirstSeenOrder(t *testing.T) {
	terms := []ExtractedTerm{
		{NormalizedSource: "b", NormalizedTarget: "y"},
		{NormalizedSource: "a", NormalizedTarget: "x"},
		{NormalizedSource: "b", NormalizedTarget: "y"},
	}

	groups, order := groupByNormalizedKey(terms)

	assert.Equal(t, []Key{{SourceTerm: "b", TargetTerm: "y"}, {SourceTerm: "a", TargetTerm: "x"}}, order)
	assert.Len(t, groups[Key{SourceTerm: "b", TargetTerm: "y"}], 2)
}
