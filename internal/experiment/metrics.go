package experiment

import (
	"strings"

	"github.com/legalmt/hct/internal/agents"
)

// deonticMarkers lists surface forms of deontic modality the legacy
// metrics scan for, per language. These are intentionally coarse —
// real modality fidelity is internal/agents' SyntaxEvaluate's job; this
// is the Experiment Runner's local, zero-LLM-call sanity score.
var deonticMarkers = map[string][]string{
	"en": {"shall", "must", "may", "should", "is required to", "is entitled to"},
	"zh": {"应当", "应", "须", "必须", "可以", "有权"},
	"ja": {"しなければならない", "するものとする", "することができる"},
}

var conditionalMarkers = map[string][]string{
	"en": {"if", "provided that", "in the event that", "unless", "where"},
	"zh": {"如果", "若", "倘若", "如", "除非"},
	"ja": {"場合", "とき", "ならば"},
}

// termbaseHitRate is the fraction of r1's term table entries whose
// target term survives verbatim into prediction. Returns 0 when there
// is no term table to check against (not 1 — an empty glossary proves
// nothing about terminology fidelity).
func termbaseHitRate(termTable []agents.TermEntry, prediction string) float64 {
	if len(termTable) == 0 {
		return 0
	}
	hits := 0
	for _, t := range termTable {
		if t.TargetTerm != "" && strings.Contains(prediction, t.TargetTerm) {
			hits++
		}
	}
	return float64(hits) / float64(len(termTable))
}

// markerPreservation scores how closely the count of markers in
// prediction tracks the count of lang's markers found in source, as
// 1 - relative difference. The prediction is counted against the marker
// lists of every language, since it is in the target language. A source
// with zero markers and a prediction with zero markers scores 1
// (nothing to preserve, nothing lost); a source with markers and a
// prediction with none scores 0.
func markerPreservation(markers map[string][]string, source, prediction, lang string) float64 {
	list, ok := markers[lang]
	if !ok {
		return 0
	}
	sourceCount := countMarkers(source, list)
	predictionCount := 0
	for _, l := range markers {
		predictionCount += countMarkers(prediction, l)
	}
	if sourceCount == 0 && predictionCount == 0 {
		return 1
	}
	if sourceCount == 0 {
		return 0
	}
	diff := sourceCount - predictionCount
	if diff < 0 {
		diff = -diff
	}
	score := 1 - float64(diff)/float64(sourceCount)
	if score < 0 {
		score = 0
	}
	return score
}

func countMarkers(text string, markers []string) int {
	count := 0
	for _, m := range markers {
		count += strings.Count(text, m)
	}
	return count
}

// lexicalOverlapScore is the legacy "simplified lexical-overlap COMET
// placeholder": the Jaccard overlap of prediction's and reference's
// token sets, a whitespace split for latin scripts and a character
// split for the common CJK ranges. Returns 0 when reference is empty
// (no reference to score against).
func lexicalOverlapScore(prediction, reference string) float64 {
	if strings.TrimSpace(reference) == "" {
		return 0
	}
	predTokens := tokenSet(prediction)
	refTokens := tokenSet(reference)
	if len(predTokens) == 0 || len(refTokens) == 0 {
		return 0
	}
	intersection := 0
	for tok := range predTokens {
		if refTokens[tok] {
			intersection++
		}
	}
	union := len(predTokens) + len(refTokens) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, field := range strings.Fields(text) {
		if isLikelyCJK(field) {
			for _, r := range field {
				set[string(r)] = true
			}
			continue
		}
		set[strings.ToLower(field)] = true
	}
	return set
}

func isLikelyCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// legacyMetrics computes the Experiment Runner's local metric set for
// one sample result, per spec.md §4.6: termbase hit rate, deontic
// preservation, conditional preservation, and the lexical-overlap
// "COMET" placeholder.
func legacyMetrics(source, prediction, reference, sourceLang string, termTable []agents.TermEntry) map[string]float64 {
	return map[string]float64{
		"termbase_hit_rate":           termbaseHitRate(termTable, prediction),
		"deontic_preservation":        markerPreservation(deonticMarkers, source, prediction, sourceLang),
		"conditional_preservation":    markerPreservation(conditionalMarkers, source, prediction, sourceLang),
		"lexical_overlap_placeholder": lexicalOverlapScore(prediction, reference),
	}
}
