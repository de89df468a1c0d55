package extraction

import (
	"regexp"
	"strings"
)

// validateNormalization decides whether n is an acceptable
// normalization of the original term t in lang, per spec.md §4.7 Stage
// 3 and §8 property 6: either n == t, or the language-specific
// validator accepts the pair.
func validateNormalization(original, normalized, lang string) bool {
	if normalized == original {
		return true
	}
	if normalized == "" {
		return false
	}
	switch lang {
	case "zh":
		return acceptsByOverlap(original, normalized, 0.6) || acceptsStructuralMarker(original, normalized, articleZH)
	case "ja":
		return acceptsByOverlap(original, normalized, 0.5) || acceptsStructuralMarker(original, normalized, articleJA)
	case "en":
		return acceptsEnglish(original, normalized)
	default:
		return acceptsByOverlap(original, normalized, 0.5)
	}
}

// acceptsByOverlap implements the character-overlap rule spec.md §8
// property 6 names for zh/ja: the shared-character ratio against the
// longer of the two strings must clear threshold.
func acceptsByOverlap(a, b string, threshold float64) bool {
	runesA := []rune(a)
	runesB := []rune(b)
	if len(runesA) == 0 || len(runesB) == 0 {
		return false
	}
	countA := make(map[rune]int, len(runesA))
	for _, r := range runesA {
		countA[r]++
	}
	shared := 0
	for _, r := range runesB {
		if countA[r] > 0 {
			countA[r]--
			shared++
		}
	}
	longer := len(runesA)
	if len(runesB) > longer {
		longer = len(runesB)
	}
	return float64(shared)/float64(longer) >= threshold
}

var (
	articleZH = regexp.MustCompile(`第[0-9０-９]+条`)
	articleJA = regexp.MustCompile(`第[0-9０-９]+条`)
	articleEN = regexp.MustCompile(`(?i)(article|section)\s+\d+`)
	digitsRE  = regexp.MustCompile(`[0-9０-９]+`)
)

// acceptsStructuralMarker accepts a normalization that is the original
// with its numeric component replaced by "XX" (spec.md's
// "第36条" → "第XX条" example): strip digits from both sides and
// compare the marker-pattern skeleton.
func acceptsStructuralMarker(original, normalized string, pattern *regexp.Regexp) bool {
	if !pattern.MatchString(original) {
		return false
	}
	skeleton := digitsRE.ReplaceAllString(original, "XX")
	return skeleton == normalized
}

// acceptsEnglish implements the English-specific rules: a
// singular/plural composite ("term/terms"), a verb reduced to base
// form (accepted by overlap since inflection only trims a suffix), or
// the Article/Section → XX structural rewrite.
func acceptsEnglish(original, normalized string) bool {
	if acceptsStructuralMarker(original, normalized, articleEN) {
		return true
	}
	if isSingularPluralComposite(normalized, original) {
		return true
	}
	lowerOrig := strings.ToLower(original)
	lowerNorm := strings.ToLower(normalized)
	if strings.HasPrefix(lowerOrig, lowerNorm) || strings.HasPrefix(lowerNorm, lowerOrig) {
		return true
	}
	return acceptsByOverlap(original, normalized, 0.8)
}

// isSingularPluralComposite reports whether composite is a
// "singular/plural" form whose singular or plural half equals member.
func isSingularPluralComposite(composite, member string) bool {
	parts := strings.SplitN(composite, "/", 2)
	if len(parts) != 2 {
		return false
	}
	m := strings.ToLower(member)
	return strings.ToLower(parts[0]) == m || strings.ToLower(parts[1]) == m
}

// splitComposite returns the (singular, plural) halves of a
// "singular/plural" composite target term, and false if term is not a
// composite.
func splitComposite(term string) (singular, plural string, ok bool) {
	parts := strings.SplitN(term, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
