package evalsuite

import "strings"

// tokenize splits s into word tokens: per-rune for CJK text (no
// whitespace-delimited words), whitespace-delimited otherwise. Mirrors
// internal/experiment's legacy-metric tokenizer, since both packages
// score the same kind of bilingual legal text and face the same
// word-boundary problem for zh/ja.
func tokenize(s string) []string {
	if looksLikeCJK(s) {
		out := make([]string, 0, len(s))
		for _, r := range s {
			if r == ' ' || r == '\t' || r == '\n' {
				continue
			}
			out = append(out, string(r))
		}
		return out
	}
	return strings.Fields(s)
}

// looksLikeCJK reports whether s contains any CJK ideograph, hiragana,
// katakana or hangul rune.
func looksLikeCJK(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF, // CJK unified ideographs
			r >= 0x3040 && r <= 0x30FF, // hiragana/katakana
			r >= 0xAC00 && r <= 0xD7A3: // hangul syllables
			return true
		}
	}
	return false
}
