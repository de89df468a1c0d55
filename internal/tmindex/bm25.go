package tmindex

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// bm25K1 and bm25B are the standard Okapi BM25 tuning constants.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// tokenize splits text per spec.md §4.3: CJK text is split into
// individual characters, everything else is whitespace-split and
// lowercased.
func tokenize(text string) []string {
	if isCJK(text) {
		tokens := make([]string, 0, len(text))
		for _, r := range text {
			if unicode.IsSpace(r) {
				continue
			}
			tokens = append(tokens, string(r))
		}
		return tokens
	}
	return strings.Fields(strings.ToLower(text))
}

// isCJK reports whether text contains any CJK-range rune, the same
// heuristic the original preprocessing pipeline uses to decide between
// character and whitespace tokenization for a mixed-script corpus.
func isCJK(text string) bool {
	for _, r := range text {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF, // CJK Unified Ideographs
			r >= 0x3040 && r <= 0x30FF, // Hiragana + Katakana
			r >= 0xAC00 && r <= 0xD7A3: // Hangul syllables
			return true
		}
	}
	return false
}

// bm25Doc is one corpus entry indexed by BM25Index.
type bm25Doc struct {
	entryID  string
	tokens   []string
	termFreq map[string]int
}

// BM25Index is a local Okapi BM25 ranker over the TM's source texts,
// rebuilt wholesale after each batch import (spec.md §4.3) rather than
// incrementally maintained — the corpus is small enough (bilingual
// legal glossaries, not web-scale) that a full rebuild per batch is
// simpler than incremental postings maintenance.
type BM25Index struct {
	mu         sync.RWMutex
	docs       []bm25Doc
	docFreq    map[string]int
	avgDocLen  float64
	entriesRef map[string]Entry
}

// NewBM25Index returns an empty index.
func NewBM25Index() *BM25Index {
	return &BM25Index{
		docFreq:    map[string]int{},
		entriesRef: map[string]Entry{},
	}
}

// Rebuild replaces the entire corpus with entries, per spec.md §4.3's
// "BM25 is rebuilt once at the end" batch-import behavior.
func (idx *BM25Index) Rebuild(entries []Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs = make([]bm25Doc, 0, len(entries))
	idx.docFreq = map[string]int{}
	idx.entriesRef = make(map[string]Entry, len(entries))

	var totalLen int
	for _, e := range entries {
		tokens := tokenize(e.SourceText)
		tf := map[string]int{}
		seen := map[string]bool{}
		for _, tok := range tokens {
			tf[tok]++
			if !seen[tok] {
				idx.docFreq[tok]++
				seen[tok] = true
			}
		}
		idx.docs = append(idx.docs, bm25Doc{entryID: e.ID, tokens: tokens, termFreq: tf})
		idx.entriesRef[e.ID] = e
		totalLen += len(tokens)
	}
	if len(idx.docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(idx.docs))
	} else {
		idx.avgDocLen = 0
	}
}

// Result is one scored hit from a BM25 or vector search.
type Result struct {
	Entry Entry
	Score float64
}

// Search scores query against the corpus with Okapi BM25, filters by
// langs, and returns the top K hits with scores normalized to [0,1] by
// dividing by 100 (spec.md §4.3's stated normalization — BM25 raw
// scores for short legal-term queries rarely exceed 100 in practice).
func (idx *BM25Index) Search(query string, sourceLang, targetLang string, topK int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docs) == 0 {
		return nil
	}
	queryTokens := tokenize(query)
	n := float64(len(idx.docs))

	scores := make([]Result, 0, len(idx.docs))
	for _, doc := range idx.docs {
		entry := idx.entriesRef[doc.entryID]
		if sourceLang != "" && entry.SourceLang != sourceLang {
			continue
		}
		if targetLang != "" && entry.TargetLang != targetLang {
			continue
		}

		var score float64
		docLen := float64(len(doc.tokens))
		for _, term := range queryTokens {
			freq, ok := doc.termFreq[term]
			if !ok {
				continue
			}
			df := float64(idx.docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			tf := float64(freq)
			denom := tf + bm25K1*(1-bm25B+bm25B*docLen/idx.avgDocLen)
			score += idf * (tf * (bm25K1 + 1) / denom)
		}
		if score <= 0 {
			continue
		}
		scores = append(scores, Result{Entry: entry, Score: score / 100})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if topK > 0 && len(scores) > topK {
		scores = scores[:topK]
	}
	return scores
}

// Len reports how many documents are currently indexed.
func (idx *BM25Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Entries returns a snapshot of every entry currently indexed, used by
// Snapshot to persist the corpus to disk.
func (idx *BM25Index) Entries() []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entries := make([]Entry, 0, len(idx.entriesRef))
	for _, e := range idx.entriesRef {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
