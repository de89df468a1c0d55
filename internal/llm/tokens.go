package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoder is lazily initialized on first use since loading the
// cl100k_base BPE ranks does a small amount of embedded-data parsing
// that every OpenAIClient would otherwise repeat.
var (
	tokenEncoderOnce sync.Once
	tokenEncoder     *tiktoken.Tiktoken
	tokenEncoderErr  error
)

// EstimateTokens returns a rough prompt-token count for text using the
// cl100k_base encoding, for pre-call diagnostics ("about to send an
// 8k-token prompt") rather than exact provider-side accounting — the
// provider's own Usage in ChatResponse remains authoritative. Returns 0
// if the encoder could not be loaded.
func EstimateTokens(text string) int {
	tokenEncoderOnce.Do(func() {
		tokenEncoder, tokenEncoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	if tokenEncoderErr != nil || tokenEncoder == nil {
		return 0
	}
	return len(tokenEncoder.Encode(text, nil, nil))
}

func estimateRequestTokens(req ChatRequest) int {
	total := 0
	for _, m := range req.Messages {
		total += EstimateTokens(m.Content)
	}
	return total
}
