// Package llm implements the LLM Client (spec.md §4.1): a bounded-
// concurrency, timeout-and-retry chat client that every layer agent in
// internal/agents calls through. The client is constructed once at
// startup and passed explicitly to every component that needs it — no
// component in this module dials its own provider connection.
package llm

import (
	"context"
)

// Role is a chat message role, mirroring the OpenAI chat-completions
// contract named in spec.md §6.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation sent to the provider.
type Message struct {
	Role    Role
	Content string
}

// System is a convenience constructor for a system-role message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User is a convenience constructor for a user-role message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ChatRequest is the input to Client.Chat.
type ChatRequest struct {
	Messages []Message
	// Model overrides the client's default model when non-empty.
	Model string
	// Temperature controls sampling randomness. Zero is a valid,
	// meaningful value (fully deterministic), so callers that want the
	// provider default must not call Chat with a zero-valued
	// ChatRequest; Temperature is always sent as set.
	Temperature float64
	// JSONMode requests the provider's structured-JSON response format.
	JSONMode bool
	// MaxTokens caps the generated response length. Zero means unset
	// (provider default).
	MaxTokens int
}

// Usage reports token accounting for a single call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the result of a successful Client.Chat call. Per
// spec.md §4.1, a JSON-mode call whose content fails to parse as JSON is
// still a successful ChatResponse — parsing, and handling a parse
// failure, is left to the caller via DecodeJSON (jsonmode.go); the
// client itself never inspects the content's shape.
type ChatResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Client is the narrow interface every layer agent depends on. The real
// implementation (OpenAIClient) wraps the OpenAI-compatible HTTPS
// endpoint named in spec.md §6; tests use the deterministic stub in
// internal/llm/llmtest.
type Client interface {
	// Chat sends req and returns the provider's response. On a retryable
	// failure (timeout, HTTP 429, HTTP 5xx) that survives every retry
	// attempt, Chat returns a non-nil error wrapping errs.TransientLLMError;
	// callers (agents) must treat that as "degrade, don't crash" per
	// spec.md §7. Unrecoverable errors (bad request, auth failure) are
	// returned unwrapped and also never panic.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Translate is a thin convenience wrapper used by the Baseline agent:
	// a single-shot translation with no glossary, no term table, no
	// constraints, matching spec.md §4.5.1's "separate Baseline agent
	// with zero glossary, zero constraints".
	Translate(ctx context.Context, sourceText, sourceLang, targetLang string) (string, error)
}
