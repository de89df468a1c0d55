// Package llmtest provides a deterministic, network-free stand-in for
// llm.Client, used throughout internal/agents, internal/workflow,
// internal/experiment and internal/extraction tests so that pipeline
// behavior can be exercised without a live provider connection.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/llm"
)

// Step is one scripted outcome for a single Chat call.
type Step struct {
	// Content, when Err is nil, is returned verbatim as the response
	// content — callers passing JSONMode=true should set this to a
	// JSON-encoded payload matching the agent's expected schema.
	Content string
	// FinishReason defaults to "stop" when empty.
	FinishReason string
	// Err, when non-nil, is returned instead of a response. Use
	// errs.TransientLLMError-wrapped errors to exercise retry.go's
	// backoff loop; the stub does not retry internally, so scripting
	// N transient errors followed by a success step reproduces
	// "provider returns 429 twice, then a valid payload" end to end
	// when the stub is wrapped the same way OpenAIClient is.
	Err error
}

// Client is a scripted llm.Client. Each call to Chat consumes the next
// Step in Script; once Script is exhausted, Chat returns the last Step
// repeatedly (or, if Script is empty, ErrNoScript).
type Client struct {
	mu     sync.Mutex
	Script []Step
	calls  int

	// TranslateFunc, if set, overrides Translate entirely. Otherwise
	// Translate echoes the source text with a "[lang->lang]" marker,
	// which is enough for tests that only assert a translation occurred
	// and that downstream layers received non-empty text.
	TranslateFunc func(ctx context.Context, sourceText, sourceLang, targetLang string) (string, error)
}

// ErrNoScript is returned when Chat is called with an empty Script.
var ErrNoScript = fmt.Errorf("llmtest: no scripted steps")

// New builds a Client that replays steps in order.
func New(steps ...Step) *Client {
	return &Client{Script: steps}
}

// WithJSON is a convenience constructor for a single-step client that
// always returns the given JSON payload.
func WithJSON(payload string) *Client {
	return New(Step{Content: payload, FinishReason: "stop"})
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Script) == 0 {
		return nil, ErrNoScript
	}

	idx := c.calls
	if idx >= len(c.Script) {
		idx = len(c.Script) - 1
	}
	c.calls++
	step := c.Script[idx]

	if step.Err != nil {
		return nil, step.Err
	}

	reason := step.FinishReason
	if reason == "" {
		reason = "stop"
	}
	return &llm.ChatResponse{
		Content:      step.Content,
		FinishReason: reason,
		Usage:        llm.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}, nil
}

// Translate implements llm.Client.
func (c *Client) Translate(ctx context.Context, sourceText, sourceLang, targetLang string) (string, error) {
	if c.TranslateFunc != nil {
		return c.TranslateFunc(ctx, sourceText, sourceLang, targetLang)
	}
	return fmt.Sprintf("[%s->%s] %s", sourceLang, targetLang, sourceText), nil
}

// Calls reports how many times Chat has been invoked.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// TransientError builds an error suitable for a Step.Err that the
// retry.go backoff loop (and any agent-level retry logic) recognizes as
// retryable.
func TransientError(msg string) error {
	return fmt.Errorf("%w: %s", errs.TransientLLMError, msg)
}
