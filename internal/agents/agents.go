// Package agents implements the Layer Agents (spec.md §4.4): narrow LLM
// wrappers that each build a prompt, invoke the LLM in JSON mode, and
// return a typed result. Every agent follows the teacher's evaluator
// pattern (ai/evaluation/relevancy.go's RelevancyEvaluatorConfig /
// RelevancyEvaluator): a Config struct holding the llm.Client, model
// name and logger, an unexported validate(), a constructor, and one or
// two methods that render the agent's constant prompt template and call
// the LLM.
//
// Per spec.md §4.4, a JSON-mode response that fails to parse is never
// an error an agent propagates — every method degrades to a typed
// zero-value result instead, so a single malformed model response never
// aborts a workflow.
package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/llm"
	"github.com/legalmt/hct/pkg/text"
)

// render fills tmpl with vars using pkg/text.Renderer, the same
// templating helper the teacher's chat.PromptTemplate wraps internally.
func render(tmpl string, vars map[string]any) (string, error) {
	return text.NewRenderer().WithTemplate(tmpl).WithVariables(vars).Render()
}

// runJSON sends a JSON-mode chat request built from system and user
// prompts, decodes the response into out, and reports whether the call
// succeeded. On any failure (transient LLM error exhausted, schema
// mismatch) it logs at warn level and returns false; callers are
// expected to leave out at its degraded zero value in that case.
func runJSON(ctx context.Context, client llm.Client, log *zap.Logger, model, system, user string, out any) bool {
	resp, err := client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{llm.System(system), llm.User(user)},
		Model:    model,
		JSONMode: true,
	})
	if err != nil {
		log.Warn("agent call failed, degrading", zap.Error(err))
		return false
	}
	if err := llm.DecodeJSON(resp, out); err != nil {
		log.Warn("agent response failed schema validation, degrading", zap.Error(err))
		return false
	}
	return true
}

// validateClient is the one piece of Validate() logic every agent's
// Config shares: the llm.Client must be non-nil.
func validateClient(client llm.Client) error {
	if client == nil {
		return fmt.Errorf("agents: client must not be nil")
	}
	return nil
}

// TermEntry is one (source_term, target_term) binding, the shape
// shared by every agent that passes a term_table around: Translate and
// SyntaxRefine both protect these pairs verbatim in their output.
type TermEntry struct {
	SourceTerm string `json:"source_term"`
	TargetTerm string `json:"target_term"`
}

// Langs is the source/target language pair every agent's prompt needs.
type Langs struct {
	Source string `json:"source_lang"`
	Target string `json:"target_lang"`
}
