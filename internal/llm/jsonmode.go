package llm

import (
	"encoding/json"
	"fmt"

	"github.com/legalmt/hct/internal/errs"
)

// DecodeJSON unmarshals a JSON-mode ChatResponse's content into out. It
// wraps errs.SchemaError on any parse failure or structural mismatch
// (missing required fields are the caller's concern once out is
// populated — this only catches "not valid JSON at all" and "JSON but
// not an object where one was required").
//
// Per spec.md §7, SchemaError is never fatal: every agent that calls
// DecodeJSON must treat a non-nil error as "degrade to the zero-value
// typed result", not propagate it up the workflow.
func DecodeJSON(resp *ChatResponse, out any) error {
	if resp == nil {
		return fmt.Errorf("%w: nil response", errs.SchemaError)
	}
	if err := json.Unmarshal([]byte(resp.Content), out); err != nil {
		return fmt.Errorf("%w: %v", errs.SchemaError, err)
	}
	return nil
}
