// Package errs defines the error kinds shared across the translation
// pipeline and the term-extraction pipeline. Components wrap the
// underlying cause with fmt.Errorf and one of these sentinels so callers
// can classify failures with errors.Is/errors.As without string matching.
package errs

import "errors"

// ConfigError marks a fatal startup misconfiguration: a missing API key,
// an unreadable config file, or an invalid threshold. Always fatal.
var ConfigError = errors.New("config error")

// TransientLLMError marks a retryable provider failure: timeout, HTTP
// 429, or HTTP 5xx. Retried per the client's backoff policy; if retries
// are exhausted the caller degrades instead of propagating.
var TransientLLMError = errors.New("transient llm error")

// SchemaError marks a response that failed JSON-mode validation: the
// model returned non-JSON, or valid JSON missing required fields. Never
// fatal — callers fall back to a degraded typed result.
var SchemaError = errors.New("schema error")

// StorageError marks a SQLite or Milvus failure. Termbase write errors
// are logged and the run continues; a failed Milvus connection disables
// the vector branch of retrieval but BM25 keeps working.
var StorageError = errors.New("storage error")

// FatalLogicError marks a violated invariant, e.g. a checkpoint stage
// that produced zero records where at least one was expected. Propagates
// to the top level; the process writes its checkpoint/output and exits
// non-zero.
var FatalLogicError = errors.New("fatal logic error")

// IsRetryable reports whether err should be retried by the LLM client's
// backoff loop.
func IsRetryable(err error) bool {
	return errors.Is(err, TransientLLMError)
}
