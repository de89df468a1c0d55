package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/errs"
	"github.com/legalmt/hct/internal/logging"
)

// OpenAIConfig configures an OpenAIClient. Mirrors the Config+Validate
// constructor pattern used throughout the example corpus for anything
// that wraps an external connection.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int
}

// Validate checks that the config has everything required to dial the
// provider and run the retry/concurrency policy spec.md §4.1 describes.
func (c OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: openai: api key is required", errs.ConfigError)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: openai: model is required", errs.ConfigError)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: openai: max retries must be >= 0", errs.ConfigError)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("%w: openai: max concurrent must be >= 1", errs.ConfigError)
	}
	return nil
}

// OpenAIClient is the production Client implementation: a thin wrapper
// around the OpenAI-compatible chat-completions endpoint (spec.md §6),
// bounded by a process-wide buffered-channel semaphore (concurrencyGate)
// and retried with
// exponential backoff on transient failures. It keeps the teacher's
// layering (a thin Api wrapper, a params-builder, a response-parser)
// rather than calling the SDK client directly from every method.
type OpenAIClient struct {
	cfg    OpenAIConfig
	client openai.Client
	gate   *concurrencyGate
	log    *zap.Logger
}

// NewOpenAIClient builds a client against cfg, applying cfg.BaseURL when
// set (used to point at an OpenAI-compatible gateway instead of the
// public API). A nil logger is replaced with logging.Nop().
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		cfg:    cfg,
		client: openai.NewClient(opts...),
		gate:   newConcurrencyGate(cfg.MaxConcurrent),
		log:    logger.Named("llm.openai"),
	}, nil
}

// Chat implements Client.Chat: acquires a concurrency permit, builds the
// request params, and retries the call per the backoff policy in
// retry.go. The permit is held for the full retry sequence of one call,
// matching spec.md §4.1's "a process-wide semaphore of N permits" (the
// semaphore bounds concurrent in-flight calls, not attempts).
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	release, err := c.gate.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	params := c.buildParams(req)
	c.log.Debug("chat request", zap.Int("estimated_prompt_tokens", estimateRequestTokens(req)), zap.String("model", params.Model))

	attempt := 0
	var resp *ChatResponse
	err = withBackoff(ctx, c.cfg.MaxRetries, func() error {
		attempt++
		completion, callErr := c.client.Chat.Completions.New(ctx, params)
		if callErr != nil {
			classified := classifyOpenAIError(callErr)
			if errors.Is(classified, errs.TransientLLMError) {
				c.log.Warn("transient llm error", zap.Int("attempt", attempt), zap.Error(classified))
			}
			return classified
		}
		resp = toChatResponse(completion)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Translate sends a minimal, glossary-free prompt and returns the raw
// translated text, for the Baseline agent (spec.md §4.5.1).
func (c *OpenAIClient) Translate(ctx context.Context, sourceText, sourceLang, targetLang string) (string, error) {
	resp, err := c.Chat(ctx, ChatRequest{
		Messages: []Message{
			System(fmt.Sprintf("You are a professional translator. Translate the user's %s text into %s. Output only the translation, with no commentary.", sourceLang, targetLang)),
			User(sourceText),
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *OpenAIClient) buildParams(req ChatRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       req.Model,
		Temperature: openai.Float(req.Temperature),
	}
	if params.Model == "" {
		params.Model = c.cfg.Model
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	params.Messages = make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	return params
}

func toChatResponse(completion *openai.ChatCompletion) *ChatResponse {
	resp := &ChatResponse{
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	if len(completion.Choices) > 0 {
		resp.Content = completion.Choices[0].Message.Content
		resp.FinishReason = string(completion.Choices[0].FinishReason)
	}
	return resp
}

// classifyOpenAIError maps an SDK error to errs.TransientLLMError when
// it is worth retrying (timeout, 429, 5xx) and passes everything else
// through unwrapped, per spec.md §7.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", errs.TransientLLMError, err)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return fmt.Errorf("%w: %v", errs.TransientLLMError, err)
		}
		return err
	}
	// Unrecognized error shape (e.g. a network error from the transport):
	// treat as transient so the backoff loop gets a chance to recover.
	return fmt.Errorf("%w: %v", errs.TransientLLMError, err)
}

// concurrencyGate bounds the number of in-flight calls to N permits, the
// "process-wide semaphore" spec.md §4.1 names as the client's call gate.
// The Experiment Runner and BTEP use errgroup.Group.SetLimit for the
// same purpose (flow/batch.go's runN) because they bound a fixed batch
// of goroutines they launch themselves; here permits are acquired and
// released one call at a time across the client's whole lifetime, which
// a plain buffered-channel semaphore expresses more directly.
type concurrencyGate struct {
	permits chan struct{}
}

func newConcurrencyGate(n int) *concurrencyGate {
	return &concurrencyGate{permits: make(chan struct{}, n)}
}

// acquire blocks until a permit is free or ctx is done, returning a
// release function to call when the caller is finished.
func (g *concurrencyGate) acquire(ctx context.Context) (func(), error) {
	select {
	case g.permits <- struct{}{}:
		return func() { <-g.permits }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}
