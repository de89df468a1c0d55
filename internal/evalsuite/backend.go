package evalsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/legalmt/hct/internal/logging"
)

// Backend is a thin client over an external neural scoring service —
// the same "configurable endpoint, request/response JSON" shape as
// Tangerg-lynx/ai/model/embedding.Client, since BERTScore and COMET both
// require a model spec.md explicitly puts out of scope ("wrapped but
// not re-implemented").
type Backend interface {
	// ScoreBatch sends one request for the whole batch when the backend
	// supports it (spec.md §4.8's "pass arrays into the backend when
	// available"); returns one BackendScore per pair, in order.
	ScoreBatch(ctx context.Context, pairs []ScorePair) ([]BackendScore, error)
}

// ScorePair is one prediction/reference pair sent to a Backend.
type ScorePair struct {
	Prediction string `json:"prediction"`
	Reference  string `json:"reference"`
	Source     string `json:"source,omitempty"`
}

// BackendScore is one scoring service result. COMET backends populate
// only Score; BERTScore backends populate all three.
type BackendScore struct {
	Score     float64 `json:"score"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// HTTPBackendConfig configures an HTTPBackend.
type HTTPBackendConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

func (c HTTPBackendConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("evalsuite: http backend: base url is required")
	}
	return nil
}

// HTTPBackend scores a batch via one POST to BaseURL, with the same
// Config+Validate construction pattern the example corpus uses for any
// wrapper around an external connection (see internal/llm.OpenAIConfig).
type HTTPBackend struct {
	cfg    HTTPBackendConfig
	client *http.Client
	log    *zap.Logger
}

// NewHTTPBackend builds an HTTPBackend from cfg.
func NewHTTPBackend(cfg HTTPBackendConfig) (*HTTPBackend, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &HTTPBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log.Named("evalsuite.http_backend"),
	}, nil
}

type batchScoreRequest struct {
	Pairs []ScorePair `json:"pairs"`
}

type batchScoreResponse struct {
	Scores []BackendScore `json:"scores"`
}

// ScoreBatch implements Backend.
func (b *HTTPBackend) ScoreBatch(ctx context.Context, pairs []ScorePair) ([]BackendScore, error) {
	if len(pairs) == 0 {
		return []BackendScore{}, nil
	}

	body, err := json.Marshal(batchScoreRequest{Pairs: pairs})
	if err != nil {
		return nil, fmt.Errorf("evalsuite: marshal batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("evalsuite: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evalsuite: backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("evalsuite: backend returned status %d", resp.StatusCode)
	}

	var parsed batchScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("evalsuite: decode backend response: %w", err)
	}
	if len(parsed.Scores) != len(pairs) {
		return nil, fmt.Errorf("evalsuite: backend returned %d scores for %d pairs", len(parsed.Scores), len(pairs))
	}
	return parsed.Scores, nil
}
