package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/quorum-sh/quorum/internal/domain"
	"github.com/quorum-sh/quorum/internal/observability"
	"github.com/quorum-sh/quorum/internal/ports"
)

const (
	DefaultBaseURL = "http://localhost:11434"

	generatePath = "/api/generate"
	tagsPath     = "/api/tags"

	defaultTimeout   = 120 * time.Second
	modelCacheTTL    = 5 * time.Minute
	maxResponseBytes = 8 << 20

	defaultNumPredict    = 1000
	defaultTopK          = 40
	defaultTopP          = 0.9
	defaultRepeatPenalty = 1.1
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Policy     domain.RetryPolicy
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to a local Ollama server. One instance is shared by all
// concurrent agents: the HTTP connection pool and the model-listing cache
// tolerate concurrent use. Close must be called on shutdown.
type Client struct {
	baseURL    string
	policy     domain.RetryPolicy
	httpClient *http.Client
	log        *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	cache modelCache
}

type modelCache struct {
	names     []string
	set       map[string]struct{}
	fetchedAt time.Time
}

var _ ports.InferenceClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = observability.Logger()
	}

	return &Client{
		baseURL:    baseURL,
		policy:     cfg.Policy,
		httpClient: httpClient,
		log:        log.With("component", "ollama"),
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Generate validates the model against the cached server listing, then issues
// the request with the configured retry budget. Permanent failures (unknown
// model, malformed request) short-circuit; transient ones are retried with
// exponential backoff and the last one is surfaced when the budget runs out.
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return domain.GenerateResult{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if err := c.validateModel(ctx, req.Model); err != nil {
		return domain.GenerateResult{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		result, err := c.generateOnce(ctx, req)
		if err == nil {
			return result, nil
		}
		if isPermanent(err) {
			return domain.GenerateResult{}, err
		}

		lastErr = err
		c.log.Warn("generate attempt failed",
			"model", req.Model,
			"attempt", attempt+1,
			"error", err)

		if attempt < c.policy.MaxRetries {
			if sleepErr := c.sleep(ctx, c.policy.Delay(attempt)); sleepErr != nil {
				return domain.GenerateResult{}, sleepErr
			}
		}
	}

	return domain.GenerateResult{}, fmt.Errorf("all %d attempts failed for model %s: %w",
		c.policy.MaxRetries+1, req.Model, lastErr)
}

// Models returns the models the server reports, cached for modelCacheTTL.
// Concurrent callers during a refresh block on the mutex and reuse the
// winner's result; the cache is never left partially written.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache.set != nil && c.now().Sub(c.cache.fetchedAt) < modelCacheTTL {
		return slices.Clone(c.cache.names), nil
	}

	names, err := c.fetchModels(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	c.cache = modelCache{names: names, set: set, fetchedAt: c.now()}

	return slices.Clone(names), nil
}

func (c *Client) Healthy(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tagsPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("inference service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// Close releases pooled connections and drops the model cache.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()

	c.mu.Lock()
	c.cache = modelCache{}
	c.mu.Unlock()

	return nil
}

func (c *Client) validateModel(ctx context.Context, model string) error {
	models, err := c.Models(ctx)
	if err != nil {
		return fmt.Errorf("validate model %q: %w", model, err)
	}

	if !slices.Contains(models, model) {
		return fmt.Errorf("model %q not available (server has %v): %w", model, models, ErrModelNotFound)
	}
	return nil
}

type generateOptions struct {
	Temperature   float64 `json:"temperature"`
	NumPredict    int     `json:"num_predict"`
	TopK          int     `json:"top_k"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Format  string          `json:"format,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response        string `json:"response"`
	Model           string `json:"model"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) generateOnce(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	payload := generateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: generateOptions{
			Temperature:   req.Temperature,
			NumPredict:    defaultNumPredict,
			TopK:          defaultTopK,
			TopP:          defaultTopP,
			RepeatPenalty: defaultRepeatPenalty,
		},
	}
	if req.StructuredJSON {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("%w: encode generate request: %v", ErrBadRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("%w: build generate request: %v", ErrBadRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("generate round trip: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("read generate response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.GenerateResult{}, fmt.Errorf("model %q: %w", req.Model, ErrModelNotFound)
	case http.StatusBadRequest:
		return domain.GenerateResult{}, fmt.Errorf("%w: %s", ErrBadRequest, strings.TrimSpace(string(data)))
	default:
		return domain.GenerateResult{}, fmt.Errorf("inference service returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded generateResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return domain.GenerateResult{}, fmt.Errorf("%w: decode generate response: %v", ErrBadRequest, err)
	}

	if decoded.Error != "" {
		if strings.Contains(strings.ToLower(decoded.Error), "not found") {
			return domain.GenerateResult{}, fmt.Errorf("%s: %w", decoded.Error, ErrModelNotFound)
		}
		return domain.GenerateResult{}, fmt.Errorf("%w: %s", ErrBadRequest, decoded.Error)
	}

	return domain.GenerateResult{
		Text:             decoded.Response,
		Model:            decoded.Model,
		Done:             decoded.Done,
		PromptTokens:     decoded.PromptEvalCount,
		CompletionTokens: decoded.EvalCount,
	}, nil
}

func (c *Client) fetchModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tagsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build tags request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models: HTTP %d", resp.StatusCode)
	}

	var decoded tagsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}

	names := make([]string, 0, len(decoded.Models))
	for _, model := range decoded.Models {
		names = append(names, model.Name)
	}
	return names, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
