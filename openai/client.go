package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/chatkit/model"
	"github.com/randalmurphal/chatkit/provider"
)

const providerName = "openai"

// maxErrorBody caps how much of a failed response is kept.
const maxErrorBody = 1 << 20

// Client implements provider.Client and provider.ModelLister against an
// OpenAI-compatible HTTP API.
type Client struct {
	cfg     Config
	http    *http.Client
	models  *modelCache
	metrics *Metrics
}

// NewClient creates a client with DefaultConfig modified by opts.
func NewClient(opts ...Option) *Client {
	c := &Client{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	c.init()
	return c
}

// NewClientWithConfig creates a client from a Config.
// Unset fields take their defaults; opts are applied afterwards.
func NewClientWithConfig(cfg Config, opts ...Option) *Client {
	c := &Client{cfg: cfg.WithDefaults()}
	for _, opt := range opts {
		opt(c)
	}
	c.init()
	return c
}

func (c *Client) init() {
	c.cfg.BaseURL = strings.TrimRight(c.cfg.BaseURL, "/")
	c.http = c.cfg.HTTPClient
	if c.http == nil {
		c.http = &http.Client{Timeout: c.cfg.Timeout}
	}
	c.models = newModelCache()
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Complete implements provider.Client.
// It posts the conversation to /chat/completions and returns the first choice.
func (c *Client) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	body, err := c.buildRequest(req, false)
	if err != nil {
		return nil, provider.NewError(providerName, "complete", err, false)
	}

	start := time.Now()
	cc, err := c.CreateChatCompletion(ctx, body)
	if err != nil {
		return nil, wrapError("complete", err)
	}
	if len(cc.Choices) == 0 {
		return nil, provider.NewError(providerName, "complete", errors.New("no choices in response"), false)
	}

	choice := cc.Choices[0]
	resp := &provider.Response{
		ID:           cc.ID,
		Content:      choice.Message.Content,
		Model:        cc.Model,
		FinishReason: choice.FinishReason,
		Duration:     time.Since(start),
	}
	if resp.Model == "" {
		resp.Model = body.Model
	}
	if cc.Usage != nil {
		resp.Usage = provider.TokenUsage{
			InputTokens:  cc.Usage.PromptTokens,
			OutputTokens: cc.Usage.CompletionTokens,
			TotalTokens:  cc.Usage.TotalTokens,
		}
		resp.CostUSD = model.CostFor(resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	if cc.SystemFingerprint != "" {
		resp.Metadata = map[string]any{"system_fingerprint": cc.SystemFingerprint}
	}
	return resp, nil
}

// CreateChatCompletion posts body to /chat/completions and returns the
// decoded completion as the API sent it. Non-2xx responses yield *APIError.
func (c *Client) CreateChatCompletion(ctx context.Context, body ChatCompletionRequest) (*ChatCompletion, error) {
	body.Stream = false
	body.StreamOptions = nil

	resp, err := c.do(ctx, "complete", http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cc ChatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &cc, nil
}

// Provider implements provider.Client.
func (c *Client) Provider() string {
	return providerName
}

// Capabilities implements provider.Client.
func (c *Client) Capabilities() provider.Capabilities {
	return provider.OpenAICapabilities
}

// Close implements provider.Client.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// buildRequest converts a provider.Request to the wire body.
func (c *Client) buildRequest(req provider.Request, stream bool) (ChatCompletionRequest, error) {
	if err := c.cfg.Validate(); err != nil {
		return ChatCompletionRequest{}, fmt.Errorf("invalid config: %w", err)
	}

	body := ChatCompletionRequest{
		Model:          req.Model,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: req.ResponseFormat,
		Stream:         stream,
	}
	if body.Model == "" {
		body.Model = c.cfg.Model
	}
	if body.Model == "" {
		return body, fmt.Errorf("%w: model is required", provider.ErrInvalidRequest)
	}
	if body.Temperature == nil {
		body.Temperature = provider.Float(c.cfg.Temperature)
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.cfg.MaxTokens
	}
	if stream {
		body.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	if user, ok := req.Options["user"].(string); ok {
		body.User = user
	}

	body.Messages = make([]ChatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, ChatMessage{Role: string(provider.RoleSystem), Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}
	if len(body.Messages) == 0 {
		return body, fmt.Errorf("%w: at least one message is required", provider.ErrInvalidRequest)
	}
	return body, nil
}

// do sends one request and returns the response when the status is 2xx.
// The caller owns the returned body. Failures come back as *APIError or a
// wrapped transport error.
func (c *Client) do(ctx context.Context, op, method, path string, in any) (*http.Response, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", c.cfg.Organization)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op, "error", time.Since(start))
		return nil, fmt.Errorf("http do: %w", err)
	}
	c.metrics.observe(op, strconv.Itoa(resp.StatusCode), time.Since(start))

	slog.Debug("openai request",
		slog.String("op", op),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := parseAPIError(resp.StatusCode, raw)
		slog.Warn("openai request failed",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message))
		return nil, apiErr
	}
	return resp, nil
}

// wrapError wraps err as a *provider.Error with a retryable hint.
func wrapError(op string, err error) error {
	var provErr *provider.Error
	if errors.As(err, &provErr) {
		return err
	}
	return provider.NewError(providerName, op, err, isRetryable(err))
}

func isRetryable(err error) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Retryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
