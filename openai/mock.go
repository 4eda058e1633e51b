package openai

import (
	"context"
	"slices"
	"sync"

	"github.com/randalmurphal/chatkit/provider"
)

// MockClient is a test double for Client.
// It supports fixed responses, sequential responses, custom handlers and a
// canned model list.
type MockClient struct {
	mu           sync.Mutex
	responses    []string
	responseIdx  int
	err          error
	models       []provider.ModelInfo
	modelsErr    error
	completeFunc func(ctx context.Context, req provider.Request) (*provider.Response, error)

	// Calls tracks all completion requests for assertions.
	Calls []provider.Request

	// ModelCalls counts ListModels invocations.
	ModelCalls int
}

var (
	_ provider.Client      = (*MockClient)(nil)
	_ provider.ModelLister = (*MockClient)(nil)
	_ provider.Client      = (*Client)(nil)
	_ provider.ModelLister = (*Client)(nil)
)

// NewMockClient creates a mock that returns a fixed response.
func NewMockClient(response string) *MockClient {
	return &MockClient{responses: []string{response}}
}

// WithResponses configures sequential responses.
// Cycles back to the beginning after exhausting all responses.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.responses = responses
	return m
}

// WithError configures the mock to always fail completions with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.err = err
	return m
}

// WithModels configures the list returned by ListModels.
func (m *MockClient) WithModels(ids ...string) *MockClient {
	m.models = make([]provider.ModelInfo, len(ids))
	for i, id := range ids {
		m.models[i] = provider.ModelInfo{ID: id, Object: "model"}
	}
	return m
}

// WithModelsError makes ListModels fail with err.
func (m *MockClient) WithModelsError(err error) *MockClient {
	m.modelsErr = err
	return m
}

// WithCompleteFunc sets a custom handler for Complete calls.
// This takes precedence over fixed responses.
func (m *MockClient) WithCompleteFunc(fn func(ctx context.Context, req provider.Request) (*provider.Response, error)) *MockClient {
	m.completeFunc = fn
	return m
}

// Complete implements provider.Client.
func (m *MockClient) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if m.completeFunc != nil {
		return m.completeFunc(ctx, req)
	}
	if m.err != nil {
		return nil, m.err
	}

	response := ""
	if len(m.responses) > 0 {
		response = m.responses[m.responseIdx%len(m.responses)]
		m.responseIdx++
	}

	return &provider.Response{
		Content:      response,
		Model:        req.Model,
		Usage:        provider.TokenUsage{InputTokens: 10, OutputTokens: len(response) / 4, TotalTokens: 10 + len(response)/4},
		FinishReason: "stop",
	}, nil
}

// Stream implements provider.Client by replaying Complete as one chunk.
func (m *MockClient) Stream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	resp, err := m.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan provider.StreamChunk, 2)
	ch <- provider.StreamChunk{Content: resp.Content}
	ch <- provider.StreamChunk{Done: true, FinishReason: resp.FinishReason, Usage: &resp.Usage}
	close(ch)
	return ch, nil
}

// ListModels implements provider.ModelLister.
func (m *MockClient) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ModelCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.modelsErr != nil {
		return nil, m.modelsErr
	}
	return slices.Clone(m.models), nil
}

// Provider implements provider.Client.
func (m *MockClient) Provider() string { return "mock" }

// Capabilities implements provider.Client.
func (m *MockClient) Capabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: true, ModelListing: true}
}

// Close implements provider.Client.
func (m *MockClient) Close() error { return nil }
