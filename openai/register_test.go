package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/chatkit/provider"
)

func TestRegistered(t *testing.T) {
	assert.True(t, provider.IsRegistered("openai"))
	assert.Contains(t, provider.Available(), "openai")
}

func TestNewFromRegistry(t *testing.T) {
	cfg := provider.DefaultConfig()
	cfg.BaseURL = "http://localhost:8080/v1"
	cfg.APIKey = "sk-test"
	cfg.Model = "gpt-4o"
	cfg.Temperature = 0.2
	cfg.Timeout = 10 * time.Second

	client, err := provider.New("openai", cfg)
	require.NoError(t, err)
	defer client.Close()

	oa, ok := client.(*Client)
	require.True(t, ok)

	got := oa.Config()
	assert.Equal(t, "http://localhost:8080/v1", got.BaseURL)
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, provider.DefaultModelPrefix, got.ModelPrefix)
	assert.Equal(t, 10*time.Second, got.Timeout)
	assert.Nil(t, oa.metrics)

	_, isLister := client.(provider.ModelLister)
	assert.True(t, isLister)
}

func TestNewFromRegistry_Defaults(t *testing.T) {
	client, err := provider.New("openai", provider.Config{})
	require.NoError(t, err)
	defer client.Close()

	got := client.(*Client).Config()
	assert.Equal(t, DefaultBaseURL, got.BaseURL)
	assert.Equal(t, provider.DefaultTimeout, got.Timeout)
}

func TestNewFromRegistry_Metrics(t *testing.T) {
	cfg := provider.DefaultConfig().WithOption("metrics", true)

	client, err := provider.New("openai", cfg)
	require.NoError(t, err)
	assert.NotNil(t, client.(*Client).metrics)

	// A second client reuses the default-registry collectors.
	again, err := provider.New("openai", cfg)
	require.NoError(t, err)
	assert.Same(t, client.(*Client).metrics.requests, again.(*Client).metrics.requests)
}

func TestNewFromRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*provider.Config)
	}{
		{"temperature", func(c *provider.Config) { c.Temperature = 3 }},
		{"base url scheme", func(c *provider.Config) { c.BaseURL = "ftp://example.com" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := provider.DefaultConfig()
			tt.mutate(&cfg)
			_, err := provider.New("openai", cfg)
			assert.ErrorIs(t, err, provider.ErrInvalidRequest)
		})
	}
}

func TestMockClient(t *testing.T) {
	ctx := context.Background()

	t.Run("cycles responses", func(t *testing.T) {
		m := NewMockClient("").WithResponses("a", "b")
		var got []string
		for range 3 {
			resp, err := m.Complete(ctx, provider.Request{Model: "gpt-4o"})
			require.NoError(t, err)
			got = append(got, resp.Content)
		}
		assert.Equal(t, []string{"a", "b", "a"}, got)
		assert.Len(t, m.Calls, 3)
	})

	t.Run("error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewMockClient("x").WithError(boom).Complete(ctx, provider.Request{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("complete func wins", func(t *testing.T) {
		m := NewMockClient("fixed").WithCompleteFunc(func(_ context.Context, req provider.Request) (*provider.Response, error) {
			return &provider.Response{Content: "custom " + req.Model}, nil
		})
		resp, err := m.Complete(ctx, provider.Request{Model: "gpt-4o"})
		require.NoError(t, err)
		assert.Equal(t, "custom gpt-4o", resp.Content)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewMockClient("x").Complete(cctx, provider.Request{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("stream", func(t *testing.T) {
		ch, err := NewMockClient("hello").Stream(ctx, provider.Request{})
		require.NoError(t, err)
		var chunks []provider.StreamChunk
		for c := range ch {
			chunks = append(chunks, c)
		}
		require.Len(t, chunks, 2)
		assert.Equal(t, "hello", chunks[0].Content)
		assert.True(t, chunks[1].Done)
	})

	t.Run("models", func(t *testing.T) {
		m := NewMockClient("").WithModels("gpt-4o", "gpt-4o-mini")
		models, err := m.ListModels(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, ids(models))
		assert.Equal(t, 1, m.ModelCalls)

		models[0].ID = "changed"
		again, _ := m.ListModels(ctx)
		assert.Equal(t, "gpt-4o", again[0].ID)

		_, err = NewMockClient("").WithModelsError(provider.ErrUnauthorized).ListModels(ctx)
		assert.True(t, provider.IsAuthError(err))
	})

	t.Run("identity", func(t *testing.T) {
		m := NewMockClient("")
		assert.Equal(t, "mock", m.Provider())
		assert.True(t, m.Capabilities().ModelListing)
		assert.NoError(t, m.Close())
	})
}
