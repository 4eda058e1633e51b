package chat_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/chatkit/chat"
	"github.com/randalmurphal/chatkit/model"
	"github.com/randalmurphal/chatkit/openai"
	"github.com/randalmurphal/chatkit/provider"
)

func TestSend_AppendsTurns(t *testing.T) {
	mock := openai.NewMockClient("Hello there")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o-mini"))

	reply, err := s.Send(context.Background(), "  hi  ")
	require.NoError(t, err)

	assert.Equal(t, "Hello there", reply.Content)
	assert.Equal(t, provider.RoleAssistant, reply.Role)
	assert.Equal(t, "gpt-4o-mini", reply.Model)
	assert.NotEmpty(t, reply.ID)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, provider.RoleUser, history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, reply.ID, history[1].ID)
	assert.NotEqual(t, history[0].ID, history[1].ID)

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "gpt-4o-mini", mock.Calls[0].Model)
	assert.Equal(t, []provider.Message{{Role: provider.RoleUser, Content: "hi"}}, mock.Calls[0].Messages)
}

func TestSend_SendsFullHistory(t *testing.T) {
	mock := openai.NewMockClient("").WithResponses("one", "two")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"), chat.WithSystemPrompt("Be brief."))

	_, err := s.Send(context.Background(), "first")
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, mock.Calls, 2)
	assert.Equal(t, []provider.Message{
		{Role: provider.RoleSystem, Content: "Be brief."},
		{Role: provider.RoleUser, Content: "first"},
		{Role: provider.RoleAssistant, Content: "one"},
		{Role: provider.RoleUser, Content: "second"},
	}, mock.Calls[1].Messages)

	// The system prompt is not part of the visible history.
	assert.Len(t, s.History(), 4)
}

func TestSend_RendersSystemPrompt(t *testing.T) {
	mock := openai.NewMockClient("ok")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"), chat.WithSystemPrompt("You are {{model}}. Today is {{date}}."))

	_, err := s.Send(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, mock.Calls, 1)
	system := mock.Calls[0].Messages[0]
	assert.Equal(t, provider.RoleSystem, system.Role)
	assert.Regexp(t, `^You are gpt-4o\. Today is \d{4}-\d{2}-\d{2}\.$`, system.Content)
}

func TestSend_BadSystemPrompt(t *testing.T) {
	mock := openai.NewMockClient("ok")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"), chat.WithSystemPrompt("Hi {{user}}"))

	_, err := s.Send(context.Background(), "hi")
	require.ErrorIs(t, err, provider.ErrInvalidRequest)
	assert.Empty(t, mock.Calls)
}

func TestSend_PassesSamplingOptions(t *testing.T) {
	mock := openai.NewMockClient("ok")
	s := chat.NewSession(mock,
		chat.WithModel("gpt-4o"),
		chat.WithTemperature(0.2),
		chat.WithMaxTokens(64),
	)

	_, err := s.Send(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, mock.Calls, 1)
	require.NotNil(t, mock.Calls[0].Temperature)
	assert.Equal(t, 0.2, *mock.Calls[0].Temperature)
	assert.Equal(t, 64, mock.Calls[0].MaxTokens)
}

func TestSend_Errors(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		mock := openai.NewMockClient("ok")
		s := chat.NewSession(mock, chat.WithModel("gpt-4o"))

		_, err := s.Send(context.Background(), "   ")
		require.ErrorIs(t, err, provider.ErrInvalidRequest)
		assert.Empty(t, s.History())
		assert.Empty(t, mock.Calls)
	})

	t.Run("no model selected", func(t *testing.T) {
		mock := openai.NewMockClient("ok")
		s := chat.NewSession(mock)

		_, err := s.Send(context.Background(), "hi")
		require.ErrorIs(t, err, chat.ErrNoModel)
		assert.Empty(t, s.History())
		assert.Empty(t, mock.Calls)
	})
}

func TestSend_FailureAddsErrorEntry(t *testing.T) {
	upstream := errors.New("boom")
	mock := openai.NewMockClient("").WithError(upstream)
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"))

	_, err := s.Send(context.Background(), "hi")
	require.ErrorIs(t, err, upstream)

	history := s.History()
	require.Len(t, history, 2)
	assert.False(t, history[0].IsError())
	assert.True(t, history[1].IsError())
	assert.Equal(t, chat.TypeError, history[1].Type)
	assert.Equal(t, "boom", history[1].Content)
}

func TestSend_ErrorEntriesNotSent(t *testing.T) {
	calls := 0
	mock := openai.NewMockClient("").WithCompleteFunc(func(_ context.Context, req provider.Request) (*provider.Response, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("rate limited")
		}
		return &provider.Response{Content: "ok", Model: req.Model}, nil
	})
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"))

	_, err := s.Send(context.Background(), "first")
	require.Error(t, err)
	_, err = s.Send(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, mock.Calls, 2)
	for _, m := range mock.Calls[1].Messages {
		assert.NotEqual(t, "rate limited", m.Content)
	}
	assert.Equal(t, []provider.Message{
		{Role: provider.RoleUser, Content: "first"},
		{Role: provider.RoleUser, Content: "second"},
	}, mock.Calls[1].Messages)
	assert.Len(t, s.History(), 4)
}

func TestSend_TrimsToContextWindow(t *testing.T) {
	mock := openai.NewMockClient("ok")
	// gpt-4 has an 8192 token window; reserve most of it so the history overflows.
	s := chat.NewSession(mock, chat.WithModel("gpt-4"), chat.WithReservedTokens(8000))

	long := strings.Repeat("a", 400) // ~100 tokens
	for range 3 {
		_, err := s.Send(context.Background(), long)
		require.NoError(t, err)
	}

	last := mock.Calls[len(mock.Calls)-1].Messages
	assert.Less(t, len(last), 5)
	assert.Equal(t, long, last[len(last)-1].Content)
	assert.Len(t, s.History(), 6, "trimming does not touch stored history")
}

func TestSend_TooLongFails(t *testing.T) {
	mock := openai.NewMockClient("ok")
	s := chat.NewSession(mock, chat.WithModel("gpt-4"), chat.WithReservedTokens(8190))

	_, err := s.Send(context.Background(), strings.Repeat("a", 400))
	require.ErrorIs(t, err, provider.ErrContextTooLong)
	assert.Empty(t, mock.Calls)

	history := s.History()
	require.Len(t, history, 2)
	assert.True(t, history[1].IsError())
}

func TestSendStream(t *testing.T) {
	mock := openai.NewMockClient("streamed reply")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"))

	var deltas []string
	reply, err := s.SendStream(context.Background(), "hi", func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)

	assert.Equal(t, "streamed reply", reply.Content)
	assert.Equal(t, []string{"streamed reply"}, deltas)
	assert.Equal(t, 10, s.Usage().InputTokens)
	assert.Len(t, s.History(), 2)
}

func TestSendStream_NilCallback(t *testing.T) {
	mock := openai.NewMockClient("ok")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"))

	reply, err := s.SendStream(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content)
}

func TestUsageAndCosts(t *testing.T) {
	mock := openai.NewMockClient("12345678") // 2 output tokens per call
	s := chat.NewSession(mock, chat.WithModel("gpt-4o-2024-08-06"))

	for range 2 {
		_, err := s.Send(context.Background(), "hi")
		require.NoError(t, err)
	}

	assert.Equal(t, provider.TokenUsage{InputTokens: 20, OutputTokens: 4, TotalTokens: 24}, s.Usage())

	u := s.Costs().Usage("gpt-4o")
	assert.Equal(t, 20, u.InputTokens)
	assert.Equal(t, 4, u.OutputTokens)
	assert.Equal(t, 2, u.Requests)
	assert.Greater(t, s.Costs().EstimatedCost(), 0.0)

	s.Reset()
	assert.Empty(t, s.History())
	assert.Zero(t, s.Usage())
	assert.Zero(t, s.Costs().EstimatedCost())
	assert.Zero(t, s.Costs().Usage("gpt-4o").Requests)
	assert.Equal(t, "gpt-4o-2024-08-06", s.SelectedModelID())
}

func TestReset_SharedCostTrackerStaysCumulative(t *testing.T) {
	tracker := model.NewCostTracker()
	mock := openai.NewMockClient("12345678")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"), chat.WithCostTracker(tracker))

	_, err := s.Send(context.Background(), "hi")
	require.NoError(t, err)
	before := tracker.EstimatedCost()
	require.Greater(t, before, 0.0)

	s.Reset()
	assert.Zero(t, s.Usage())
	assert.Equal(t, before, tracker.EstimatedCost())
	assert.Equal(t, 1, tracker.Usage("gpt-4o").Requests)
}

func TestModels(t *testing.T) {
	t.Run("selects first model", func(t *testing.T) {
		mock := openai.NewMockClient("").WithModels("gpt-4o", "gpt-4o-mini")
		s := chat.NewSession(mock)

		models, err := s.Models(context.Background())
		require.NoError(t, err)
		assert.Len(t, models, 2)
		assert.Equal(t, "gpt-4o", s.SelectedModelID())
	})

	t.Run("keeps existing selection", func(t *testing.T) {
		mock := openai.NewMockClient("").WithModels("gpt-4o", "gpt-4o-mini")
		s := chat.NewSession(mock, chat.WithModel("gpt-4o-mini"))

		_, err := s.Models(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", s.SelectedModelID())
	})

	t.Run("empty list leaves selection empty", func(t *testing.T) {
		mock := openai.NewMockClient("")
		s := chat.NewSession(mock)

		models, err := s.Models(context.Background())
		require.NoError(t, err)
		assert.Empty(t, models)
		assert.Empty(t, s.SelectedModelID())
	})

	t.Run("error", func(t *testing.T) {
		mock := openai.NewMockClient("").WithModelsError(provider.ErrUnauthorized)
		s := chat.NewSession(mock)

		_, err := s.Models(context.Background())
		require.ErrorIs(t, err, provider.ErrUnauthorized)
		assert.Empty(t, s.SelectedModelID())
	})

	t.Run("custom lister", func(t *testing.T) {
		lister := openai.NewMockClient("").WithModels("gpt-5")
		s := chat.NewSession(openai.NewMockClient(""), chat.WithModelLister(lister))

		_, err := s.Models(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, lister.ModelCalls)
		assert.Equal(t, "gpt-5", s.SelectedModelID())
	})

	t.Run("no lister", func(t *testing.T) {
		s := chat.NewSession(completeOnly{})

		_, err := s.Models(context.Background())
		require.ErrorIs(t, err, provider.ErrCapabilityNotSupported)
		assert.True(t, provider.IsCapabilityError(err))
	})
}

func TestSelectedModelID_Concurrent(t *testing.T) {
	s := chat.NewSession(openai.NewMockClient("ok"))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.SetSelectedModelID(" gpt-4o ")
			} else {
				_ = s.SelectedModelID()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "gpt-4o", s.SelectedModelID())
}

func TestSend_ConcurrentKeepsPairs(t *testing.T) {
	mock := openai.NewMockClient("ok")
	s := chat.NewSession(mock, chat.WithModel("gpt-4o"))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Send(context.Background(), "hi")
		}()
	}
	wg.Wait()

	history := s.History()
	require.Len(t, history, 20)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, provider.RoleUser, history[i].Role)
		assert.Equal(t, provider.RoleAssistant, history[i+1].Role)
	}
}

func TestToProvider(t *testing.T) {
	msgs := []chat.Message{
		chat.NewMessage(provider.RoleUser, "hi"),
		chat.NewErrorMessage("failed"),
		chat.NewMessage(provider.RoleAssistant, "hello"),
	}

	assert.Equal(t, []provider.Message{
		{Role: provider.RoleUser, Content: "hi"},
		{Role: provider.RoleAssistant, Content: "hello"},
	}, chat.ToProvider(msgs))
}

// completeOnly is a client without model listing.
type completeOnly struct{}

func (completeOnly) Complete(context.Context, provider.Request) (*provider.Response, error) {
	return &provider.Response{}, nil
}

func (completeOnly) Stream(context.Context, provider.Request) (<-chan provider.StreamChunk, error) {
	return nil, provider.ErrCapabilityNotSupported
}

func (completeOnly) Provider() string { return "bare" }

func (completeOnly) Capabilities() provider.Capabilities { return provider.Capabilities{} }

func (completeOnly) Close() error { return nil }
