package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/chatkit/model"
	"github.com/randalmurphal/chatkit/provider"
	"github.com/randalmurphal/chatkit/template"
	"github.com/randalmurphal/chatkit/tokens"
)

// ErrNoModel is returned by Send when no model has been selected.
var ErrNoModel = errors.New("no model selected")

// Session is one conversation against a provider.
// It is safe for concurrent use; sends are serialized so history stays ordered.
type Session struct {
	client provider.Client
	lister provider.ModelLister

	systemPrompt   string
	temperature    *float64
	maxTokens      int
	reservedTokens int

	sendMu sync.Mutex

	mu       sync.RWMutex
	history  []Message
	selected string
	usage    provider.TokenUsage
	costs    *model.CostTracker

	ownsCosts bool
}

// Option configures a Session.
type Option func(*Session)

// WithSystemPrompt prepends a system message to every request.
// The prompt is rendered per request with the variables model (the selected
// model id) and date (YYYY-MM-DD), e.g. "You are {{model}}."
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) { s.systemPrompt = prompt }
}

// WithTemperature overrides the client's default temperature.
func WithTemperature(t float64) Option {
	return func(s *Session) { s.temperature = provider.Float(t) }
}

// WithMaxTokens limits each reply.
func WithMaxTokens(n int) Option {
	return func(s *Session) { s.maxTokens = n }
}

// WithReservedTokens sets how much of the context window is kept for the
// reply when trimming history. Default: tokens.DefaultReservedTokens.
func WithReservedTokens(n int) Option {
	return func(s *Session) { s.reservedTokens = n }
}

// WithModel preselects a model.
func WithModel(id string) Option {
	return func(s *Session) { s.selected = id }
}

// WithModelLister overrides the lister used by Models.
// By default the client is used when it implements provider.ModelLister.
func WithModelLister(l provider.ModelLister) Option {
	return func(s *Session) { s.lister = l }
}

// WithCostTracker shares a tracker across sessions.
func WithCostTracker(t *model.CostTracker) Option {
	return func(s *Session) { s.costs = t }
}

// NewSession creates a session over client.
func NewSession(client provider.Client, opts ...Option) *Session {
	s := &Session{client: client}
	if l, ok := client.(provider.ModelLister); ok {
		s.lister = l
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.costs == nil {
		s.costs = model.NewCostTracker()
		s.ownsCosts = true
	}
	return s
}

// SetSelectedModelID sets the model used by subsequent sends.
func (s *Session) SetSelectedModelID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = strings.TrimSpace(id)
}

// SelectedModelID returns the model used by sends.
func (s *Session) SelectedModelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Models lists the provider's models. When no model is selected yet, the
// first listed model becomes the selection.
func (s *Session) Models(ctx context.Context) ([]provider.ModelInfo, error) {
	if s.lister == nil {
		return nil, fmt.Errorf("list models via %s: %w", s.client.Provider(), provider.ErrCapabilityNotSupported)
	}
	models, err := s.lister.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.selected == "" && len(models) > 0 {
		s.selected = models[0].ID
	}
	s.mu.Unlock()

	return models, nil
}

// Send appends text as a user turn, sends the history with the selected
// model and appends the reply. On failure an error entry is appended to the
// history for display and the error is returned; error entries are never
// sent upstream.
func (s *Session) Send(ctx context.Context, text string) (*Message, error) {
	return s.send(ctx, text, nil)
}

// SendStream is Send with the reply delivered incrementally to onDelta.
func (s *Session) SendStream(ctx context.Context, text string, onDelta func(string)) (*Message, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return s.send(ctx, text, onDelta)
}

func (s *Session) send(ctx context.Context, text string, onDelta func(string)) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", provider.ErrInvalidRequest)
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	modelID := s.SelectedModelID()
	if modelID == "" {
		return nil, ErrNoModel
	}

	s.append(NewMessage(provider.RoleUser, text))

	req, err := s.buildRequest(modelID)
	if err != nil {
		return nil, s.fail(err)
	}

	var resp *provider.Response
	if onDelta != nil {
		resp, err = s.stream(ctx, req, onDelta)
	} else {
		resp, err = s.client.Complete(ctx, req)
	}
	if err != nil {
		return nil, s.fail(err)
	}

	reply := NewMessage(provider.RoleAssistant, resp.Content)
	reply.Model = resp.Model
	if reply.Model == "" {
		reply.Model = modelID
	}
	s.append(reply)

	s.mu.Lock()
	s.usage.Add(resp.Usage)
	s.mu.Unlock()
	s.costs.Record(reply.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return &reply, nil
}

// buildRequest assembles the trimmed history for modelID.
func (s *Session) buildRequest(modelID string) (provider.Request, error) {
	msgs := ToProvider(s.History())
	if s.systemPrompt != "" {
		prompt, err := template.Render(s.systemPrompt, map[string]any{
			"model": modelID,
			"date":  time.Now().Format(time.DateOnly),
		})
		if err != nil {
			return provider.Request{}, fmt.Errorf("%w: system prompt: %w", provider.ErrInvalidRequest, err)
		}
		msgs = append([]provider.Message{provider.NewTextMessage(provider.RoleSystem, prompt)}, msgs...)
	}

	budget := tokens.BudgetForModel(modelID, s.reservedTokens)
	kept, dropped, err := budget.Trim(msgs)
	if err != nil {
		return provider.Request{}, err
	}
	if dropped > 0 {
		slog.Debug("history trimmed to fit context window",
			slog.String("model", modelID),
			slog.Int("dropped", dropped),
			slog.Int("kept", len(kept)))
	}

	return provider.Request{
		Messages:    kept,
		Model:       modelID,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}, nil
}

// stream drains client.Stream into a Response.
func (s *Session) stream(ctx context.Context, req provider.Request, onDelta func(string)) (*provider.Response, error) {
	ch, err := s.client.Stream(ctx, req)
	if err != nil {
		return nil, err
	}

	var (
		b    strings.Builder
		resp = &provider.Response{Model: req.Model}
	)
	for chunk := range ch {
		if chunk.Error != nil {
			return nil, chunk.Error
		}
		if chunk.Content != "" {
			b.WriteString(chunk.Content)
			onDelta(chunk.Content)
		}
		if chunk.FinishReason != "" {
			resp.FinishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			resp.Usage = *chunk.Usage
		}
	}
	resp.Content = b.String()
	return resp, nil
}

// fail records err as an error entry and returns it.
func (s *Session) fail(err error) error {
	s.append(NewErrorMessage(err.Error()))
	return err
}

func (s *Session) append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, m)
}

// History returns a copy of the conversation, error entries included.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// Reset clears the conversation, its usage and its costs. The selected model
// is kept. A tracker passed with WithCostTracker is shared and stays
// cumulative.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.usage = provider.TokenUsage{}
	if s.ownsCosts {
		s.costs.Reset()
	}
}

// Usage returns the tokens consumed since the last Reset.
func (s *Session) Usage() provider.TokenUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

// Costs returns the session's cost tracker.
func (s *Session) Costs() *model.CostTracker {
	return s.costs
}
