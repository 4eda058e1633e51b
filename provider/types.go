package provider

import (
	"encoding/json"
	"time"
)

// Request configures a chat completion call.
type Request struct {
	// SystemPrompt is sent as a leading system message when set.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Messages is the conversation history to send to the model.
	Messages []Message `json:"messages"`

	// Model specifies which model to use. Empty uses the client default.
	Model string `json:"model,omitempty"`

	// MaxTokens limits the response length. 0 leaves it to the server.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls response randomness. Nil uses the client default.
	Temperature *float64 `json:"temperature,omitempty"`

	// ResponseFormat requests structured output. Passed through verbatim.
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`

	// Options holds provider-specific configuration not covered by standard fields.
	Options map[string]any `json:"options,omitempty"`
}

// Message is a conversation turn as it is sent upstream.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// NewTextMessage creates a simple text message.
func NewTextMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Role identifies the message sender.
type Role string

// Standard message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Float returns a pointer to f, for Request.Temperature.
func Float(f float64) *float64 {
	return &f
}

// Response is the output of a completion call.
type Response struct {
	// ID is the upstream completion identifier.
	ID string `json:"id,omitempty"`

	// Content is the text response from the model.
	Content string `json:"content"`

	// Usage tracks token consumption for this request.
	Usage TokenUsage `json:"usage"`

	// Model is the actual model used (may differ from requested).
	Model string `json:"model"`

	// FinishReason indicates why the model stopped generating.
	// Common values: "stop", "length", "content_filter"
	FinishReason string `json:"finish_reason"`

	// Duration is the time taken for the completion.
	Duration time.Duration `json:"duration"`

	// CostUSD is the estimated cost in USD. Zero when pricing is unknown.
	CostUSD float64 `json:"cost_usd,omitempty"`

	// Metadata holds provider-specific response data.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add combines token usage from another TokenUsage.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	// Content is the text content in this chunk.
	Content string `json:"content,omitempty"`

	// FinishReason is set on the chunk that ends generation.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is the token usage (only set in final chunk, when reported).
	Usage *TokenUsage `json:"usage,omitempty"`

	// Done indicates this is the final chunk.
	Done bool `json:"done"`

	// Error is non-nil if streaming failed.
	Error error `json:"-"`
}

// ModelInfo describes a model offered by a provider.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}
