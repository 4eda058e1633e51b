package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/randalmurphal/chatkit/provider"
)

// MessageType marks how a message is presented. It never reaches the API.
type MessageType string

// Message types.
const (
	TypeNormal MessageType = "normal"
	TypeError  MessageType = "error"
)

// Message is a conversation entry as the session stores it.
// ID and Type are local bookkeeping and are stripped before sending.
type Message struct {
	ID        string        `json:"id"`
	Type      MessageType   `json:"message_type"`
	Role      provider.Role `json:"role"`
	Content   string        `json:"content"`
	Model     string        `json:"model,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewMessage creates a normal message with a fresh id.
func NewMessage(role provider.Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      TypeNormal,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewErrorMessage creates an error entry for display.
func NewErrorMessage(content string) Message {
	m := NewMessage(provider.RoleAssistant, content)
	m.Type = TypeError
	return m
}

// IsError reports whether the message is a display-only error entry.
func (m Message) IsError() bool {
	return m.Type == TypeError
}

// ToProvider returns the message as it is sent upstream.
func (m Message) ToProvider() provider.Message {
	return provider.Message{Role: m.Role, Content: m.Content}
}

// ToProvider converts history for sending. Error entries are skipped.
func ToProvider(msgs []Message) []provider.Message {
	return lo.FilterMap(msgs, func(m Message, _ int) (provider.Message, bool) {
		if m.IsError() {
			return provider.Message{}, false
		}
		return m.ToProvider(), true
	})
}
