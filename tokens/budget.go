package tokens

import (
	"fmt"

	"github.com/randalmurphal/chatkit/provider"
)

// DefaultReservedTokens is held back from the window for the reply.
const DefaultReservedTokens = 1024

// Budget fits conversation history into a model's context window.
type Budget struct {
	// Window is the model's context size in tokens.
	Window int

	// Reserved is the share of Window kept free for the completion.
	Reserved int

	counter Counter
}

// NewBudget creates a budget for a window with reserved reply tokens.
func NewBudget(window, reserved int) *Budget {
	if reserved < 0 {
		reserved = 0
	}
	return &Budget{
		Window:   window,
		Reserved: reserved,
		counter:  NewEstimatingCounter(),
	}
}

// BudgetForModel creates a budget sized to the model's context window.
// reserved <= 0 uses DefaultReservedTokens.
func BudgetForModel(id string, reserved int) *Budget {
	if reserved <= 0 {
		reserved = DefaultReservedTokens
	}
	return NewBudget(GetModelLimit(id), reserved)
}

// WithCounter sets a custom token counter.
func (b *Budget) WithCounter(c Counter) *Budget {
	b.counter = c
	return b
}

// Available returns the prompt tokens the budget allows.
func (b *Budget) Available() int {
	if n := b.Window - b.Reserved; n > 0 {
		return n
	}
	return 0
}

// Count estimates the prompt size of msgs.
func (b *Budget) Count(msgs []provider.Message) int {
	return CountMessages(b.counter, msgs)
}

// Fits reports whether msgs fit in the available prompt tokens.
func (b *Budget) Fits(msgs []provider.Message) bool {
	return b.Count(msgs) <= b.Available()
}

// Trim drops the oldest non-system messages until msgs fit.
// System messages and the final message are always kept. It returns the
// kept messages and how many were dropped. When even the kept minimum does
// not fit, the error wraps provider.ErrContextTooLong.
func (b *Budget) Trim(msgs []provider.Message) ([]provider.Message, int, error) {
	if b.Fits(msgs) {
		return msgs, 0, nil
	}

	kept := make([]provider.Message, 0, len(msgs))
	var droppable []int
	for i, m := range msgs {
		if m.Role != provider.RoleSystem && i != len(msgs)-1 {
			droppable = append(droppable, i)
		}
	}

	drop := make(map[int]bool, len(droppable))
	size := b.Count(msgs)
	for _, i := range droppable {
		if size <= b.Available() {
			break
		}
		drop[i] = true
		size -= CountMessage(b.counter, msgs[i])
	}

	for i, m := range msgs {
		if !drop[i] {
			kept = append(kept, m)
		}
	}

	if size > b.Available() {
		return kept, len(drop), fmt.Errorf("%w: %d tokens needed, %d available",
			provider.ErrContextTooLong, size, b.Available())
	}
	return kept, len(drop), nil
}
