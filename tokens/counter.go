package tokens

import (
	"unicode/utf8"

	"github.com/randalmurphal/chatkit/model"
	"github.com/randalmurphal/chatkit/provider"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Approximately 4 characters equals 1 token for English text.
const DefaultCharsPerToken = 4.0

// Chat framing costs, in tokens, added by the API around each message and
// once per reply.
const (
	PerMessageOverhead = 3
	ReplyPriming       = 3
)

// DefaultContextWindow is used for models without a known context size.
const DefaultContextWindow = 8192

// Counter estimates token counts for text.
type Counter interface {
	// Count estimates the number of tokens in the given text.
	Count(text string) int

	// FitsInLimit returns true if the text fits within the token limit.
	FitsInLimit(text string, limit int) bool
}

// EstimatingCounter uses a character-to-token ratio for estimation.
type EstimatingCounter struct {
	// CharsPerToken is the average characters per token.
	CharsPerToken float64
}

// NewEstimatingCounter creates a token counter with default settings.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{CharsPerToken: DefaultCharsPerToken}
}

// NewEstimatingCounterWithRatio creates a token counter with a custom ratio.
// If charsPerToken is <= 0, the default ratio (4.0) is used.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{CharsPerToken: charsPerToken}
}

// Count estimates the number of tokens in text, rounding to nearest.
// Runes are counted rather than bytes.
func (c *EstimatingCounter) Count(text string) int {
	runeCount := utf8.RuneCountInString(text)
	return int(float64(runeCount)/c.CharsPerToken + 0.5)
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// EstimateTokens is a convenience function using the default estimator.
func EstimateTokens(text string) int {
	return NewEstimatingCounter().Count(text)
}

// CountMessage estimates one message including its framing overhead.
func CountMessage(c Counter, m provider.Message) int {
	n := PerMessageOverhead + c.Count(m.Content)
	if m.Name != "" {
		n += c.Count(m.Name) + 1
	}
	return n
}

// CountMessages estimates a whole prompt: every message plus reply priming.
func CountMessages(c Counter, msgs []provider.Message) int {
	if len(msgs) == 0 {
		return 0
	}
	total := ReplyPriming
	for _, m := range msgs {
		total += CountMessage(c, m)
	}
	return total
}

// GetModelLimit returns the context window for a model id, or
// DefaultContextWindow when the model family is unknown.
func GetModelLimit(id string) int {
	return model.ContextWindow(id, DefaultContextWindow)
}
