// Package tokens provides token estimation and context-window budgeting for
// chat conversations.
//
// Estimation uses the rule of thumb that approximately 4 characters equals 1
// token for English text, plus the fixed framing cost the chat API adds per
// message. It is fast and tokenizer-free; treat the numbers as estimates.
//
// # Counter
//
//	counter := tokens.NewEstimatingCounter()
//	count := counter.Count("Hello, world!")              // ~3 tokens
//	prompt := tokens.CountMessages(counter, messages)    // whole request
//
// # Budget
//
// Budget trims conversation history to fit a model's context window:
//
//	budget := tokens.BudgetForModel("gpt-4o-mini", 1024) // reserve 1024 for the reply
//	kept, dropped, err := budget.Trim(messages)
//
// Trim removes the oldest turns first and never removes system messages or
// the final message.
package tokens
