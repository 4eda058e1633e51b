// Package chatkit is a client for OpenAI-compatible chat completion APIs.
//
// It is split into packages that can be used independently:
//
//   - provider: Client interface, request/response types, config, errors and the provider registry
//   - openai: HTTP client for /chat/completions and a memoized /models listing
//   - chat: Conversation sessions with history, model selection and cost tracking
//   - tokens: Token estimation and context-window trimming
//   - model: Model families, context windows, pricing and cost tracking
//   - config: YAML, TOML and JSON config files with hot reload
//   - parser: JSON recovery from fenced or chatty completion text
//   - template: System prompt rendering ({{model}}, {{date}})
//
// The chatkit command (cmd/chatkit) wraps these in a terminal client.
//
// # Quick Start
//
// One-off completion:
//
//	import "github.com/randalmurphal/chatkit/openai"
//	client := openai.NewClient(openai.WithAPIKey(key), openai.WithModel("gpt-4o-mini"))
//	resp, err := client.Complete(ctx, provider.Request{
//	    Messages: []provider.Message{provider.NewTextMessage(provider.RoleUser, "Hello")},
//	})
//
// Model listing (fetched once, then served from memory):
//
//	models, err := client.ListModels(ctx)
//
// Conversation:
//
//	import "github.com/randalmurphal/chatkit/chat"
//	session := chat.NewSession(client)
//	reply, err := session.Send(ctx, "What changed in Go 1.23?")
//
// Through the registry:
//
//	import _ "github.com/randalmurphal/chatkit/openai"
//	client, err := provider.NewFromConfig(provider.FromEnv().WithProvider("openai"))
package chatkit
