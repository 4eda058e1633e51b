// Package provider defines the unified interface for chat-completion API clients.
//
// A provider wraps a remote chat-completion service behind a small contract:
// send conversation history, get a completion back, and optionally list the
// models the service offers. Concrete providers register a factory with the
// registry so callers can select one by name.
//
// # Usage
//
// Create a client using the registry:
//
//	import _ "github.com/randalmurphal/chatkit/openai"
//
//	client, err := provider.New("openai", provider.Config{
//	    Model:  "gpt-4o-mini",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Complete(ctx, provider.Request{
//	    Messages: []provider.Message{provider.NewTextMessage(provider.RoleUser, "Hello!")},
//	})
//
// Model listing is optional; check for it with a type assertion:
//
//	if lister, ok := client.(provider.ModelLister); ok {
//	    models, err := lister.ListModels(ctx)
//	}
//
// # Available Providers
//
//   - "openai": OpenAI-compatible chat completions over HTTP
package provider

import "context"

// Client is the unified interface for chat-completion providers.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a request and returns the full response.
	// The context controls cancellation and timeouts.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream sends a request and returns a channel of response chunks.
	// The channel is closed when streaming completes (check chunk.Done).
	// Errors during streaming are returned via chunk.Error.
	Stream(ctx context.Context, req Request) (<-chan StreamChunk, error)

	// Provider returns the provider name (e.g., "openai").
	Provider() string

	// Capabilities returns what this provider natively supports.
	Capabilities() Capabilities

	// Close releases any resources held by the client.
	Close() error
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	// ListModels returns the models available to the caller.
	// Implementations may memoize the result.
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Capabilities describes what a provider natively supports.
type Capabilities struct {
	// Streaming indicates if the provider supports streaming responses.
	Streaming bool `json:"streaming"`

	// Images indicates if the provider supports image inputs.
	Images bool `json:"images"`

	// ModelListing indicates the client implements ModelLister.
	ModelListing bool `json:"model_listing"`

	// StructuredOutput indicates Request.ResponseFormat is honored.
	StructuredOutput bool `json:"structured_output"`
}

// OpenAICapabilities describes the OpenAI-compatible HTTP client.
var OpenAICapabilities = Capabilities{
	Streaming:        true,
	Images:           false,
	ModelListing:     true,
	StructuredOutput: true,
}
