// Package openai provides a client for OpenAI-compatible chat-completion APIs.
//
// The client speaks two endpoints:
//
//	POST {base}/chat/completions   conversation in, completion out
//	GET  {base}/models             model catalogue
//
// Both send "Authorization: Bearer <key>" when a key is configured, so the
// same client works against api.openai.com and against local servers
// (Ollama, vLLM, llama.cpp) that expose the OpenAI routes.
//
// # Usage
//
// Using the provider registry:
//
//	import _ "github.com/randalmurphal/chatkit/openai"
//
//	client, err := provider.New("openai", provider.Config{
//	    Model:  "gpt-4o-mini",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//
// Direct instantiation:
//
//	client := openai.NewClient(
//	    openai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    openai.WithModel("gpt-4o-mini"),
//	    openai.WithTemperature(0.7),
//	)
//	defer client.Close()
//
//	resp, err := client.Complete(ctx, provider.Request{
//	    Messages: []provider.Message{
//	        {Role: provider.RoleUser, Content: "Hello!"},
//	    },
//	})
//
// # Errors
//
// A non-2xx response becomes an *APIError carrying the status, the
// error.message from the body and the raw body itself. APIError unwraps to
// the matching provider sentinel (ErrUnauthorized, ErrRateLimited, ...), and
// Complete/Stream/ListModels wrap it in a *provider.Error with a retryable
// hint:
//
//	if apiErr, ok := openai.AsAPIError(err); ok {
//	    log.Printf("%d: %s", apiErr.StatusCode, apiErr.Message)
//	}
//
// # Model Listing
//
// ListModels keeps models whose id starts with Config.ModelPrefix ("gpt-" by
// default), sorted by id. The list is fetched once and memoized; concurrent
// callers during the first fetch share a single request. A failed fetch is
// not memoized. RefreshModels forces a refetch.
//
// # Metrics
//
// WithMetrics(NewMetrics(reg)) records request counts and latencies as
// Prometheus collectors under the chatkit_openai_ prefix.
package openai
