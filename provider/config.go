package provider

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default chat parameters.
const (
	DefaultProvider    = "openai"
	DefaultTemperature = 1.0
	DefaultModelPrefix = "gpt-"
	DefaultTimeout     = 2 * time.Minute
)

// Config holds configuration for creating a provider client.
// Common fields apply to all providers; use Options for provider-specific settings.
type Config struct {
	// --- Provider Selection ---

	// Provider is the name of the provider to use.
	// Required. Values: "openai"
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// --- Endpoint ---

	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	// Empty uses the provider default.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent as a bearer token.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// Organization is sent as the OpenAI-Organization header when set.
	Organization string `json:"organization" yaml:"organization" mapstructure:"organization"`

	// --- Model Selection ---

	// Model is the default model for requests that don't name one.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// ModelPrefix filters the model list to ids with this prefix.
	// Default: "gpt-"
	ModelPrefix string `json:"model_prefix" yaml:"model_prefix" mapstructure:"model_prefix"`

	// --- Chat Parameters ---

	// Temperature is the default sampling temperature, 0 to 2.
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens limits completion length. 0 leaves it to the server.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// SystemPrompt is prepended to every conversation.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" mapstructure:"system_prompt"`

	// --- Execution Limits ---

	// Timeout is the maximum duration for a single HTTP call.
	// 0 uses the provider default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// --- Provider-Specific Options ---

	// Options holds provider-specific configuration.
	//
	// OpenAI:
	//   - "metrics": bool (register Prometheus collectors on the default registry)
	Options map[string]any `json:"options" yaml:"options" mapstructure:"options"`
}

// DefaultConfig returns a Config with sensible defaults.
// Provider must still be set before use.
func DefaultConfig() Config {
	return Config{
		Temperature: DefaultTemperature,
		ModelPrefix: DefaultModelPrefix,
		Timeout:     DefaultTimeout,
	}
}

// LoadFromEnv populates config fields from environment variables.
// Environment variables use the CHATKIT_ prefix and take precedence over existing values.
//
// Supported variables:
//   - CHATKIT_PROVIDER: Provider name
//   - CHATKIT_MODEL: Model name
//   - CHATKIT_BASE_URL: API root
//   - CHATKIT_API_KEY: API key (falls back to OPENAI_API_KEY)
//   - CHATKIT_TEMPERATURE: Sampling temperature
//   - CHATKIT_MAX_TOKENS: Completion token limit
//   - CHATKIT_SYSTEM_PROMPT: System prompt
//   - CHATKIT_MODEL_PREFIX: Model list filter
//   - CHATKIT_TIMEOUT: Timeout duration (e.g., "30s")
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("CHATKIT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("CHATKIT_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("CHATKIT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CHATKIT_API_KEY"); v != "" {
		c.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.APIKey == "" {
		c.APIKey = v
	}
	if v := os.Getenv("CHATKIT_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := os.Getenv("CHATKIT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("CHATKIT_SYSTEM_PROMPT"); v != "" {
		c.SystemPrompt = v
	}
	if v := os.Getenv("CHATKIT_MODEL_PREFIX"); v != "" {
		c.ModelPrefix = v
	}
	if v := os.Getenv("CHATKIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}

// FromEnv creates a Config from environment variables with defaults.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.LoadFromEnv()
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", c.MaxTokens)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	return nil
}

// WithProvider returns a copy of the config with the specified provider.
func (c Config) WithProvider(provider string) Config {
	c.Provider = provider
	return c
}

// WithModel returns a copy of the config with the specified model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithBaseURL returns a copy of the config with the specified API root.
func (c Config) WithBaseURL(url string) Config {
	c.BaseURL = url
	return c
}

// WithAPIKey returns a copy of the config with the specified API key.
func (c Config) WithAPIKey(key string) Config {
	c.APIKey = key
	return c
}

// WithOption returns a copy of the config with the specified option set.
func (c Config) WithOption(key string, value any) Config {
	newOpts := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		newOpts[k] = v
	}
	newOpts[key] = value
	c.Options = newOpts
	return c
}

// GetOption retrieves a provider-specific option by key.
func (c Config) GetOption(key string) any {
	if c.Options == nil {
		return nil
	}
	return c.Options[key]
}

// GetStringOption retrieves a string option, returning defaultVal if not set.
func (c Config) GetStringOption(key, defaultVal string) string {
	if v, ok := c.GetOption(key).(string); ok {
		return v
	}
	return defaultVal
}

// GetBoolOption retrieves a bool option, returning defaultVal if not set.
func (c Config) GetBoolOption(key string, defaultVal bool) bool {
	if v, ok := c.GetOption(key).(bool); ok {
		return v
	}
	return defaultVal
}

// GetIntOption retrieves an int option, returning defaultVal if not set.
func (c Config) GetIntOption(key string, defaultVal int) int {
	switch v := c.GetOption(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultVal
}
