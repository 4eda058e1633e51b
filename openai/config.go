package openai

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/randalmurphal/chatkit/provider"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds OpenAI client configuration.
type Config struct {
	// BaseURL is the API root. Endpoints are appended to it.
	// Default: "https://api.openai.com/v1"
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as "Authorization: Bearer <key>".
	// When empty, no Authorization header is sent (local servers).
	APIKey string `json:"-" yaml:"-"`

	// Organization is sent as the OpenAI-Organization header when set.
	Organization string `json:"organization" yaml:"organization"`

	// Model is used for requests that don't name one.
	Model string `json:"model" yaml:"model"`

	// Temperature is the default sampling temperature.
	// Default: 1.0
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens is the default completion limit. 0 leaves it to the server.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// ModelPrefix keeps only models whose id starts with it in ListModels.
	// Default: "gpt-"
	ModelPrefix string `json:"model_prefix" yaml:"model_prefix"`

	// Timeout bounds a single HTTP call.
	// Default: 2 minutes.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Temperature: provider.DefaultTemperature,
		ModelPrefix: provider.DefaultModelPrefix,
		Timeout:     provider.DefaultTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	return nil
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
// Temperature is left alone: zero is a legitimate setting.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.ModelPrefix == "" {
		c.ModelPrefix = defaults.ModelPrefix
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.cfg.BaseURL = baseURL }
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.cfg.APIKey = key }
}

// WithOrganization sets the OpenAI-Organization header.
func WithOrganization(org string) Option {
	return func(c *Client) { c.cfg.Organization = org }
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(c *Client) { c.cfg.Model = model }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.cfg.Temperature = t }
}

// WithMaxTokens sets the default completion limit.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.cfg.MaxTokens = n }
}

// WithModelPrefix sets the model list filter.
func WithModelPrefix(prefix string) Option {
	return func(c *Client) { c.cfg.ModelPrefix = prefix }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.cfg.Timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.cfg.HTTPClient = hc }
}

// WithMetrics records request metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}
