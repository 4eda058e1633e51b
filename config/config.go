// Package config loads chatkit settings from YAML, TOML or JSON files.
//
// A File is overlaid onto a provider.Config:
//
//	f, err := config.Load("chatkit.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg := f.Apply(provider.DefaultConfig())
//	cfg.LoadFromEnv()
//
// Unknown keys are rejected in every format. Durations are strings such as
// "30s" or "2m".
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/chatkit/provider"
	"github.com/randalmurphal/chatkit/template"
)

// ErrUnsupportedFormat is returned for files that are not YAML, TOML or JSON.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// BaseName is the file name searched for by Discover, without extension.
const BaseName = "chatkit"

// Extensions lists the recognized file extensions in search order.
var Extensions = []string{".yaml", ".yml", ".toml", ".json"}

// File is the on-disk configuration. Zero fields leave the corresponding
// provider.Config value untouched.
type File struct {
	Provider     string   `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty" jsonschema:"description=Registered provider name,example=openai"`
	BaseURL      string   `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty" jsonschema:"description=API base URL including the version path,example=https://api.openai.com/v1"`
	APIKey       string   `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty" jsonschema:"description=API key; prefer api_key_env"`
	APIKeyEnv    string   `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty" toml:"api_key_env,omitempty" jsonschema:"description=Environment variable holding the API key,example=OPENAI_API_KEY"`
	Organization string   `json:"organization,omitempty" yaml:"organization,omitempty" toml:"organization,omitempty" jsonschema:"description=Organization sent as OpenAI-Organization"`
	Model        string   `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty" jsonschema:"description=Model selected at startup"`
	ModelPrefix  string   `json:"model_prefix,omitempty" yaml:"model_prefix,omitempty" toml:"model_prefix,omitempty" jsonschema:"description=Only model ids starting with this prefix are listed,default=gpt-"`
	Temperature  *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty" jsonschema:"minimum=0,maximum=2,default=1"`
	MaxTokens    int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty" jsonschema:"minimum=0,description=Reply token limit; 0 means the server default"`
	SystemPrompt string   `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty" toml:"system_prompt,omitempty"`
	Timeout      Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Metrics      bool     `json:"metrics,omitempty" yaml:"metrics,omitempty" toml:"metrics,omitempty" jsonschema:"description=Export Prometheus request metrics"`
}

// Duration is a time.Duration written as a string ("30s", "2m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// JSONSchema describes Duration as a string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Request timeout as a Go duration",
		Examples:    []any{"30s", "2m"},
	}
}

// Load reads a config file, choosing the decoder by extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the format named by ext (".yaml", ".yml", ".toml"
// or ".json").
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse toml: unknown key %q", undecoded[0].String())
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return &f, nil
}

// Save writes f to path in the format named by its extension.
func Save(path string, f *File) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case ".json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Discover returns the first config file found in dirs, trying each
// extension in Extensions order.
func Discover(dirs ...string) (string, bool) {
	for _, dir := range dirs {
		for _, ext := range Extensions {
			path := filepath.Join(dir, BaseName+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// DefaultDirs returns the working directory followed by the user config
// directory's chatkit folder.
func DefaultDirs() []string {
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, BaseName))
	}
	return dirs
}

// Apply overlays the non-zero fields of f onto cfg and returns the result.
func (f *File) Apply(cfg provider.Config) provider.Config {
	if f == nil {
		return cfg
	}
	if f.Provider != "" {
		cfg.Provider = f.Provider
	}
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if key := f.apiKey(); key != "" {
		cfg.APIKey = key
	}
	if f.Organization != "" {
		cfg.Organization = f.Organization
	}
	if f.Model != "" {
		cfg.Model = f.Model
	}
	if f.ModelPrefix != "" {
		cfg.ModelPrefix = f.ModelPrefix
	}
	if f.Temperature != nil {
		cfg.Temperature = *f.Temperature
	}
	if f.MaxTokens > 0 {
		cfg.MaxTokens = f.MaxTokens
	}
	if f.SystemPrompt != "" {
		cfg.SystemPrompt = f.SystemPrompt
	}
	if f.Timeout > 0 {
		cfg.Timeout = time.Duration(f.Timeout)
	}
	if f.Metrics {
		cfg = cfg.WithOption("metrics", true)
	}
	return cfg
}

// FromProvider returns the File view of cfg, for display or saving.
// The API key is never copied.
func FromProvider(cfg provider.Config) *File {
	return &File{
		Provider:     cfg.Provider,
		BaseURL:      cfg.BaseURL,
		Organization: cfg.Organization,
		Model:        cfg.Model,
		ModelPrefix:  cfg.ModelPrefix,
		Temperature:  provider.Float(cfg.Temperature),
		MaxTokens:    cfg.MaxTokens,
		SystemPrompt: cfg.SystemPrompt,
		Timeout:      Duration(cfg.Timeout),
		Metrics:      cfg.GetBoolOption("metrics", false),
	}
}

// apiKey prefers an inline key over the named environment variable.
func (f *File) apiKey() string {
	if f.APIKey != "" {
		return f.APIKey
	}
	if f.APIKeyEnv != "" {
		return os.Getenv(f.APIKeyEnv)
	}
	return ""
}

// Validate checks the file's values by applying them to the defaults.
func (f *File) Validate() error {
	if f.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s", time.Duration(f.Timeout))
	}
	if err := template.Validate(f.SystemPrompt); err != nil {
		return fmt.Errorf("system_prompt: %w", err)
	}
	cfg := f.Apply(provider.DefaultConfig().WithProvider(provider.DefaultProvider))
	return cfg.Validate()
}

// Schema returns the JSON Schema for File, for editor validation.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&File{})
	schema.Title = "chatkit configuration"
	return json.MarshalIndent(schema, "", "  ")
}
