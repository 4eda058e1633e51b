package openai

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/chatkit/provider"
)

func init() {
	provider.Register(providerName, newFromProviderConfig)
}

// newFromProviderConfig creates a Client from a provider.Config.
// This is the factory function registered with the provider registry.
func newFromProviderConfig(cfg provider.Config) (provider.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrInvalidRequest, err)
	}

	oaCfg := FromProviderConfig(cfg)
	if err := oaCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrInvalidRequest, err)
	}

	var opts []Option
	if cfg.GetBoolOption("metrics", false) {
		opts = append(opts, WithMetrics(NewMetrics(prometheus.DefaultRegisterer)))
	}
	return NewClientWithConfig(oaCfg, opts...), nil
}

// FromProviderConfig maps the provider-agnostic config onto Config.
func FromProviderConfig(cfg provider.Config) Config {
	out := Config{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Organization: cfg.Organization,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		ModelPrefix:  cfg.ModelPrefix,
		Timeout:      cfg.Timeout,
	}
	return out.WithDefaults()
}
