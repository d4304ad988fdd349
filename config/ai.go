package config

import (
	"fmt"

	"github.com/kilianp07/omnidispatch/infra/llm"
)

// AIConfig lists the chat providers tried in order by the classifier and
// the advisor.
type AIConfig struct {
	Providers []llm.ProviderConfig `json:"providers"`
}

func (c *AIConfig) SetDefaults() {
	if len(c.Providers) == 0 {
		c.Providers = append([]llm.ProviderConfig(nil), llm.DefaultProviders...)
	}
}

func (c AIConfig) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("provider %q listed twice", p.Name)
		}
		seen[p.Name] = true
		if p.Model == "" {
			return fmt.Errorf("provider %q: model is required", p.Name)
		}
	}
	return nil
}

// Configured returns the providers holding an API key.
func (c AIConfig) Configured() []llm.ProviderConfig {
	var out []llm.ProviderConfig
	for _, p := range c.Providers {
		if p.APIKey != "" {
			out = append(out, p)
		}
	}
	return out
}
