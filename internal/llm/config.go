// Package llm provides the Gemini-backed step runner for the council
// debate, plus model tier configuration.
package llm

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierStandard handles the debate steps: argumentation over a bounded context.
	TierStandard ModelTier = "standard"
	// TierAdvanced handles the final decision step, which synthesizes all 16
	// prior outputs into structured JSON.
	TierAdvanced ModelTier = "advanced"
)

// Config holds the model configuration for the council.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a tier, falling back to standard.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierStandard]
}

// WithModel returns a copy of the config with one tier overridden.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{Models: make(map[ModelTier]string, len(c.Models))}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}
