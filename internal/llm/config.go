// Package llm provides the hosted language-model client used by the
// accelerated answer-extraction backend.
package llm

// ModelTier selects a model by cost/quality trade-off
type ModelTier string

const (
	// TierFast is for span extraction over short passages
	TierFast ModelTier = "fast"
	// TierAccurate is for long passages or ambiguous questions
	TierAccurate ModelTier = "accurate"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for the extraction backend
type Config struct {
	Provider        Provider
	Models          map[ModelTier]string
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierFast:     "gemini-2.5-flash-lite",
			TierAccurate: "gemini-2.5-flash",
		},
		Temperature:     0,
		MaxOutputTokens: 512,
	}
}

// GetModel returns the model name for a given tier, falling back to the fast tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierFast]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := *c
	next.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return &next
}
