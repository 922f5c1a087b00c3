package groq

import (
	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/ai/openai"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

func init() {
	ai.Register(ai.Groq, NewAdapter)
}

// NewAdapter reuses the OpenAI adapter against Groq's compatible endpoint.
// Groq is registered as text-only, so prompts carrying an image are refused.
func NewAdapter(config ai.ProviderConfig) (ai.Provider, error) {
	return openai.NewCompatible(ai.Groq, config, openai.Defaults{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Vision:  ai.Groq.Supports(ai.VisionCapable),
	}), nil
}
