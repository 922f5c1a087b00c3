package ai

import (
	"context"
	"time"
)

type ProviderName string

const (
	OpenAI    ProviderName = "openai"
	Anthropic ProviderName = "anthropic"
	Groq      ProviderName = "groq"
)

// Capability is a filter applied when building the attempt order.
type Capability int

const (
	AnyCapability Capability = iota
	VisionCapable
)

func (c Capability) String() string {
	if c == VisionCapable {
		return "vision"
	}
	return "any"
}

// declared is the fixed fallback order after the preferred provider.
var declared = []ProviderName{OpenAI, Anthropic, Groq}

var vision = map[ProviderName]bool{
	OpenAI:    true,
	Anthropic: true,
	Groq:      false,
}

// Providers returns the supported providers in their declared order.
func Providers() []ProviderName {
	out := make([]ProviderName, len(declared))
	copy(out, declared)
	return out
}

// ParseProviderName maps a configured string onto the closed provider set.
func ParseProviderName(s string) (ProviderName, bool) {
	for _, p := range declared {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Supports reports whether the provider passes the capability filter.
func (p ProviderName) Supports(c Capability) bool {
	if c == VisionCapable {
		return vision[p]
	}
	_, ok := vision[p]
	return ok
}

// Role of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Image references the picture a vision provider should describe.
// URL is either a remote http(s) URL or a base64 data URI.
type Image struct {
	URL string `json:"url"`
}

// Prompt is the provider-neutral request handed to every adapter.
type Prompt struct {
	System    string
	Messages  []Message
	Image     *Image
	MaxTokens int
}

// Provider calls a single upstream API once and returns its raw text.
type Provider interface {
	Name() ProviderName
	Call(ctx context.Context, prompt Prompt) (string, error)
}

// ProviderConfig is everything an adapter needs to reach its upstream.
type ProviderConfig struct {
	Name    ProviderName
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Config  map[string]string
}
