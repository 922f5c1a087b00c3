package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	all := Credentials{OpenAI: "sk-o", Anthropic: "sk-a", Groq: "gsk-g"}

	tests := []struct {
		name      string
		creds     Credentials
		preferred ProviderName
		filter    Capability
		want      []ProviderName
	}{
		{
			name:  "Declared order without preference",
			creds: all,
			want:  []ProviderName{OpenAI, Anthropic, Groq},
		},
		{
			name:      "Preferred moves to front",
			creds:     all,
			preferred: Groq,
			want:      []ProviderName{Groq, OpenAI, Anthropic},
		},
		{
			name:      "Preferred without credential is excluded",
			creds:     Credentials{Anthropic: "sk-a", Groq: "gsk-g"},
			preferred: OpenAI,
			want:      []ProviderName{Anthropic, Groq},
		},
		{
			name:      "Blank key counts as absent",
			creds:     Credentials{OpenAI: "   ", Groq: "gsk-g"},
			preferred: OpenAI,
			want:      []ProviderName{Groq},
		},
		{
			name:   "Vision filter drops text-only providers",
			creds:  all,
			filter: VisionCapable,
			want:   []ProviderName{OpenAI, Anthropic},
		},
		{
			name:      "Preferred failing filter is dropped",
			creds:     all,
			preferred: Groq,
			filter:    VisionCapable,
			want:      []ProviderName{OpenAI, Anthropic},
		},
		{
			name:      "Unknown preferred name is ignored",
			creds:     all,
			preferred: ProviderName("mistral"),
			want:      []ProviderName{OpenAI, Anthropic, Groq},
		},
		{
			name:  "No credentials yields empty order",
			creds: Credentials{},
			want:  []ProviderName{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.creds, tt.preferred, tt.filter)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_NoDuplicates(t *testing.T) {
	creds := Credentials{OpenAI: "sk-o", Anthropic: "sk-a"}
	got := Select(creds, Anthropic, AnyCapability)

	seen := map[ProviderName]int{}
	for _, p := range got {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "provider %s listed more than once", p)
	}
	assert.Equal(t, []ProviderName{Anthropic, OpenAI}, got)
}

func TestParseProviderName(t *testing.T) {
	p, ok := ParseProviderName("anthropic")
	assert.True(t, ok)
	assert.Equal(t, Anthropic, p)

	_, ok = ParseProviderName("Anthropic")
	assert.False(t, ok)
}
