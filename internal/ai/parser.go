package ai

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Schema names the fields a feature expects back from a provider.
// Fallback receives the whole text when the reply is not a JSON object.
type Schema struct {
	Fields   []string
	Fallback string
}

// Result is the normalized output of a generation: named string fields.
type Result struct {
	Provider ProviderName      `json:"provider"`
	Fields   map[string]string `json:"fields"`
}

func (r Result) Get(name string) string {
	return r.Fields[name]
}

// A language tag is only recognised when a line break follows it.
var fence = regexp.MustCompile("(?s)^```(?:[A-Za-z0-9_-]*[ \t]*\r?\n)?(.*?)\r?\n?```$")

// StripCodeFence removes one surrounding markdown code fence, if present.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// Parse never fails: it always yields a record with every schema field present,
// possibly empty, so the caller can apply its own acceptance rule.
func Parse(raw string, schema Schema) Result {
	text := StripCodeFence(raw)
	res := Result{Fields: make(map[string]string, len(schema.Fields)+1)}
	for _, f := range schema.Fields {
		res.Fields[f] = ""
	}
	if schema.Fallback != "" {
		res.Fields[schema.Fallback] = ""
	}

	if len(schema.Fields) > 0 && gjson.Valid(text) {
		if parsed := gjson.Parse(text); parsed.IsObject() {
			for _, f := range schema.Fields {
				res.Fields[f] = strings.TrimSpace(parsed.Get(f).String())
			}
			return res
		}
	}

	if schema.Fallback != "" {
		res.Fields[schema.Fallback] = text
	}
	return res
}
