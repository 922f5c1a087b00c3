package ai

import "strings"

// Credentials is a read-only snapshot of the configured API keys, taken once per request.
type Credentials map[ProviderName]string

// Key returns the trimmed key for a provider, or "" when none is stored.
func (c Credentials) Key(name ProviderName) string {
	return strings.TrimSpace(c[name])
}

func (c Credentials) Configured(name ProviderName) bool {
	return c.Key(name) != ""
}

// Select builds the attempt order: the preferred provider first when it is configured
// and passes the filter, then every other configured provider in declared order.
// An empty result means no provider is available.
func Select(creds Credentials, preferred ProviderName, filter Capability) []ProviderName {
	order := make([]ProviderName, 0, len(declared))
	seen := make(map[ProviderName]bool, len(declared))

	add := func(p ProviderName) {
		if seen[p] || !creds.Configured(p) || !p.Supports(filter) {
			return
		}
		seen[p] = true
		order = append(order, p)
	}

	if preferred != "" {
		add(preferred)
	}
	for _, p := range declared {
		add(p)
	}
	return order
}
