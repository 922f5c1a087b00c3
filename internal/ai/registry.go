package ai

import (
	"fmt"
	"sync"
)

type Factory func(cfg ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[ProviderName]Factory)
)

// Register binds an adapter constructor to a provider name. Adapters call it from init().
func Register(name ProviderName, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", name))
	}
	factories[name] = f
}

func Get(name ProviderName) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s", name)
	}
	return f, nil
}

// ProviderSource resolves a provider adapter for one attempt.
type ProviderSource interface {
	Provider(name ProviderName) (Provider, error)
}

// FactorySource builds adapters from the registry using a credentials snapshot
// plus static per-provider settings (model, base URL, timeout).
type FactorySource struct {
	Credentials Credentials
	Settings    map[ProviderName]ProviderConfig
}

func (s FactorySource) Provider(name ProviderName) (Provider, error) {
	f, err := Get(name)
	if err != nil {
		return nil, err
	}
	cfg := s.Settings[name]
	cfg.Name = name
	cfg.APIKey = s.Credentials.Key(name)
	return f(cfg)
}
