package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/internal/store/model"
	"go.uber.org/zap"
)

// PreferredKey is the site setting holding the preferred provider name.
const PreferredKey = "ai.preferred_provider"

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyKey        = errors.New("api key must not be empty")
)

// Key sources reported by List.
const (
	SourceStored = "stored"
	SourceConfig = "config"
)

// ProviderStatus is the masked, display-safe view of one provider's configuration.
type ProviderStatus struct {
	Provider   ai.ProviderName `json:"provider"`
	Configured bool            `json:"configured"`
	MaskedKey  string          `json:"masked_key,omitempty"`
	Source     string          `json:"source,omitempty"`
	Vision     bool            `json:"vision"`
	Preferred  bool            `json:"preferred"`
}

// Service manages provider credentials and the preferred provider.
// It also serves as the ai.SettingsSource read once per generation.
type Service interface {
	Snapshot(ctx context.Context) (ai.SiteSettings, error)
	List(ctx context.Context) ([]ProviderStatus, error)
	SetKey(ctx context.Context, name ai.ProviderName, key string) error
	ClearKey(ctx context.Context, name ai.ProviderName) error
	// SetPreferred stores the preferred provider; an empty name clears it.
	SetPreferred(ctx context.Context, name ai.ProviderName) error
}

type service struct {
	logger   *zap.Logger
	repo     store.Repository
	defaults ai.SiteSettings
}

// NewService returns a settings service. defaults carries keys and the preferred
// provider from static configuration; stored values take precedence over them.
func NewService(logger *zap.Logger, repo store.Repository, defaults ai.SiteSettings) Service {
	return &service{
		logger:   logger,
		repo:     repo,
		defaults: defaults,
	}
}

func (s *service) Snapshot(ctx context.Context) (ai.SiteSettings, error) {
	creds, _, err := s.credentials(ctx)
	if err != nil {
		return ai.SiteSettings{}, err
	}
	preferred, err := s.preferred(ctx)
	if err != nil {
		return ai.SiteSettings{}, err
	}
	return ai.SiteSettings{Credentials: creds, Preferred: preferred}, nil
}

func (s *service) List(ctx context.Context) ([]ProviderStatus, error) {
	creds, sources, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	preferred, err := s.preferred(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProviderStatus, 0, len(ai.Providers()))
	for _, name := range ai.Providers() {
		st := ProviderStatus{
			Provider:   name,
			Configured: creds.Configured(name),
			Vision:     name.Supports(ai.VisionCapable),
			Preferred:  name == preferred,
		}
		if st.Configured {
			st.MaskedKey = Mask(creds.Key(name))
			st.Source = sources[name]
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *service) SetKey(ctx context.Context, name ai.ProviderName, key string) error {
	if _, ok := ai.ParseProviderName(string(name)); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.repo.Credentials().Upsert(ctx, &model.Credential{Provider: string(name), APIKey: key}); err != nil {
		return fmt.Errorf("failed to store key for %s: %w", name, err)
	}
	s.logger.Info("Provider key updated", zap.String("provider", string(name)))
	return nil
}

func (s *service) ClearKey(ctx context.Context, name ai.ProviderName) error {
	if _, ok := ai.ParseProviderName(string(name)); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if err := s.repo.Credentials().Delete(ctx, string(name)); err != nil {
		return fmt.Errorf("failed to clear key for %s: %w", name, err)
	}
	s.logger.Info("Provider key cleared", zap.String("provider", string(name)))
	return nil
}

func (s *service) SetPreferred(ctx context.Context, name ai.ProviderName) error {
	if name != "" {
		if _, ok := ai.ParseProviderName(string(name)); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
	}
	if err := s.repo.Settings().Set(ctx, PreferredKey, string(name)); err != nil {
		return fmt.Errorf("failed to store preferred provider: %w", err)
	}
	s.logger.Info("Preferred provider updated", zap.String("provider", string(name)))
	return nil
}

func (s *service) credentials(ctx context.Context) (ai.Credentials, map[ai.ProviderName]string, error) {
	creds := ai.Credentials{}
	sources := map[ai.ProviderName]string{}
	for name, key := range s.defaults.Credentials {
		if strings.TrimSpace(key) != "" {
			creds[name] = key
			sources[name] = SourceConfig
		}
	}

	stored, err := s.repo.Credentials().List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	for _, c := range stored {
		name, ok := ai.ParseProviderName(c.Provider)
		if !ok || strings.TrimSpace(c.APIKey) == "" {
			continue
		}
		creds[name] = c.APIKey
		sources[name] = SourceStored
	}
	return creds, sources, nil
}

func (s *service) preferred(ctx context.Context) (ai.ProviderName, error) {
	value, err := s.repo.Settings().Get(ctx, PreferredKey)
	if errors.Is(err, store.ErrNotFound) {
		return s.defaults.Preferred, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preferred provider: %w", err)
	}
	if value == "" {
		return "", nil
	}
	name, ok := ai.ParseProviderName(value)
	if !ok {
		s.logger.Warn("Ignoring unknown preferred provider", zap.String("value", value))
		return "", nil
	}
	return name, nil
}

// Mask hides all but the edges of an API key.
func Mask(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "..." + key[len(key)-4:]
}
