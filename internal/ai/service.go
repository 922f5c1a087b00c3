package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SiteSettings is the per-request view of the stored AI settings.
type SiteSettings struct {
	Credentials Credentials
	Preferred   ProviderName
}

// SettingsSource yields a fresh settings snapshot; it is read once per generation.
type SettingsSource interface {
	Snapshot(ctx context.Context) (SiteSettings, error)
}

// Recorder persists finished generations. Implementations must not block.
type Recorder interface {
	Record(g *Generation)
}

type GenerateRequest struct {
	Feature      string
	Preferred    ProviderName
	Instructions string
	Messages     []Message
	Image        *Image
	MaxTokens    int
	Capability   Capability
	Schema       Schema
	Accept       Accept
}

// Generation is the outcome of one call to Generate.
type Generation struct {
	ID        string        `json:"id"`
	Feature   string        `json:"feature"`
	Result    *Result       `json:"result,omitempty"`
	Attempts  []Attempt     `json:"attempts"`
	Latency   time.Duration `json:"latency"`
	Exhausted bool          `json:"exhausted"`
	CreatedAt time.Time     `json:"created_at"`
}

// Service is the entry point features use to run a fallback chain.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)
}

type Option func(*service)

// WithSourceFunc replaces the registry-backed adapter source.
func WithSourceFunc(fn func(SiteSettings) ProviderSource) Option {
	return func(s *service) { s.sourceFn = fn }
}

func WithObserver(o Observer) Option {
	return func(s *service) { s.observer = o }
}

// WithRecorder adds a recorder; it may be given more than once.
func WithRecorder(r Recorder) Option {
	return func(s *service) { s.recorders = append(s.recorders, r) }
}

type service struct {
	logger    *zap.Logger
	settings  SettingsSource
	sourceFn  func(SiteSettings) ProviderSource
	observer  Observer
	recorders []Recorder
}

// NewService wires the selector, orchestrator and adapters together. providers holds
// the static per-provider configuration (model, base URL, timeout); keys come from settings.
func NewService(logger *zap.Logger, settings SettingsSource, providers map[ProviderName]ProviderConfig, opts ...Option) Service {
	s := &service{
		logger:   logger,
		settings: settings,
		observer: nopObserver{},
	}
	s.sourceFn = func(site SiteSettings) ProviderSource {
		return FactorySource{Credentials: site.Credentials, Settings: providers}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	site, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read AI settings: %w", err)
	}

	preferred := req.Preferred
	if preferred == "" {
		preferred = site.Preferred
	}

	order := Select(site.Credentials, preferred, req.Capability)
	gen := &Generation{
		ID:        uuid.NewString(),
		Feature:   req.Feature,
		CreatedAt: time.Now(),
	}

	s.logger.Debug("Starting generation",
		zap.String("id", gen.ID),
		zap.String("feature", req.Feature),
		zap.String("preferred", string(preferred)),
		zap.Any("order", order),
	)

	start := time.Now()
	orch := NewOrchestrator(s.sourceFn(site), s.logger, s.observer)
	res, attempts, err := orch.Execute(ctx, Chain{
		Feature: req.Feature,
		Order:   order,
		Prompt: Prompt{
			System:    req.Instructions,
			Messages:  req.Messages,
			Image:     req.Image,
			MaxTokens: req.MaxTokens,
		},
		Schema: req.Schema,
		Accept: req.Accept,
	})
	gen.Latency = time.Since(start)
	gen.Attempts = attempts
	gen.Result = res
	gen.Exhausted = IsExhausted(err)

	if err == nil || gen.Exhausted {
		for _, r := range s.recorders {
			r.Record(gen)
		}
	}
	if err != nil {
		return gen, err
	}
	return gen, nil
}
