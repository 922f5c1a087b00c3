package ai

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Attempt records what happened when one provider was tried.
type Attempt struct {
	Provider ProviderName  `json:"provider"`
	Outcome  Outcome       `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Latency  time.Duration `json:"latency"`
}

// Observer is notified after every attempt. Implementations must not block.
type Observer interface {
	Attempted(feature string, a Attempt)
}

type nopObserver struct{}

func (nopObserver) Attempted(string, Attempt) {}

// Accept is a feature-local success predicate applied to a parsed result.
type Accept func(Result) bool

// Chain is one fallback run: providers are tried in Order until Accept passes.
type Chain struct {
	Feature string
	Order   []ProviderName
	Prompt  Prompt
	Schema  Schema
	Accept  Accept
}

type Orchestrator struct {
	source   ProviderSource
	logger   *zap.Logger
	observer Observer
}

func NewOrchestrator(source ProviderSource, logger *zap.Logger, observer Observer) *Orchestrator {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{source: source, logger: logger, observer: observer}
}

// Execute walks the chain sequentially. Provider failures are logged and skipped;
// only exhaustion (or a cancelled context) is returned to the caller.
func (o *Orchestrator) Execute(ctx context.Context, chain Chain) (*Result, []Attempt, error) {
	attempts := make([]Attempt, 0, len(chain.Order))

	for _, name := range chain.Order {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		a, res := o.try(ctx, name, chain)
		attempts = append(attempts, a)
		o.observer.Attempted(chain.Feature, a)

		if a.Outcome == OutcomeSuccess {
			o.logger.Debug("Provider produced accepted result",
				zap.String("feature", chain.Feature),
				zap.String("provider", string(name)),
				zap.Duration("latency", a.Latency),
			)
			return res, attempts, nil
		}

		o.logger.Warn("Provider attempt failed, falling back",
			zap.String("feature", chain.Feature),
			zap.String("provider", string(name)),
			zap.String("outcome", string(a.Outcome)),
			zap.String("error", a.Error),
		)
	}

	o.logger.Error("All providers exhausted",
		zap.String("feature", chain.Feature),
		zap.Int("attempts", len(attempts)),
	)
	return nil, attempts, &ExhaustedError{Attempts: attempts}
}

var tracer = otel.Tracer("github.com/nulzo/care-assist/internal/ai")

func (o *Orchestrator) try(ctx context.Context, name ProviderName, chain Chain) (a Attempt, res *Result) {
	start := time.Now()
	a = Attempt{Provider: name}

	ctx, span := tracer.Start(ctx, "ai.attempt", trace.WithAttributes(
		attribute.String("ai.feature", chain.Feature),
		attribute.String("ai.provider", string(name)),
	))
	defer func() {
		span.SetAttributes(attribute.String("ai.outcome", string(a.Outcome)))
		if a.Outcome != OutcomeSuccess {
			span.SetStatus(codes.Error, a.Error)
		}
		span.End()
	}()

	p, err := o.source.Provider(name)
	if err != nil {
		a.Outcome = OutcomeError
		a.Error = err.Error()
		return a, nil
	}

	raw, err := p.Call(ctx, chain.Prompt)
	a.Latency = time.Since(start)
	if err != nil {
		a.Outcome = Classify(err)
		a.Error = err.Error()
		return a, nil
	}

	parsed := Parse(raw, chain.Schema)
	parsed.Provider = name
	if chain.Accept != nil && !chain.Accept(parsed) {
		a.Outcome = OutcomeRejected
		a.Error = "parsed result failed acceptance"
		return a, nil
	}

	a.Outcome = OutcomeSuccess
	return a, &parsed
}
