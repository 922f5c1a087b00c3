package otel

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Options describes the process that emits spans.
type Options struct {
	ServiceName string
	Version     string
	Environment string
	// SampleRatio is the fraction of new traces kept, clamped to 0..1.
	// Children follow their parent's decision.
	SampleRatio float64
	// Writer receives one JSON span per line.
	Writer io.Writer
}

// InitTracer installs a global tracer provider for the generation spans and
// HTTP middleware. The returned function flushes and stops it.
func InitTracer(opts Options, logger *zap.Logger) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(opts.Writer))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.Version),
			semconv.DeploymentEnvironment(opts.Environment),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, err
	}

	ratio := min(max(opts.SampleRatio, 0), 1)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing enabled",
		zap.String("service", opts.ServiceName),
		zap.String("version", opts.Version),
		zap.Float64("sample_ratio", ratio),
	)
	return tp.Shutdown, nil
}
