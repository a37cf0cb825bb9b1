package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"orderlens/internal/config"
)

const (
	ServiceName    = "orderlens"
	ServiceVersion = "1.0.0"
	tracerName     = "orderlens"
)

// Telemetry holds the tracer used to wrap pipeline stages in spans.
// When tracing is disabled the tracer is a no-op and Shutdown does nothing.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
	logger         *slog.Logger
}

// InitializeTelemetry sets up tracing according to configuration.
// A batch pipeline run is a single trace with one span per stage.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.EnableTracing || cfg.TraceExporter == "none" {
		return &Telemetry{
			Tracer: noop.NewTracerProvider().Tracer(tracerName),
			logger: logger,
		}, nil
	}

	ctx := context.Background()

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	logger.InfoContext(ctx, "tracing initialized",
		slog.String("exporter", cfg.TraceExporter))

	return &Telemetry{
		tracerProvider: tp,
		Tracer:         tp.Tracer(tracerName, trace.WithInstrumentationVersion(ServiceVersion)),
		logger:         logger,
	}, nil
}

// StartStage starts a span named after a pipeline stage.
func (t *Telemetry) StartStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.Tracer.Start(ctx, stage,
		trace.WithAttributes(attribute.String("pipeline.stage", stage)))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes pending spans. Safe to call on a no-op Telemetry.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.tracerProvider == nil {
		return nil
	}
	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}
	t.logger.InfoContext(ctx, "tracing shutdown complete")
	return nil
}
