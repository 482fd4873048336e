// Package tracing holds the process-wide tracer and the OpenTelemetry SDK
// setup.
package tracing

import (
	"context"
	"fmt"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "basicfit"

var GlobalTracer = otel.Tracer(serviceName)

// SetupParams configures the exporter. An empty Endpoint leaves the SDK
// defaults (OTEL_EXPORTER_OTLP_* environment variables) in charge.
type SetupParams struct {
	Enabled  bool
	Endpoint string
	Insecure bool
}

// Setup configures the OpenTelemetry SDK and returns its shutdown func.
// When tracing is disabled the returned func is a no-op and the global
// tracer stays the no-op default.
func Setup(params SetupParams) (func(), error) {
	if !params.Enabled {
		return func() {}, nil
	}

	opts := []otelconfig.Option{
		otelconfig.WithServiceName(serviceName),
		otelconfig.WithMetricsEnabled(false),
	}
	if params.Endpoint != "" {
		opts = append(opts, otelconfig.WithExporterEndpoint(params.Endpoint))
	}
	if params.Insecure {
		opts = append(opts, otelconfig.WithExporterInsecure(true))
	}

	shutdown, err := otelconfig.ConfigureOpenTelemetry(opts...)
	if err != nil {
		return nil, fmt.Errorf("configure opentelemetry: %w", err)
	}
	return shutdown, nil
}

// Start opens a span on the global tracer.
func Start(ctx context.Context, name string) (context.Context, trace.Span) {
	return GlobalTracer.Start(ctx, name)
}

// EndSpanWithErrCheck records err on the span, if any, and ends it.
func EndSpanWithErrCheck(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}
