package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "superclaude-daemon"

// Tracer wraps OpenTelemetry tracing for the daemon. Without a configured
// TracerProvider the global no-op provider is used.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer using the global TracerProvider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(tracerName)}
}

// StartSpan creates a span named "superclaude.<name>".
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "superclaude."+name, trace.WithAttributes(attrs...))
}

// Common attribute keys.
var (
	AttrExecutionID = attribute.Key("superclaude.execution.id")
	AttrModel       = attribute.Key("superclaude.model")
	AttrState       = attribute.Key("superclaude.state")
	AttrExitCode    = attribute.Key("superclaude.exit_code")
	AttrMethod      = attribute.Key("superclaude.rpc.method")
)
