package infra

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "signal_relay"

// Tracer wraps the global OpenTelemetry tracer. Spans are no-ops until the
// host installs a TracerProvider.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer bound to the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(tracerName)}
}

// StartInvocation starts the root span of one relay invocation.
func (t *Tracer) StartInvocation(ctx context.Context, invocationID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "relay.invocation",
		trace.WithAttributes(attribute.String("relay.invocation_id", invocationID)),
	)
}

// StartEnrichment starts a span for the secondary API call.
func (t *Tracer) StartEnrichment(ctx context.Context, apiURL string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "relay.enrichment",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", apiURL)),
	)
}

// StartSend starts a span for the bot API call. The token is never recorded.
func (t *Tracer) StartSend(ctx context.Context, fallback bool) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "relay.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Bool("relay.fallback", fallback)),
	)
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
