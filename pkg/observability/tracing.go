package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CalculateSpan is the name of the span around every calculation.
const CalculateSpan = "sandcalc.calculate"

// Uses the global OTel tracer provider.
var tracer = otel.Tracer(instrumentationName)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCalculateSpan starts a span for one calculation.
	StartCalculateSpan(ctx context.Context, id string, decimal bool) (context.Context, trace.Span)

	// EndSpan completes a span with the outcome of the calculation,
	// recording err if there is one.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider.
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func (otelSpanManager) StartCalculateSpan(ctx context.Context, id string, decimal bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, CalculateSpan,
		trace.WithAttributes(
			attribute.String("calculation.id", id),
			attribute.Bool("calculation.decimal", decimal),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (otelSpanManager) EndSpan(span trace.Span, outcome Outcome, err error) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.String("calculation.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
