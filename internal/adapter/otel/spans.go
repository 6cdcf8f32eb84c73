package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tripcrew"

// StartRunSpan starts a span covering one crew run.
func StartRunSpan(ctx context.Context, runID, provider, destination string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "crew.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("llm.provider", provider),
			attribute.String("trip.destination", destination),
		),
	)
}

// StartTaskSpan starts a span for one pipeline task within a run.
func StartTaskSpan(ctx context.Context, index int, kind, agentRole string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "crew.task",
		trace.WithAttributes(
			attribute.Int("task.index", index),
			attribute.String("task.kind", kind),
			attribute.String("agent.role", agentRole),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
