package otel

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Strob0t/TripCrew/internal/port/llm"
)

// HTTPMiddleware returns a chi-compatible middleware that creates spans for HTTP requests.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName)
	}
}

// LLMMiddleware traces and counts every language-model call.
func LLMMiddleware(m *Metrics) llm.Middleware {
	return func(next llm.Client) llm.Client {
		return &tracedClient{next: next, m: m}
	}
}

type tracedClient struct {
	next llm.Client
	m    *Metrics
}

func (c *tracedClient) Name() string { return c.next.Name() }

func (c *tracedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.client", c.next.Name()),
			attribute.Int("llm.prompt_bytes", len(req.System)+len(req.Prompt)),
		),
	)
	start := time.Now()
	out, err := c.next.Complete(ctx, req)

	if c.m != nil {
		attrs := metric.WithAttributes(
			attribute.String("llm.client", c.next.Name()),
			attribute.Bool("error", err != nil),
		)
		c.m.LLMCalls.Add(ctx, 1, attrs)
		c.m.LLMDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	span.SetAttributes(attribute.Int("llm.output_bytes", len(out)))
	EndSpan(span, err)
	return out, err
}
