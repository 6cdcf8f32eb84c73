package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/TripCrew/internal/logger"
	"github.com/Strob0t/TripCrew/internal/port/cache"
)

const meterName = "tripcrew"

// Metrics holds all TripCrew metric instruments.
type Metrics struct {
	RunsStarted   metric.Int64Counter
	RunsCompleted metric.Int64Counter
	RunsFailed    metric.Int64Counter
	LLMCalls      metric.Int64Counter
	RunDuration   metric.Float64Histogram
	LLMDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("tripcrew.runs.started",
		metric.WithDescription("Number of crew runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("tripcrew.runs.completed",
		metric.WithDescription("Number of crew runs completed"))
	if err != nil {
		return nil, err
	}

	m.RunsFailed, err = meter.Int64Counter("tripcrew.runs.failed",
		metric.WithDescription("Number of crew runs failed"))
	if err != nil {
		return nil, err
	}

	m.LLMCalls, err = meter.Int64Counter("tripcrew.llm.calls",
		metric.WithDescription("Number of language-model calls"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("tripcrew.run.duration_seconds",
		metric.WithDescription("Crew run duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.LLMDuration, err = meter.Float64Histogram("tripcrew.llm.duration_seconds",
		metric.WithDescription("Language-model call duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun counts a finished run and its duration.
func (m *Metrics) RecordRun(ctx context.Context, provider string, ok bool, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("llm.provider", provider))
	if ok {
		m.RunsCompleted.Add(ctx, 1, attrs)
	} else {
		m.RunsFailed.Add(ctx, 1, attrs)
	}
	m.RunDuration.Record(ctx, d.Seconds(), attrs)
}

// ObserveLogDrops reports the async logger's discarded records as
// tripcrew.logs.dropped, by level.
func (m *Metrics) ObserveLogDrops(src logger.DropSource) error {
	meter := otel.Meter(meterName)
	dropped, err := meter.Int64ObservableCounter("tripcrew.logs.dropped",
		metric.WithDescription("Log records discarded because the async queue was full"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		d := src.Dropped()
		o.ObserveInt64(dropped, d.Debug, metric.WithAttributes(attribute.String("level", "debug")))
		o.ObserveInt64(dropped, d.Info, metric.WithAttributes(attribute.String("level", "info")))
		o.ObserveInt64(dropped, d.Warn, metric.WithAttributes(attribute.String("level", "warn")))
		return nil
	}, dropped)
	return err
}

// ObserveCache reports run cache lookups as tripcrew.cache.lookups, by the
// level that answered.
func (m *Metrics) ObserveCache(src cache.StatsSource) error {
	meter := otel.Meter(meterName)
	lookups, err := meter.Int64ObservableCounter("tripcrew.cache.lookups",
		metric.WithDescription("Run cache lookups by answering level"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		st := src.Stats()
		o.ObserveInt64(lookups, st.L1Hits, metric.WithAttributes(attribute.String("result", "l1")))
		o.ObserveInt64(lookups, st.L2Hits, metric.WithAttributes(attribute.String("result", "l2")))
		o.ObserveInt64(lookups, st.Misses, metric.WithAttributes(attribute.String("result", "miss")))
		return nil
	}, lookups)
	return err
}
