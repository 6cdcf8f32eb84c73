package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Strob0t/TripCrew/internal/adapter/fakellm"
	"github.com/Strob0t/TripCrew/internal/logger"
	"github.com/Strob0t/TripCrew/internal/port/cache"
	"github.com/Strob0t/TripCrew/internal/port/llm"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestLLMMiddleware_PassesThrough(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	c := llm.Wrap(fakellm.New(fakellm.FailOn(2, nil)), LLMMiddleware(m))
	assert.Equal(t, "fake:echo", c.Name())

	out, err := c.Complete(context.Background(), llm.Request{Prompt: "Rome"})
	require.NoError(t, err)
	assert.Equal(t, "Rome", out)

	_, err = c.Complete(context.Background(), llm.Request{Prompt: "Rome"})
	assert.True(t, errors.Is(err, fakellm.ErrInjected))
}

func TestLLMMiddleware_NilMetrics(t *testing.T) {
	c := llm.Wrap(fakellm.New(), LLMMiddleware(nil))
	_, err := c.Complete(context.Background(), llm.Request{Prompt: "x"})
	assert.NoError(t, err)
}

type fixedDrops logger.DropCounts

func (f fixedDrops) Dropped() logger.DropCounts { return logger.DropCounts(f) }

// manualReader installs a ManualReader-backed meter provider for the test.
func manualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		_ = provider.Shutdown(context.Background())
	})
	return reader
}

// counterByAttr collects the data points of counter name keyed by attr.
func counterByAttr(t *testing.T, reader *sdkmetric.ManualReader, name, attr string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			if mt.Name != name {
				continue
			}
			sum, ok := mt.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is a counter", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key(attr))
				got[v.AsString()] = dp.Value
			}
		}
	}
	return got
}

func TestObserveLogDrops(t *testing.T) {
	reader := manualReader(t)

	m, err := NewMetrics()
	require.NoError(t, err)
	require.NoError(t, m.ObserveLogDrops(fixedDrops{Debug: 3, Info: 2}))

	got := counterByAttr(t, reader, "tripcrew.logs.dropped", "level")
	assert.Equal(t, map[string]int64{"debug": 3, "info": 2, "warn": 0}, got)
}

type fixedStats cache.Stats

func (f fixedStats) Stats() cache.Stats { return cache.Stats(f) }

func TestObserveCache(t *testing.T) {
	reader := manualReader(t)

	m, err := NewMetrics()
	require.NoError(t, err)
	require.NoError(t, m.ObserveCache(fixedStats{L1Hits: 7, L2Hits: 2, Misses: 1}))

	got := counterByAttr(t, reader, "tripcrew.cache.lookups", "result")
	assert.Equal(t, map[string]int64{"l1": 7, "l2": 2, "miss": 1}, got)
}
