package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	tchttp "github.com/Strob0t/TripCrew/internal/adapter/http"
	cfnats "github.com/Strob0t/TripCrew/internal/adapter/nats"
	"github.com/Strob0t/TripCrew/internal/adapter/natskv"
	cfotel "github.com/Strob0t/TripCrew/internal/adapter/otel"
	"github.com/Strob0t/TripCrew/internal/adapter/postgres"
	"github.com/Strob0t/TripCrew/internal/adapter/ristretto"
	"github.com/Strob0t/TripCrew/internal/adapter/s3"
	"github.com/Strob0t/TripCrew/internal/adapter/tiered"
	"github.com/Strob0t/TripCrew/internal/adapter/ws"
	"github.com/Strob0t/TripCrew/internal/config"
	"github.com/Strob0t/TripCrew/internal/domain/agent"
	"github.com/Strob0t/TripCrew/internal/logger"
	"github.com/Strob0t/TripCrew/internal/port/broadcast"
	"github.com/Strob0t/TripCrew/internal/port/cache"
	"github.com/Strob0t/TripCrew/internal/resilience"
	"github.com/Strob0t/TripCrew/internal/service"
)

// app is the wired service graph shared by serve and plan.
type app struct {
	runs    *service.RunService
	hub     *ws.Hub // nil outside serve
	cache   cache.Cache
	checks  map[string]tchttp.HealthCheck
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires the crew and every optional backend enabled in cfg.
// withHub adds the WebSocket hub for live progress. logs is the closer of
// the installed logger; its drop counts are exported when metrics are on.
func buildApp(ctx context.Context, cfg *config.Config, logs logger.Closer, withHub bool) (_ *app, err error) {
	a := &app{checks: make(map[string]tchttp.HealthCheck)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// --- Telemetry ---
	shutdownOTEL, err := cfotel.Setup(ctx, cfotel.Config{
		Enabled:     cfg.OTEL.Enabled,
		Endpoint:    cfg.OTEL.Endpoint,
		ServiceName: cfg.OTEL.ServiceName,
		Insecure:    cfg.OTEL.Insecure,
		SampleRate:  cfg.OTEL.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := shutdownOTEL(context.Background()); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	})
	var metrics *cfotel.Metrics
	if cfg.OTEL.Enabled {
		if metrics, err = cfotel.NewMetrics(); err != nil {
			return nil, fmt.Errorf("otel metrics: %w", err)
		}
		if src, ok := logs.(logger.DropSource); ok {
			if err := metrics.ObserveLogDrops(src); err != nil {
				return nil, fmt.Errorf("otel log metrics: %w", err)
			}
		}
	}

	// --- Crew ---
	client, llmHealth, err := newLLMClient(ctx, cfg, metrics)
	if err != nil {
		return nil, err
	}
	if llmHealth != nil {
		a.checks["llm"] = llmHealth
	}

	defs, err := agent.Load(cfg.Crew.AgentsFile)
	if err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}

	var hub broadcast.Broadcaster
	if withHub {
		a.hub = ws.NewHub(originPatterns(cfg.Server.CORSOrigin)...)
		a.closers = append(a.closers, a.hub.Close)
		hub = a.hub
	}

	crew := service.NewCrewService(client, defs, cfg.Crew.Destination, service.NewSequentialExecutor(hub))
	a.runs = service.NewRunService(crew, resilience.NewLimiter(cfg.Crew.MaxConcurrentRuns), hub)
	a.runs.SetMetrics(metrics)

	// --- Cache (L1 always, L2 with NATS) ---
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	a.closers = append(a.closers, l1.Close)
	a.cache = l1

	// --- NATS ---
	if cfg.NATS.URL != "" {
		queue, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.closers = append(a.closers, func() { _ = queue.Close() })
		a.runs.SetQueue(queue)
		a.checks["nats"] = func(context.Context) error {
			if !queue.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}

		kv, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return nil, fmt.Errorf("nats kv: %w", err)
		}
		tc := tiered.New(l1, natskv.New(kv), cfg.Cache.TTL)
		if metrics != nil {
			if err := metrics.ObserveCache(tc); err != nil {
				return nil, fmt.Errorf("otel cache metrics: %w", err)
			}
		}
		a.cache = tc
	}
	a.runs.SetCache(a.cache, cfg.Cache.TTL)

	// --- PostgreSQL ---
	if cfg.Postgres.DSN != "" {
		store, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
		a.runs.SetStore(store)
		a.checks["postgres"] = store.Ping
	}

	// --- Plan export ---
	if cfg.Artifact.Endpoint != "" {
		store, err := s3.New(cfg.Artifact)
		if err != nil {
			return nil, fmt.Errorf("artifact store: %w", err)
		}
		a.runs.SetArtifacts(store)
	}

	slog.Info("crew ready",
		"destination", cfg.Crew.Destination,
		"max_concurrent_runs", cfg.Crew.MaxConcurrentRuns,
		"history", cfg.Postgres.DSN != "",
		"events", cfg.NATS.URL != "",
		"export", cfg.Artifact.Endpoint != "",
	)
	return a, nil
}

// originPatterns turns the configured CORS origin into a WebSocket origin
// pattern (host only).
func originPatterns(origin string) []string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
