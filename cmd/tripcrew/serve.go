package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	tchttp "github.com/Strob0t/TripCrew/internal/adapter/http"
	tcmcp "github.com/Strob0t/TripCrew/internal/adapter/mcp"
	cfotel "github.com/Strob0t/TripCrew/internal/adapter/otel"
	"github.com/Strob0t/TripCrew/internal/config"
	"github.com/Strob0t/TripCrew/internal/logger"
	"github.com/Strob0t/TripCrew/internal/middleware"
)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning form, JSON API, WebSocket progress and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, closer)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logs logger.Closer) error {
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"log_level", cfg.Logging.Level,
	)

	a, err := buildApp(ctx, cfg, logs, true)
	if err != nil {
		return err
	}
	defer a.Close()

	pages, err := tchttp.NewPages()
	if err != nil {
		return err
	}
	handlers := &tchttp.Handlers{
		Runs:      a.runs,
		Pages:     pages,
		BodyLimit: cfg.Server.BodyLimit,
		Checks:    a.checks,
	}
	if err := handlers.Validate(); err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	// Middleware
	r.Use(tchttp.SecurityHeaders)
	r.Use(tchttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(tchttp.Logger)
	r.Use(chimw.Recoverer)
	if cfg.OTEL.Enabled {
		r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	}

	// Long-lived endpoints stay outside the request timeout; plan_trip
	// applies it per call.
	r.Get("/ws", a.hub.HandleWS)
	if cfg.MCP.Enabled {
		mcpServer := tcmcp.NewServer(tcmcp.ServerConfig{
			Name:       "tripcrew",
			Version:    version,
			APIKey:     cfg.MCP.APIKey,
			RunTimeout: cfg.Server.RequestTimeout,
		}, tcmcp.ServerDeps{Planner: a.runs, Runs: a.runs, Limiter: limiter})
		r.Handle("/mcp", mcpServer.Handler())
		slog.Info("mcp endpoint enabled", "path", "/mcp", "auth", cfg.MCP.APIKey != "")
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		tchttp.MountRoutes(r, handlers, tchttp.RouteOptions{
			Limiter:     limiter,
			Idempotency: middleware.Idempotency(a.cache, cfg.Cache.TTL),
		})
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server", "runs_active", a.runs.InFlight())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by Shutdown.
		a.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
