package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cfotel "github.com/Strob0t/TripCrew/internal/adapter/otel"
	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/run"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
	"github.com/Strob0t/TripCrew/internal/logger"
	"github.com/Strob0t/TripCrew/internal/port/artifact"
	"github.com/Strob0t/TripCrew/internal/port/broadcast"
	"github.com/Strob0t/TripCrew/internal/port/cache"
	"github.com/Strob0t/TripCrew/internal/port/database"
	"github.com/Strob0t/TripCrew/internal/port/messagequeue"
	"github.com/Strob0t/TripCrew/internal/resilience"
)

const (
	runCachePrefix  = "run:"
	sideEffectLimit = 10 * time.Second
)

// RunService admits plan requests, runs the crew and keeps the resulting
// records. Cache, store, queue and artifact store are optional; failures in
// any of them are logged and never fail a run.
type RunService struct {
	crew    *CrewService
	limiter *resilience.Limiter
	hub     broadcast.Broadcaster

	cache     cache.Cache
	cacheTTL  time.Duration
	store     database.RunStore
	queue     messagequeue.Publisher
	artifacts artifact.Store
	metrics   *cfotel.Metrics

	// active holds the ids of runs executing in this process.
	active sync.Map

	now func() time.Time
}

// NewRunService creates a RunService. A nil limiter admits every run.
func NewRunService(crew *CrewService, limiter *resilience.Limiter, hub broadcast.Broadcaster) *RunService {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &RunService{crew: crew, limiter: limiter, hub: hub, now: time.Now}
}

// SetCache keeps run records in c for ttl so result pages load without the store.
func (s *RunService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetStore enables durable run history.
func (s *RunService) SetStore(st database.RunStore) { s.store = st }

// SetQueue enables run completion events.
func (s *RunService) SetQueue(q messagequeue.Publisher) { s.queue = q }

// SetArtifacts enables markdown plan exports.
func (s *RunService) SetArtifacts(a artifact.Store) { s.artifacts = a }

// SetMetrics sets the OTEL metric instruments.
func (s *RunService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// InFlight returns the number of runs currently executing.
func (s *RunService) InFlight() int64 { return s.limiter.InFlight() }

// Plan runs the crew for prefs under run id (generated when empty). Invalid
// preferences or a malformed id wrap domain.ErrValidation. An id that is
// already running or recorded wraps domain.ErrConflict. A failed run is
// still recorded, without a result.
func (s *RunService) Plan(ctx context.Context, id string, prefs trip.Preferences) (*run.Record, error) { //nolint:gocritic // hugeParam
	prefs = prefs.Normalize()
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: run id must be a UUID", domain.ErrValidation)
	}
	if err := s.claim(ctx, id); err != nil {
		return nil, err
	}
	defer s.active.Delete(id)

	ctx = logger.WithRunID(ctx, id)
	rec := &run.Record{
		ID:          id,
		Preferences: prefs,
		Provider:    s.crew.Provider(),
		Destination: s.crew.Destination(),
		CreatedAt:   s.now().UTC(),
	}

	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1)
	}
	ctx, span := cfotel.StartRunSpan(ctx, id, rec.Provider, rec.Destination)
	s.hub.BroadcastEvent(ctx, broadcast.EventRunStarted, broadcast.RunEvent{RunID: id, Status: "running"})
	slog.InfoContext(ctx, "run started",
		"travel_type", prefs.TravelType, "season", prefs.Season, "duration", prefs.Duration, "budget", prefs.Budget)

	err := s.limiter.Run(ctx, func() error {
		result, err := s.crew.Run(ctx, prefs)
		rec.Result = result
		return err
	})
	cfotel.EndSpan(span, err)

	rec.CompletedAt = s.now().UTC()
	if err != nil {
		rec.Status = run.StatusFailed
		rec.Result = nil
	} else {
		rec.Status = run.StatusCompleted
	}

	s.finish(ctx, rec, err)

	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return rec, nil
}

// claim reserves id for one run. The reservation is released by the caller;
// a recorded run keeps the id taken through the cache or the store.
func (s *RunService) claim(ctx context.Context, id string) error {
	if _, running := s.active.LoadOrStore(id, struct{}{}); running {
		return fmt.Errorf("run %s is already running: %w", id, domain.ErrConflict)
	}
	_, err := s.Get(ctx, id)
	switch {
	case err == nil:
		s.active.Delete(id)
		return fmt.Errorf("run %s already exists: %w", id, domain.ErrConflict)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		// The store rejects duplicate ids on save, so a lookup failure
		// does not block the run.
		slog.WarnContext(ctx, "run id lookup failed", "run_id", id, "error", err)
		return nil
	}
}

// finish records the outcome everywhere it is kept. Side effects outlive
// the caller's context so a disconnected client still leaves a record.
func (s *RunService) finish(ctx context.Context, rec *run.Record, runErr error) {
	if s.metrics != nil {
		s.metrics.RecordRun(ctx, rec.Provider, runErr == nil, rec.Duration())
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectLimit)
	defer cancel()

	s.cachePut(sctx, rec)

	if s.store != nil {
		if err := s.store.SaveRun(sctx, rec); err != nil {
			slog.WarnContext(ctx, "save run failed", "error", err)
		}
	}

	if runErr == nil && s.artifacts != nil {
		if err := s.artifacts.Put(sctx, artifact.PlanKey(rec.ID), "text/markdown; charset=utf-8", []byte(rec.Document())); err != nil {
			slog.WarnContext(ctx, "export plan failed", "error", err)
		}
	}

	s.publish(sctx, rec, runErr)

	if runErr != nil {
		slog.ErrorContext(ctx, "run failed", "duration_ms", rec.Duration().Milliseconds(), "error", runErr)
		s.hub.BroadcastEvent(ctx, broadcast.EventRunFailed, broadcast.RunEvent{RunID: rec.ID, Status: string(rec.Status)})
		return
	}
	slog.InfoContext(ctx, "run completed", "duration_ms", rec.Duration().Milliseconds())
	s.hub.BroadcastEvent(ctx, broadcast.EventRunCompleted, broadcast.RunEvent{RunID: rec.ID, Status: string(rec.Status)})
}

func (s *RunService) publish(ctx context.Context, rec *run.Record, runErr error) {
	if s.queue == nil {
		return
	}
	payload := messagequeue.RunEventPayload{
		RunID:       rec.ID,
		Status:      string(rec.Status),
		Provider:    rec.Provider,
		Destination: rec.Destination,
		TravelType:  string(rec.Preferences.TravelType),
		Season:      string(rec.Preferences.Season),
		Duration:    rec.Preferences.Duration,
		Budget:      string(rec.Preferences.Budget),
		DurationMS:  rec.Duration().Milliseconds(),
	}
	subject := messagequeue.SubjectRunCompleted
	if runErr != nil {
		subject = messagequeue.SubjectRunFailed
		var execErr *ExecutionError
		if errors.As(runErr, &execErr) {
			payload.FailedTask = string(execErr.Task)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish run event failed", "subject", subject, "error", err)
	}
}

func (s *RunService) cachePut(ctx context.Context, rec *run.Record) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, runCachePrefix+rec.ID, data, s.cacheTTL); err != nil {
		slog.WarnContext(ctx, "cache run failed", "run_id", rec.ID, "error", err)
	}
}

// Get returns a run from the cache or the store, or domain.ErrNotFound.
func (s *RunService) Get(ctx context.Context, id string) (*run.Record, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, runCachePrefix+id); err == nil && ok {
			var rec run.Record
			if err := json.Unmarshal(data, &rec); err == nil {
				return &rec, nil
			}
			slog.WarnContext(ctx, "corrupt cached run", "run_id", id)
		}
	}
	if s.store == nil {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	rec, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, rec)
	return rec, nil
}

// List returns recent runs, newest first. Without a store it returns none.
func (s *RunService) List(ctx context.Context, limit int) ([]run.Record, error) {
	if s.store == nil {
		return []run.Record{}, nil
	}
	return s.store.ListRuns(ctx, limit)
}
