package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/TripCrew/internal/adapter/postgres"
	"github.com/Strob0t/TripCrew/internal/config"
	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/run"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
	"github.com/Strob0t/TripCrew/internal/port/database"
)

var _ database.RunStore = (*postgres.Store)(nil)

// setupStore opens a migrated Store against DATABASE_URL and closes it via
// t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	store, err := postgres.Open(ctx, config.Postgres{DSN: dsn, MaxConns: 4})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func newRecord(status run.Status) *run.Record {
	now := time.Now().UTC().Truncate(time.Millisecond)
	rec := &run.Record{
		ID:     uuid.New().String(),
		Status: status,
		Preferences: trip.Preferences{
			TravelType: trip.TravelCultural,
			Interests:  []string{"History", "Art"},
			Season:     trip.SeasonSpring,
			Duration:   4,
			Budget:     trip.BudgetHigh,
		},
		Provider:    "fake:echo",
		Destination: "Paris",
		CreatedAt:   now,
		CompletedAt: now.Add(3 * time.Second),
	}
	if status == run.StatusCompleted {
		rec.Result = &run.Result{CitySelection: "a", CityResearch: "b", Itinerary: "c", Budget: "d"}
	}
	return rec
}

func TestStore_SaveAndGetRun(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := newRecord(run.StatusCompleted)
	if err := store.SaveRun(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetRun(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != run.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.Result == nil || got.Result.Itinerary != "c" {
		t.Errorf("unexpected result: %+v", got.Result)
	}
	if got.Preferences.Duration != 4 || len(got.Preferences.Interests) != 2 {
		t.Errorf("unexpected preferences: %+v", got.Preferences)
	}
	if got.Duration() != 3*time.Second {
		t.Errorf("expected 3s duration, got %v", got.Duration())
	}
}

func TestStore_FailedRunHasNoResult(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := newRecord(run.StatusFailed)
	if err := store.SaveRun(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.GetRun(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Result != nil {
		t.Errorf("failed run should have no result, got %+v", got.Result)
	}
}

func TestStore_SaveRunIsWriteOnce(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := newRecord(run.StatusCompleted)
	if err := store.SaveRun(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	again := newRecord(run.StatusFailed)
	again.ID = rec.ID
	if err := store.SaveRun(ctx, again); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := store.GetRun(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != run.StatusCompleted || got.Result == nil {
		t.Errorf("first record must survive, got status=%s result=%+v", got.Status, got.Result)
	}
}

func TestStore_GetRunNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetRun(context.Background(), uuid.New().String())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	older := newRecord(run.StatusCompleted)
	older.CreatedAt = time.Now().Add(time.Hour)
	newer := newRecord(run.StatusCompleted)
	newer.CreatedAt = time.Now().Add(2 * time.Hour)
	for _, r := range []*run.Record{older, newer} {
		if err := store.SaveRun(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	recs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(recs))
	}
	if recs[0].ID != newer.ID || recs[1].ID != older.ID {
		t.Errorf("expected newest first, got %s then %s", recs[0].ID, recs[1].ID)
	}
}

func TestStore_SchemaVersion(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	v, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v < 1 {
		t.Errorf("expected version >= 1, got %d", v)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestStore_RollbackThenMigrate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Rollback(ctx, 5); err != nil {
		t.Fatalf("rollback past the first migration: %v", err)
	}
	if v, err := store.SchemaVersion(ctx); err != nil || v != 0 {
		t.Fatalf("expected an empty schema, got version %d (%v)", v, err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.SaveRun(ctx, newRecord(run.StatusCompleted)); err != nil {
		t.Fatalf("save after re-migrating: %v", err)
	}
}
