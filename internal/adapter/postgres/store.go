package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/run"
)

// maxListLimit caps ListRuns regardless of the caller's limit.
const maxListLimit = 100

// Store implements database.RunStore on the trip_runs table.
type Store struct {
	pool *pgxpool.Pool
}

// SaveRun inserts a run record. A record is written once; saving an existing
// ID returns domain.ErrConflict and leaves the stored record untouched.
func (s *Store) SaveRun(ctx context.Context, rec *run.Record) error {
	prefsJSON, err := json.Marshal(rec.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	var resultJSON []byte
	if rec.Result != nil {
		if resultJSON, err = json.Marshal(rec.Result); err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}
	var completedAt *time.Time
	if !rec.CompletedAt.IsZero() {
		completedAt = &rec.CompletedAt
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO trip_runs (id, status, preferences, result, provider, destination, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, string(rec.Status), prefsJSON, resultJSON, rec.Provider, rec.Destination,
		rec.CreatedAt, completedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save run %s: %w", rec.ID, domain.ErrConflict)
	}
	return nil
}

// GetRun returns a run by ID, or domain.ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*run.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, preferences, result, provider, destination, created_at, completed_at
		 FROM trip_runs WHERE id = $1`, id)

	rec, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &rec, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]run.Record, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, preferences, result, provider, destination, created_at, completed_at
		 FROM trip_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	recs := []run.Record{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// scanRun reads one trip_runs row; pgx.Rows satisfies pgx.Row.
func scanRun(row pgx.Row) (run.Record, error) {
	var (
		rec         run.Record
		status      string
		prefsJSON   []byte
		resultJSON  []byte
		completedAt *time.Time
	)
	if err := row.Scan(&rec.ID, &status, &prefsJSON, &resultJSON, &rec.Provider, &rec.Destination,
		&rec.CreatedAt, &completedAt); err != nil {
		return rec, err
	}
	rec.Status = run.Status(status)
	if err := json.Unmarshal(prefsJSON, &rec.Preferences); err != nil {
		return rec, fmt.Errorf("unmarshal preferences: %w", err)
	}
	if len(resultJSON) > 0 {
		rec.Result = &run.Result{}
		if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
			return rec, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	if completedAt != nil {
		rec.CompletedAt = *completedAt
	}
	return rec, nil
}
