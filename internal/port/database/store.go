// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/TripCrew/internal/domain/run"
)

// RunStore is the port interface for run history.
type RunStore interface {
	SaveRun(ctx context.Context, rec *run.Record) error
	GetRun(ctx context.Context, id string) (*run.Record, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]run.Record, error)
}
