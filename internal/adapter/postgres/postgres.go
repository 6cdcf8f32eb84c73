// Package postgres keeps the run history in PostgreSQL. Open connects the
// pool; the schema is managed by the goose migrations embedded below.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Strob0t/TripCrew/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to cfg.DSN and returns a Store owning the pool. The caller
// closes it with Store.Close.
func Open(ctx context.Context, cfg config.Postgres) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheck > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheck
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// Ping reports whether the database answers. It backs the readiness check.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Migrate applies every pending trip_runs migration.
func (s *Store) Migrate(ctx context.Context) error {
	return s.withMigrator(func(p *goose.Provider) error {
		if _, err := p.Up(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Rollback undoes the latest steps migrations. It stops early once the
// schema is empty.
func (s *Store) Rollback(ctx context.Context, steps int) error {
	return s.withMigrator(func(p *goose.Provider) error {
		for range steps {
			v, err := p.GetDBVersion(ctx)
			if err != nil {
				return fmt.Errorf("schema version: %w", err)
			}
			if v == 0 {
				return nil
			}
			if _, err := p.Down(ctx); err != nil {
				return fmt.Errorf("roll back version %d: %w", v, err)
			}
		}
		return nil
	})
}

// SchemaVersion returns the latest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	var v int64
	err := s.withMigrator(func(p *goose.Provider) error {
		var err error
		if v, err = p.GetDBVersion(ctx); err != nil {
			return fmt.Errorf("schema version: %w", err)
		}
		return nil
	})
	return v, err
}

// withMigrator runs fn with a goose provider that borrows connections from
// the store's pool.
func (s *Store) withMigrator(fn func(*goose.Provider) error) error {
	fsys, err := migrationFS()
	if err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer func() { _ = db.Close() }()

	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	return fn(p)
}

func migrationFS() (fs.FS, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return fsys, nil
}
