package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TripCrew/internal/adapter/postgres"
)

func newMigrateCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run history schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			return withStore(cmd.Context(), cfg, func(store *postgres.Store) error {
				if err := store.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			return withStore(cmd.Context(), cfg, func(store *postgres.Store) error {
				if err := store.Rollback(cmd.Context(), steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			return withStore(cmd.Context(), cfg, func(store *postgres.Store) error {
				v, err := store.SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
				return nil
			})
		},
	})
	return cmd
}
