package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TripCrew/internal/adapter/postgres"
	"github.com/Strob0t/TripCrew/internal/config"
)

var errNoHistory = errors.New("run history is disabled (set DATABASE_URL)")

func newRunsCmd(load loadFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			return withStore(cmd.Context(), cfg, func(store *postgres.Store) error {
				recs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tSTATUS\tTRAVEL\tSEASON\tDAYS\tBUDGET\tCREATED")
				for i := range recs {
					p := recs[i].Preferences
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
						recs[i].ID, recs[i].Status, p.TravelType, p.Season, p.Duration, p.Budget,
						recs[i].CreatedAt.Local().Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored run as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			return withStore(cmd.Context(), cfg, func(store *postgres.Store) error {
				rec, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), rec.Document())
				return err
			})
		},
	})
	return cmd
}

func withStore(ctx context.Context, cfg *config.Config, fn func(*postgres.Store) error) error {
	if cfg.Postgres.DSN == "" {
		return errNoHistory
	}
	store, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()
	return fn(store)
}
