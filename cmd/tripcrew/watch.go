package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfnats "github.com/Strob0t/TripCrew/internal/adapter/nats"
	"github.com/Strob0t/TripCrew/internal/port/messagequeue"
)

func newWatchCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print run completion events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			if cfg.NATS.URL == "" {
				return errors.New("run events are disabled (set NATS_URL)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			queue, err := cfnats.Connect(ctx, cfg.NATS.URL)
			if err != nil {
				return err
			}
			defer func() { _ = queue.Close() }()

			out := cmd.OutOrStdout()
			unsubscribe, err := queue.Subscribe(ctx, "trips.run.>", func(_ context.Context, subject string, data []byte) error {
				return printEvent(out, subject, data)
			})
			if err != nil {
				return err
			}
			defer unsubscribe()

			<-ctx.Done()
			return nil
		},
	}
}

func printEvent(w io.Writer, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		return err
	}
	var p messagequeue.RunEventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode %s: %w", subject, err)
	}
	line := fmt.Sprintf("%s  %-9s  %s/%s/%dd/%s  %dms", p.RunID, p.Status, p.TravelType, p.Season, p.Duration, p.Budget, p.DurationMS)
	if p.FailedTask != "" {
		line += "  failed at " + p.FailedTask
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
