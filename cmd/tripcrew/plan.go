package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Strob0t/TripCrew/internal/config"
	"github.com/Strob0t/TripCrew/internal/domain/run"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
	"github.com/Strob0t/TripCrew/internal/logger"
)

type planFlags struct {
	travelType string
	interests  []string
	season     string
	duration   int
	budget     string
	runID      string
	format     string
	out        string
}

func newPlanCmd(load loadFunc) *cobra.Command {
	var f planFlags
	defaults := trip.Defaults()

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run the crew once and print the four plan sections",
		Example: `  tripcrew plan --travel-type Cultural --interest History --interest Food \
      --season Spring --duration 5 --budget '$1000-$2000'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.format != "markdown" && f.format != "json" {
				return fmt.Errorf("--format must be markdown or json, got %q", f.format)
			}
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := ensureAPIKey(cfg, os.Stdin, os.Stderr); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPlan(ctx, cfg, closer, &f, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.travelType, "travel-type", string(defaults.TravelType), "one of "+join(trip.TravelTypes))
	fl.StringSliceVar(&f.interests, "interest", nil, "interest, repeatable; any of "+strings.Join(trip.Interests, ", "))
	fl.StringVar(&f.season, "season", string(defaults.Season), "one of "+join(trip.Seasons))
	fl.IntVar(&f.duration, "duration", trip.DefaultDuration, fmt.Sprintf("trip length in days (%d-%d)", trip.MinDuration, trip.MaxDuration))
	fl.StringVar(&f.budget, "budget", string(defaults.Budget), "one of "+join(trip.Budgets))
	fl.StringVar(&f.runID, "run-id", "", "run id (UUID, generated when empty)")
	fl.StringVar(&f.format, "format", "markdown", "output format: markdown or json")
	fl.StringVarP(&f.out, "output", "o", "", "write the plan to this file instead of stdout")
	return cmd
}

func runPlan(ctx context.Context, cfg *config.Config, logs logger.Closer, f *planFlags, stdout io.Writer) error {
	a, err := buildApp(ctx, cfg, logs, false)
	if err != nil {
		return err
	}
	defer a.Close()

	prefs := trip.Preferences{
		TravelType: trip.TravelType(f.travelType),
		Interests:  f.interests,
		Season:     trip.Season(f.season),
		Duration:   f.duration,
		Budget:     trip.Budget(f.budget),
	}

	fmt.Fprintln(os.Stderr, "🤖 AI Agents are working on your perfect trip...")
	rec, err := a.runs.Plan(ctx, f.runID, prefs)
	if err != nil {
		return err
	}

	w := stdout
	if f.out != "" {
		file, err := os.Create(f.out) //nolint:gosec // G304: path is the operator's own flag
		if err != nil {
			return fmt.Errorf("create %s: %w", f.out, err)
		}
		defer func() { _ = file.Close() }()
		w = file
	}
	if err := writePlan(w, rec, f.format); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✅ Trip planning completed! Enjoy your journey! (run %s, %s)\n", rec.ID, rec.Duration().Round(time.Millisecond))
	return nil
}

func writePlan(w io.Writer, rec *run.Record, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	_, err := io.WriteString(w, rec.Document())
	return err
}

// ensureAPIKey prompts for the provider key when it is missing and stdin is
// a terminal. The key is kept in memory only.
func ensureAPIKey(cfg *config.Config, in *os.File, prompt io.Writer) error {
	var dst *string
	switch cfg.LLM.Provider {
	case config.ProviderGroq:
		dst = &cfg.LLM.GroqAPIKey
	case config.ProviderGemini:
		dst = &cfg.LLM.GeminiAPIKey
	default:
		return nil
	}
	if *dst != "" {
		return nil
	}
	fd := int(in.Fd()) //nolint:gosec // G115: fd fits in int
	if !term.IsTerminal(fd) {
		return nil // newLLMClient reports the missing key
	}

	fmt.Fprintf(prompt, "%s API key: ", cfg.LLM.Provider)
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return fmt.Errorf("read api key: %w", err)
	}
	*dst = strings.TrimSpace(string(key))
	if *dst == "" {
		return errors.New("an API key is required")
	}
	return nil
}

func join[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
