// Command tripcrew serves the trip-planning crew over HTTP and runs it from
// the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TripCrew/internal/config"
	"github.com/Strob0t/TripCrew/internal/logger"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "tripcrew",
		Short:         "AI travel planning crew",
		Long:          "tripcrew runs four language-model agents that select cities, research the destination,\nbuild a day-by-day itinerary and plan the budget for a trip.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", config.DefaultConfigFile, "YAML config file")

	// load reads .env and the config file, then installs the global logger.
	load := func() (*config.Config, logger.Closer, error) {
		if err := config.LoadDotEnv(config.DefaultEnvFile); err != nil {
			return nil, nil, err
		}
		cfg, err := config.LoadFrom(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		log, closer := logger.New(cfg.Logging)
		slog.SetDefault(log)
		return cfg, closer, nil
	}

	serve := newServeCmd(load)
	root.AddCommand(
		serve,
		newPlanCmd(load),
		newRunsCmd(load),
		newMigrateCmd(load),
		newWatchCmd(load),
	)
	// "tripcrew" alone starts the server.
	root.RunE = serve.RunE
	return root
}

type loadFunc func() (*config.Config, logger.Closer, error)
