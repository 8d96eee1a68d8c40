// Package main is the factorlens command line: it runs portfolio analyses
// against live providers and maintains the response cache.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/factorlens/internal/config"
	"github.com/aristath/factorlens/internal/di"
	"github.com/aristath/factorlens/pkg/logger"
)

var verbose bool

// rootCmd is the base command for the analyze CLI
var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Portfolio exposure, risk and factor analysis",
	Long: `analyze runs the factorlens portfolio analysis from the command line.
It uses the same configuration (environment variables or .env) and data
directory as the API server, so cached provider responses are shared.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

// wire loads configuration and builds the container. Logs go to stderr so
// stdout carries only command output.
func wire(ctx context.Context) (*di.Container, *config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, nil, log, err
	}
	return container, cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
