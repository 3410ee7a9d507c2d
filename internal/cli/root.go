// Package cli implements the tvimport command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tvimport",
		Short: "Load a TV show export into a normalized PostgreSQL catalog",
		Long: `tvimport reads a TV show CSV export (a local file or s3://bucket/key) and
loads it into PostgreSQL: shows, genres, creators, networks, studios and
actors, linked through join tables. Reruns skip shows already imported.

Configuration comes from the environment, optionally seeded from a .env file.
Set DATABASE_URL at minimum.

Exit Codes:
  0  - Success (per-record failures are reported, not fatal)
  1  - Configuration, connection or source error, or interrupted run`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("env-file", defaultEnvFile, "Environment file loaded before reading configuration")

	root.AddCommand(
		newImportCmd(),
		newServeCmd(),
		newStatsCmd(),
		newResetCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
