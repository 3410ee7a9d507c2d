package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/JonMunkholm/tvimport/internal/config"
	"github.com/JonMunkholm/tvimport/internal/importer"
	"github.com/JonMunkholm/tvimport/internal/source"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the show export into the catalog",
		Long: `Import loads the whole source, then imports it record by record.

Shows already in the catalog are skipped. A record that fails is reported
with its line, phase and support code; the run continues. With the default
batch isolation a failure also discards the uncommitted records of its
batch, which the next run picks up.`,
		Example: `  tvimport import
  tvimport import --file s3://exports/tv_shows.csv --batch-size 500
  tvimport import --isolation record`,
		Args: cobra.NoArgs,
		RunE: runImport,
	}

	cmd.Flags().StringP("file", "f", "", "Source file or s3://bucket/key (overrides IMPORT_FILE)")
	cmd.Flags().Int("batch-size", 0, "Imported shows per commit (overrides IMPORT_BATCH_SIZE)")
	cmd.Flags().String("isolation", "", "Failure isolation: batch or record (overrides IMPORT_ISOLATION)")
	cmd.Flags().Bool("overwrite-profiles", false, "Replace stored actor profile URLs (overrides IMPORT_OVERWRITE_PROFILES)")
	return cmd
}

// importOverrides applies the flags the user set explicitly.
func importOverrides(cmd *cobra.Command) func(*config.Config) error {
	return func(cfg *config.Config) error {
		flags := cmd.Flags()
		if flags.Changed("file") {
			v, err := flags.GetString("file")
			if err != nil {
				return err
			}
			cfg.Import.FilePath = v
		}
		if flags.Changed("batch-size") {
			v, err := flags.GetInt("batch-size")
			if err != nil {
				return err
			}
			cfg.Import.BatchSize = v
		}
		if flags.Changed("isolation") {
			v, err := flags.GetString("isolation")
			if err != nil {
				return err
			}
			cfg.Import.Isolation = strings.ToLower(v)
		}
		if flags.Changed("overwrite-profiles") {
			v, err := flags.GetBool("overwrite-profiles")
			if err != nil {
				return err
			}
			cfg.Import.OverwriteProfiles = v
		}
		return nil
	}
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, importOverrides(cmd))
	if err != nil {
		return err
	}
	cfg.Import.Isolation = strings.ToLower(cfg.Import.Isolation)

	pool, err := connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := source.Loader{}
	if source.IsS3Path(cfg.Import.FilePath) {
		client, err := source.NewS3Client(ctx, source.S3Options{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return err
		}
		loader.S3 = client
	}

	table, err := loader.Load(ctx, cfg.Import.FilePath)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	slog.Info("source loaded", "path", table.Path, "records", len(table.Records))

	imp := importer.New(catalog.NewStore(pool), cfg.Import, nil)
	res, runErr := imp.Run(ctx, table.Records)
	if res != nil {
		printSummary(cmd.OutOrStdout(), res)
	}
	if runErr != nil {
		return fmt.Errorf("import interrupted: %w", runErr)
	}
	return nil
}
