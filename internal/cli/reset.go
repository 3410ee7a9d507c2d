package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tvimport/internal/admin"
	"github.com/JonMunkholm/tvimport/internal/catalog"
)

var errResetNotConfirmed = errors.New("reset deletes every imported row; pass --yes to confirm")

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty every catalog table",
		Long: `Reset truncates the show, reference and join tables and restarts their id
sequences, so the next import starts from an empty catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return err
			}
			if !yes {
				return errResetNotConfirmed
			}

			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			pool, err := connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			before, err := admin.ResetCatalog(cmd.Context(), catalog.NewStore(pool))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed:\n")
			printCounts(cmd.OutOrStdout(), before)
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the reset")
	return cmd
}
