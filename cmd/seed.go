package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pixeldesk/config"
	"pixeldesk/database"
	"pixeldesk/repository"
)

var (
	seedCount   int
	seedColumns int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create workstation slots on a grid",
	Long: `Creates workstation slots ws-001 through ws-NNN laid out on a grid and sets
the configured workstation total to match. Existing slots are kept.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := config.Get()
		configureLogging(cfg)

		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		created, err := repository.SeedWorkstations(ctx, db, seedCount, seedColumns)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %d workstations (%d total)\n", created, seedCount)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "Number of workstation slots")
	seedCmd.Flags().IntVar(&seedColumns, "columns", 20, "Desks per row")
}
