package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pixeldesk/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long: `Apply or roll back the embedded SQL migrations.

The target database is read from DATABASE_URL and DATABASE_NAME only, so
migrations run without the rest of the service configuration.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return database.MigrateUp(database.MigrationDatabaseURL())
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			var err error
			steps, err = strconv.Atoi(args[0])
			if err != nil || steps <= 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
		}
		return database.MigrateDown(database.MigrationDatabaseURL(), steps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current migration version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, err := database.MigrateStatus(database.MigrationDatabaseURL())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !status.Applied {
			fmt.Fprintln(out, "No migrations applied")
			return nil
		}
		fmt.Fprintf(out, "Version: %d, dirty: %t\n", status.Version, status.Dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
