package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pixeldesk/config"
	"pixeldesk/database"
	"pixeldesk/events"
	"pixeldesk/models"
	"pixeldesk/repository"
	"pixeldesk/service"
)

var sweepPreview bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the expiry and reclamation sweep once",
	Long: `Runs the sweep immediately and prints its totals. Warning and reclamation
emails are delivered before the command exits.

With --preview nothing is changed; the bindings that would be warned,
reclaimed or are expiring soon are listed instead.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepPreview, "preview", false, "List at-risk bindings without changing anything")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	configureLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	if err := registerNotifications(eventBus, cfg); err != nil {
		return err
	}

	sweeper := service.NewSweepService(repository.NewUnitOfWorkFactory(db, eventBus), service.UTCNow)
	out := cmd.OutOrStdout()

	if sweepPreview {
		preview, err := sweeper.Preview(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reclaim: %d, warn: %d, expiring soon: %d\n", preview.ToReclaim, preview.ToWarn, preview.ExpiringSoon)
		for _, b := range preview.Bindings {
			fmt.Fprintf(out, "  %-8s %-12s user=%s inactive=%dd remaining=%dd\n",
				b.Action, b.WorkstationID, b.UserID, b.InactiveDays, b.RemainingDays)
		}
		return nil
	}

	run, err := sweeper.Sweep(ctx, models.SweepTriggerCLI)
	if err != nil {
		return err
	}
	eventBus.Wait()

	log.WithField("runID", run.ID).Info("Sweep finished")
	fmt.Fprintf(out, "scanned: %d, warned: %d, reclaimed: %d, refunded: %d, failed: %d\n",
		run.Scanned, run.Warned, run.Reclaimed, run.RefundedPoints, run.Failed)
	return nil
}
