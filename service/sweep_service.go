package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"pixeldesk/events"
	"pixeldesk/models"
)

type sweepService struct {
	uowFactory UnitOfWorkFactory
	now        Clock
}

// NewSweepService creates the expiry and reclamation sweeper
func NewSweepService(uowFactory UnitOfWorkFactory, now Clock) SweepService {
	if now == nil {
		now = UTCNow
	}
	return &sweepService{
		uowFactory: uowFactory,
		now:        now,
	}
}

// Sweep classifies every binding and warns or reclaims as needed.
// Each binding is handled in its own transaction; a failure is logged and
// counted without stopping the sweep.
func (s *sweepService) Sweep(ctx context.Context, trigger models.SweepTrigger) (*models.SweepRun, error) {
	startedAt := s.now()

	bindings, err := s.listBindings(ctx)
	if err != nil {
		return nil, err
	}

	run := &models.SweepRun{
		Trigger:   trigger,
		StartedAt: startedAt,
		Scanned:   len(bindings),
	}

	for _, bw := range bindings {
		decision, err := s.processBinding(ctx, bw.Binding.ID, startedAt)
		if err != nil {
			log.WithFields(log.Fields{
				"bindingID":     bw.Binding.ID,
				"userID":        bw.Binding.UserID,
				"workstationID": bw.Binding.WorkstationID,
				"error":         err,
			}).Error("Failed to process binding during sweep")
			run.Failed++
			continue
		}

		switch decision.Action {
		case models.SweepActionReclaim:
			run.Reclaimed++
			run.RefundedPoints += decision.Refund
		case models.SweepActionWarn:
			run.Warned++
		}
	}

	run.FinishedAt = s.now()
	if err := s.recordRun(ctx, run); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"trigger":        trigger,
		"scanned":        run.Scanned,
		"warned":         run.Warned,
		"reclaimed":      run.Reclaimed,
		"refundedPoints": run.RefundedPoints,
		"failed":         run.Failed,
		"duration":       run.FinishedAt.Sub(run.StartedAt),
	}).Info("Completed workstation sweep")

	return run, nil
}

func (s *sweepService) listBindings(ctx context.Context) ([]*models.BindingWithOwner, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bindings, err := uow.BindingRepository().ListWithOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	return bindings, nil
}

// processBinding re-reads the binding under a row lock so a concurrent
// unbind or sweep cannot double-refund it.
func (s *sweepService) processBinding(ctx context.Context, bindingID string, now time.Time) (SweepDecision, error) {
	none := SweepDecision{Action: models.SweepActionNone}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return none, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bw, err := uow.BindingRepository().GetWithOwnerForUpdate(ctx, bindingID)
	if err != nil {
		return none, fmt.Errorf("failed to lock binding: %w", err)
	}
	if bw == nil {
		// Unbound or reclaimed since the listing
		return none, nil
	}

	binding, owner := bw.Binding, bw.Owner
	decision := Classify(binding, owner, now)

	switch decision.Action {
	case models.SweepActionReclaim:
		deleted, err := uow.BindingRepository().DeleteByID(ctx, binding.ID)
		if err != nil {
			return none, fmt.Errorf("failed to delete binding: %w", err)
		}
		if !deleted {
			return none, nil
		}

		if decision.Refund > 0 {
			_, err := RecordPointsChange(ctx, uow, owner.ID, decision.Refund, models.ReasonWorkstationRefund, models.PointsTypeRefund, map[string]any{
				"workstationId": binding.WorkstationID,
				"remainingDays": decision.RemainingDays,
				"cost":          binding.Cost,
			})
			if err != nil {
				return none, err
			}
		}

		uow.EventBus().Publish(events.BindingReclaimedEvent{
			UserID:        owner.ID,
			Email:         owner.Email,
			Name:          owner.Name,
			Locale:        owner.Locale,
			WorkstationID: binding.WorkstationID,
			Refund:        decision.Refund,
			Reason:        decision.ReclaimReason,
		})

	case models.SweepActionWarn:
		if err := uow.BindingRepository().MarkWarned(ctx, binding.ID, now); err != nil {
			return none, fmt.Errorf("failed to stamp inactivity warning: %w", err)
		}

		uow.EventBus().Publish(events.InactivityWarningEvent{
			UserID:        owner.ID,
			Email:         owner.Email,
			Name:          owner.Name,
			Locale:        owner.Locale,
			WorkstationID: binding.WorkstationID,
			InactiveDays:  int(decision.InactiveFor / day),
		})

	default:
		return decision, nil
	}

	if err := uow.Commit(); err != nil {
		return none, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return decision, nil
}

func (s *sweepService) recordRun(ctx context.Context, run *models.SweepRun) error {
	run.Summary = map[string]any{
		"durationMs": run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SweepRunRepository().Create(ctx, run); err != nil {
		return fmt.Errorf("failed to record sweep run: %w", err)
	}

	uow.EventBus().Publish(events.SweepCompletedEvent{
		RunID:          run.ID,
		Trigger:        run.Trigger,
		Scanned:        run.Scanned,
		Warned:         run.Warned,
		Reclaimed:      run.Reclaimed,
		RefundedPoints: run.RefundedPoints,
		Failed:         run.Failed,
		Duration:       run.FinishedAt.Sub(run.StartedAt),
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Preview lists bindings that would be reclaimed or warned now, plus bindings
// expiring within the preview window. Nothing is modified.
func (s *sweepService) Preview(ctx context.Context) (*models.SweepPreview, error) {
	now := s.now()

	bindings, err := s.listBindings(ctx)
	if err != nil {
		return nil, err
	}

	preview := &models.SweepPreview{
		CheckedAt: now,
		Bindings:  []*models.AtRiskBinding{},
	}

	for _, bw := range bindings {
		decision := Classify(bw.Binding, bw.Owner, now)
		action := decision.Action

		switch {
		case action == models.SweepActionReclaim:
			preview.ToReclaim++
		case action == models.SweepActionWarn:
			preview.ToWarn++
		case expiringSoon(bw.Binding, now):
			action = models.SweepActionExpiring
			preview.ExpiringSoon++
		default:
			continue
		}

		atRisk := &models.AtRiskBinding{
			BindingID:     bw.Binding.ID,
			UserID:        bw.Owner.ID,
			UserName:      bw.Owner.Name,
			WorkstationID: bw.Binding.WorkstationID,
			ExpiresAt:     bw.Binding.ExpiresAt,
			InactiveDays:  int(decision.InactiveFor / day),
			Action:        action,
		}
		if bw.Binding.ExpiresAt != nil {
			atRisk.RemainingDays = CeilDaysUntil(now, *bw.Binding.ExpiresAt)
			atRisk.RemainingHours = CeilHoursUntil(now, *bw.Binding.ExpiresAt)
		}
		preview.Bindings = append(preview.Bindings, atRisk)
	}

	return preview, nil
}
