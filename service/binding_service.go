package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"pixeldesk/events"
	"pixeldesk/models"
)

type bindingService struct {
	uowFactory     UnitOfWorkFactory
	configProvider WorkstationConfigProvider
	now            Clock
}

// NewBindingService creates a new workstation binding service
func NewBindingService(uowFactory UnitOfWorkFactory, configProvider WorkstationConfigProvider, now Clock) BindingService {
	if now == nil {
		now = UTCNow
	}
	return &bindingService{
		uowFactory:     uowFactory,
		configProvider: configProvider,
		now:            now,
	}
}

// Bind debits the binding cost and creates a binding that expires after the
// configured duration. The user row is locked for the whole transaction so
// concurrent binds by the same user serialize.
func (s *bindingService) Bind(ctx context.Context, userID, workstationID string) (*models.BindResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(workstationID) == "" {
		return nil, Validation("userId and workstationId are required")
	}

	cfg, err := s.configProvider.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workstation config: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NotFound("user %s not found", userID)
	}

	workstation, err := uow.WorkstationRepository().GetByID(ctx, workstationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workstation: %w", err)
	}
	if workstation == nil {
		return nil, NotFound("workstation %s not found", workstationID)
	}

	existing, err := uow.BindingRepository().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing binding: %w", err)
	}
	if existing != nil {
		return nil, AlreadyBound("user already has a workstation bound")
	}

	occupied, err := uow.BindingRepository().GetByWorkstation(ctx, workstationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check workstation binding: %w", err)
	}
	if occupied != nil {
		return nil, AlreadyBound("workstation is already bound")
	}

	if !user.CanAfford(cfg.BindingCost) {
		return nil, InsufficientFunds(cfg.BindingCost, user.Points)
	}

	entry, err := RecordPointsChange(ctx, uow, userID, -cfg.BindingCost, models.ReasonWorkstationBind, models.PointsTypeSpend, map[string]any{
		"workstationId": workstationID,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(cfg.DefaultDurationDays) * day)
	binding := &models.WorkstationBinding{
		UserID:        userID,
		WorkstationID: workstationID,
		Cost:          cfg.BindingCost,
		BoundAt:       now,
		ExpiresAt:     &expiresAt,
	}
	if err := uow.BindingRepository().Create(ctx, binding); err != nil {
		if errors.Is(err, ErrBindingConflict) {
			return nil, AlreadyBound("workstation or user is already bound")
		}
		return nil, fmt.Errorf("failed to create binding: %w", err)
	}

	uow.EventBus().Publish(events.WorkstationBoundEvent{
		BindingID:     binding.ID,
		UserID:        userID,
		WorkstationID: workstationID,
		Cost:          binding.Cost,
		ExpiresAt:     binding.ExpiresAt,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":        userID,
		"workstationID": workstationID,
		"cost":          binding.Cost,
		"expiresAt":     expiresAt,
	}).Info("Workstation bound")

	return &models.BindResult{
		Binding:         binding,
		RemainingPoints: entry.Balance,
	}, nil
}

// Unbind deletes the user's binding without a refund
func (s *bindingService) Unbind(ctx context.Context, userID, workstationID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(workstationID) == "" {
		return Validation("userId and workstationId are required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deleted, err := uow.BindingRepository().DeleteByUserAndWorkstation(ctx, userID, workstationID)
	if err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	if deleted == nil {
		return NotFound("binding for workstation %s not found", workstationID)
	}

	uow.EventBus().Publish(events.WorkstationUnboundEvent{
		UserID:        userID,
		WorkstationID: workstationID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":        userID,
		"workstationID": workstationID,
	}).Info("Workstation unbound")

	return nil
}

func (s *bindingService) ListForUser(ctx context.Context, userID string) ([]*models.WorkstationBinding, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	binding, err := uow.BindingRepository().GetByUserWithWorkstation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}

	bindings := []*models.WorkstationBinding{}
	if binding != nil {
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

func (s *bindingService) Stats(ctx context.Context) (*models.WorkstationStats, error) {
	cfg, err := s.configProvider.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workstation config: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	totals, err := uow.BindingRepository().Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get binding totals: %w", err)
	}

	return buildStats(cfg.TotalWorkstations, totals), nil
}

func buildStats(total int, totals *models.BindingTotals) *models.WorkstationStats {
	occupancy := "0%"
	if total > 0 {
		occupancy = fmt.Sprintf("%.1f%%", float64(totals.Bound)/float64(total)*100)
	}
	available := total - totals.Bound
	if available < 0 {
		available = 0
	}

	return &models.WorkstationStats{
		TotalWorkstations:     total,
		BoundWorkstations:     totals.Bound,
		AvailableWorkstations: available,
		OccupancyRate:         occupancy,
		UniqueUsers:           totals.UniqueUsers,
		TotalCost:             totals.TotalCost,
	}
}
