package service

import (
	"context"
	"fmt"
	"strings"

	"pixeldesk/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	MaxHistoryPage      = 100000
)

type pointsService struct {
	uowFactory UnitOfWorkFactory
}

// NewPointsService creates a new points ledger service
func NewPointsService(uowFactory UnitOfWorkFactory) PointsService {
	return &pointsService{
		uowFactory: uowFactory,
	}
}

func (s *pointsService) Adjust(ctx context.Context, userID string, delta int64, reason string, pointsType models.PointsType, metadata map[string]any) (*models.PointsHistoryEntry, error) {
	if delta == 0 {
		return nil, Validation("amount must not be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, Validation("reason is required")
	}
	switch pointsType {
	case models.PointsTypeEarn, models.PointsTypeSpend, models.PointsTypeRefund:
	default:
		return nil, Validation("unknown points type %q", pointsType)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NotFound("user %s not found", userID)
	}

	entry, err := RecordPointsChange(ctx, uow, userID, delta, reason, pointsType, metadata)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entry, nil
}

func (s *pointsService) History(ctx context.Context, userID string, page, limit int) (*models.PointsHistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxHistoryPage {
		page = MaxHistoryPage
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	offset := (page - 1) * limit

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	total, err := uow.PointsHistoryRepository().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count points history: %w", err)
	}

	history, err := uow.PointsHistoryRepository().GetByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get points history: %w", err)
	}
	if history == nil {
		history = []*models.PointsHistoryEntry{}
	}

	return &models.PointsHistoryPage{
		History:    history,
		Total:      total,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
		HasMore:    offset+len(history) < total,
	}, nil
}
