package service

import (
	"context"
	"fmt"
	"time"

	"pixeldesk/models"
)

// activityStampInterval bounds how often last_login is rewritten for one user
const activityStampInterval = time.Hour

type userService struct {
	uowFactory UnitOfWorkFactory
	now        Clock
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, now Clock) UserService {
	if now == nil {
		now = UTCNow
	}
	return &userService{
		uowFactory: uowFactory,
		now:        now,
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
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
	return user, nil
}

// RecordActivity refreshes the user's last_login, which drives inactivity reclamation
func (s *userService) RecordActivity(ctx context.Context, userID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	updated, err := uow.UserRepository().TouchLastLogin(ctx, userID, s.now(), activityStampInterval)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	if !updated {
		return nil
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
