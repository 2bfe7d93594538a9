package service

import (
	"context"
	"fmt"

	"pixeldesk/events"
	"pixeldesk/models"
)

// RecordPointsChange applies delta to the user's balance, appends a history
// entry carrying the resulting balance and publishes a PointsChangedEvent.
// This is the single entry point for all balance changes in the system.
//
// Callers are responsible for any balance sufficiency check; the ledger
// applies the delta as given.
func RecordPointsChange(ctx context.Context, uow UnitOfWork, userID string, delta int64, reason string, pointsType models.PointsType, metadata map[string]any) (*models.PointsHistoryEntry, error) {
	newBalance, err := uow.UserRepository().AddPoints(ctx, userID, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to update points: %w", err)
	}

	entry := &models.PointsHistoryEntry{
		UserID:   userID,
		Amount:   delta,
		Reason:   reason,
		Type:     pointsType,
		Balance:  newBalance,
		Metadata: metadata,
	}
	if err := uow.PointsHistoryRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record points history: %w", err)
	}

	uow.EventBus().Publish(events.PointsChangedEvent{
		UserID:     userID,
		Amount:     delta,
		NewBalance: newBalance,
		PointsType: pointsType,
		Reason:     reason,
	})

	return entry, nil
}
