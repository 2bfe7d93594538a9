package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pixeldesk/events"
	"pixeldesk/models"
)

func newPointsTestService() (PointsService, *MockUnitOfWork, *MockUnitOfWorkFactory) {
	mockUoW := NewMockUnitOfWork()
	mockFactory := new(MockUnitOfWorkFactory)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.ExpectTransaction()
	return NewPointsService(mockFactory), mockUoW, mockFactory
}

func TestPointsService_Adjust(t *testing.T) {
	ctx := context.Background()
	svc, mockUoW, _ := newPointsTestService()

	mockUoW.UserRepo.On("GetByID", ctx, "user-1").Return(&models.User{ID: "user-1", Points: 40}, nil)
	mockUoW.UserRepo.On("AddPoints", ctx, "user-1", int64(25)).Return(int64(65), nil)
	mockUoW.PointsHistoryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.PointsHistoryEntry) bool {
		return e.Amount == 25 && e.Balance == 65 && e.Metadata["note"] == "quiz"
	})).Return(nil)

	entry, err := svc.Adjust(ctx, "user-1", 25, models.ReasonAdminAdjustment, models.PointsTypeEarn, map[string]any{"note": "quiz"})

	require.NoError(t, err)
	assert.Equal(t, int64(65), entry.Balance)
	mockUoW.AssertCalled(t, "Commit")

	require.Len(t, mockUoW.Publisher.Events, 1)
	changed := mockUoW.Publisher.Events[0].(events.PointsChangedEvent)
	assert.Equal(t, int64(65), changed.NewBalance)
	assert.Equal(t, models.PointsTypeEarn, changed.PointsType)
}

func TestPointsService_Adjust_AllowsNegativeResult(t *testing.T) {
	ctx := context.Background()
	svc, mockUoW, _ := newPointsTestService()

	mockUoW.UserRepo.On("GetByID", ctx, "user-1").Return(&models.User{ID: "user-1", Points: 5}, nil)
	mockUoW.UserRepo.On("AddPoints", ctx, "user-1", int64(-8)).Return(int64(-3), nil)
	mockUoW.PointsHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)

	entry, err := svc.Adjust(ctx, "user-1", -8, models.ReasonAdminAdjustment, models.PointsTypeSpend, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(-3), entry.Balance)
}

func TestPointsService_Adjust_Validation(t *testing.T) {
	tests := []struct {
		name       string
		delta      int64
		reason     string
		pointsType models.PointsType
	}{
		{name: "zero delta", delta: 0, reason: "x", pointsType: models.PointsTypeEarn},
		{name: "blank reason", delta: 1, reason: "  ", pointsType: models.PointsTypeEarn},
		{name: "unknown type", delta: 1, reason: "x", pointsType: models.PointsType("BONUS")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, mockFactory := newPointsTestService()

			_, err := svc.Adjust(context.Background(), "user-1", tt.delta, tt.reason, tt.pointsType, nil)

			assert.ErrorIs(t, err, ErrValidation)
			mockFactory.AssertNotCalled(t, "Create")
		})
	}
}

func TestPointsService_Adjust_UserNotFound(t *testing.T) {
	ctx := context.Background()
	svc, mockUoW, _ := newPointsTestService()
	mockUoW.UserRepo.On("GetByID", ctx, "ghost").Return(nil, nil)

	_, err := svc.Adjust(ctx, "ghost", 5, models.ReasonAdminAdjustment, models.PointsTypeEarn, nil)

	assert.ErrorIs(t, err, ErrNotFound)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestPointsService_Adjust_HistoryFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, mockUoW, _ := newPointsTestService()

	mockUoW.UserRepo.On("GetByID", ctx, "user-1").Return(&models.User{ID: "user-1"}, nil)
	mockUoW.UserRepo.On("AddPoints", ctx, "user-1", int64(5)).Return(int64(5), nil)
	mockUoW.PointsHistoryRepo.On("Record", ctx, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.Adjust(ctx, "user-1", 5, models.ReasonAdminAdjustment, models.PointsTypeEarn, nil)

	assert.ErrorContains(t, err, "failed to record points history")
	mockUoW.AssertNotCalled(t, "Commit")
	mockUoW.AssertCalled(t, "Rollback")
}

func TestPointsService_History(t *testing.T) {
	tests := []struct {
		name           string
		page           int
		limit          int
		total          int
		returned       int
		expectedLimit  int
		expectedOffset int
		expectedPages  int
		expectedMore   bool
	}{
		{name: "defaults", page: 0, limit: 0, total: 45, returned: 20, expectedLimit: 20, expectedOffset: 0, expectedPages: 3, expectedMore: true},
		{name: "last page", page: 3, limit: 20, total: 45, returned: 5, expectedLimit: 20, expectedOffset: 40, expectedPages: 3, expectedMore: false},
		{name: "limit capped", page: 1, limit: 500, total: 150, returned: 100, expectedLimit: 100, expectedOffset: 0, expectedPages: 2, expectedMore: true},
		{name: "empty history", page: 1, limit: 10, total: 0, returned: 0, expectedLimit: 10, expectedOffset: 0, expectedPages: 0, expectedMore: false},
		{name: "page clamped", page: math.MaxInt, limit: 100, total: 45, returned: 0, expectedLimit: 100, expectedOffset: (MaxHistoryPage - 1) * 100, expectedPages: 1, expectedMore: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, mockUoW, _ := newPointsTestService()

			entries := make([]*models.PointsHistoryEntry, tt.returned)
			for i := range entries {
				entries[i] = &models.PointsHistoryEntry{UserID: "user-1", Amount: 1}
			}
			mockUoW.PointsHistoryRepo.On("CountByUser", ctx, "user-1").Return(tt.total, nil)
			mockUoW.PointsHistoryRepo.On("GetByUser", ctx, "user-1", tt.expectedLimit, tt.expectedOffset).Return(entries, nil)

			page, err := svc.History(ctx, "user-1", tt.page, tt.limit)

			require.NoError(t, err)
			assert.Len(t, page.History, tt.returned)
			assert.NotNil(t, page.History)
			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.expectedPages, page.TotalPages)
			assert.Equal(t, tt.expectedMore, page.HasMore)
		})
	}
}
