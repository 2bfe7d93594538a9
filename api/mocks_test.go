package api

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"pixeldesk/models"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) RecordActivity(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockBindingService struct{ mock.Mock }

func (m *mockBindingService) Bind(ctx context.Context, userID, workstationID string) (*models.BindResult, error) {
	args := m.Called(ctx, userID, workstationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BindResult), args.Error(1)
}

func (m *mockBindingService) Unbind(ctx context.Context, userID, workstationID string) error {
	return m.Called(ctx, userID, workstationID).Error(0)
}

func (m *mockBindingService) ListForUser(ctx context.Context, userID string) ([]*models.WorkstationBinding, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkstationBinding), args.Error(1)
}

func (m *mockBindingService) Stats(ctx context.Context) (*models.WorkstationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkstationStats), args.Error(1)
}

type mockPointsService struct{ mock.Mock }

func (m *mockPointsService) Adjust(ctx context.Context, userID string, delta int64, reason string, pointsType models.PointsType, metadata map[string]any) (*models.PointsHistoryEntry, error) {
	args := m.Called(ctx, userID, delta, reason, pointsType, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PointsHistoryEntry), args.Error(1)
}

func (m *mockPointsService) History(ctx context.Context, userID string, page, limit int) (*models.PointsHistoryPage, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PointsHistoryPage), args.Error(1)
}

type mockSweepService struct{ mock.Mock }

func (m *mockSweepService) Sweep(ctx context.Context, trigger models.SweepTrigger) (*models.SweepRun, error) {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepRun), args.Error(1)
}

func (m *mockSweepService) Preview(ctx context.Context) (*models.SweepPreview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepPreview), args.Error(1)
}

type mockChatService struct{ mock.Mock }

func (m *mockChatService) Chat(ctx context.Context, userID, npcID, message string) (*models.ChatReply, error) {
	args := m.Called(ctx, userID, npcID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatReply), args.Error(1)
}

type fakeCoordinator struct {
	mu        sync.Mutex
	triggered int
	run       *models.SweepRun
	err       error
	triggers  []models.SweepTrigger
}

func (f *fakeCoordinator) RunNow(_ context.Context, trigger models.SweepTrigger) (*models.SweepRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	return f.run, f.err
}

func (f *fakeCoordinator) TriggerAsync(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered++
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{method: method, route: route, status: status})
}
