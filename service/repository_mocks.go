package service

import (
	"context"
	"time"

	"pixeldesk/events"
	"pixeldesk/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) AddPoints(ctx context.Context, id string, delta int64) (int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time, minGap time.Duration) (bool, error) {
	args := m.Called(ctx, id, at, minGap)
	return args.Bool(0), args.Error(1)
}

// MockPointsHistoryRepository is a mock implementation of PointsHistoryRepository
type MockPointsHistoryRepository struct {
	mock.Mock
}

func (m *MockPointsHistoryRepository) Record(ctx context.Context, entry *models.PointsHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPointsHistoryRepository) GetByUser(ctx context.Context, userID string, limit, offset int) ([]*models.PointsHistoryEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PointsHistoryEntry), args.Error(1)
}

func (m *MockPointsHistoryRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockWorkstationRepository is a mock implementation of WorkstationRepository
type MockWorkstationRepository struct {
	mock.Mock
}

func (m *MockWorkstationRepository) GetByID(ctx context.Context, id string) (*models.Workstation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workstation), args.Error(1)
}

func (m *MockWorkstationRepository) Create(ctx context.Context, workstation *models.Workstation) error {
	args := m.Called(ctx, workstation)
	return args.Error(0)
}

// MockBindingRepository is a mock implementation of BindingRepository
type MockBindingRepository struct {
	mock.Mock
}

func (m *MockBindingRepository) Create(ctx context.Context, binding *models.WorkstationBinding) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockBindingRepository) GetByUser(ctx context.Context, userID string) (*models.WorkstationBinding, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkstationBinding), args.Error(1)
}

func (m *MockBindingRepository) GetByUserWithWorkstation(ctx context.Context, userID string) (*models.WorkstationBinding, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkstationBinding), args.Error(1)
}

func (m *MockBindingRepository) GetByWorkstation(ctx context.Context, workstationID string) (*models.WorkstationBinding, error) {
	args := m.Called(ctx, workstationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkstationBinding), args.Error(1)
}

func (m *MockBindingRepository) DeleteByUserAndWorkstation(ctx context.Context, userID, workstationID string) (*models.WorkstationBinding, error) {
	args := m.Called(ctx, userID, workstationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkstationBinding), args.Error(1)
}

func (m *MockBindingRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBindingRepository) ListWithOwners(ctx context.Context) ([]*models.BindingWithOwner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BindingWithOwner), args.Error(1)
}

func (m *MockBindingRepository) GetWithOwnerForUpdate(ctx context.Context, id string) (*models.BindingWithOwner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BindingWithOwner), args.Error(1)
}

func (m *MockBindingRepository) MarkWarned(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockBindingRepository) Totals(ctx context.Context) (*models.BindingTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BindingTotals), args.Error(1)
}

func (m *MockBindingRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// MockWorkstationConfigRepository is a mock implementation of WorkstationConfigRepository
type MockWorkstationConfigRepository struct {
	mock.Mock
}

func (m *MockWorkstationConfigRepository) Get(ctx context.Context) (*models.WorkstationConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkstationConfig), args.Error(1)
}

func (m *MockWorkstationConfigRepository) Update(ctx context.Context, cfg *models.WorkstationConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockSweepRunRepository is a mock implementation of SweepRunRepository
type MockSweepRunRepository struct {
	mock.Mock
}

func (m *MockSweepRunRepository) Create(ctx context.Context, run *models.SweepRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSweepRunRepository) GetLatest(ctx context.Context) (*models.SweepRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepRun), args.Error(1)
}

// MockAiNpcRepository is a mock implementation of AiNpcRepository
type MockAiNpcRepository struct {
	mock.Mock
}

func (m *MockAiNpcRepository) GetByID(ctx context.Context, id string) (*models.AiNpc, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AiNpc), args.Error(1)
}

// MockAiConfigRepository is a mock implementation of AiConfigRepository
type MockAiConfigRepository struct {
	mock.Mock
}

func (m *MockAiConfigRepository) GetActive(ctx context.Context) (*models.AiGlobalConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AiGlobalConfig), args.Error(1)
}

// MockAiUsageRepository is a mock implementation of AiUsageRepository
type MockAiUsageRepository struct {
	mock.Mock
}

func (m *MockAiUsageRepository) Increment(ctx context.Context, userID string, day time.Time) (int, error) {
	args := m.Called(ctx, userID, day)
	return args.Int(0), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repository getters return the configured fields; Begin, Commit and Rollback are mocked calls.
type MockUnitOfWork struct {
	mock.Mock

	UserRepo              *MockUserRepository
	PointsHistoryRepo     *MockPointsHistoryRepository
	WorkstationRepo       *MockWorkstationRepository
	BindingRepo           *MockBindingRepository
	WorkstationConfigRepo *MockWorkstationConfigRepository
	SweepRunRepo          *MockSweepRunRepository
	AiNpcRepo             *MockAiNpcRepository
	AiConfigRepo          *MockAiConfigRepository
	AiUsageRepo           *MockAiUsageRepository
	Publisher             *MockEventPublisher
}

// NewMockUnitOfWork creates a MockUnitOfWork with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		UserRepo:              new(MockUserRepository),
		PointsHistoryRepo:     new(MockPointsHistoryRepository),
		WorkstationRepo:       new(MockWorkstationRepository),
		BindingRepo:           new(MockBindingRepository),
		WorkstationConfigRepo: new(MockWorkstationConfigRepository),
		SweepRunRepo:          new(MockSweepRunRepository),
		AiNpcRepo:             new(MockAiNpcRepository),
		AiConfigRepo:          new(MockAiConfigRepository),
		AiUsageRepo:           new(MockAiUsageRepository),
		Publisher:             new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// ExpectTransaction registers Begin, Commit and Rollback as succeeding
func (m *MockUnitOfWork) ExpectTransaction() {
	m.On("Begin", mock.Anything).Return(nil)
	m.On("Commit").Return(nil).Maybe()
	m.On("Rollback").Return(nil).Maybe()
}

func (m *MockUnitOfWork) UserRepository() UserRepository { return m.UserRepo }

func (m *MockUnitOfWork) PointsHistoryRepository() PointsHistoryRepository {
	return m.PointsHistoryRepo
}

func (m *MockUnitOfWork) WorkstationRepository() WorkstationRepository { return m.WorkstationRepo }

func (m *MockUnitOfWork) BindingRepository() BindingRepository { return m.BindingRepo }

func (m *MockUnitOfWork) WorkstationConfigRepository() WorkstationConfigRepository {
	return m.WorkstationConfigRepo
}

func (m *MockUnitOfWork) SweepRunRepository() SweepRunRepository { return m.SweepRunRepo }

func (m *MockUnitOfWork) AiNpcRepository() AiNpcRepository { return m.AiNpcRepo }

func (m *MockUnitOfWork) AiConfigRepository() AiConfigRepository { return m.AiConfigRepo }

func (m *MockUnitOfWork) AiUsageRepository() AiUsageRepository { return m.AiUsageRepo }

func (m *MockUnitOfWork) EventBus() EventPublisher { return m.Publisher }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockWorkstationConfigProvider is a mock implementation of WorkstationConfigProvider
type MockWorkstationConfigProvider struct {
	mock.Mock
}

func (m *MockWorkstationConfigProvider) Get(ctx context.Context) (*models.WorkstationConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkstationConfig), args.Error(1)
}

func (m *MockWorkstationConfigProvider) Update(ctx context.Context, cfg *models.WorkstationConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockWorkstationConfigProvider) Invalidate() {
	m.Called()
}
