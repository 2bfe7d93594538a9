package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/models"
)

type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time { return c.now }

func newConfigTestProvider(clock *steppingClock) (WorkstationConfigProvider, *MockUnitOfWork, *MockUnitOfWorkFactory) {
	mockUoW := NewMockUnitOfWork()
	mockFactory := new(MockUnitOfWorkFactory)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.ExpectTransaction()
	return NewWorkstationConfigProvider(mockFactory, clock.Now), mockUoW, mockFactory
}

func TestWorkstationConfigProvider_CachesWithinTTL(t *testing.T) {
	ctx := context.Background()
	clock := &steppingClock{now: fixedNow}
	provider, mockUoW, _ := newConfigTestProvider(clock)

	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{
		TotalWorkstations:   200,
		BindingCost:         15,
		DefaultDurationDays: 30,
	}, nil)

	first, err := provider.Get(ctx)
	require.NoError(t, err)
	clock.now = clock.now.Add(4 * time.Minute)
	second, err := provider.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(15), first.BindingCost)
	assert.Equal(t, first, second)
	mockUoW.WorkstationConfigRepo.AssertNumberOfCalls(t, "Get", 1)

	// Callers get copies
	second.BindingCost = 99
	third, err := provider.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15), third.BindingCost)
}

func TestWorkstationConfigProvider_ReloadsAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := &steppingClock{now: fixedNow}
	provider, mockUoW, _ := newConfigTestProvider(clock)

	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{TotalWorkstations: 200, BindingCost: 15, DefaultDurationDays: 30}, nil).Once()
	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{TotalWorkstations: 200, BindingCost: 20, DefaultDurationDays: 30}, nil).Once()

	_, err := provider.Get(ctx)
	require.NoError(t, err)
	clock.now = clock.now.Add(5 * time.Minute)
	cfg, err := provider.Get(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(20), cfg.BindingCost)
	mockUoW.WorkstationConfigRepo.AssertNumberOfCalls(t, "Get", 2)
}

func TestWorkstationConfigProvider_Invalidate(t *testing.T) {
	ctx := context.Background()
	clock := &steppingClock{now: fixedNow}
	provider, mockUoW, _ := newConfigTestProvider(clock)
	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{TotalWorkstations: 10, BindingCost: 1, DefaultDurationDays: 7}, nil)

	_, err := provider.Get(ctx)
	require.NoError(t, err)
	provider.Invalidate()
	_, err = provider.Get(ctx)
	require.NoError(t, err)

	mockUoW.WorkstationConfigRepo.AssertNumberOfCalls(t, "Get", 2)
}

func TestWorkstationConfigProvider_Defaults(t *testing.T) {
	t.Run("missing row", func(t *testing.T) {
		ctx := context.Background()
		provider, mockUoW, _ := newConfigTestProvider(&steppingClock{now: fixedNow})
		mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(nil, nil)

		cfg, err := provider.Get(ctx)

		require.NoError(t, err)
		assert.Equal(t, DefaultTotalWorkstations, cfg.TotalWorkstations)
		assert.Equal(t, int64(DefaultBindingCost), cfg.BindingCost)
		assert.Equal(t, DefaultDurationDays, cfg.DefaultDurationDays)
	})

	t.Run("non-positive fields", func(t *testing.T) {
		ctx := context.Background()
		provider, mockUoW, _ := newConfigTestProvider(&steppingClock{now: fixedNow})
		mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{BindingCost: 3}, nil)

		cfg, err := provider.Get(ctx)

		require.NoError(t, err)
		assert.Equal(t, DefaultTotalWorkstations, cfg.TotalWorkstations)
		assert.Equal(t, int64(3), cfg.BindingCost)
		assert.Equal(t, DefaultDurationDays, cfg.DefaultDurationDays)
	})
}

func TestWorkstationConfigProvider_ErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	provider, mockUoW, _ := newConfigTestProvider(&steppingClock{now: fixedNow})
	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(nil, errors.New("connection reset")).Once()
	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{TotalWorkstations: 5, BindingCost: 2, DefaultDurationDays: 30}, nil).Once()

	_, err := provider.Get(ctx)
	assert.ErrorContains(t, err, "failed to get workstation config")

	cfg, err := provider.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TotalWorkstations)
}

func TestWorkstationConfigProvider_UpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	provider, mockUoW, _ := newConfigTestProvider(&steppingClock{now: fixedNow})
	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{TotalWorkstations: 100, BindingCost: 10, DefaultDurationDays: 30}, nil).Once()
	mockUoW.WorkstationConfigRepo.On("Get", ctx).Return(&models.WorkstationConfig{TotalWorkstations: 150, BindingCost: 12, DefaultDurationDays: 30}, nil).Once()

	_, err := provider.Get(ctx)
	require.NoError(t, err)

	update := &models.WorkstationConfig{TotalWorkstations: 150, BindingCost: 12, DefaultDurationDays: 30}
	mockUoW.WorkstationConfigRepo.On("Update", ctx, update).Return(nil)
	require.NoError(t, provider.Update(ctx, update))

	cfg, err := provider.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.TotalWorkstations)
	mockUoW.AssertCalled(t, "Commit")
}

func TestWorkstationConfigProvider_UpdateValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *models.WorkstationConfig
	}{
		{name: "nil", cfg: nil},
		{name: "zero total", cfg: &models.WorkstationConfig{TotalWorkstations: 0, BindingCost: 1, DefaultDurationDays: 30}},
		{name: "negative cost", cfg: &models.WorkstationConfig{TotalWorkstations: 10, BindingCost: -1, DefaultDurationDays: 30}},
		{name: "zero duration", cfg: &models.WorkstationConfig{TotalWorkstations: 10, BindingCost: 1, DefaultDurationDays: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, mockUoW, _ := newConfigTestProvider(&steppingClock{now: fixedNow})

			err := provider.Update(context.Background(), tt.cfg)

			assert.ErrorIs(t, err, ErrValidation)
			mockUoW.WorkstationConfigRepo.AssertNotCalled(t, "Update")
		})
	}
}
