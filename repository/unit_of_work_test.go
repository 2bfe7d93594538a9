package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/events"
	"pixeldesk/models"
	"pixeldesk/repository/testutil"
	"pixeldesk/service"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedEvents) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func TestUnitOfWork_EventsFollowTransactionOutcome(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	recorded := &recordedEvents{}
	bus.SubscribeAll(recorded.handle)
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	user := testutil.CreateTestUser("frank", 10)
	require.NoError(t, NewUserRepository(testDB.DB).Create(ctx, user))

	t.Run("rollback discards writes and events", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, err := service.RecordPointsChange(ctx, uow, user.ID, 5, models.ReasonAdminAdjustment, models.PointsTypeEarn, nil)
		require.NoError(t, err)
		require.NoError(t, uow.Rollback())
		bus.Wait()

		assert.Empty(t, recorded.snapshot())
		got, err := NewUserRepository(testDB.DB).GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.Points)
	})

	t.Run("commit persists and flushes", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, err := service.RecordPointsChange(ctx, uow, user.ID, 5, models.ReasonAdminAdjustment, models.PointsTypeEarn, nil)
		require.NoError(t, err)
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback())
		bus.Wait()

		got := recorded.snapshot()
		require.Len(t, got, 1)
		assert.Equal(t, int64(15), got[0].(events.PointsChangedEvent).NewBalance)
	})

	t.Run("getters panic before begin", func(t *testing.T) {
		uow := factory.Create()
		assert.Panics(t, func() { uow.BindingRepository() })
	})
}

func TestBindAndSweep_EndToEnd(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	recorded := &recordedEvents{}
	bus.SubscribeAll(recorded.handle)
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	start := time.Now().UTC().Truncate(time.Second)
	clock := start
	now := func() time.Time { return clock }

	users := NewUserRepository(testDB.DB)
	workstations := NewWorkstationRepository(testDB.DB)
	owner := testutil.CreateTestUserLastSeen("grace", 25, start)
	rival := testutil.CreateTestUserLastSeen("heidi", 25, start)
	require.NoError(t, users.Create(ctx, owner))
	require.NoError(t, users.Create(ctx, rival))
	require.NoError(t, workstations.Create(ctx, testutil.CreateTestWorkstation("ws-9")))

	configProvider := service.NewWorkstationConfigProvider(factory, now)
	bindings := service.NewBindingService(factory, configProvider, now)
	sweeper := service.NewSweepService(factory, now)
	points := service.NewPointsService(factory)

	result, err := bindings.Bind(ctx, owner.ID, "ws-9")
	require.NoError(t, err)
	assert.Equal(t, int64(15), result.RemainingPoints)

	_, err = bindings.Bind(ctx, rival.ID, "ws-9")
	assert.ErrorIs(t, err, service.ErrAlreadyBound)

	// Eight days later with no login: reclaimed, 22 of 30 days refunded
	clock = start.Add(8 * 24 * time.Hour)
	run, err := sweeper.Sweep(ctx, models.SweepTriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Scanned)
	assert.Equal(t, 1, run.Reclaimed)
	assert.Equal(t, int64(7), run.RefundedPoints)

	got, err := users.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(22), got.Points)

	page, err := points.History(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, models.PointsTypeRefund, page.History[0].Type)
	assert.Equal(t, int64(7), page.History[0].Amount)
	assert.Equal(t, int64(22), page.History[0].Balance)

	// Re-running changes nothing
	again, err := sweeper.Sweep(ctx, models.SweepTriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Scanned)

	latest, err := NewSweepRunRepository(testDB.DB).GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, again.ID, latest.ID)

	// The freed slot can be taken
	_, err = bindings.Bind(ctx, rival.ID, "ws-9")
	require.NoError(t, err)

	bus.Wait()
	var reclaimed int
	for _, e := range recorded.snapshot() {
		if e.Type() == events.EventTypeBindingReclaimed {
			reclaimed++
		}
	}
	assert.Equal(t, 1, reclaimed)
}
