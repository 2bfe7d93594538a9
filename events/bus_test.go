package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/models"
)

func TestTransactionalBus_FlushDeliversToSubscribers(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan PointsChangedEvent, 1)
	mainBus.Subscribe(EventTypePointsChanged, func(ctx context.Context, event Event) {
		if e, ok := event.(PointsChangedEvent); ok {
			received <- e
		} else {
			t.Errorf("expected PointsChangedEvent, got %T", event)
		}
	})

	testEvent := PointsChangedEvent{
		UserID:     "user-1",
		Amount:     -10,
		NewBalance: 90,
		PointsType: models.PointsTypeSpend,
		Reason:     models.ReasonWorkstationBind,
	}
	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	require.NoError(t, transactionalBus.Flush(context.Background()))
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case got := <-received:
		assert.Equal(t, testEvent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not received within timeout")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var calls int32
	mainBus.Subscribe(EventTypeWorkstationUnbound, func(ctx context.Context, event Event) {
		atomic.AddInt32(&calls, 1)
	})

	transactionalBus.Publish(WorkstationUnboundEvent{UserID: "u", WorkstationID: "w"})
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))
	mainBus.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestTransactionalBus_FlushContextSurvivesCancel(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var ctxErr error
	var wg sync.WaitGroup
	wg.Add(1)
	mainBus.Subscribe(EventTypeSweepCompleted, func(ctx context.Context, event Event) {
		defer wg.Done()
		ctxErr = ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(SweepCompletedEvent{Trigger: models.SweepTriggerCron})
	require.NoError(t, transactionalBus.Flush(ctx))
	cancel()
	wg.Wait()

	assert.NoError(t, ctxErr)
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus()

	var delivered int32
	bus.Subscribe(EventTypeBindingReclaimed, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeBindingReclaimed, func(ctx context.Context, event Event) {
		atomic.AddInt32(&delivered, 1)
	})

	bus.Emit(context.Background(), BindingReclaimedEvent{UserID: "u", Reason: ReclaimReasonExpired})
	bus.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := map[EventType]int{}
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[event.Type()]++
	})

	bus.Emit(context.Background(), WorkstationBoundEvent{UserID: "u"})
	bus.Emit(context.Background(), InactivityWarningEvent{UserID: "u"})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[EventTypeWorkstationBound])
	assert.Equal(t, 1, seen[EventTypeInactivityWarning])
}
