package observability

import (
	"context"

	"pixeldesk/events"
)

// RegisterSubscriptions records domain events as metrics
func RegisterSubscriptions(bus *events.Bus, mp *MetricsProvider) {
	bus.Subscribe(events.EventTypePointsChanged, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.PointsChangedEvent); ok {
			mp.RecordPointsChange(string(e.PointsType), e.Amount)
		}
	})

	bus.Subscribe(events.EventTypeWorkstationBound, func(ctx context.Context, event events.Event) {
		mp.RecordBindingEvent(BindingActionBound, "")
	})

	bus.Subscribe(events.EventTypeWorkstationUnbound, func(ctx context.Context, event events.Event) {
		mp.RecordBindingEvent(BindingActionUnbound, "")
	})

	bus.Subscribe(events.EventTypeBindingReclaimed, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BindingReclaimedEvent); ok {
			mp.RecordBindingEvent(BindingActionReclaimed, string(e.Reason))
		}
	})

	bus.Subscribe(events.EventTypeInactivityWarning, func(ctx context.Context, event events.Event) {
		mp.RecordInactivityWarning()
	})

	bus.Subscribe(events.EventTypeSweepCompleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.SweepCompletedEvent); ok {
			mp.RecordSweep(string(e.Trigger), e.Duration, e.RefundedPoints, e.Failed)
		}
	})
}
