package notification

import (
	"context"

	log "github.com/sirupsen/logrus"

	"pixeldesk/events"
)

// RegisterSubscriptions wires email and ops notifications to the event bus.
// Handlers run after the originating transaction commits; failures are logged only.
// webhook may be nil.
func RegisterSubscriptions(bus *events.Bus, mailer Mailer, webhook *OpsWebhook) {
	bus.Subscribe(events.EventTypeInactivityWarning, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.InactivityWarningEvent)
		if !ok {
			return
		}
		err := mailer.SendInactivityWarning(ctx, WarningMessage{
			To:            e.Email,
			Name:          e.Name,
			Locale:        e.Locale,
			WorkstationID: e.WorkstationID,
			InactiveDays:  e.InactiveDays,
		})
		if err != nil {
			log.WithFields(log.Fields{
				"userID": e.UserID,
				"error":  err,
			}).Error("Failed to send inactivity warning email")
		}
	})

	bus.Subscribe(events.EventTypeBindingReclaimed, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BindingReclaimedEvent)
		if !ok {
			return
		}
		err := mailer.SendReclamationNotice(ctx, ReclamationMessage{
			To:            e.Email,
			Name:          e.Name,
			Locale:        e.Locale,
			WorkstationID: e.WorkstationID,
			Refund:        e.Refund,
			Reason:        string(e.Reason),
		})
		if err != nil {
			log.WithFields(log.Fields{
				"userID": e.UserID,
				"error":  err,
			}).Error("Failed to send reclamation email")
		}
	})

	if webhook == nil {
		return
	}

	bus.Subscribe(events.EventTypeSweepCompleted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.SweepCompletedEvent)
		if !ok {
			return
		}
		// Quiet sweeps are not worth a channel message
		if e.Reclaimed == 0 && e.Warned == 0 && e.Failed == 0 {
			return
		}
		if err := webhook.PostSweepSummary(e); err != nil {
			log.WithError(err).Warn("Failed to post sweep summary")
		}
	})
}
