package service

import (
	"time"

	"github.com/shopspring/decimal"

	"pixeldesk/events"
	"pixeldesk/models"
)

const (
	ReclaimAfterInactivity = 7 * day
	WarnAfterInactivity    = 5 * day
	WarningCooldown        = 24 * time.Hour
	ExpiringSoonWindow     = 3 * day
	RefundBasisDays        = 30
)

// SweepDecision is the outcome of classifying one binding
type SweepDecision struct {
	Action        models.SweepAction
	ReclaimReason events.ReclaimReason
	Refund        int64
	RemainingDays int
	InactiveFor   time.Duration
}

// Classify decides what the sweeper does with a binding at now.
// Reclamation is checked before warning, so a reclaimable binding is never warned.
func Classify(binding *models.WorkstationBinding, owner *models.User, now time.Time) SweepDecision {
	inactiveFor := now.Sub(owner.LastActiveAt())
	decision := SweepDecision{Action: models.SweepActionNone, InactiveFor: inactiveFor}

	expired := binding.IsExpired(now)
	if expired || inactiveFor > ReclaimAfterInactivity {
		decision.Action = models.SweepActionReclaim
		decision.ReclaimReason = events.ReclaimReasonInactive
		if expired {
			decision.ReclaimReason = events.ReclaimReasonExpired
		}
		decision.RemainingDays = remainingWholeDays(binding.ExpiresAt, now)
		decision.Refund = ProratedRefund(binding.Cost, binding.ExpiresAt, now)
		return decision
	}

	if inactiveFor >= WarnAfterInactivity && warningDue(binding.LastInactivityWarningAt, now) {
		decision.Action = models.SweepActionWarn
	}

	return decision
}

// ProratedRefund returns floor(cost * remainingDays / 30) for a binding that
// still has time left. Expired and unlimited bindings refund nothing.
func ProratedRefund(cost int64, expiresAt *time.Time, now time.Time) int64 {
	days := remainingWholeDays(expiresAt, now)
	if days <= 0 || cost <= 0 {
		return 0
	}

	return decimal.NewFromInt(cost).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(RefundBasisDays)).
		Floor().
		IntPart()
}

func remainingWholeDays(expiresAt *time.Time, now time.Time) int {
	if expiresAt == nil || !expiresAt.After(now) {
		return 0
	}
	return WholeDaysBetween(now, *expiresAt)
}

func warningDue(lastWarning *time.Time, now time.Time) bool {
	return lastWarning == nil || now.Sub(*lastWarning) >= WarningCooldown
}

// expiringSoon reports whether a binding runs out within the preview window
func expiringSoon(binding *models.WorkstationBinding, now time.Time) bool {
	if binding.ExpiresAt == nil || !binding.ExpiresAt.After(now) {
		return false
	}
	return binding.ExpiresAt.Sub(now) <= ExpiringSoonWindow
}
