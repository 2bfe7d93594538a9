package events

import (
	"time"

	"pixeldesk/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePointsChanged      EventType = "points_changed"
	EventTypeWorkstationBound   EventType = "workstation_bound"
	EventTypeWorkstationUnbound EventType = "workstation_unbound"
	EventTypeBindingReclaimed   EventType = "binding_reclaimed"
	EventTypeInactivityWarning  EventType = "inactivity_warning"
	EventTypeSweepCompleted     EventType = "sweep_completed"
)

// AllEventTypes lists every event type the system emits
func AllEventTypes() []EventType {
	return []EventType{
		EventTypePointsChanged,
		EventTypeWorkstationBound,
		EventTypeWorkstationUnbound,
		EventTypeBindingReclaimed,
		EventTypeInactivityWarning,
		EventTypeSweepCompleted,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PointsChangedEvent is published for every ledger adjustment
type PointsChangedEvent struct {
	UserID     string            `json:"userId"`
	Amount     int64             `json:"amount"`
	NewBalance int64             `json:"newBalance"`
	PointsType models.PointsType `json:"pointsType"`
	Reason     string            `json:"reason"`
}

func (e PointsChangedEvent) Type() EventType {
	return EventTypePointsChanged
}

// WorkstationBoundEvent is published when a user binds a workstation
type WorkstationBoundEvent struct {
	BindingID     string     `json:"bindingId"`
	UserID        string     `json:"userId"`
	WorkstationID string     `json:"workstationId"`
	Cost          int64      `json:"cost"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

func (e WorkstationBoundEvent) Type() EventType {
	return EventTypeWorkstationBound
}

// WorkstationUnboundEvent is published when a user releases a workstation
type WorkstationUnboundEvent struct {
	UserID        string `json:"userId"`
	WorkstationID string `json:"workstationId"`
}

func (e WorkstationUnboundEvent) Type() EventType {
	return EventTypeWorkstationUnbound
}

// ReclaimReason describes why the sweeper took a binding back
type ReclaimReason string

const (
	ReclaimReasonInactive ReclaimReason = "inactive"
	ReclaimReasonExpired  ReclaimReason = "expired"
)

// BindingReclaimedEvent is published when the sweeper deletes a binding
type BindingReclaimedEvent struct {
	UserID        string        `json:"userId"`
	Email         string        `json:"-"`
	Name          string        `json:"-"`
	Locale        string        `json:"locale"`
	WorkstationID string        `json:"workstationId"`
	Refund        int64         `json:"refund"`
	Reason        ReclaimReason `json:"reason"`
}

func (e BindingReclaimedEvent) Type() EventType {
	return EventTypeBindingReclaimed
}

// InactivityWarningEvent is published when an owner is warned about reclamation
type InactivityWarningEvent struct {
	UserID        string `json:"userId"`
	Email         string `json:"-"`
	Name          string `json:"-"`
	Locale        string `json:"locale"`
	WorkstationID string `json:"workstationId"`
	InactiveDays  int    `json:"inactiveDays"`
}

func (e InactivityWarningEvent) Type() EventType {
	return EventTypeInactivityWarning
}

// SweepCompletedEvent carries the totals of a finished sweep
type SweepCompletedEvent struct {
	RunID          int64               `json:"runId"`
	Trigger        models.SweepTrigger `json:"trigger"`
	Scanned        int                 `json:"scanned"`
	Warned         int                 `json:"warned"`
	Reclaimed      int                 `json:"reclaimed"`
	RefundedPoints int64               `json:"refundedPoints"`
	Failed         int                 `json:"failed"`
	Duration       time.Duration       `json:"durationNs"`
}

func (e SweepCompletedEvent) Type() EventType {
	return EventTypeSweepCompleted
}
