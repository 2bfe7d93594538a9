package models

import (
	"time"
)

// SweepTrigger identifies what started a sweep
type SweepTrigger string

const (
	SweepTriggerCron   SweepTrigger = "cron"
	SweepTriggerLazy   SweepTrigger = "lazy"
	SweepTriggerManual SweepTrigger = "manual"
	SweepTriggerCLI    SweepTrigger = "cli"
)

// SweepRun records one execution of the expiry/reclamation sweep
type SweepRun struct {
	ID             int64          `db:"id" json:"id"`
	Trigger        SweepTrigger   `db:"trigger" json:"trigger"`
	StartedAt      time.Time      `db:"started_at" json:"startedAt"`
	FinishedAt     time.Time      `db:"finished_at" json:"finishedAt"`
	Scanned        int            `db:"scanned" json:"scanned"`
	Warned         int            `db:"warned" json:"warned"`
	Reclaimed      int            `db:"reclaimed" json:"reclaimed"`
	RefundedPoints int64          `db:"refunded_points" json:"refundedPoints"`
	Failed         int            `db:"failed" json:"failed"`
	Summary        map[string]any `db:"summary" json:"summary,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// SweepAction is the sweeper's decision for a single binding
type SweepAction string

const (
	SweepActionNone     SweepAction = "none"
	SweepActionWarn     SweepAction = "warn"
	SweepActionReclaim  SweepAction = "reclaim"
	SweepActionExpiring SweepAction = "expiring"
)

// AtRiskBinding describes a binding that is close to, or due for, reclamation
type AtRiskBinding struct {
	BindingID      string      `json:"bindingId"`
	UserID         string      `json:"userId"`
	UserName       string      `json:"userName"`
	WorkstationID  string      `json:"workstationId"`
	ExpiresAt      *time.Time  `json:"expiresAt"`
	RemainingDays  int         `json:"remainingDays"`
	RemainingHours int         `json:"remainingHours"`
	InactiveDays   int         `json:"inactiveDays"`
	Action         SweepAction `json:"action"`
}

// SweepPreview lists at-risk bindings without changing anything
type SweepPreview struct {
	CheckedAt    time.Time        `json:"checkedAt"`
	ToReclaim    int              `json:"toReclaim"`
	ToWarn       int              `json:"toWarn"`
	ExpiringSoon int              `json:"expiringSoon"`
	Bindings     []*AtRiskBinding `json:"bindings"`
}
