package models

import (
	"time"
)

// Workstation is a bindable desk slot in the office map
type Workstation struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	XPosition float64 `db:"x_position" json:"xPosition"`
	YPosition float64 `db:"y_position" json:"yPosition"`
}

// WorkstationBinding associates one user with one workstation for a time-boxed period
type WorkstationBinding struct {
	ID                      string     `db:"id" json:"id"`
	UserID                  string     `db:"user_id" json:"userId"`
	WorkstationID           string     `db:"workstation_id" json:"workstationId"`
	Cost                    int64      `db:"cost" json:"cost"`
	BoundAt                 time.Time  `db:"bound_at" json:"boundAt"`
	ExpiresAt               *time.Time `db:"expires_at" json:"expiresAt"`
	LastInactivityWarningAt *time.Time `db:"last_inactivity_warning_at" json:"lastInactivityWarningAt,omitempty"`

	// Workstation is only populated by reads that join the workstations table
	Workstation *Workstation `db:"-" json:"workstation,omitempty"`
}

// IsExpired reports whether the binding has passed its natural expiry.
// Legacy bindings without an expiry never expire.
func (b *WorkstationBinding) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}

// BindingWithOwner pairs a binding with the user that owns it
type BindingWithOwner struct {
	Binding *WorkstationBinding
	Owner   *User
}

// WorkstationConfig holds the admin-editable workstation settings
type WorkstationConfig struct {
	TotalWorkstations   int       `db:"total_workstations" json:"totalWorkstations"`
	BindingCost         int64     `db:"binding_cost" json:"bindingCost"`
	DefaultDurationDays int       `db:"default_duration_days" json:"defaultDuration"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// BindResult is returned from a successful bind
type BindResult struct {
	Binding         *WorkstationBinding `json:"binding"`
	RemainingPoints int64               `json:"remainingPoints"`
}
