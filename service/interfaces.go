package service

import (
	"context"
	"time"

	"pixeldesk/events"
	"pixeldesk/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil when absent
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByIDForUpdate retrieves a user and locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)

	// Create inserts a new user
	Create(ctx context.Context, user *models.User) error

	// AddPoints applies delta to the user's balance and returns the new balance
	AddPoints(ctx context.Context, id string, delta int64) (int64, error)

	// TouchLastLogin sets last_login to at if the stored value is older than minGap
	TouchLastLogin(ctx context.Context, id string, at time.Time, minGap time.Duration) (bool, error)
}

// PointsHistoryRepository defines the interface for the append-only points history
type PointsHistoryRepository interface {
	// Record appends a history entry
	Record(ctx context.Context, entry *models.PointsHistoryEntry) error

	// GetByUser returns a page of a user's history, newest first
	GetByUser(ctx context.Context, userID string, limit, offset int) ([]*models.PointsHistoryEntry, error)

	// CountByUser returns the number of history entries for a user
	CountByUser(ctx context.Context, userID string) (int, error)
}

// WorkstationRepository defines the interface for workstation slots
type WorkstationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Workstation, error)
	Create(ctx context.Context, workstation *models.Workstation) error
}

// BindingRepository defines the interface for workstation bindings
type BindingRepository interface {
	// Create inserts a binding. A unique violation is reported as ErrBindingConflict.
	Create(ctx context.Context, binding *models.WorkstationBinding) error

	GetByUser(ctx context.Context, userID string) (*models.WorkstationBinding, error)

	// GetByUserWithWorkstation returns the user's binding with Workstation populated
	GetByUserWithWorkstation(ctx context.Context, userID string) (*models.WorkstationBinding, error)

	GetByWorkstation(ctx context.Context, workstationID string) (*models.WorkstationBinding, error)

	// DeleteByUserAndWorkstation removes the matching binding, returning nil when none matched
	DeleteByUserAndWorkstation(ctx context.Context, userID, workstationID string) (*models.WorkstationBinding, error)

	// DeleteByID removes a binding by ID and reports whether a row was deleted
	DeleteByID(ctx context.Context, id string) (bool, error)

	// ListWithOwners returns every binding joined with its owner
	ListWithOwners(ctx context.Context) ([]*models.BindingWithOwner, error)

	// GetWithOwnerForUpdate re-reads one binding and its owner, locking the binding row
	GetWithOwnerForUpdate(ctx context.Context, id string) (*models.BindingWithOwner, error)

	// MarkWarned stamps last_inactivity_warning_at
	MarkWarned(ctx context.Context, id string, at time.Time) error

	// Totals aggregates bound count, distinct users and total cost
	Totals(ctx context.Context) (*models.BindingTotals, error)

	// CountActive counts bindings that are unlimited or not yet expired at now
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// WorkstationConfigRepository defines the interface for the singleton workstation settings
type WorkstationConfigRepository interface {
	Get(ctx context.Context) (*models.WorkstationConfig, error)
	Update(ctx context.Context, cfg *models.WorkstationConfig) error
}

// SweepRunRepository records sweep executions
type SweepRunRepository interface {
	Create(ctx context.Context, run *models.SweepRun) error
	GetLatest(ctx context.Context) (*models.SweepRun, error)
}

// AiNpcRepository reads NPC definitions
type AiNpcRepository interface {
	GetByID(ctx context.Context, id string) (*models.AiNpc, error)
}

// AiConfigRepository reads the active AI provider configuration
type AiConfigRepository interface {
	GetActive(ctx context.Context) (*models.AiGlobalConfig, error)
}

// AiUsageRepository tracks per-day chat usage
type AiUsageRepository interface {
	// Increment upserts the (user, day) counter and returns the count after incrementing
	Increment(ctx context.Context, userID string, day time.Time) (int, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	UserRepository() UserRepository
	PointsHistoryRepository() PointsHistoryRepository
	WorkstationRepository() WorkstationRepository
	BindingRepository() BindingRepository
	WorkstationConfigRepository() WorkstationConfigRepository
	SweepRunRepository() SweepRunRepository
	AiNpcRepository() AiNpcRepository
	AiConfigRepository() AiConfigRepository
	AiUsageRepository() AiUsageRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// PointsService exposes the points ledger
type PointsService interface {
	// Adjust applies delta to the user's balance and appends one history entry
	Adjust(ctx context.Context, userID string, delta int64, reason string, pointsType models.PointsType, metadata map[string]any) (*models.PointsHistoryEntry, error)

	// History returns a page of the user's points history
	History(ctx context.Context, userID string, page, limit int) (*models.PointsHistoryPage, error)
}

// BindingService manages workstation bindings
type BindingService interface {
	Bind(ctx context.Context, userID, workstationID string) (*models.BindResult, error)
	Unbind(ctx context.Context, userID, workstationID string) error
	ListForUser(ctx context.Context, userID string) ([]*models.WorkstationBinding, error)
	Stats(ctx context.Context) (*models.WorkstationStats, error)
}

// SweepService runs the expiry and reclamation sweep
type SweepService interface {
	Sweep(ctx context.Context, trigger models.SweepTrigger) (*models.SweepRun, error)
	Preview(ctx context.Context) (*models.SweepPreview, error)
}

// WorkstationConfigProvider serves workstation settings
type WorkstationConfigProvider interface {
	Get(ctx context.Context) (*models.WorkstationConfig, error)

	// Update validates and stores new settings, then drops the cached copy
	Update(ctx context.Context, cfg *models.WorkstationConfig) error

	Invalidate()
}

// UserService covers user lookups needed by the HTTP layer
type UserService interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	RecordActivity(ctx context.Context, userID string) error
}

// ChatService answers NPC chat messages
type ChatService interface {
	Chat(ctx context.Context, userID, npcID, message string) (*models.ChatReply, error)
}
