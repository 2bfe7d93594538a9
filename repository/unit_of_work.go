package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pixeldesk/database"
	"pixeldesk/events"
	"pixeldesk/service"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                    *database.DB
	tx                    pgx.Tx
	ctx                   context.Context
	transactionalBus      *events.TransactionalBus
	userRepo              service.UserRepository
	pointsHistoryRepo     service.PointsHistoryRepository
	workstationRepo       service.WorkstationRepository
	bindingRepo           service.BindingRepository
	workstationConfigRepo service.WorkstationConfigRepository
	sweepRunRepo          service.SweepRunRepository
	aiNpcRepo             service.AiNpcRepository
	aiConfigRepo          service.AiConfigRepository
	aiUsageRepo           service.AiUsageRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepositoryWithTx(tx)
	u.pointsHistoryRepo = newPointsHistoryRepositoryWithTx(tx)
	u.workstationRepo = newWorkstationRepositoryWithTx(tx)
	u.bindingRepo = newBindingRepositoryWithTx(tx)
	u.workstationConfigRepo = newWorkstationConfigRepositoryWithTx(tx)
	u.sweepRunRepo = newSweepRunRepositoryWithTx(tx)
	u.aiNpcRepo = newAiNpcRepositoryWithTx(tx)
	u.aiConfigRepo = newAiConfigRepositoryWithTx(tx)
	u.aiUsageRepo = newAiUsageRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func notStarted() {
	panic("unit of work not started - call Begin() first")
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		notStarted()
	}
	return u.userRepo
}

// PointsHistoryRepository returns the points history repository for this unit of work
func (u *unitOfWork) PointsHistoryRepository() service.PointsHistoryRepository {
	if u.pointsHistoryRepo == nil {
		notStarted()
	}
	return u.pointsHistoryRepo
}

func (u *unitOfWork) WorkstationRepository() service.WorkstationRepository {
	if u.workstationRepo == nil {
		notStarted()
	}
	return u.workstationRepo
}

func (u *unitOfWork) BindingRepository() service.BindingRepository {
	if u.bindingRepo == nil {
		notStarted()
	}
	return u.bindingRepo
}

func (u *unitOfWork) WorkstationConfigRepository() service.WorkstationConfigRepository {
	if u.workstationConfigRepo == nil {
		notStarted()
	}
	return u.workstationConfigRepo
}

func (u *unitOfWork) SweepRunRepository() service.SweepRunRepository {
	if u.sweepRunRepo == nil {
		notStarted()
	}
	return u.sweepRunRepo
}

func (u *unitOfWork) AiNpcRepository() service.AiNpcRepository {
	if u.aiNpcRepo == nil {
		notStarted()
	}
	return u.aiNpcRepo
}

func (u *unitOfWork) AiConfigRepository() service.AiConfigRepository {
	if u.aiConfigRepo == nil {
		notStarted()
	}
	return u.aiConfigRepo
}

func (u *unitOfWork) AiUsageRepository() service.AiUsageRepository {
	if u.aiUsageRepo == nil {
		notStarted()
	}
	return u.aiUsageRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		notStarted()
	}
	return u.transactionalBus
}
