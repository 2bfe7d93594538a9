package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pixeldesk/database"
	"pixeldesk/models"
)

// WorkstationRepository implements the WorkstationRepository interface
type WorkstationRepository struct {
	q queryable
}

// NewWorkstationRepository creates a new workstation repository
func NewWorkstationRepository(db *database.DB) *WorkstationRepository {
	return &WorkstationRepository{q: db.Pool}
}

func newWorkstationRepositoryWithTx(tx queryable) *WorkstationRepository {
	return &WorkstationRepository{q: tx}
}

// GetByID retrieves a workstation by ID
func (r *WorkstationRepository) GetByID(ctx context.Context, id string) (*models.Workstation, error) {
	query := `SELECT id, name, x_position, y_position FROM workstations WHERE id = $1`

	var ws models.Workstation
	err := r.q.QueryRow(ctx, query, id).Scan(&ws.ID, &ws.Name, &ws.XPosition, &ws.YPosition)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workstation %s: %w", id, err)
	}
	return &ws, nil
}

// Create inserts a workstation slot
func (r *WorkstationRepository) Create(ctx context.Context, ws *models.Workstation) error {
	query := `
		INSERT INTO workstations (id, name, x_position, y_position)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.q.Exec(ctx, query, ws.ID, ws.Name, ws.XPosition, ws.YPosition); err != nil {
		return fmt.Errorf("failed to create workstation %s: %w", ws.ID, err)
	}
	return nil
}
