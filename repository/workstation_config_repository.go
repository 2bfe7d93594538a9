package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pixeldesk/database"
	"pixeldesk/models"
)

// WorkstationConfigRepository reads and writes the singleton settings row
type WorkstationConfigRepository struct {
	q queryable
}

// NewWorkstationConfigRepository creates a new workstation config repository
func NewWorkstationConfigRepository(db *database.DB) *WorkstationConfigRepository {
	return &WorkstationConfigRepository{q: db.Pool}
}

func newWorkstationConfigRepositoryWithTx(tx queryable) *WorkstationConfigRepository {
	return &WorkstationConfigRepository{q: tx}
}

// Get returns the settings row, or nil if it has been removed
func (r *WorkstationConfigRepository) Get(ctx context.Context) (*models.WorkstationConfig, error) {
	query := `
		SELECT total_workstations, binding_cost, default_duration_days, updated_at
		FROM workstation_config
		WHERE id = 1
	`

	var cfg models.WorkstationConfig
	err := r.q.QueryRow(ctx, query).Scan(
		&cfg.TotalWorkstations,
		&cfg.BindingCost,
		&cfg.DefaultDurationDays,
		&cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workstation config: %w", err)
	}
	return &cfg, nil
}

// Update upserts the settings row
func (r *WorkstationConfigRepository) Update(ctx context.Context, cfg *models.WorkstationConfig) error {
	query := `
		INSERT INTO workstation_config (id, total_workstations, binding_cost, default_duration_days, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			total_workstations = EXCLUDED.total_workstations,
			binding_cost = EXCLUDED.binding_cost,
			default_duration_days = EXCLUDED.default_duration_days,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query, cfg.TotalWorkstations, cfg.BindingCost, cfg.DefaultDurationDays).Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update workstation config: %w", err)
	}
	return nil
}
