package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pixeldesk/database"
	"pixeldesk/models"
)

// SweepRunRepository implements the SweepRunRepository interface
type SweepRunRepository struct {
	q queryable
}

// NewSweepRunRepository creates a new sweep run repository
func NewSweepRunRepository(db *database.DB) *SweepRunRepository {
	return &SweepRunRepository{q: db.Pool}
}

func newSweepRunRepositoryWithTx(tx queryable) *SweepRunRepository {
	return &SweepRunRepository{q: tx}
}

// Create records a sweep execution
func (r *SweepRunRepository) Create(ctx context.Context, run *models.SweepRun) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal sweep summary: %w", err)
	}

	query := `
		INSERT INTO sweep_runs
		(trigger, started_at, finished_at, scanned, warned, reclaimed, refunded_points, failed, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		run.Trigger,
		run.StartedAt,
		run.FinishedAt,
		run.Scanned,
		run.Warned,
		run.Reclaimed,
		run.RefundedPoints,
		run.Failed,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sweep run: %w", err)
	}

	return nil
}

// GetLatest returns the most recently started sweep run
func (r *SweepRunRepository) GetLatest(ctx context.Context) (*models.SweepRun, error) {
	query := `
		SELECT id, trigger, started_at, finished_at, scanned, warned, reclaimed,
		       refunded_points, failed, summary, created_at
		FROM sweep_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	var run models.SweepRun
	var summaryJSON []byte

	err := r.q.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.Trigger,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Scanned,
		&run.Warned,
		&run.Reclaimed,
		&run.RefundedPoints,
		&run.Failed,
		&summaryJSON,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest sweep run: %w", err)
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sweep summary: %w", err)
		}
	}

	return &run, nil
}
