package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pixeldesk/database"
	"pixeldesk/models"
	"pixeldesk/service"
)

const deskSpacing = 48

// SeedWorkstations creates desk slots ws-001..ws-NNN laid out on a grid of the given
// width and sets total_workstations to count. Existing slots are left untouched.
func SeedWorkstations(ctx context.Context, db *database.DB, count, columns int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("count must be positive")
	}
	if columns <= 0 {
		columns = 20
	}

	created := 0
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		workstations := newWorkstationRepositoryWithTx(tx)
		for i := 1; i <= count; i++ {
			id := fmt.Sprintf("ws-%03d", i)
			existing, err := workstations.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			err = workstations.Create(ctx, &models.Workstation{
				ID:        id,
				Name:      fmt.Sprintf("Desk %d", i),
				XPosition: float64((i-1)%columns) * deskSpacing,
				YPosition: float64((i-1)/columns) * deskSpacing,
			})
			if err != nil {
				return err
			}
			created++
		}

		configs := newWorkstationConfigRepositoryWithTx(tx)
		cfg, err := configs.Get(ctx)
		if err != nil {
			return err
		}
		if cfg == nil {
			cfg = service.DefaultWorkstationConfig()
		}
		cfg.TotalWorkstations = count
		return configs.Update(ctx, cfg)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed workstations: %w", err)
	}
	return created, nil
}
