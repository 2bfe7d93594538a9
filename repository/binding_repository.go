package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pixeldesk/database"
	"pixeldesk/models"
	"pixeldesk/service"
)

const uniqueViolation = "23505"

const bindingColumns = `uw.id::text, uw.user_id::text, uw.workstation_id, uw.cost, uw.bound_at, uw.expires_at, uw.last_inactivity_warning_at`

const workstationColumns = `w.id, w.name, w.x_position, w.y_position`

const ownerColumns = `u.id::text, u.name, u.email, u.locale, u.points, u.is_admin, u.last_login, u.created_at, u.updated_at`

// BindingRepository implements the BindingRepository interface
type BindingRepository struct {
	q queryable
}

// NewBindingRepository creates a new binding repository
func NewBindingRepository(db *database.DB) *BindingRepository {
	return &BindingRepository{q: db.Pool}
}

func newBindingRepositoryWithTx(tx queryable) *BindingRepository {
	return &BindingRepository{q: tx}
}

func bindingFields(b *models.WorkstationBinding) []any {
	return []any{
		&b.ID,
		&b.UserID,
		&b.WorkstationID,
		&b.Cost,
		&b.BoundAt,
		&b.ExpiresAt,
		&b.LastInactivityWarningAt,
	}
}

func workstationFields(w *models.Workstation) []any {
	return []any{&w.ID, &w.Name, &w.XPosition, &w.YPosition}
}

// validUserID reports whether id can be compared against a uuid column.
// Malformed IDs match no rows.
func validUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func ownerFields(u *models.User) []any {
	return []any{
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Locale,
		&u.Points,
		&u.IsAdmin,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}

// Create inserts a binding. A unique violation on either user or workstation
// is reported as service.ErrBindingConflict.
func (r *BindingRepository) Create(ctx context.Context, binding *models.WorkstationBinding) error {
	query := `
		INSERT INTO user_workstations (user_id, workstation_id, cost, bound_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text
	`

	err := r.q.QueryRow(ctx, query,
		binding.UserID,
		binding.WorkstationID,
		binding.Cost,
		binding.BoundAt,
		binding.ExpiresAt,
	).Scan(&binding.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", service.ErrBindingConflict, pgErr.ConstraintName)
	}
	if err != nil {
		return fmt.Errorf("failed to create binding for user %s: %w", binding.UserID, err)
	}
	return nil
}

func (r *BindingRepository) getOne(ctx context.Context, where string, arg any) (*models.WorkstationBinding, error) {
	query := `SELECT ` + bindingColumns + ` FROM user_workstations uw WHERE ` + where

	var binding models.WorkstationBinding
	err := r.q.QueryRow(ctx, query, arg).Scan(bindingFields(&binding)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}
	return &binding, nil
}

// GetByUser returns the user's binding, if any
func (r *BindingRepository) GetByUser(ctx context.Context, userID string) (*models.WorkstationBinding, error) {
	if !validUserID(userID) {
		return nil, nil
	}
	return r.getOne(ctx, `uw.user_id = $1`, userID)
}

// GetByUserWithWorkstation returns the user's binding with its workstation attached
func (r *BindingRepository) GetByUserWithWorkstation(ctx context.Context, userID string) (*models.WorkstationBinding, error) {
	if !validUserID(userID) {
		return nil, nil
	}

	query := `
		SELECT ` + bindingColumns + `, ` + workstationColumns + `
		FROM user_workstations uw
		JOIN workstations w ON w.id = uw.workstation_id
		WHERE uw.user_id = $1
	`

	binding := &models.WorkstationBinding{Workstation: &models.Workstation{}}
	err := r.q.QueryRow(ctx, query, userID).Scan(append(bindingFields(binding), workstationFields(binding.Workstation)...)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get binding for user %s: %w", userID, err)
	}
	return binding, nil
}

// GetByWorkstation returns the binding that holds a workstation, if any
func (r *BindingRepository) GetByWorkstation(ctx context.Context, workstationID string) (*models.WorkstationBinding, error) {
	return r.getOne(ctx, `uw.workstation_id = $1`, workstationID)
}

// DeleteByUserAndWorkstation removes the matching binding and returns it
func (r *BindingRepository) DeleteByUserAndWorkstation(ctx context.Context, userID, workstationID string) (*models.WorkstationBinding, error) {
	if !validUserID(userID) {
		return nil, nil
	}

	query := `
		DELETE FROM user_workstations uw
		WHERE uw.user_id = $1 AND uw.workstation_id = $2
		RETURNING ` + bindingColumns

	var binding models.WorkstationBinding
	err := r.q.QueryRow(ctx, query, userID, workstationID).Scan(bindingFields(&binding)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete binding of %s for user %s: %w", workstationID, userID, err)
	}
	return &binding, nil
}

// DeleteByID removes a binding and reports whether it existed
func (r *BindingRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM user_workstations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete binding %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// ListWithOwners returns every binding joined with its owner, oldest first
func (r *BindingRepository) ListWithOwners(ctx context.Context) ([]*models.BindingWithOwner, error) {
	query := `
		SELECT ` + bindingColumns + `, ` + ownerColumns + `
		FROM user_workstations uw
		JOIN users u ON u.id = uw.user_id
		ORDER BY uw.bound_at, uw.id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()

	var result []*models.BindingWithOwner
	for rows.Next() {
		bw := &models.BindingWithOwner{Binding: &models.WorkstationBinding{}, Owner: &models.User{}}
		if err := rows.Scan(append(bindingFields(bw.Binding), ownerFields(bw.Owner)...)...); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		result = append(result, bw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bindings: %w", err)
	}
	return result, nil
}

// GetWithOwnerForUpdate re-reads a binding and its owner, locking the binding row
func (r *BindingRepository) GetWithOwnerForUpdate(ctx context.Context, id string) (*models.BindingWithOwner, error) {
	query := `
		SELECT ` + bindingColumns + `, ` + ownerColumns + `
		FROM user_workstations uw
		JOIN users u ON u.id = uw.user_id
		WHERE uw.id = $1
		FOR UPDATE OF uw
	`

	bw := &models.BindingWithOwner{Binding: &models.WorkstationBinding{}, Owner: &models.User{}}
	err := r.q.QueryRow(ctx, query, id).Scan(append(bindingFields(bw.Binding), ownerFields(bw.Owner)...)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock binding %s: %w", id, err)
	}
	return bw, nil
}

// MarkWarned stamps the inactivity warning time
func (r *BindingRepository) MarkWarned(ctx context.Context, id string, at time.Time) error {
	result, err := r.q.Exec(ctx, `UPDATE user_workstations SET last_inactivity_warning_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark binding %s warned: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("binding %s not found", id)
	}
	return nil
}

// Totals aggregates bound count, distinct owners and points spent
func (r *BindingRepository) Totals(ctx context.Context) (*models.BindingTotals, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT user_id), COALESCE(SUM(cost), 0)
		FROM user_workstations
	`

	var totals models.BindingTotals
	if err := r.q.QueryRow(ctx, query).Scan(&totals.Bound, &totals.UniqueUsers, &totals.TotalCost); err != nil {
		return nil, fmt.Errorf("failed to aggregate bindings: %w", err)
	}
	return &totals, nil
}

// CountActive counts bindings that are unlimited or not yet expired
func (r *BindingRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM user_workstations WHERE expires_at IS NULL OR expires_at > $1`, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bindings: %w", err)
	}
	return count, nil
}
