package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pixeldesk/database"
	"pixeldesk/models"
)

const userColumns = `id::text, name, email, locale, points, is_admin, last_login, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Locale,
		&user.Points,
		&user.IsAdmin,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID. Malformed IDs are treated as absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, id, `SELECT `+userColumns+` FROM users WHERE id = $1`)
}

// GetByIDForUpdate retrieves a user and locks the row for the rest of the transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, id, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`)
}

func (r *UserRepository) get(ctx context.Context, id, query string) (*models.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	user, err := scanUser(r.q.QueryRow(ctx, query, userID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// Create inserts a new user, assigning an ID when none is set
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Locale == "" {
		user.Locale = "zh"
	}

	query := `
		INSERT INTO users (id, name, email, locale, points, is_admin, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Locale,
		user.Points,
		user.IsAdmin,
		user.LastLogin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return nil
}

// AddPoints applies delta to the balance and returns the new balance.
// No floor is enforced here; callers check affordability first.
func (r *UserRepository) AddPoints(ctx context.Context, id string, delta int64) (int64, error) {
	query := `
		UPDATE users
		SET points = points + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING points
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, delta, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add points for user %s: %w", id, err)
	}
	return balance, nil
}

// TouchLastLogin sets last_login to at unless it was already set within minGap
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time, minGap time.Duration) (bool, error) {
	query := `
		UPDATE users
		SET last_login = $2
		WHERE id = $1 AND (last_login IS NULL OR last_login <= $3)
	`

	result, err := r.q.Exec(ctx, query, id, at, at.Add(-minGap))
	if err != nil {
		return false, fmt.Errorf("failed to touch last login for user %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}
