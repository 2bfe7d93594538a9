package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pixeldesk/database"
	"pixeldesk/models"
)

// PointsHistoryRepository implements the PointsHistoryRepository interface
type PointsHistoryRepository struct {
	q queryable
}

// NewPointsHistoryRepository creates a new points history repository
func NewPointsHistoryRepository(db *database.DB) *PointsHistoryRepository {
	return &PointsHistoryRepository{q: db.Pool}
}

// newPointsHistoryRepositoryWithTx creates a new points history repository with a transaction
func newPointsHistoryRepositoryWithTx(tx queryable) *PointsHistoryRepository {
	return &PointsHistoryRepository{q: tx}
}

// Record appends a new history entry
func (r *PointsHistoryRepository) Record(ctx context.Context, entry *models.PointsHistoryEntry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal points metadata: %w", err)
		}
	}

	query := `
		INSERT INTO points_history (user_id, amount, reason, type, balance, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.Amount,
		entry.Reason,
		entry.Type,
		entry.Balance,
		metadataJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record points history for user %s: %w", entry.UserID, err)
	}

	return nil
}

// GetByUser returns a page of history for a user, newest first
func (r *PointsHistoryRepository) GetByUser(ctx context.Context, userID string, limit, offset int) ([]*models.PointsHistoryEntry, error) {
	if !validUserID(userID) {
		return nil, nil
	}

	query := `
		SELECT id::text, user_id::text, amount, reason, type, balance, metadata, created_at
		FROM points_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get points history for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.PointsHistoryEntry
	for rows.Next() {
		var entry models.PointsHistoryEntry
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Amount,
			&entry.Reason,
			&entry.Type,
			&entry.Balance,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan points history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal points metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate points history: %w", err)
	}

	return entries, nil
}

// CountByUser returns how many history entries a user has
func (r *PointsHistoryRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	if !validUserID(userID) {
		return 0, nil
	}

	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM points_history WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count points history for user %s: %w", userID, err)
	}
	return count, nil
}
