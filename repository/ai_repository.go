package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pixeldesk/database"
	"pixeldesk/models"
)

// AiNpcRepository reads NPC definitions
type AiNpcRepository struct {
	q queryable
}

// NewAiNpcRepository creates a new NPC repository
func NewAiNpcRepository(db *database.DB) *AiNpcRepository {
	return &AiNpcRepository{q: db.Pool}
}

func newAiNpcRepositoryWithTx(tx queryable) *AiNpcRepository {
	return &AiNpcRepository{q: tx}
}

// GetByID returns an active NPC
func (r *AiNpcRepository) GetByID(ctx context.Context, id string) (*models.AiNpc, error) {
	query := `
		SELECT id, name, role, personality, knowledge, is_active, created_at
		FROM ai_npcs
		WHERE id = $1 AND is_active
	`

	var npc models.AiNpc
	err := r.q.QueryRow(ctx, query, id).Scan(
		&npc.ID,
		&npc.Name,
		&npc.Role,
		&npc.Personality,
		&npc.Knowledge,
		&npc.IsActive,
		&npc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get npc %s: %w", id, err)
	}
	return &npc, nil
}

// Create inserts an NPC
func (r *AiNpcRepository) Create(ctx context.Context, npc *models.AiNpc) error {
	query := `
		INSERT INTO ai_npcs (id, name, role, personality, knowledge, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query, npc.ID, npc.Name, npc.Role, npc.Personality, npc.Knowledge, npc.IsActive).Scan(&npc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create npc %s: %w", npc.ID, err)
	}
	return nil
}

// AiConfigRepository reads the provider configuration
type AiConfigRepository struct {
	q queryable
}

// NewAiConfigRepository creates a new AI config repository
func NewAiConfigRepository(db *database.DB) *AiConfigRepository {
	return &AiConfigRepository{q: db.Pool}
}

func newAiConfigRepositoryWithTx(tx queryable) *AiConfigRepository {
	return &AiConfigRepository{q: tx}
}

// GetActive returns the most recently updated active config
func (r *AiConfigRepository) GetActive(ctx context.Context) (*models.AiGlobalConfig, error) {
	query := `
		SELECT id, provider, api_key, model_name, temperature, base_url, is_active
		FROM ai_global_config
		WHERE is_active
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`

	var cfg models.AiGlobalConfig
	err := r.q.QueryRow(ctx, query).Scan(
		&cfg.ID,
		&cfg.Provider,
		&cfg.APIKey,
		&cfg.ModelName,
		&cfg.Temperature,
		&cfg.BaseURL,
		&cfg.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active ai config: %w", err)
	}
	return &cfg, nil
}

// Create inserts a provider config
func (r *AiConfigRepository) Create(ctx context.Context, cfg *models.AiGlobalConfig) error {
	query := `
		INSERT INTO ai_global_config (provider, api_key, model_name, temperature, base_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query, cfg.Provider, cfg.APIKey, cfg.ModelName, cfg.Temperature, cfg.BaseURL, cfg.IsActive).Scan(&cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to create ai config: %w", err)
	}
	return nil
}

// AiUsageRepository tracks per-day chat counts
type AiUsageRepository struct {
	q queryable
}

// NewAiUsageRepository creates a new AI usage repository
func NewAiUsageRepository(db *database.DB) *AiUsageRepository {
	return &AiUsageRepository{q: db.Pool}
}

func newAiUsageRepositoryWithTx(tx queryable) *AiUsageRepository {
	return &AiUsageRepository{q: tx}
}

// Increment bumps the (user, day) counter and returns the new count
func (r *AiUsageRepository) Increment(ctx context.Context, userID string, day time.Time) (int, error) {
	query := `
		INSERT INTO ai_usage (user_id, date, count)
		VALUES ($1, $2::date, 1)
		ON CONFLICT (user_id, date) DO UPDATE SET count = ai_usage.count + 1
		RETURNING count
	`

	var count int
	if err := r.q.QueryRow(ctx, query, userID, day.Format("2006-01-02")).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment ai usage for user %s: %w", userID, err)
	}
	return count, nil
}
