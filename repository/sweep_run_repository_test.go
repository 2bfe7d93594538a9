package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/models"
	"pixeldesk/repository/testutil"
)

func TestSweepRunRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewSweepRunRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no runs yet", func(t *testing.T) {
		run, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("latest by start time", func(t *testing.T) {
		base := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

		older := testutil.CreateTestSweepRun(base, models.SweepTriggerCron)
		newer := testutil.CreateTestSweepRun(base.Add(time.Hour), models.SweepTriggerManual)
		require.NoError(t, repo.Create(ctx, newer))
		require.NoError(t, repo.Create(ctx, older))
		assert.NotZero(t, older.ID)
		assert.False(t, older.CreatedAt.IsZero())

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)

		assert.Equal(t, newer.ID, latest.ID)
		assert.Equal(t, models.SweepTriggerManual, latest.Trigger)
		assert.Equal(t, 3, latest.Reclaimed)
		assert.Equal(t, int64(14), latest.RefundedPoints)
		assert.EqualValues(t, 1500, latest.Summary["durationMs"])
		assert.True(t, latest.StartedAt.Equal(base.Add(time.Hour)))
	})

	t.Run("nil summary", func(t *testing.T) {
		run := testutil.CreateTestSweepRun(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), models.SweepTriggerLazy)
		run.Summary = nil
		require.NoError(t, repo.Create(ctx, run))
		assert.NotZero(t, run.ID)
	})
}

func TestAiRepositories(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	users := NewUserRepository(testDB.DB)
	npcs := NewAiNpcRepository(testDB.DB)
	configs := NewAiConfigRepository(testDB.DB)
	usage := NewAiUsageRepository(testDB.DB)

	user := testutil.CreateTestUser("erin", 0)
	require.NoError(t, users.Create(ctx, user))

	t.Run("npc lookup hides inactive npcs", func(t *testing.T) {
		require.NoError(t, npcs.Create(ctx, &models.AiNpc{ID: "npc-1", Name: "Ada", Role: "前台", IsActive: true}))
		require.NoError(t, npcs.Create(ctx, &models.AiNpc{ID: "npc-2", Name: "Old", IsActive: false}))

		npc, err := npcs.GetByID(ctx, "npc-1")
		require.NoError(t, err)
		require.NotNil(t, npc)
		assert.Equal(t, "Ada", npc.Name)

		npc, err = npcs.GetByID(ctx, "npc-2")
		require.NoError(t, err)
		assert.Nil(t, npc)
	})

	t.Run("active config", func(t *testing.T) {
		cfg, err := configs.GetActive(ctx)
		require.NoError(t, err)
		assert.Nil(t, cfg)

		temperature := 0.3
		require.NoError(t, configs.Create(ctx, &models.AiGlobalConfig{Provider: "gemini", APIKey: "k1", IsActive: false}))
		require.NoError(t, configs.Create(ctx, &models.AiGlobalConfig{Provider: "deepseek", APIKey: "k2", Temperature: &temperature, IsActive: true}))

		cfg, err = configs.GetActive(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "deepseek", cfg.Provider)
		require.NotNil(t, cfg.Temperature)
		assert.InDelta(t, 0.3, *cfg.Temperature, 1e-9)
	})

	t.Run("usage counts per day", func(t *testing.T) {
		day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		for want := 1; want <= 3; want++ {
			got, err := usage.Increment(ctx, user.ID, day)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		got, err := usage.Increment(ctx, user.ID, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})
}
