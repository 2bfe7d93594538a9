package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/repository/testutil"
)

func TestSeedWorkstations(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	created, err := SeedWorkstations(ctx, testDB.DB, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	workstations := NewWorkstationRepository(testDB.DB)
	ws, err := workstations.GetByID(ctx, "ws-005")
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "Desk 5", ws.Name)
	assert.Equal(t, float64(0), ws.XPosition)
	assert.Equal(t, float64(2*deskSpacing), ws.YPosition)

	cfg, err := NewWorkstationConfigRepository(testDB.DB).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TotalWorkstations)

	// Re-seeding keeps existing slots and only adds the new ones
	created, err = SeedWorkstations(ctx, testDB.DB, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	_, err = SeedWorkstations(ctx, testDB.DB, 0, 2)
	assert.Error(t, err)
}
