package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/repository/testutil"
	"pixeldesk/service"
)

func TestBindingRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	users := NewUserRepository(testDB.DB)
	workstations := NewWorkstationRepository(testDB.DB)
	repo := NewBindingRepository(testDB.DB)

	now := time.Now().UTC().Truncate(time.Microsecond)

	alice := testutil.CreateTestUserLastSeen("alice", 50, now.Add(-8*24*time.Hour))
	bob := testutil.CreateTestUser("bob", 50)
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))
	for _, id := range []string{"ws-1", "ws-2", "ws-3"} {
		require.NoError(t, workstations.Create(ctx, testutil.CreateTestWorkstation(id)))
	}

	binding := testutil.CreateTestBinding(alice.ID, "ws-1", now.Add(-8*24*time.Hour), 30)

	t.Run("create and read back", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, binding))
		assert.NotEmpty(t, binding.ID)

		byUser, err := repo.GetByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, byUser)
		assert.Equal(t, "ws-1", byUser.WorkstationID)
		assert.True(t, byUser.ExpiresAt.Equal(*binding.ExpiresAt))
		assert.Nil(t, byUser.LastInactivityWarningAt)

		byWorkstation, err := repo.GetByWorkstation(ctx, "ws-1")
		require.NoError(t, err)
		assert.Equal(t, binding.ID, byWorkstation.ID)

		none, err := repo.GetByWorkstation(ctx, "ws-2")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("read with workstation", func(t *testing.T) {
		withWorkstation, err := repo.GetByUserWithWorkstation(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, withWorkstation)
		assert.Equal(t, binding.ID, withWorkstation.ID)
		require.NotNil(t, withWorkstation.Workstation)
		assert.Equal(t, "ws-1", withWorkstation.Workstation.ID)
		assert.Equal(t, "Desk ws-1", withWorkstation.Workstation.Name)
		assert.Equal(t, float64(10), withWorkstation.Workstation.XPosition)

		none, err := repo.GetByUserWithWorkstation(ctx, bob.ID)
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("malformed user id matches nothing", func(t *testing.T) {
		byUser, err := repo.GetByUser(ctx, "foo")
		require.NoError(t, err)
		assert.Nil(t, byUser)

		withWorkstation, err := repo.GetByUserWithWorkstation(ctx, "foo")
		require.NoError(t, err)
		assert.Nil(t, withWorkstation)

		deleted, err := repo.DeleteByUserAndWorkstation(ctx, "foo", "ws-1")
		require.NoError(t, err)
		assert.Nil(t, deleted)

		stillThere, err := repo.GetByWorkstation(ctx, "ws-1")
		require.NoError(t, err)
		assert.NotNil(t, stillThere)
	})

	t.Run("second binding for same user conflicts", func(t *testing.T) {
		err := repo.Create(ctx, testutil.CreateTestBinding(alice.ID, "ws-2", now, 30))
		assert.ErrorIs(t, err, service.ErrBindingConflict)
	})

	t.Run("taken workstation conflicts", func(t *testing.T) {
		err := repo.Create(ctx, testutil.CreateTestBinding(bob.ID, "ws-1", now, 30))
		assert.ErrorIs(t, err, service.ErrBindingConflict)
	})

	t.Run("list with owners", func(t *testing.T) {
		unlimited := testutil.CreateTestBinding(bob.ID, "ws-3", now, 0)
		unlimited.ExpiresAt = nil
		require.NoError(t, repo.Create(ctx, unlimited))

		list, err := repo.ListWithOwners(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, alice.ID, list[0].Owner.ID)
		assert.Equal(t, "alice@example.com", list[0].Owner.Email)
		require.NotNil(t, list[0].Owner.LastLogin)
		assert.Nil(t, list[1].Binding.ExpiresAt)
	})

	t.Run("totals and active count", func(t *testing.T) {
		totals, err := repo.Totals(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, totals.Bound)
		assert.Equal(t, 2, totals.UniqueUsers)
		assert.Equal(t, int64(20), totals.TotalCost)

		active, err := repo.CountActive(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 2, active)

		// Alice's binding runs out 22 days from now; the unlimited one never does
		active, err = repo.CountActive(ctx, now.Add(23*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, active)
	})

	t.Run("mark warned", func(t *testing.T) {
		require.NoError(t, repo.MarkWarned(ctx, binding.ID, now))

		reloaded, err := repo.GetByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded.LastInactivityWarningAt)
		assert.True(t, reloaded.LastInactivityWarningAt.Equal(now))
	})

	t.Run("lock inside transaction", func(t *testing.T) {
		tx, err := testDB.DB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		locked, err := newBindingRepositoryWithTx(tx).GetWithOwnerForUpdate(ctx, binding.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		assert.Equal(t, "alice", locked.Owner.Name)
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := repo.DeleteByUserAndWorkstation(ctx, bob.ID, "ws-1")
		require.NoError(t, err)
		assert.Nil(t, deleted)

		deleted, err = repo.DeleteByUserAndWorkstation(ctx, bob.ID, "ws-3")
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.Equal(t, "ws-3", deleted.WorkstationID)

		ok, err := repo.DeleteByID(ctx, binding.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.DeleteByID(ctx, binding.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
