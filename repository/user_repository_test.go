package repository

import (
	"context"
	"testing"
	"time"

	"aoba/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetOrCreate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	settings, err := repo.GetByUserID(ctx, 555)
	require.NoError(t, err)
	assert.Nil(t, settings)

	settings, err = repo.GetOrCreate(ctx, 555)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, int64(555), settings.UserID)
	assert.Empty(t, settings.Prefix)
	assert.False(t, settings.Blacklist.Is)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, 666)
	require.NoError(t, err)

	t.Run("prefix override", func(t *testing.T) {
		require.NoError(t, repo.UpdateFields(ctx, 666, map[string]any{"prefix": "hey "}))

		settings, err := repo.GetByUserID(ctx, 666)
		require.NoError(t, err)
		assert.Equal(t, "hey ", settings.Prefix)
	})

	t.Run("blacklist with expiry", func(t *testing.T) {
		expires := time.Now().Add(24 * time.Hour).UTC()
		err := repo.UpdateFields(ctx, 666, map[string]any{
			"blacklist.is":         true,
			"blacklist.enforcer":   int64(42),
			"blacklist.reason":     "abuse",
			"blacklist.expires_at": expires,
		})
		require.NoError(t, err)

		settings, err := repo.GetByUserID(ctx, 666)
		require.NoError(t, err)
		assert.True(t, settings.Blacklist.Active(time.Now()))
		assert.False(t, settings.Blacklist.Active(expires.Add(time.Minute)))
	})

	t.Run("unknown path rejected", func(t *testing.T) {
		err := repo.UpdateFields(ctx, 666, map[string]any{"providers.twitch.enabled": true})
		assert.Error(t, err)
	})
}
