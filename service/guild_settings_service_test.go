package service

import (
	"context"
	"strings"
	"testing"

	"aoba/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func guildWithChannels(guildID int64, provider models.ProviderName, channels ...string) *models.GuildSettings {
	settings := &models.GuildSettings{GuildID: guildID}
	cfg := settings.Providers.Get(provider)
	cfg.Enabled = true
	cfg.Channels = channels
	return settings
}

func TestGuildSettingsService_SetPrefix(t *testing.T) {
	ctx := context.Background()

	t.Run("valid prefix is stored", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetOrCreate", ctx, int64(1), "aoba ").Return(&models.GuildSettings{GuildID: 1}, nil)
		repo.On("UpdateFields", ctx, int64(1), map[string]any{"prefix": "!"}).Return(nil)

		require.NoError(t, svc.SetPrefix(ctx, 1, "!"))
		repo.AssertExpectations(t)
	})

	t.Run("empty prefix rejected", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		assert.Error(t, svc.SetPrefix(ctx, 1, ""))
		repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("overlong prefix rejected", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		assert.Error(t, svc.SetPrefix(ctx, 1, strings.Repeat("x", maxPrefixLength+1)))
	})

	t.Run("reset restores the default", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetOrCreate", ctx, int64(1), "aoba ").Return(&models.GuildSettings{GuildID: 1}, nil)
		repo.On("UpdateFields", ctx, int64(1), map[string]any{"prefix": "aoba "}).Return(nil)

		require.NoError(t, svc.ResetPrefix(ctx, 1))
		repo.AssertExpectations(t)
	})
}

func TestGuildSettingsService_Blacklist(t *testing.T) {
	ctx := context.Background()

	t.Run("set records enforcer and reason", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetOrCreate", ctx, int64(1), "aoba ").Return(&models.GuildSettings{GuildID: 1}, nil)
		repo.On("UpdateFields", ctx, int64(1), mock.MatchedBy(func(fields map[string]any) bool {
			return fields["blacklist.is"] == true &&
				fields["blacklist.enforcer"] == int64(42) &&
				fields["blacklist.reason"] == "spam"
		})).Return(nil)

		require.NoError(t, svc.SetBlacklist(ctx, 1, 42, "spam", nil))
		repo.AssertExpectations(t)
	})

	t.Run("clear nils every blacklist column", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetOrCreate", ctx, int64(1), "aoba ").Return(&models.GuildSettings{GuildID: 1}, nil)
		repo.On("UpdateFields", ctx, int64(1), mock.MatchedBy(func(fields map[string]any) bool {
			return fields["blacklist.is"] == false &&
				fields["blacklist.enforcer"] == nil &&
				fields["blacklist.reason"] == nil &&
				fields["blacklist.expires_at"] == nil
		})).Return(nil)

		require.NoError(t, svc.ClearBlacklist(ctx, 1))
		repo.AssertExpectations(t)
	})
}

func TestGuildSettingsService_WatchedChannels(t *testing.T) {
	ctx := context.Background()

	t.Run("unions channels preserving first seen order", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetWithProviderEnabled", ctx, models.ProviderTwitch).Return([]*models.GuildSettings{
			guildWithChannels(1, models.ProviderTwitch, "shroud", "lirik"),
			guildWithChannels(2, models.ProviderTwitch, "lirik", "summit"),
		}, nil)

		channels, err := svc.WatchedChannels(ctx, models.ProviderTwitch)
		require.NoError(t, err)
		assert.Equal(t, []string{"shroud", "lirik", "summit"}, channels)
	})

	t.Run("no enabled guilds yields empty", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetWithProviderEnabled", ctx, models.ProviderPicarto).Return([]*models.GuildSettings{}, nil)

		channels, err := svc.WatchedChannels(ctx, models.ProviderPicarto)
		require.NoError(t, err)
		assert.Empty(t, channels)
	})
}

func TestGuildSettingsService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("ensures the row exists before updating", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetOrCreate", ctx, int64(7), "aoba ").Return(&models.GuildSettings{GuildID: 7}, nil)
		repo.On("UpdateFields", ctx, int64(7), map[string]any{"providers.twitch.enabled": true}).Return(nil)

		require.NoError(t, svc.Update(ctx, 7, map[string]any{"providers.twitch.enabled": true}))
		repo.AssertExpectations(t)
	})

	t.Run("repository errors are wrapped", func(t *testing.T) {
		repo := new(MockGuildSettingsRepository)
		svc := NewGuildSettingsService(repo, "aoba ")

		repo.On("GetOrCreate", ctx, int64(7), "aoba ").Return(nil, assert.AnError)

		err := svc.Update(ctx, 7, map[string]any{"prefix": "!"})
		assert.ErrorIs(t, err, assert.AnError)
	})
}
