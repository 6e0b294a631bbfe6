package service

import (
	"context"
	"time"

	"aoba/models"
)

// GuildSettingsRepository defines the interface for guild settings data access
type GuildSettingsRepository interface {
	// GetByGuildID retrieves a guild's settings, or nil if none exist
	GetByGuildID(ctx context.Context, guildID int64) (*models.GuildSettings, error)

	// GetOrCreate retrieves a guild's settings, lazily creating the default
	// document on first access
	GetOrCreate(ctx context.Context, guildID int64, defaultPrefix string) (*models.GuildSettings, error)

	// UpdateFields applies a partial merge keyed by dotted field paths
	UpdateFields(ctx context.Context, guildID int64, fields map[string]any) error

	// GetWithProviderEnabled returns every guild with the provider enabled
	GetWithProviderEnabled(ctx context.Context, provider models.ProviderName) ([]*models.GuildSettings, error)

	// Remove deletes a guild's settings document
	Remove(ctx context.Context, guildID int64) error
}

// UserSettingsRepository defines the interface for user settings data access
type UserSettingsRepository interface {
	// GetByUserID retrieves a user's settings, or nil if none exist
	GetByUserID(ctx context.Context, userID int64) (*models.UserSettings, error)

	// GetOrCreate retrieves a user's settings, lazily creating the default
	// document on first access
	GetOrCreate(ctx context.Context, userID int64) (*models.UserSettings, error)

	// UpdateFields applies a partial merge keyed by dotted field paths
	UpdateFields(ctx context.Context, userID int64, fields map[string]any) error

	// Remove deletes a user's settings document
	Remove(ctx context.Context, userID int64) error
}

// GuildSettingsService defines the interface for guild settings operations
type GuildSettingsService interface {
	// GetOrCreate returns the guild's settings, creating the default
	// document on first access
	GetOrCreate(ctx context.Context, guildID int64) (*models.GuildSettings, error)

	// SetPrefix sets the guild's command prefix override
	SetPrefix(ctx context.Context, guildID int64, prefix string) error

	// ResetPrefix restores the default command prefix
	ResetPrefix(ctx context.Context, guildID int64) error

	// Update applies a partial settings merge by dotted field paths
	Update(ctx context.Context, guildID int64, fields map[string]any) error

	// SetBlacklist bars the guild from using the bot
	SetBlacklist(ctx context.Context, guildID int64, enforcer int64, reason string, expiresAt *time.Time) error

	// ClearBlacklist lifts a guild's blacklist entry
	ClearBlacklist(ctx context.Context, guildID int64) error

	// NotificationTargets returns every guild with the provider enabled
	NotificationTargets(ctx context.Context, provider models.ProviderName) ([]*models.GuildSettings, error)

	// WatchedChannels returns the union of upstream channels any guild
	// watches for the provider
	WatchedChannels(ctx context.Context, provider models.ProviderName) ([]string, error)

	// Remove deletes the guild's settings
	Remove(ctx context.Context, guildID int64) error
}

// UserSettingsService defines the interface for user settings operations
type UserSettingsService interface {
	// GetOrCreate returns the user's settings, creating the default
	// document on first access
	GetOrCreate(ctx context.Context, userID int64) (*models.UserSettings, error)

	// SetPrefix sets the user's personal command prefix
	SetPrefix(ctx context.Context, userID int64, prefix string) error

	// ResetPrefix removes the user's personal command prefix
	ResetPrefix(ctx context.Context, userID int64) error

	// SetBlacklist bars the user from using the bot
	SetBlacklist(ctx context.Context, userID int64, enforcer int64, reason string, expiresAt *time.Time) error

	// ClearBlacklist lifts a user's blacklist entry
	ClearBlacklist(ctx context.Context, userID int64) error
}
