package service

import (
	"context"
	"fmt"
	"time"

	"aoba/models"
)

// maxPrefixLength keeps prefixes short enough to stay recognizable in chat
const maxPrefixLength = 16

// guildSettingsService implements the GuildSettingsService interface
type guildSettingsService struct {
	repo          GuildSettingsRepository
	defaultPrefix string
}

// NewGuildSettingsService creates a new guild settings service
func NewGuildSettingsService(repo GuildSettingsRepository, defaultPrefix string) GuildSettingsService {
	return &guildSettingsService{
		repo:          repo,
		defaultPrefix: defaultPrefix,
	}
}

func (s *guildSettingsService) GetOrCreate(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	settings, err := s.repo.GetOrCreate(ctx, guildID, s.defaultPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}
	return settings, nil
}

func (s *guildSettingsService) SetPrefix(ctx context.Context, guildID int64, prefix string) error {
	if err := validatePrefix(prefix); err != nil {
		return err
	}
	return s.Update(ctx, guildID, map[string]any{"prefix": prefix})
}

func (s *guildSettingsService) ResetPrefix(ctx context.Context, guildID int64) error {
	return s.Update(ctx, guildID, map[string]any{"prefix": s.defaultPrefix})
}

func (s *guildSettingsService) Update(ctx context.Context, guildID int64, fields map[string]any) error {
	// Ensure the row exists so updates on a fresh guild do not vanish
	if _, err := s.GetOrCreate(ctx, guildID); err != nil {
		return err
	}
	if err := s.repo.UpdateFields(ctx, guildID, fields); err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}
	return nil
}

func (s *guildSettingsService) SetBlacklist(ctx context.Context, guildID int64, enforcer int64, reason string, expiresAt *time.Time) error {
	return s.Update(ctx, guildID, map[string]any{
		"blacklist.is":         true,
		"blacklist.enforcer":   enforcer,
		"blacklist.reason":     reason,
		"blacklist.expires_at": expiresAt,
	})
}

func (s *guildSettingsService) ClearBlacklist(ctx context.Context, guildID int64) error {
	return s.Update(ctx, guildID, map[string]any{
		"blacklist.is":         false,
		"blacklist.enforcer":   nil,
		"blacklist.reason":     nil,
		"blacklist.expires_at": nil,
	})
}

func (s *guildSettingsService) NotificationTargets(ctx context.Context, provider models.ProviderName) ([]*models.GuildSettings, error) {
	targets, err := s.repo.GetWithProviderEnabled(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification targets: %w", err)
	}
	return targets, nil
}

// WatchedChannels returns the distinct upstream channels across all guilds
// with the provider enabled, preserving first-seen order
func (s *guildSettingsService) WatchedChannels(ctx context.Context, provider models.ProviderName) ([]string, error) {
	guilds, err := s.NotificationTargets(ctx, provider)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var channels []string
	for _, guild := range guilds {
		cfg := guild.Providers.Get(provider)
		if cfg == nil {
			continue
		}
		for _, channel := range cfg.Channels {
			if seen[channel] {
				continue
			}
			seen[channel] = true
			channels = append(channels, channel)
		}
	}
	return channels, nil
}

func (s *guildSettingsService) Remove(ctx context.Context, guildID int64) error {
	if err := s.repo.Remove(ctx, guildID); err != nil {
		return fmt.Errorf("failed to remove guild settings: %w", err)
	}
	return nil
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix cannot be empty")
	}
	if len(prefix) > maxPrefixLength {
		return fmt.Errorf("prefix cannot exceed %d characters", maxPrefixLength)
	}
	return nil
}
