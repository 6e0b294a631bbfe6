package service

import (
	"context"
	"fmt"
	"time"

	"aoba/models"
)

// userSettingsService implements the UserSettingsService interface
type userSettingsService struct {
	repo UserSettingsRepository
}

// NewUserSettingsService creates a new user settings service
func NewUserSettingsService(repo UserSettingsRepository) UserSettingsService {
	return &userSettingsService{repo: repo}
}

func (s *userSettingsService) GetOrCreate(ctx context.Context, userID int64) (*models.UserSettings, error) {
	settings, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user settings: %w", err)
	}
	return settings, nil
}

func (s *userSettingsService) SetPrefix(ctx context.Context, userID int64, prefix string) error {
	if err := validatePrefix(prefix); err != nil {
		return err
	}
	return s.update(ctx, userID, map[string]any{"prefix": prefix})
}

// ResetPrefix clears the personal prefix; an empty prefix means the user
// falls back to the shared ones
func (s *userSettingsService) ResetPrefix(ctx context.Context, userID int64) error {
	return s.update(ctx, userID, map[string]any{"prefix": ""})
}

func (s *userSettingsService) SetBlacklist(ctx context.Context, userID int64, enforcer int64, reason string, expiresAt *time.Time) error {
	return s.update(ctx, userID, map[string]any{
		"blacklist.is":         true,
		"blacklist.enforcer":   enforcer,
		"blacklist.reason":     reason,
		"blacklist.expires_at": expiresAt,
	})
}

func (s *userSettingsService) ClearBlacklist(ctx context.Context, userID int64) error {
	return s.update(ctx, userID, map[string]any{
		"blacklist.is":         false,
		"blacklist.enforcer":   nil,
		"blacklist.reason":     nil,
		"blacklist.expires_at": nil,
	})
}

func (s *userSettingsService) update(ctx context.Context, userID int64, fields map[string]any) error {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}
	return nil
}
