package repository

import (
	"context"
	"fmt"
	"strings"

	"aoba/database"
	"aoba/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository provides access to per-user settings documents
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user settings repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// GetByUserID retrieves a user's settings, or nil if none exist
func (r *UserRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserSettings, error) {
	query := `
		SELECT user_id, prefix,
		       blacklisted, blacklist_enforcer, blacklist_reason, blacklist_expires_at,
		       modified_at, created_at
		FROM users
		WHERE user_id = $1
	`

	var settings models.UserSettings
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.Prefix,
		&settings.Blacklist.Is,
		&settings.Blacklist.Enforcer,
		&settings.Blacklist.Reason,
		&settings.Blacklist.ExpiresAt,
		&settings.ModifiedAt,
		&settings.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings for user %d: %w", userID, err)
	}

	return &settings, nil
}

// GetOrCreate retrieves a user's settings, lazily creating the default
// document on first access. New users start without a prefix override.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID int64) (*models.UserSettings, error) {
	insert := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, userID); err != nil {
		return nil, fmt.Errorf("failed to create settings for user %d: %w", userID, err)
	}

	settings, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("settings for user %d missing after upsert", userID)
	}
	return settings, nil
}

// UpdateFields applies a partial merge keyed by dotted field paths
// ("prefix", "blacklist.is", ...). Last writer wins.
func (r *UserRepository) UpdateFields(ctx context.Context, userID int64, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update for user %d", userID)
	}

	var sets []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for path, value := range fields {
		switch path {
		case "prefix":
			sets = append(sets, "prefix = "+arg(value))
		case "blacklist.is":
			sets = append(sets, "blacklisted = "+arg(value))
		case "blacklist.enforcer":
			sets = append(sets, "blacklist_enforcer = "+arg(value))
		case "blacklist.reason":
			sets = append(sets, "blacklist_reason = "+arg(value))
		case "blacklist.expires_at":
			sets = append(sets, "blacklist_expires_at = "+arg(value))
		default:
			return fmt.Errorf("unknown settings path %q", path)
		}
	}
	sets = append(sets, "modified_at = NOW()")

	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = %s",
		strings.Join(sets, ", "), arg(userID))

	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update settings for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}

	return nil
}

// Remove deletes a user's settings document. No-op if absent.
func (r *UserRepository) Remove(ctx context.Context, userID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to remove settings for user %d: %w", userID, err)
	}
	return nil
}
