package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"aoba/database"
	"aoba/models"

	"github.com/jackc/pgx/v5"
)

// GuildRepository provides access to per-guild settings documents
type GuildRepository struct {
	q queryable
}

// NewGuildRepository creates a new guild settings repository
func NewGuildRepository(db *database.DB) *GuildRepository {
	return &GuildRepository{q: db.Pool}
}

// providerFields is the set of JSONB fields addressable through dotted
// update paths like "providers.twitch.enabled"
var providerFields = map[string]bool{
	"enabled":    true,
	"channel_id": true,
	"channels":   true,
	"events":     true,
}

func isKnownProvider(name string) bool {
	for _, p := range models.AllProviders {
		if string(p) == name {
			return true
		}
	}
	return false
}

// GetByGuildID retrieves a guild's settings, or nil if none exist
func (r *GuildRepository) GetByGuildID(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	query := `
		SELECT guild_id, prefix, providers,
		       blacklisted, blacklist_enforcer, blacklist_reason, blacklist_expires_at,
		       modified_at, created_at
		FROM guilds
		WHERE guild_id = $1
	`

	settings, err := scanGuildRow(r.q.QueryRow(ctx, query, guildID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings for guild %d: %w", guildID, err)
	}

	return settings, nil
}

// GetOrCreate retrieves a guild's settings, lazily creating the default
// document on first access
func (r *GuildRepository) GetOrCreate(ctx context.Context, guildID int64, defaultPrefix string) (*models.GuildSettings, error) {
	providers, err := json.Marshal(models.Providers{})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default providers: %w", err)
	}

	insert := `
		INSERT INTO guilds (guild_id, prefix, providers)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, guildID, defaultPrefix, providers); err != nil {
		return nil, fmt.Errorf("failed to create settings for guild %d: %w", guildID, err)
	}

	settings, err := r.GetByGuildID(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("settings for guild %d missing after upsert", guildID)
	}
	return settings, nil
}

// UpdateFields applies a partial merge keyed by dotted field paths, e.g.
// "prefix", "blacklist.reason" or "providers.twitch.enabled". Provider
// paths update the JSONB document in place; modified_at is always bumped.
// Last writer wins.
func (r *GuildRepository) UpdateFields(ctx context.Context, guildID int64, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update for guild %d", guildID)
	}

	var sets []string
	var args []any
	providersExpr := "providers"

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
			parts := strings.Split(path, ".")
			if len(parts) != 3 || parts[0] != "providers" {
				return fmt.Errorf("unknown settings path %q", path)
			}
			if !isKnownProvider(parts[1]) {
				return fmt.Errorf("unknown provider %q in path %q", parts[1], path)
			}
			if !providerFields[parts[2]] {
				return fmt.Errorf("unknown provider field %q in path %q", parts[2], path)
			}

			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to encode value for %q: %w", path, err)
			}
			providersExpr = fmt.Sprintf("jsonb_set(%s, '{%s,%s}', %s::jsonb, true)",
				providersExpr, parts[1], parts[2], arg(string(encoded)))
		}
	}

	if providersExpr != "providers" {
		sets = append(sets, "providers = "+providersExpr)
	}
	sets = append(sets, "modified_at = NOW()")

	query := fmt.Sprintf("UPDATE guilds SET %s WHERE guild_id = %s",
		strings.Join(sets, ", "), arg(guildID))

	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update settings for guild %d: %w", guildID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("guild %d not found", guildID)
	}

	return nil
}

// GetWithProviderEnabled returns every guild whose settings enable the
// named provider
func (r *GuildRepository) GetWithProviderEnabled(ctx context.Context, provider models.ProviderName) ([]*models.GuildSettings, error) {
	query := `
		SELECT guild_id, prefix, providers,
		       blacklisted, blacklist_enforcer, blacklist_reason, blacklist_expires_at,
		       modified_at, created_at
		FROM guilds
		WHERE (providers -> $1 ->> 'enabled')::boolean IS TRUE
	`

	rows, err := r.q.Query(ctx, query, string(provider))
	if err != nil {
		return nil, fmt.Errorf("failed to query guilds with %s enabled: %w", provider, err)
	}
	defer rows.Close()

	var results []*models.GuildSettings
	for rows.Next() {
		settings, err := scanGuildRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guild row: %w", err)
		}
		results = append(results, settings)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guild rows: %w", err)
	}

	return results, nil
}

// Remove deletes a guild's settings document. No-op if absent.
func (r *GuildRepository) Remove(ctx context.Context, guildID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM guilds WHERE guild_id = $1`, guildID); err != nil {
		return fmt.Errorf("failed to remove settings for guild %d: %w", guildID, err)
	}
	return nil
}

func scanGuildRow(row pgx.Row) (*models.GuildSettings, error) {
	var settings models.GuildSettings
	var providers []byte

	err := row.Scan(
		&settings.GuildID,
		&settings.Prefix,
		&providers,
		&settings.Blacklist.Is,
		&settings.Blacklist.Enforcer,
		&settings.Blacklist.Reason,
		&settings.Blacklist.ExpiresAt,
		&settings.ModifiedAt,
		&settings.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(providers, &settings.Providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers document: %w", err)
	}

	return &settings, nil
}
