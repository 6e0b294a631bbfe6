package testutil

import (
	"time"

	"aoba/models"
)

// CreateTestGuildSettings creates guild settings with default values
func CreateTestGuildSettings(guildID int64) *models.GuildSettings {
	now := time.Now()
	return &models.GuildSettings{
		GuildID:    guildID,
		Prefix:     "aoba ",
		ModifiedAt: now,
		CreatedAt:  now,
	}
}

// CreateTestUserSettings creates user settings with default values
func CreateTestUserSettings(userID int64) *models.UserSettings {
	now := time.Now()
	return &models.UserSettings{
		UserID:     userID,
		ModifiedAt: now,
		CreatedAt:  now,
	}
}

// BlacklistEntry builds an active blacklist record for tests
func BlacklistEntry(enforcer int64, reason string, expiresAt *time.Time) models.Blacklist {
	return models.Blacklist{
		Is:        true,
		Enforcer:  &enforcer,
		Reason:    &reason,
		ExpiresAt: expiresAt,
	}
}
