package models

import (
	"time"
)

// UserSettings represents a user's stored configuration. Prefix is a
// personal prefix override; empty means the user has none.
type UserSettings struct {
	UserID     int64     `db:"user_id"`
	Prefix     string    `db:"prefix"`
	Blacklist  Blacklist `db:"-"`
	ModifiedAt time.Time `db:"modified_at"`
	CreatedAt  time.Time `db:"created_at"`
}
