package models

import (
	"time"
)

// ProviderName identifies a notification source
type ProviderName string

const (
	ProviderNintendo ProviderName = "nintendo"
	ProviderYouTube  ProviderName = "youtube"
	ProviderTwitch   ProviderName = "twitch"
	ProviderPicarto  ProviderName = "picarto"
)

// AllProviders lists every notification source in a stable order
var AllProviders = []ProviderName{ProviderNintendo, ProviderYouTube, ProviderTwitch, ProviderPicarto}

// EventAll is the sentinel meaning "notify for every event type"
const EventAll = "all"

// ProviderConfig holds a guild's per-provider notification settings.
// ChannelID is the Discord channel notifications are posted to; Channels
// are the upstream channel/user identifiers being watched (insertion order
// preserved). Events is either an explicit set of event-type strings, the
// single sentinel "all", or empty meaning none.
type ProviderConfig struct {
	Enabled   bool     `json:"enabled"`
	ChannelID *int64   `json:"channel_id,omitempty"`
	Channels  []string `json:"channels,omitempty"`
	Events    []string `json:"events,omitempty"`
}

// WantsEvent reports whether the config opts in to the given event type
func (p ProviderConfig) WantsEvent(event string) bool {
	for _, e := range p.Events {
		if e == EventAll || e == event {
			return true
		}
	}
	return false
}

// Watches reports whether the upstream channel is on the watch list
func (p ProviderConfig) Watches(channel string) bool {
	for _, c := range p.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

// Providers groups the per-source configs stored in the guild document
type Providers struct {
	Nintendo ProviderConfig `json:"nintendo"`
	YouTube  ProviderConfig `json:"youtube"`
	Twitch   ProviderConfig `json:"twitch"`
	Picarto  ProviderConfig `json:"picarto"`
}

// Get returns the config for the named provider
func (p *Providers) Get(name ProviderName) *ProviderConfig {
	switch name {
	case ProviderNintendo:
		return &p.Nintendo
	case ProviderYouTube:
		return &p.YouTube
	case ProviderTwitch:
		return &p.Twitch
	case ProviderPicarto:
		return &p.Picarto
	}
	return nil
}

// Blacklist records whether (and why) a guild or user is barred from the bot.
// A nil ExpiresAt means the entry never expires.
type Blacklist struct {
	Is        bool
	Enforcer  *int64
	Reason    *string
	ExpiresAt *time.Time
}

// Active reports whether the blacklist entry is currently in force
func (b Blacklist) Active(now time.Time) bool {
	if !b.Is {
		return false
	}
	if b.ExpiresAt != nil && now.After(*b.ExpiresAt) {
		return false
	}
	return true
}

// GuildSettings represents a guild's stored configuration
type GuildSettings struct {
	GuildID    int64     `db:"guild_id"`
	Prefix     string    `db:"prefix"`
	Providers  Providers `db:"providers"`
	Blacklist  Blacklist `db:"-"`
	ModifiedAt time.Time `db:"modified_at"`
	CreatedAt  time.Time `db:"created_at"`
}
