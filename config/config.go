package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string

	// Database configuration
	DatabaseURL string

	// Command prefixes; guild and user overrides live in settings
	DefaultPrefix string
	ShortPrefix   string

	// OwnerIDs may use owner-only commands and skip permission checks
	OwnerIDs []int64

	// Metrics HTTP server port
	MetricsPort int

	// Provider credentials; a provider without credentials is not started
	TwitchClientID     string
	TwitchClientSecret string
	YouTubeAPIKey      string

	// Feed polling
	NintendoFeedURL string
	FeedRefresh     time.Duration

	// Provider polling interval
	ProviderPollInterval time.Duration

	// Environment
	Environment string // "development" or "production"
}

// Load reads configuration from environment variables. Callers thread the
// result through constructors; there is no global instance.
func Load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken: os.Getenv("DISCORD_TOKEN"),

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Prefix defaults
		DefaultPrefix: "aoba ",
		ShortPrefix:   "ao!",

		// Metrics
		MetricsPort: 9090,

		// Providers
		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),

		// Feeds
		NintendoFeedURL:      os.Getenv("NINTENDO_FEED_URL"),
		FeedRefresh:          5 * time.Minute,
		ProviderPollInterval: 2 * time.Minute,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if prefix := os.Getenv("DEFAULT_PREFIX"); prefix != "" {
		config.DefaultPrefix = prefix
	}
	if prefix := os.Getenv("SHORT_PREFIX"); prefix != "" {
		config.ShortPrefix = prefix
	}
	if port := os.Getenv("METRICS_PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid METRICS_PORT %q: %w", port, err)
		}
		config.MetricsPort = parsed
	}
	if refresh := os.Getenv("FEED_REFRESH"); refresh != "" {
		parsed, err := time.ParseDuration(refresh)
		if err != nil {
			return nil, fmt.Errorf("invalid FEED_REFRESH %q: %w", refresh, err)
		}
		config.FeedRefresh = parsed
	}
	if interval := os.Getenv("PROVIDER_POLL_INTERVAL"); interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_POLL_INTERVAL %q: %w", interval, err)
		}
		config.ProviderPollInterval = parsed
	}

	// Parse owner Discord IDs
	if ownerIDs := os.Getenv("OWNER_IDS"); ownerIDs != "" {
		for _, idStr := range strings.Split(ownerIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid owner ID %q: %w", idStr, err)
			}
			config.OwnerIDs = append(config.OwnerIDs, id)
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
