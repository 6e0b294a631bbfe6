package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"aoba/bot"
	"aoba/config"
	"aoba/database"
	"aoba/events"
	"aoba/feed"
	"aoba/metrics"
	"aoba/providers"
	"aoba/repository"
	"aoba/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting aoba...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize event bus and metrics
	eventBus := events.NewBus()
	collector := metrics.NewCollector()

	metricsServer := metrics.NewServer(collector, cfg.MetricsPort)
	metricsServer.Start()
	defer metricsServer.Close()

	// Initialize repositories and services
	guildRepo := repository.NewGuildRepository(db)
	userRepo := repository.NewUserRepository(db)
	guildService := service.NewGuildSettingsService(guildRepo, cfg.DefaultPrefix)
	userService := service.NewUserSettingsService(userRepo)

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(cfg, guildService, userService, collector, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	// Start the feed emitter
	emitter := feed.NewEmitter(feed.NewFetcher(), eventBus, collector)
	defer emitter.Dispose()
	if cfg.NintendoFeedURL != "" {
		emitter.Subscribe(feed.Config{
			URL:         cfg.NintendoFeedURL,
			Refresh:     cfg.FeedRefresh,
			IgnoreFirst: true,
		})
	}

	// Start provider polling for every provider with credentials
	manager := providers.NewManager(buildProviders(cfg), guildService, eventBus, cfg.ProviderPollInterval)
	manager.Start()
	defer manager.Stop()

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}

// buildProviders instantiates every poller whose credentials are present.
// Picarto's API needs none, so it always runs.
func buildProviders(cfg *config.Config) []providers.Provider {
	client := providers.DefaultHTTPClient()

	list := []providers.Provider{
		providers.NewPicartoProvider(client),
	}
	if cfg.TwitchClientID != "" && cfg.TwitchClientSecret != "" {
		list = append(list, providers.NewTwitchProvider(cfg.TwitchClientID, cfg.TwitchClientSecret, client))
	} else {
		log.Info("Twitch credentials missing, twitch polling disabled")
	}
	if cfg.YouTubeAPIKey != "" {
		list = append(list, providers.NewYouTubeProvider(cfg.YouTubeAPIKey, client))
	} else {
		log.Info("YouTube API key missing, youtube polling disabled")
	}

	names := make([]string, len(list))
	for i, p := range list {
		names[i] = string(p.Name())
	}
	log.WithField("providers", names).Info("Provider polling configured")

	return list
}
