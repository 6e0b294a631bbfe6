package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"aoba/bot/commands"
	"aoba/bot/features/core"
	"aoba/bot/features/developer"
	"aoba/bot/features/notifications"
	"aoba/config"
	"aoba/events"
	"aoba/metrics"
	"aoba/models"
	"aoba/service"

	"github.com/bwmarrin/discordgo"
)

// housekeepingInterval paces the gateway latency gauge update and the
// cooldown prune
const housekeepingInterval = 30 * time.Second

type Bot struct {
	config     *config.Config
	session    *discordgo.Session
	registry   *commands.Registry
	dispatcher *commands.Dispatcher
	guilds     service.GuildSettingsService
	users      service.UserSettingsService
	collector  *metrics.Collector
	eventBus   *events.Bus

	stop chan struct{}
}

func New(cfg *config.Config, guilds service.GuildSettingsService, users service.UserSettingsService, collector *metrics.Collector, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	registry := commands.NewRegistry()
	bot := &Bot{
		config:   cfg,
		session:  dg,
		registry: registry,
		dispatcher: commands.NewDispatcher(commands.DispatcherConfig{
			Registry:      registry,
			Guilds:        guilds,
			Users:         users,
			Collector:     collector,
			DefaultPrefix: cfg.DefaultPrefix,
			ShortPrefix:   cfg.ShortPrefix,
			OwnerIDs:      cfg.OwnerIDs,
		}),
		guilds:    guilds,
		users:     users,
		collector: collector,
		eventBus:  eventBus,
		stop:      make(chan struct{}),
	}

	if err := bot.registerFeatures(); err != nil {
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	// Register gateway event handlers
	dg.AddHandler(bot.handleReady)
	dg.AddHandler(bot.handleMessageCreate)
	dg.AddHandler(bot.handleGuildCreate)
	dg.AddHandler(bot.handleGuildDelete)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	go bot.housekeeping()

	return bot, nil
}

// registerFeatures builds the command set and wires the notification
// fan-out to the event bus
func (b *Bot) registerFeatures() error {
	coreFeature := core.New(b.session, b.registry, b.guilds, b.users, b.config)
	developerFeature := developer.New(b.guilds, b.users)

	for _, cmd := range coreFeature.Commands() {
		if err := b.registry.Register(cmd); err != nil {
			return err
		}
	}
	for _, cmd := range developerFeature.Commands() {
		if err := b.registry.Register(cmd); err != nil {
			return err
		}
	}

	feedProviders := make(map[string]models.ProviderName)
	if b.config.NintendoFeedURL != "" {
		feedProviders[b.config.NintendoFeedURL] = models.ProviderNintendo
	}
	notifications.New(b.session, b.guilds, feedProviders).Register(b.eventBus)

	return nil
}

func (b *Bot) Close() error {
	close(b.stop)
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"username": r.User.Username,
		"guilds":   len(r.Guilds),
	}).Info("Connected to Discord")

	b.collector.SetGuildCount(len(r.Guilds))

	if err := s.UpdateGameStatus(0, b.config.DefaultPrefix+"help"); err != nil {
		log.WithError(err).Warn("Failed to set presence")
	}
}

func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.dispatcher.Handle(context.Background(), s, s.State.User.ID, m)
}

func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.collector.SetGuildCount(len(s.State.Guilds))

	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.WithError(err).WithField("guildID", g.ID).Warn("Unparseable guild ID on join")
		return
	}

	ctx := context.Background()
	if _, err := b.guilds.GetOrCreate(ctx, guildID); err != nil {
		log.WithError(err).WithField("guildID", guildID).Error("Failed to create settings on guild join")
		return
	}

	b.eventBus.Emit(ctx, events.GuildJoinedEvent{GuildID: guildID, Name: g.Name})
}

func (b *Bot) handleGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Unavailable means an outage, not a removal; keep the settings
	if g.Unavailable {
		return
	}

	b.collector.SetGuildCount(len(s.State.Guilds))

	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.WithError(err).WithField("guildID", g.ID).Warn("Unparseable guild ID on leave")
		return
	}

	ctx := context.Background()
	if err := b.guilds.Remove(ctx, guildID); err != nil {
		log.WithError(err).WithField("guildID", guildID).Error("Failed to remove settings on guild leave")
	}

	b.eventBus.Emit(ctx, events.GuildRemovedEvent{GuildID: guildID})
}

// housekeeping updates the gateway latency gauge and prunes expired
// cooldown windows until the bot closes
func (b *Bot) housekeeping() {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.collector.SetGatewayLatency(b.session.HeartbeatLatency())
			b.dispatcher.PruneCooldowns()
		}
	}
}
