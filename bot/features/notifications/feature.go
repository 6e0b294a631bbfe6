package notifications

import (
	"context"
	"fmt"
	"strconv"

	"aoba/bot/common"
	"aoba/events"
	"aoba/models"

	"github.com/bwmarrin/discordgo"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
)

// feedEvent is the event-filter name feed items are announced under
const feedEvent = "news"

// Sender is the slice of the Discord session the feature needs
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// TargetSource yields the guilds that enabled a provider
type TargetSource interface {
	NotificationTargets(ctx context.Context, provider models.ProviderName) ([]*models.GuildSettings, error)
}

// Feature fans feed items and provider activity out to the guilds that
// opted in, as embeds in their configured channels
type Feature struct {
	sender    Sender
	guilds    TargetSource
	sanitizer *bluemonday.Policy

	// feedProviders maps a subscribed feed URL to the provider it
	// represents, so guild settings can filter it
	feedProviders map[string]models.ProviderName
}

func New(sender Sender, guilds TargetSource, feedProviders map[string]models.ProviderName) *Feature {
	return &Feature{
		sender:        sender,
		guilds:        guilds,
		sanitizer:     bluemonday.StrictPolicy(),
		feedProviders: feedProviders,
	}
}

// Register subscribes the feature to the event bus
func (f *Feature) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeFeedItemNew, f.handleFeedItem)
	bus.Subscribe(events.EventTypeProviderActivity, f.handleProviderActivity)
}

func (f *Feature) handleFeedItem(ctx context.Context, event events.Event) {
	item, ok := event.(events.FeedItemNewEvent)
	if !ok {
		return
	}

	provider, ok := f.feedProviders[item.FeedURL]
	if !ok {
		log.WithField("url", item.FeedURL).Debug("Feed item from unmapped feed, dropping")
		return
	}

	embed := common.InfoEmbed(f.sanitizer.Sanitize(item.Title), item.Description)
	embed.URL = item.Link
	if item.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: f.sanitizer.Sanitize(item.Author)}
	}
	if item.Published != nil {
		embed.Timestamp = item.Published.Format("2006-01-02T15:04:05Z07:00")
	}

	f.fanOut(ctx, provider, embed, func(cfg *models.ProviderConfig) bool {
		return cfg.WantsEvent(feedEvent)
	})
}

func (f *Feature) handleProviderActivity(ctx context.Context, event events.Event) {
	activity, ok := event.(events.ProviderActivityEvent)
	if !ok {
		return
	}

	title := f.sanitizer.Sanitize(activity.Title)
	embed := common.InfoEmbed(title, fmt.Sprintf("**%s** is live: %s", f.sanitizer.Sanitize(activity.Author), activity.URL))
	if activity.Event == "video" {
		embed.Description = fmt.Sprintf("**%s** uploaded: %s", f.sanitizer.Sanitize(activity.Author), activity.URL)
	}
	embed.URL = activity.URL
	embed.Timestamp = activity.StartedAt.Format("2006-01-02T15:04:05Z07:00")

	f.fanOut(ctx, activity.Provider, embed, func(cfg *models.ProviderConfig) bool {
		return cfg.Watches(activity.ChannelID) && cfg.WantsEvent(activity.Event)
	})
}

// fanOut sends the embed to every enabled guild whose config has a target
// channel and passes the extra filter
func (f *Feature) fanOut(ctx context.Context, provider models.ProviderName, embed *discordgo.MessageEmbed, wants func(*models.ProviderConfig) bool) {
	targets, err := f.guilds.NotificationTargets(ctx, provider)
	if err != nil {
		log.WithError(err).WithField("provider", provider).Error("Failed to load notification targets")
		return
	}

	for _, guild := range targets {
		cfg := guild.Providers.Get(provider)
		if cfg == nil || cfg.ChannelID == nil || !wants(cfg) {
			continue
		}

		channelID := strconv.FormatInt(*cfg.ChannelID, 10)
		if _, err := f.sender.ChannelMessageSendEmbed(channelID, embed); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guild":   guild.GuildID,
				"channel": channelID,
			}).Warn("Failed to deliver notification")
		}
	}
}
