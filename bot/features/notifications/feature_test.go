package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"aoba/events"
	"aoba/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   map[string][]*discordgo.MessageEmbed
	failed bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[string][]*discordgo.MessageEmbed)}
}

func (s *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return nil, assert.AnError
	}
	s.sent[channelID] = append(s.sent[channelID], embed)
	return &discordgo.Message{}, nil
}

type fakeTargets struct {
	guilds []*models.GuildSettings
}

func (f *fakeTargets) NotificationTargets(ctx context.Context, provider models.ProviderName) ([]*models.GuildSettings, error) {
	return f.guilds, nil
}

func optedInGuild(guildID, channelID int64, provider models.ProviderName, watching []string, wantedEvents []string) *models.GuildSettings {
	settings := &models.GuildSettings{GuildID: guildID}
	cfg := settings.Providers.Get(provider)
	cfg.Enabled = true
	cfg.ChannelID = &channelID
	cfg.Channels = watching
	cfg.Events = wantedEvents
	return settings
}

const nintendoFeed = "https://example.com/nintendo.rss"

func newTestFeature(sender *fakeSender, targets *fakeTargets) (*Feature, *events.Bus) {
	bus := events.NewBus()
	feature := New(sender, targets, map[string]models.ProviderName{
		nintendoFeed: models.ProviderNintendo,
	})
	feature.Register(bus)
	return feature, bus
}

func TestFeedItemFanOut(t *testing.T) {
	t.Run("delivered to opted-in guilds", func(t *testing.T) {
		sender := newFakeSender()
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderNintendo, nil, []string{"all"}),
			optedInGuild(2, 600, models.ProviderNintendo, nil, []string{"news"}),
		}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), events.FeedItemNewEvent{
			FeedURL: nintendoFeed,
			Link:    "https://example.com/post",
			Title:   "Direct announced",
		})

		require.Len(t, sender.sent["500"], 1)
		require.Len(t, sender.sent["600"], 1)
		assert.Equal(t, "Direct announced", sender.sent["500"][0].Title)
		assert.Equal(t, "https://example.com/post", sender.sent["500"][0].URL)
	})

	t.Run("guild without target channel skipped", func(t *testing.T) {
		sender := newFakeSender()
		settings := optedInGuild(1, 500, models.ProviderNintendo, nil, []string{"all"})
		settings.Providers.Nintendo.ChannelID = nil
		targets := &fakeTargets{guilds: []*models.GuildSettings{settings}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), events.FeedItemNewEvent{FeedURL: nintendoFeed, Title: "x"})
		assert.Empty(t, sender.sent)
	})

	t.Run("guild with empty event set skipped", func(t *testing.T) {
		sender := newFakeSender()
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderNintendo, nil, nil),
		}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), events.FeedItemNewEvent{FeedURL: nintendoFeed, Title: "x"})
		assert.Empty(t, sender.sent)
	})

	t.Run("unmapped feed dropped", func(t *testing.T) {
		sender := newFakeSender()
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderNintendo, nil, []string{"all"}),
		}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), events.FeedItemNewEvent{FeedURL: "https://other.example/feed", Title: "x"})
		assert.Empty(t, sender.sent)
	})

	t.Run("html in titles is stripped", func(t *testing.T) {
		sender := newFakeSender()
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderNintendo, nil, []string{"all"}),
		}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), events.FeedItemNewEvent{
			FeedURL: nintendoFeed,
			Title:   "<script>alert(1)</script>Safe title",
		})

		require.Len(t, sender.sent["500"], 1)
		assert.Equal(t, "Safe title", sender.sent["500"][0].Title)
	})
}

func TestProviderActivityFanOut(t *testing.T) {
	activity := events.ProviderActivityEvent{
		Provider:  models.ProviderTwitch,
		ChannelID: "shroud",
		Event:     "live",
		Title:     "FPS night",
		URL:       "https://www.twitch.tv/shroud",
		Author:    "Shroud",
		StartedAt: time.Now(),
	}

	t.Run("watching guild notified", func(t *testing.T) {
		sender := newFakeSender()
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderTwitch, []string{"shroud"}, []string{"all"}),
		}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), activity)
		require.Len(t, sender.sent["500"], 1)
		assert.Equal(t, "FPS night", sender.sent["500"][0].Title)
	})

	t.Run("guild not watching the channel skipped", func(t *testing.T) {
		sender := newFakeSender()
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderTwitch, []string{"lirik"}, []string{"all"}),
		}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), activity)
		assert.Empty(t, sender.sent)
	})

	t.Run("event filter respected", func(t *testing.T) {
		sender := newFakeSender()
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderTwitch, []string{"shroud"}, []string{"video"}),
		}}
		_, bus := newTestFeature(sender, targets)

		bus.Emit(context.Background(), activity)
		assert.Empty(t, sender.sent)
	})

	t.Run("delivery failure does not stop other guilds", func(t *testing.T) {
		sender := newFakeSender()
		sender.failed = true
		targets := &fakeTargets{guilds: []*models.GuildSettings{
			optedInGuild(1, 500, models.ProviderTwitch, []string{"shroud"}, []string{"all"}),
			optedInGuild(2, 600, models.ProviderTwitch, []string{"shroud"}, []string{"all"}),
		}}
		_, bus := newTestFeature(sender, targets)

		// Both sends fail; the handler must not panic or abort
		bus.Emit(context.Background(), activity)
		assert.Empty(t, sender.sent)
	})
}
