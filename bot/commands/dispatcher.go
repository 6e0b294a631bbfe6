package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aoba/metrics"
	"aoba/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// GuildSettingsSource yields the settings row for a guild, creating it with
// defaults on first access
type GuildSettingsSource interface {
	GetOrCreate(ctx context.Context, guildID int64) (*models.GuildSettings, error)
}

// UserSettingsSource yields the settings row for a user, creating it with
// defaults on first access
type UserSettingsSource interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.UserSettings, error)
}

// DispatcherConfig wires the dispatcher's collaborators and prefixes
type DispatcherConfig struct {
	Registry  *Registry
	Guilds    GuildSettingsSource
	Users     UserSettingsSource
	Collector *metrics.Collector

	// DefaultPrefix is the long form ("aoba "), ShortPrefix the terse one
	// ("ao!"). Guild and user overrides come from settings.
	DefaultPrefix string
	ShortPrefix   string

	OwnerIDs []int64
}

// Dispatcher turns raw messages into command invocations: prefix matching,
// blacklist and permission gates, cooldowns, then the handler.
type Dispatcher struct {
	registry  *Registry
	guilds    GuildSettingsSource
	users     UserSettingsSource
	collector *metrics.Collector
	cooldowns *cooldownTracker

	defaultPrefix string
	shortPrefix   string
	owners        map[int64]bool
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	owners := make(map[int64]bool, len(cfg.OwnerIDs))
	for _, id := range cfg.OwnerIDs {
		owners[id] = true
	}
	return &Dispatcher{
		registry:      cfg.Registry,
		guilds:        cfg.Guilds,
		users:         cfg.Users,
		collector:     cfg.Collector,
		cooldowns:     newCooldownTracker(),
		defaultPrefix: cfg.DefaultPrefix,
		shortPrefix:   cfg.ShortPrefix,
		owners:        owners,
	}
}

// Handle processes one incoming message. Messages that are not commands or
// come from bots are dropped silently; blacklisted principals get a notice
// when they try to use a prefix.
func (d *Dispatcher) Handle(ctx context.Context, s Session, botUserID string, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == botUserID {
		return
	}
	d.collector.IncMessagesSeen()

	authorID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		log.WithError(err).WithField("authorID", m.Author.ID).Warn("Unparseable author ID")
		return
	}

	userSettings, err := d.users.GetOrCreate(ctx, authorID)
	if err != nil {
		log.WithError(err).WithField("userID", authorID).Error("Failed to load user settings")
		return
	}

	var guildSettings *models.GuildSettings
	if m.GuildID != "" {
		guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
		if err != nil {
			log.WithError(err).WithField("guildID", m.GuildID).Warn("Unparseable guild ID")
			return
		}
		guildSettings, err = d.guilds.GetOrCreate(ctx, guildID)
		if err != nil {
			log.WithError(err).WithField("guildID", guildID).Error("Failed to load guild settings")
			return
		}
	}

	prefix, rest, ok := d.matchPrefix(m.Content, botUserID, guildSettings, userSettings)
	if !ok {
		return
	}

	now := time.Now()
	if userSettings.Blacklist.Active(now) {
		d.rejectBlacklisted(s, m.ChannelID, "You were blacklisted", userSettings.Blacklist)
		return
	}
	if guildSettings != nil && guildSettings.Blacklist.Active(now) {
		d.rejectBlacklisted(s, m.ChannelID, "This server was blacklisted", guildSettings.Blacklist)
		return
	}

	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		return
	}

	root := d.registry.Lookup(tokens[0])
	if root == nil {
		return
	}
	cmd, fullName, args := root.resolve(tokens[1:])

	cc := &Context{
		Session: s,
		Message: m,
		Prefix:  prefix,
		Args:    args,
		Guild:   guildSettings,
		User:    userSettings,
		IsOwner: d.owners[authorID],
	}

	if !d.passesGates(cc, s, botUserID, cmd, fullName) {
		return
	}

	if remaining, ok := d.cooldowns.check(fullName, m.Author.ID, cmd.cooldown()); !ok {
		cc.Reply(fmt.Sprintf("Slow down! Try `%s` again in %.1fs.", fullName, remaining.Seconds()))
		return
	}

	d.execute(ctx, cc, cmd, fullName)
}

// rejectBlacklisted tells a blacklisted principal why their command was
// refused. Only prefixed messages get a notice; everything else from them
// is ignored like any other non-command.
func (d *Dispatcher) rejectBlacklisted(s Session, channelID, title string, bl models.Blacklist) {
	reason := "No reason was provided"
	if bl.Reason != nil && *bl.Reason != "" {
		reason = *bl.Reason
	}
	expires := "Never"
	if bl.ExpiresAt != nil {
		expires = bl.ExpiresAt.UTC().Format(time.RFC1123)
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Reason", Value: reason, Inline: true},
		{Name: "Expires", Value: expires, Inline: true},
	}
	if bl.Enforcer != nil {
		fields = append([]*discordgo.MessageEmbedField{
			{Name: "Enforcer", Value: fmt.Sprintf("<@%d>", *bl.Enforcer), Inline: true},
		}, fields...)
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:  title,
		Color:  0xE74C3C,
		Fields: fields,
	}); err != nil {
		log.WithError(err).Warn("Failed to send blacklist notice")
	}
}

// matchPrefix tries each prefix in a fixed order and returns the remainder
// after the first match: default, short, bot mention, guild override, user
// override
func (d *Dispatcher) matchPrefix(content, botUserID string, guild *models.GuildSettings, user *models.UserSettings) (string, string, bool) {
	prefixes := []string{
		d.defaultPrefix,
		d.shortPrefix,
		"<@" + botUserID + ">",
		"<@!" + botUserID + ">",
	}
	if guild != nil && guild.Prefix != "" {
		prefixes = append(prefixes, guild.Prefix)
	}
	if user != nil && user.Prefix != "" {
		prefixes = append(prefixes, user.Prefix)
	}

	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if len(content) >= len(prefix) && strings.EqualFold(content[:len(prefix)], prefix) {
			return prefix, strings.TrimLeft(content[len(prefix):], " "), true
		}
	}
	return "", "", false
}

// passesGates applies the pre-execution checks in order: guild-only,
// owner-only, disabled, invoker permissions (owners skip), bot permissions
func (d *Dispatcher) passesGates(cc *Context, s Session, botUserID string, cmd *Command, fullName string) bool {
	if cmd.GuildOnly && cc.GuildID() == "" {
		cc.Reply(fmt.Sprintf("`%s` only works in a server.", fullName))
		return false
	}

	if cmd.OwnerOnly && !cc.IsOwner {
		cc.Reply("That command is reserved for the bot owner.")
		return false
	}

	if cmd.Disabled.Is {
		reply := fmt.Sprintf("`%s` is currently disabled.", fullName)
		if cmd.Disabled.Reason != "" {
			reply += " Reason: " + cmd.Disabled.Reason
		}
		cc.Reply(reply)
		return false
	}

	if cmd.UserPermissions != 0 && !cc.IsOwner && cc.GuildID() != "" {
		perms, err := s.UserChannelPermissions(cc.Message.Author.ID, cc.Message.ChannelID)
		if err != nil {
			log.WithError(err).WithField("command", fullName).Warn("Failed to resolve invoker permissions")
			return false
		}
		if perms&cmd.UserPermissions != cmd.UserPermissions {
			cc.Reply(fmt.Sprintf("You lack the permissions to run `%s`.", fullName))
			return false
		}
	}

	if cmd.BotPermissions != 0 && cc.GuildID() != "" {
		perms, err := s.UserChannelPermissions(botUserID, cc.Message.ChannelID)
		if err != nil {
			log.WithError(err).WithField("command", fullName).Warn("Failed to resolve bot permissions")
			return false
		}
		if perms&cmd.BotPermissions != cmd.BotPermissions {
			cc.Reply(fmt.Sprintf("I lack the permissions to run `%s` here.", fullName))
			return false
		}
	}

	return true
}

func (d *Dispatcher) execute(ctx context.Context, cc *Context, cmd *Command, fullName string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"command": fullName,
				"panic":   r,
			}).Error("Command handler panicked")
			d.apologize(cc, fullName)
		}
	}()

	if cmd.Run == nil {
		cc.Reply(fmt.Sprintf("Usage: `%s %s`", fullName, cmd.Usage))
		return
	}

	if err := cmd.Run(ctx, cc); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"command": fullName,
			"author":  cc.Message.Author.ID,
			"guild":   cc.GuildID(),
		}).Error("Command failed")
		d.apologize(cc, fullName)
		return
	}

	// Only completed runs count as executions.
	d.collector.IncCommandsExecuted(fullName)
	log.WithFields(log.Fields{
		"command": fullName,
		"author":  cc.Message.Author.ID,
		"guild":   cc.GuildID(),
	}).Info("Ran command")
}

func (d *Dispatcher) apologize(cc *Context, fullName string) {
	cc.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Something went wrong",
		Description: fmt.Sprintf("`%s` hit an error. Please try again later.", fullName),
		Color:       0xE74C3C,
	})
}

// PruneCooldowns drops expired cooldown windows; meant to be called
// periodically from the bot's housekeeping ticker
func (d *Dispatcher) PruneCooldowns() {
	maxWindow := DefaultCooldown
	for _, cmd := range d.registry.All() {
		if cmd.cooldown() > maxWindow {
			maxWindow = cmd.cooldown()
		}
	}
	d.cooldowns.prune(maxWindow)
}
