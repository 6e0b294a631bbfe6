package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"aoba/bot/commands"
	"aoba/bot/common"
	"aoba/models"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) settingsCommand() *commands.Command {
	return &commands.Command{
		Name:            "settings",
		Description:     "View and change this server's notification settings",
		Usage:           "[enable|disable|channel|watch|unwatch|events] <provider> ...",
		Module:          "core",
		GuildOnly:       true,
		UserPermissions: discordgo.PermissionManageServer,
		Run:             f.handleSettingsView,
		Subcommands: []*commands.Command{
			{
				Name:            "enable",
				Description:     "Enable notifications from a provider",
				Usage:           "<provider>",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run:             f.toggleProvider(true),
			},
			{
				Name:            "disable",
				Description:     "Disable notifications from a provider",
				Usage:           "<provider>",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run:             f.toggleProvider(false),
			},
			{
				Name:            "channel",
				Description:     "Set the channel a provider posts to",
				Usage:           "<provider> <#channel>",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run:             f.handleSettingsChannel,
			},
			{
				Name:            "watch",
				Description:     "Add upstream channels to a provider's watch list",
				Usage:           "<provider> <channel...>",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run:             f.handleSettingsWatch,
			},
			{
				Name:            "unwatch",
				Description:     "Remove upstream channels from a provider's watch list",
				Usage:           "<provider> <channel...>",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run:             f.handleSettingsUnwatch,
			},
			{
				Name:            "events",
				Description:     "Choose which provider events to announce",
				Usage:           "<provider> <all|none|event...>",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run:             f.handleSettingsEvents,
			},
		},
	}
}

func (f *Feature) handleSettingsView(ctx context.Context, cc *commands.Context) error {
	embed := common.InfoEmbed("Server settings", fmt.Sprintf("Prefix: `%s`", cc.Guild.Prefix))

	for _, name := range models.AllProviders {
		cfg := cc.Guild.Providers.Get(name)

		var lines []string
		lines = append(lines, "enabled: "+common.OnOff(cfg.Enabled))
		if cfg.ChannelID != nil {
			lines = append(lines, fmt.Sprintf("channel: <#%d>", *cfg.ChannelID))
		} else {
			lines = append(lines, "channel: not set")
		}
		if len(cfg.Channels) > 0 {
			lines = append(lines, "watching: "+strings.Join(cfg.Channels, ", "))
		}
		if len(cfg.Events) > 0 {
			lines = append(lines, "events: "+strings.Join(cfg.Events, ", "))
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  string(name),
			Value: strings.Join(lines, "\n"),
		})
	}

	return cc.ReplyEmbed(embed)
}

func (f *Feature) toggleProvider(enabled bool) func(ctx context.Context, cc *commands.Context) error {
	return func(ctx context.Context, cc *commands.Context) error {
		provider, _, err := parseProviderArg(cc.Args)
		if err != nil {
			return cc.Reply(err.Error())
		}

		guildID, err := strconv.ParseInt(cc.GuildID(), 10, 64)
		if err != nil {
			return err
		}

		path := fmt.Sprintf("providers.%s.enabled", provider)
		if err := f.guilds.Update(ctx, guildID, map[string]any{path: enabled}); err != nil {
			return err
		}

		verb := "disabled"
		if enabled {
			verb = "enabled"
		}
		reply := fmt.Sprintf("%s notifications %s.", provider, verb)
		// Enabling without a target channel is allowed but pointless; warn.
		if enabled && cc.Guild.Providers.Get(provider).ChannelID == nil {
			reply += fmt.Sprintf(" No channel is set yet, use `%ssettings channel %s #channel`.", cc.Prefix, provider)
		}
		return cc.ReplyEmbed(common.SuccessEmbed(reply))
	}
}

func (f *Feature) handleSettingsChannel(ctx context.Context, cc *commands.Context) error {
	provider, rest, err := parseProviderArg(cc.Args)
	if err != nil {
		return cc.Reply(err.Error())
	}
	if len(rest) == 0 {
		return cc.Reply("Tell me the channel to post to.")
	}

	channelID, err := parseChannelMention(rest[0])
	if err != nil {
		return cc.Reply("That does not look like a channel.")
	}

	guildID, err := strconv.ParseInt(cc.GuildID(), 10, 64)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("providers.%s.channel_id", provider)
	if err := f.guilds.Update(ctx, guildID, map[string]any{path: channelID}); err != nil {
		return err
	}
	return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("%s notifications will post to <#%d>.", provider, channelID)))
}

func (f *Feature) handleSettingsWatch(ctx context.Context, cc *commands.Context) error {
	return f.editWatchList(ctx, cc, true)
}

func (f *Feature) handleSettingsUnwatch(ctx context.Context, cc *commands.Context) error {
	return f.editWatchList(ctx, cc, false)
}

func (f *Feature) editWatchList(ctx context.Context, cc *commands.Context, add bool) error {
	provider, rest, err := parseProviderArg(cc.Args)
	if err != nil {
		return cc.Reply(err.Error())
	}
	if len(rest) == 0 {
		return cc.Reply("Tell me which upstream channels.")
	}

	guildID, err := strconv.ParseInt(cc.GuildID(), 10, 64)
	if err != nil {
		return err
	}

	cfg := cc.Guild.Providers.Get(provider)
	channels := append([]string(nil), cfg.Channels...)

	if add {
		for _, channel := range rest {
			if !contains(channels, channel) {
				channels = append(channels, channel)
			}
		}
	} else {
		var kept []string
		for _, channel := range channels {
			if !contains(rest, channel) {
				kept = append(kept, channel)
			}
		}
		channels = kept
	}

	path := fmt.Sprintf("providers.%s.channels", provider)
	if err := f.guilds.Update(ctx, guildID, map[string]any{path: channels}); err != nil {
		return err
	}

	if len(channels) == 0 {
		return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("%s watch list is now empty.", provider)))
	}
	return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("%s watch list: %s", provider, strings.Join(channels, ", "))))
}

func (f *Feature) handleSettingsEvents(ctx context.Context, cc *commands.Context) error {
	provider, rest, err := parseProviderArg(cc.Args)
	if err != nil {
		return cc.Reply(err.Error())
	}
	if len(rest) == 0 {
		return cc.Reply("Tell me which events: `all`, `none`, or a list.")
	}

	guildID, err := strconv.ParseInt(cc.GuildID(), 10, 64)
	if err != nil {
		return err
	}

	var events []string
	switch strings.ToLower(rest[0]) {
	case "none":
		events = []string{}
	case models.EventAll:
		events = []string{models.EventAll}
	default:
		events = rest
	}

	path := fmt.Sprintf("providers.%s.events", provider)
	if err := f.guilds.Update(ctx, guildID, map[string]any{path: events}); err != nil {
		return err
	}

	if len(events) == 0 {
		return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("%s will announce no events.", provider)))
	}
	return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("%s events: %s", provider, strings.Join(events, ", "))))
}

func parseProviderArg(args []string) (models.ProviderName, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("Tell me which provider: %s.", providerList())
	}
	name := models.ProviderName(strings.ToLower(args[0]))
	for _, known := range models.AllProviders {
		if name == known {
			return name, args[1:], nil
		}
	}
	return "", nil, fmt.Errorf("Unknown provider `%s`. I know %s.", args[0], providerList())
}

func providerList() string {
	names := make([]string, len(models.AllProviders))
	for i, p := range models.AllProviders {
		names[i] = string(p)
	}
	return "`" + strings.Join(names, "` `") + "`"
}

// parseChannelMention accepts either a raw snowflake or a <#id> mention
func parseChannelMention(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<#"), ">")
	return strconv.ParseInt(s, 10, 64)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
