package core

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"aoba/bot/commands"
	"aoba/bot/common"

	"github.com/bwmarrin/discordgo"
)

const sourceURL = "https://github.com/aoba-bot/aoba"

func (f *Feature) pingCommand() *commands.Command {
	return &commands.Command{
		Name:        "ping",
		Description: "Check whether the bot is responsive",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			latency := f.session.HeartbeatLatency()
			return cc.Reply(fmt.Sprintf("Pong! Gateway latency: %dms", latency.Milliseconds()))
		},
	}
}

func (f *Feature) uptimeCommand() *commands.Command {
	return &commands.Command{
		Name:        "uptime",
		Description: "Show how long the bot has been running",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			return cc.Reply(fmt.Sprintf("Up for **%s** (since %s).",
				common.FormatDuration(time.Since(f.startedAt)),
				common.FormatDiscordTimestamp(f.startedAt, "f")))
		},
	}
}

func (f *Feature) inviteCommand() *commands.Command {
	return &commands.Command{
		Name:        "invite",
		Description: "Get a link to invite the bot to your server",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			url := fmt.Sprintf("https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%d",
				f.session.State.User.ID,
				discordgo.PermissionSendMessages|discordgo.PermissionEmbedLinks|discordgo.PermissionReadMessageHistory)
			return cc.ReplyEmbed(common.InfoEmbed("Invite me", url))
		},
	}
}

func (f *Feature) sourceCommand() *commands.Command {
	return &commands.Command{
		Name:        "source",
		Aliases:     []string{"github"},
		Description: "Link to the bot's source code",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			return cc.Reply("My source lives at " + sourceURL)
		},
	}
}

func (f *Feature) shardsCommand() *commands.Command {
	return &commands.Command{
		Name:        "shards",
		Description: "Show gateway shard information",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			shardCount := f.session.ShardCount
			if shardCount == 0 {
				shardCount = 1
			}
			return cc.Reply(fmt.Sprintf("Shard %d of %d, heartbeat %dms.",
				f.session.ShardID, shardCount, f.session.HeartbeatLatency().Milliseconds()))
		},
	}
}

func (f *Feature) statisticsCommand() *commands.Command {
	return &commands.Command{
		Name:        "statistics",
		Aliases:     []string{"stats"},
		Description: "Show runtime statistics",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)

			embed := common.InfoEmbed("Statistics", "")
			embed.Fields = []*discordgo.MessageEmbedField{
				{Name: "Guilds", Value: common.FormatCount(int64(len(f.session.State.Guilds))), Inline: true},
				{Name: "Uptime", Value: common.FormatDuration(time.Since(f.startedAt)), Inline: true},
				{Name: "Memory", Value: fmt.Sprintf("%.1f MiB", float64(mem.Alloc)/(1024*1024)), Inline: true},
				{Name: "Goroutines", Value: common.FormatCount(int64(runtime.NumGoroutine())), Inline: true},
				{Name: "Go", Value: runtime.Version(), Inline: true},
			}
			return cc.ReplyEmbed(embed)
		},
	}
}

func (f *Feature) helpCommand() *commands.Command {
	return &commands.Command{
		Name:        "help",
		Aliases:     []string{"commands"},
		Description: "List commands, or show details for one",
		Usage:       "[command]",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			if len(cc.Args) > 0 {
				return f.helpFor(cc, cc.Args[0])
			}
			return f.helpOverview(cc)
		},
	}
}

func (f *Feature) helpOverview(cc *commands.Context) error {
	byModule := make(map[string][]string)
	for _, cmd := range f.registry.All() {
		if cmd.OwnerOnly && !cc.IsOwner {
			continue
		}
		module := cmd.Module
		if module == "" {
			module = "misc"
		}
		byModule[module] = append(byModule[module], cmd.Name)
	}

	modules := make([]string, 0, len(byModule))
	for module := range byModule {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	embed := common.InfoEmbed("Commands", fmt.Sprintf("Use `%shelp <command>` for details.", f.config.ShortPrefix))
	for _, module := range modules {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  module,
			Value: "`" + strings.Join(byModule[module], "` `") + "`",
		})
	}
	return cc.ReplyEmbed(embed)
}

func (f *Feature) helpFor(cc *commands.Context, name string) error {
	cmd := f.registry.Lookup(name)
	if cmd == nil {
		return cc.Reply(fmt.Sprintf("No command named `%s`.", name))
	}

	description := cmd.Description
	if description == "" {
		description = "No description."
	}

	embed := common.InfoEmbed(cmd.Name, description)
	if cmd.Usage != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Usage", Value: fmt.Sprintf("`%s %s`", cmd.Name, cmd.Usage),
		})
	}
	if len(cmd.Aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Aliases", Value: "`" + strings.Join(cmd.Aliases, "` `") + "`",
		})
	}
	if len(cmd.Subcommands) > 0 {
		names := make([]string, len(cmd.Subcommands))
		for i, sub := range cmd.Subcommands {
			names[i] = sub.Name
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Subcommands", Value: "`" + strings.Join(names, "` `") + "`",
		})
	}
	return cc.ReplyEmbed(embed)
}
