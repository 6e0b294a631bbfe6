package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"aoba/bot/commands"
	"aoba/bot/common"

	"github.com/bwmarrin/discordgo"
)

func (f *Feature) prefixCommand() *commands.Command {
	return &commands.Command{
		Name:        "prefix",
		Description: "Show or change this server's command prefix",
		Usage:       "[set <prefix>|reset]",
		Module:      "core",
		GuildOnly:   true,
		Run: func(ctx context.Context, cc *commands.Context) error {
			return cc.Reply(fmt.Sprintf("This server's prefix is `%s`.", cc.Guild.Prefix))
		},
		Subcommands: []*commands.Command{
			{
				Name:            "set",
				Description:     "Set the server prefix",
				Usage:           "<prefix>",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run: func(ctx context.Context, cc *commands.Context) error {
					if len(cc.Args) == 0 {
						return cc.Reply("Tell me the prefix to set.")
					}
					prefix := strings.Join(cc.Args, " ")
					guildID, err := strconv.ParseInt(cc.GuildID(), 10, 64)
					if err != nil {
						return err
					}
					if err := f.guilds.SetPrefix(ctx, guildID, prefix); err != nil {
						return cc.ReplyEmbed(common.ErrorEmbed(err.Error()))
					}
					return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("Server prefix set to `%s`.", prefix)))
				},
			},
			{
				Name:            "reset",
				Description:     "Restore the default server prefix",
				GuildOnly:       true,
				UserPermissions: discordgo.PermissionManageServer,
				Run: func(ctx context.Context, cc *commands.Context) error {
					guildID, err := strconv.ParseInt(cc.GuildID(), 10, 64)
					if err != nil {
						return err
					}
					if err := f.guilds.ResetPrefix(ctx, guildID); err != nil {
						return err
					}
					return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("Server prefix reset to `%s`.", f.config.DefaultPrefix)))
				},
			},
		},
	}
}

func (f *Feature) myPrefixCommand() *commands.Command {
	return &commands.Command{
		Name:        "myprefix",
		Description: "Show or change your personal command prefix",
		Usage:       "[set <prefix>|reset]",
		Module:      "core",
		Run: func(ctx context.Context, cc *commands.Context) error {
			if cc.User.Prefix == "" {
				return cc.Reply("You have no personal prefix set.")
			}
			return cc.Reply(fmt.Sprintf("Your personal prefix is `%s`.", cc.User.Prefix))
		},
		Subcommands: []*commands.Command{
			{
				Name:        "set",
				Description: "Set your personal prefix",
				Usage:       "<prefix>",
				Run: func(ctx context.Context, cc *commands.Context) error {
					if len(cc.Args) == 0 {
						return cc.Reply("Tell me the prefix to set.")
					}
					prefix := strings.Join(cc.Args, " ")
					userID, err := cc.AuthorID()
					if err != nil {
						return err
					}
					if err := f.users.SetPrefix(ctx, userID, prefix); err != nil {
						return cc.ReplyEmbed(common.ErrorEmbed(err.Error()))
					}
					return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("Personal prefix set to `%s`.", prefix)))
				},
			},
			{
				Name:        "reset",
				Description: "Remove your personal prefix",
				Run: func(ctx context.Context, cc *commands.Context) error {
					userID, err := cc.AuthorID()
					if err != nil {
						return err
					}
					if err := f.users.ResetPrefix(ctx, userID); err != nil {
						return err
					}
					return cc.ReplyEmbed(common.SuccessEmbed("Personal prefix removed."))
				},
			},
		},
	}
}
