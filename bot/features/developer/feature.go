package developer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aoba/bot/commands"
	"aoba/bot/common"
	"aoba/service"
)

// Feature holds the owner-only moderation commands
type Feature struct {
	guilds service.GuildSettingsService
	users  service.UserSettingsService
}

func New(guilds service.GuildSettingsService, users service.UserSettingsService) *Feature {
	return &Feature{
		guilds: guilds,
		users:  users,
	}
}

// Commands returns the feature's command set for registration
func (f *Feature) Commands() []*commands.Command {
	return []*commands.Command{
		f.blacklistCommand(),
	}
}

func (f *Feature) blacklistCommand() *commands.Command {
	return &commands.Command{
		Name:        "blacklist",
		Description: "Bar a guild or user from using the bot",
		Usage:       "<guild|user|remove> ...",
		Module:      "developer",
		OwnerOnly:   true,
		Subcommands: []*commands.Command{
			{
				Name:      "guild",
				Usage:     "<id> [duration] [reason...]",
				OwnerOnly: true,
				Run:       f.blacklistTarget(targetGuild),
			},
			{
				Name:      "user",
				Usage:     "<id> [duration] [reason...]",
				OwnerOnly: true,
				Run:       f.blacklistTarget(targetUser),
			},
			{
				Name:      "remove",
				Usage:     "<guild|user> <id>",
				OwnerOnly: true,
				Run:       f.handleRemove,
			},
		},
	}
}

type targetKind string

const (
	targetGuild targetKind = "guild"
	targetUser  targetKind = "user"
)

func (f *Feature) blacklistTarget(kind targetKind) func(ctx context.Context, cc *commands.Context) error {
	return func(ctx context.Context, cc *commands.Context) error {
		if len(cc.Args) == 0 {
			return cc.Reply(fmt.Sprintf("Tell me the %s ID.", kind))
		}

		id, err := strconv.ParseInt(cc.Args[0], 10, 64)
		if err != nil {
			return cc.Reply(fmt.Sprintf("`%s` is not a valid ID.", cc.Args[0]))
		}

		expiresAt, reason := parseDurationAndReason(cc.Args[1:])

		enforcer, err := cc.AuthorID()
		if err != nil {
			return err
		}

		switch kind {
		case targetGuild:
			err = f.guilds.SetBlacklist(ctx, id, enforcer, reason, expiresAt)
		case targetUser:
			err = f.users.SetBlacklist(ctx, id, enforcer, reason, expiresAt)
		}
		if err != nil {
			return err
		}

		scope := "permanently"
		if expiresAt != nil {
			scope = "until " + common.FormatDiscordTimestamp(*expiresAt, "f")
		}
		return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("Blacklisted %s `%d` %s.", kind, id, scope)))
	}
}

func (f *Feature) handleRemove(ctx context.Context, cc *commands.Context) error {
	if len(cc.Args) < 2 {
		return cc.Reply("Usage: `blacklist remove <guild|user> <id>`")
	}

	id, err := strconv.ParseInt(cc.Args[1], 10, 64)
	if err != nil {
		return cc.Reply(fmt.Sprintf("`%s` is not a valid ID.", cc.Args[1]))
	}

	switch targetKind(strings.ToLower(cc.Args[0])) {
	case targetGuild:
		err = f.guilds.ClearBlacklist(ctx, id)
	case targetUser:
		err = f.users.ClearBlacklist(ctx, id)
	default:
		return cc.Reply("The target must be `guild` or `user`.")
	}
	if err != nil {
		return err
	}

	return cc.ReplyEmbed(common.SuccessEmbed(fmt.Sprintf("Blacklist removed for `%d`.", id)))
}

// parseDurationAndReason splits optional trailing arguments into an expiry
// (first token, if it parses as a duration) and a free-text reason
func parseDurationAndReason(args []string) (*time.Time, string) {
	if len(args) == 0 {
		return nil, ""
	}

	if d, err := time.ParseDuration(args[0]); err == nil && d > 0 {
		expires := time.Now().Add(d)
		return &expires, strings.Join(args[1:], " ")
	}
	return nil, strings.Join(args, " ")
}
