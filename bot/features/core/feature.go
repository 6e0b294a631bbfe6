package core

import (
	"time"

	"aoba/bot/commands"
	"aoba/config"
	"aoba/service"

	"github.com/bwmarrin/discordgo"
)

// Feature bundles the general-purpose commands: ping, help, uptime,
// prefixes, settings, invite, source, shards and statistics
type Feature struct {
	session   *discordgo.Session
	registry  *commands.Registry
	guilds    service.GuildSettingsService
	users     service.UserSettingsService
	config    *config.Config
	startedAt time.Time
}

func New(session *discordgo.Session, registry *commands.Registry, guilds service.GuildSettingsService, users service.UserSettingsService, cfg *config.Config) *Feature {
	return &Feature{
		session:   session,
		registry:  registry,
		guilds:    guilds,
		users:     users,
		config:    cfg,
		startedAt: time.Now(),
	}
}

// Commands returns the feature's command set for registration
func (f *Feature) Commands() []*commands.Command {
	return []*commands.Command{
		f.pingCommand(),
		f.helpCommand(),
		f.uptimeCommand(),
		f.inviteCommand(),
		f.sourceCommand(),
		f.shardsCommand(),
		f.statisticsCommand(),
		f.prefixCommand(),
		f.myPrefixCommand(),
		f.settingsCommand(),
	}
}
