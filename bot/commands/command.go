package commands

import (
	"context"
	"strings"
	"time"
)

// DefaultCooldown applies to any command that does not set its own
const DefaultCooldown = 5 * time.Second

// Disabled marks a command as switched off, with an operator-facing reason
type Disabled struct {
	Is     bool
	Reason string
}

// Command describes one chat command. Subcommands are resolved by the first
// remaining argument token; unmatched tokens fall through to the parent's
// Run as arguments.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Module      string

	GuildOnly bool
	OwnerOnly bool
	Disabled  Disabled

	// Discord permission bits required of the invoker and of the bot
	UserPermissions int64
	BotPermissions  int64

	Cooldown    time.Duration
	Subcommands []*Command

	Run func(ctx context.Context, cc *Context) error
}

// cooldown returns the effective cooldown window
func (c *Command) cooldown() time.Duration {
	if c.Cooldown > 0 {
		return c.Cooldown
	}
	return DefaultCooldown
}

// resolve descends into subcommands while the first remaining token names
// one, returning the deepest match, its qualified name and the leftover
// arguments
func (c *Command) resolve(args []string) (*Command, string, []string) {
	current := c
	name := c.Name
	for len(args) > 0 {
		sub := current.subcommand(args[0])
		if sub == nil {
			break
		}
		current = sub
		name = name + " " + sub.Name
		args = args[1:]
	}
	return current, name, args
}

func (c *Command) subcommand(token string) *Command {
	for _, sub := range c.Subcommands {
		if sub.matches(token) {
			return sub
		}
	}
	return nil
}

func (c *Command) matches(token string) bool {
	if strings.EqualFold(c.Name, token) {
		return true
	}
	for _, alias := range c.Aliases {
		if strings.EqualFold(alias, token) {
			return true
		}
	}
	return false
}
