package commands

import (
	"fmt"
	"strings"
)

// Registry indexes commands by name and alias. Registration happens once at
// startup; lookups are read-only after that.
type Registry struct {
	commands []*Command
	index    map[string]*Command
}

func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]*Command),
	}
}

// Register adds a command. Name and alias collisions are errors so a typo
// in a command definition fails at startup rather than shadowing silently.
func (r *Registry) Register(cmd *Command) error {
	if cmd.Name == "" {
		return fmt.Errorf("command with empty name")
	}
	if cmd.Run == nil && len(cmd.Subcommands) == 0 {
		return fmt.Errorf("command '%s' has no handler and no subcommands", cmd.Name)
	}

	keys := append([]string{cmd.Name}, cmd.Aliases...)
	for _, key := range keys {
		key = strings.ToLower(key)
		if existing, ok := r.index[key]; ok {
			return fmt.Errorf("'%s' already registered by command '%s'", key, existing.Name)
		}
	}
	for _, key := range keys {
		r.index[strings.ToLower(key)] = cmd
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// MustRegister panics on registration errors; used for the static command
// set built at startup
func (r *Registry) MustRegister(cmds ...*Command) {
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a command by name or alias, case-insensitively
func (r *Registry) Lookup(name string) *Command {
	return r.index[strings.ToLower(name)]
}

// All returns the registered commands in registration order
func (r *Registry) All() []*Command {
	return r.commands
}
