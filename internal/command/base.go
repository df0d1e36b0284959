// Package command implements the goap subcommands. Each command declares its
// flags on a flag.FlagSet supplied by the caller and writes only to the
// streams it is given, so main and tests run commands the same way.
package command

import (
	"flag"
	"io"
)

// Command is a goap subcommand.
type Command interface {
	Name() string
	// Description is the one-line summary shown by help.
	Description() string
	// Usage is the synopsis after "goap ", e.g. "plan [options] <file>".
	Usage() string
	// SetupFlags declares the command's flags. It is called once, before
	// parsing, so flag defaults may be read from configuration.
	SetupFlags(fs *flag.FlagSet)
	// Execute runs the command with the positional arguments left after
	// flag parsing.
	Execute(args []string, stdout, stderr io.Writer) error
}

// BaseCommand holds the descriptive fields every command embeds.
type BaseCommand struct {
	name, description, usage string
}

// NewBaseCommand returns a BaseCommand for the given help text.
func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{name: name, description: description, usage: usage}
}

func (c *BaseCommand) Name() string        { return c.name }
func (c *BaseCommand) Description() string { return c.description }
func (c *BaseCommand) Usage() string       { return c.usage }

// SetupFlags registers no flags. Commands with flags override it.
func (c *BaseCommand) SetupFlags(*flag.FlagSet) {}
