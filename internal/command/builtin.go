package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/joeycumines/goap/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "goap - goal-oriented action planning for autonomous agents")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: goap <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'goap help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmdName := args[0]
	cmd, err := c.registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: goap %s\n", cmd.Usage())

	// Show command-specific flags by invoking SetupFlags on a temporary FlagSet.
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}

	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	_, _ = fmt.Fprintf(stdout, "goap version %s\n", c.version)
	return nil
}

// ConfigCommand manages configuration.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	section    string
	showGlobal bool
	showAll    bool
}

// NewConfigCommand creates a new config command. If configPath is empty,
// set only updates cfg in memory.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [validate|schema|path|<key> [value]]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.section, "section", "", "Section to get or set keys in (e.g. simulate)")
	fs.BoolVar(&c.showGlobal, "global", false, "Show only global configuration")
	fs.BoolVar(&c.showAll, "all", false, "Show all configuration (global and sections)")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		switch {
		case c.showAll:
			c.printOptions(stdout, "Global configuration:", c.config.Global)
			for _, name := range c.config.SectionNames() {
				_, _ = fmt.Fprintln(stdout, "")
				c.printOptions(stdout, "["+name+"]", c.config.Sections[name])
			}
		case c.showGlobal:
			c.printOptions(stdout, "Global configuration:", c.config.Global)
		default:
			_, _ = fmt.Fprintln(stdout, "Configuration management:")
			_, _ = fmt.Fprintln(stdout, "  config <key>                 - Get configuration value")
			_, _ = fmt.Fprintln(stdout, "  config <key> <value>         - Set configuration value")
			_, _ = fmt.Fprintln(stdout, "  config -section <name> ...   - Get or set a key in a section")
			_, _ = fmt.Fprintln(stdout, "  config --global              - Show global configuration")
			_, _ = fmt.Fprintln(stdout, "  config --all                 - Show all configuration")
			_, _ = fmt.Fprintln(stdout, "  config validate              - Validate configuration")
			_, _ = fmt.Fprintln(stdout, "  config schema                - Show configuration schema")
			_, _ = fmt.Fprintln(stdout, "  config path                  - Show configuration file path")
		}
		return nil
	}

	if len(args) == 1 {
		switch args[0] {
		case "validate":
			return c.executeValidate(stdout)
		case "schema":
			_, _ = fmt.Fprint(stdout, config.DefaultSchema().FormatHelp())
			return nil
		case "path":
			_, _ = fmt.Fprintln(stdout, c.configPath)
			return nil
		}
	}

	schema := config.DefaultSchema()
	key := args[0]

	if len(args) == 1 {
		// Schema-aware: checks env, then config, then default.
		value := schema.ResolveIn(c.config, c.section, key)
		_, exists := c.config.GetSectionOption(c.section, key)
		if value != "" || exists || schema.Lookup(c.section, key) != nil {
			_, _ = fmt.Fprintf(stdout, "%s: %s\n", c.qualified(key), value)
		} else {
			_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", c.qualified(key))
		}
		return nil
	}

	if len(args) == 2 {
		value := args[1]
		if err := schema.CheckValue(c.section, key, value); err != nil {
			_, _ = fmt.Fprintf(stderr, "Invalid value: %v\n", err)
			return err
		}
		if c.section == "" {
			c.config.SetGlobalOption(key, value)
		} else {
			c.config.SetSectionOption(c.section, key, value)
		}

		if c.configPath != "" {
			if err := config.SetKeyInFile(c.configPath, c.section, key, value); err != nil {
				_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
			}
		}

		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", c.qualified(key), value)
		return nil
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return fmt.Errorf("invalid arguments")
}

func (c *ConfigCommand) qualified(key string) string {
	if c.section == "" {
		return key
	}
	return "[" + c.section + "] " + key
}

func (c *ConfigCommand) printOptions(w io.Writer, title string, opts map[string]string) {
	_, _ = fmt.Fprintln(w, title)
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", k, opts[k])
	}
}

// executeValidate validates the current config against the schema.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}

// InitCommand writes a configuration file holding every option's default.
type InitCommand struct {
	*BaseCommand
	configPath string
	force      bool
}

// NewInitCommand creates a new init command writing to configPath.
func NewInitCommand(configPath string) *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand(
			"init",
			"Write a default configuration file",
			"init [options]",
		),
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the init command.
func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Force initialization even if config already exists")
}

// Execute writes the default configuration.
func (c *InitCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	if c.configPath == "" {
		return fmt.Errorf("no configuration path")
	}

	if _, err := os.Stat(c.configPath); err == nil && !c.force {
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", c.configPath)
		_, _ = fmt.Fprintln(stdout, "Use --force to overwrite existing configuration")
		return nil
	}

	if err := config.WriteToPath(DefaultConfig(), c.configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "Wrote configuration to: %s\n", c.configPath)
	return nil
}

// DefaultConfig returns a Config holding the default of every option that
// has one.
func DefaultConfig() *config.Config {
	schema := config.DefaultSchema()
	cfg := config.NewConfig()
	for _, opt := range schema.GlobalOptions() {
		if opt.Default != "" {
			cfg.SetGlobalOption(opt.Key, opt.Default)
		}
	}
	for _, section := range schema.Sections() {
		for _, opt := range schema.SectionOptions(section) {
			if opt.Default != "" {
				cfg.SetSectionOption(section, opt.Key, opt.Default)
			}
		}
	}
	return cfg
}
