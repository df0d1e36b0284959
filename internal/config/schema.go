package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "5m", "1h").
	TypeDuration OptionType = "duration"
	// TypeFloat is a floating point value.
	TypeFloat OptionType = "float"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file (kebab-case).
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a section name.
	Section string
	// Choices, when non-empty, restricts the value to one of the listed
	// strings (case-insensitive).
	Choices []string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options for the application.
// It is used for validation, documentation, typed getters, and env var mapping.
type ConfigSchema struct {
	options []*ConfigOption
	// byKey indexes global options by key for fast lookup.
	byKey map[string]*ConfigOption
	// bySection indexes section options by section then key.
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. Duplicate keys within the same
// section are silently overwritten (last registration wins).
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
	} else {
		if s.bySection[opt.Section] == nil {
			s.bySection[opt.Section] = make(map[string]*ConfigOption)
		}
		s.bySection[opt.Section][opt.Key] = ref
	}
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key]
	}
	return nil
}

// IsKnown returns true if the key is registered in the given section.
// Global keys are known in every section, where they override the global
// value.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section == "" {
		return s.byKey[key] != nil
	}
	if sec, ok := s.bySection[section]; ok {
		if sec[key] != nil {
			return true
		}
	}
	return s.byKey[key] != nil
}

// GlobalOptions returns all registered global options (Section == "").
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == "" {
			out = append(out, *o)
		}
	}
	return out
}

// SectionOptions returns all registered options for a specific section.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns a sorted list of all registered non-empty section names.
func (s *ConfigSchema) Sections() []string {
	seen := make(map[string]bool)
	for sec := range s.bySection {
		seen[sec] = true
	}
	out := make([]string, 0, len(seen))
	for sec := range seen {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for a global config key by checking,
// in order: (1) the environment variable declared in the schema for this key,
// (2) the config value, (3) the schema default. Returns "" if the key is not
// found anywhere.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	return s.ResolveIn(c, "", key)
}

// ResolveIn is Resolve for an option of section. A section value wins over
// a global value of the same name.
func (s *ConfigSchema) ResolveIn(c *Config, section, key string) string {
	opt := s.Lookup(section, key)
	if opt == nil && section != "" {
		opt = s.Lookup("", key)
	}
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if v, ok := c.GetSectionOption(section, key); ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveInt resolves key in section as an int. A value that does not parse
// falls back to the schema default, then to zero.
func (s *ConfigSchema) ResolveInt(c *Config, section, key string) int {
	if i, err := strconv.Atoi(s.ResolveIn(c, section, key)); err == nil {
		return i
	}
	if opt := s.Lookup(section, key); opt != nil {
		if i, err := strconv.Atoi(opt.Default); err == nil {
			return i
		}
	}
	return 0
}

// ResolveFloat resolves key in section as a float64, with the same fallback
// as ResolveInt.
func (s *ConfigSchema) ResolveFloat(c *Config, section, key string) float64 {
	if f, err := strconv.ParseFloat(s.ResolveIn(c, section, key), 64); err == nil {
		return f
	}
	if opt := s.Lookup(section, key); opt != nil {
		if f, err := strconv.ParseFloat(opt.Default, 64); err == nil {
			return f
		}
	}
	return 0
}

// ResolveDuration resolves key in section as a time.Duration, with the same
// fallback as ResolveInt.
func (s *ConfigSchema) ResolveDuration(c *Config, section, key string) time.Duration {
	if d, err := time.ParseDuration(s.ResolveIn(c, section, key)); err == nil {
		return d
	}
	if opt := s.Lookup(section, key); opt != nil {
		if d, err := time.ParseDuration(opt.Default); err == nil {
			return d
		}
	}
	return 0
}

// CheckValue reports whether value is acceptable for key in section,
// falling back to the global option of the same name.
func (s *ConfigSchema) CheckValue(section, key, value string) error {
	opt := s.Lookup(section, key)
	if opt == nil && section != "" {
		opt = s.Lookup("", key)
	}
	if opt == nil {
		if section == "" {
			return fmt.Errorf("unknown global option: %q", key)
		}
		return fmt.Errorf("unknown option in [%s]: %q", section, key)
	}
	return validateValue(opt, value)
}

// ValidateConfig checks a loaded Config against the schema and returns a list
// of human-readable issues (empty if the config is valid). Validation includes:
//   - Unknown global options (not in schema)
//   - Unknown section options (not in schema for that section, and not global)
//   - Type mismatches for options with declared types
//   - Values outside an option's Choices
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	// Validate global options.
	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateValue(opt, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Sections {
		if len(s.SectionOptions(section)) == 0 {
			issues = append(issues, fmt.Sprintf("unknown section: [%s]", section))
			continue
		}
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option in [%s]: %q (value: %q)", section, key, value))
				continue
			}
			// Find the option definition (section-specific or global fallback).
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt != nil {
				if err := validateValue(opt, value); err != nil {
					issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// validateValue checks value against the option's type and choices.
func validateValue(opt *ConfigOption, value string) error {
	if err := validateType(opt.Type, value); err != nil {
		return err
	}
	if len(opt.Choices) != 0 && !slices.ContainsFunc(opt.Choices, func(c string) bool {
		return strings.EqualFold(c, value)
	}) {
		return fmt.Errorf("expected one of %s, got %q", strings.Join(opt.Choices, ", "), value)
	}
	return nil
}

// validateType checks that a string value matches the expected OptionType.
func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeFloat:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("expected float, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// --- Typed getter methods on Config ---

// GetString returns the global option value for key, or "" if not set.
func (c *Config) GetString(key string) string {
	v, _ := c.GetGlobalOption(key)
	return v
}

// GetBool returns the global option value for key parsed as a boolean. Returns
// false if the key is not set or the value cannot be parsed.
func (c *Config) GetBool(key string) bool {
	v, ok := c.GetGlobalOption(key)
	if !ok {
		return false
	}
	b, err := parseBool(v)
	if err != nil {
		return false
	}
	return b
}

// GetInt returns the global option value for key parsed as an integer. Returns
// 0 if the key is not set or the value cannot be parsed.
func (c *Config) GetInt(key string) int {
	v, ok := c.GetGlobalOption(key)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return i
}

// GetDuration returns the global option value for key parsed as a
// time.Duration. Returns 0 if the key is not set or the value cannot be parsed.
func (c *Config) GetDuration(key string) time.Duration {
	v, ok := c.GetGlobalOption(key)
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

// --- Help text generation ---

// FormatHelp returns a formatted, human-readable reference of all registered
// options in the schema, grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	// Global options first.
	globals := s.GlobalOptions()
	if len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	// Section options.
	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[%s] Options:\n", sec))
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	b.WriteString(fmt.Sprintf("  %-35s %s", o.Key, o.Description))
	parts := make([]string, 0, 4)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if len(o.Choices) != 0 {
		parts = append(parts, fmt.Sprintf("one of: %s", strings.Join(o.Choices, "|")))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		b.WriteString(fmt.Sprintf(" (%s)", strings.Join(parts, ", ")))
	}
	b.WriteString("\n")
}

// Section names.
const (
	SectionSimulate = "simulate"
	SectionRun      = "run"
)

// DefaultSchema returns the schema declaring every goap option. It is the
// single source of truth for option names, types, defaults, descriptions and
// environment variable overrides.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterAll(defaultSimulateOptions())
	s.RegisterAll(defaultRunOptions())
	return s
}

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "color", Type: TypeString, Default: "auto", Choices: []string{"auto", "always", "never"}, Description: "Colour mode for terminal output", EnvVar: "GOAP_COLOR"},

		{Key: "log.file", Type: TypeString, Default: "", Description: "Log file path (JSON output)", EnvVar: "GOAP_LOG_FILE"},
		{Key: "log.level", Type: TypeString, Default: "info", Choices: []string{"debug", "info", "warn", "error"}, Description: "Log level", EnvVar: "GOAP_LOG_LEVEL"},
		{Key: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		{Key: "log.max-files", Type: TypeInt, Default: "5", Description: "Max number of rotated log backup files"},
		{Key: "log.buffer-size", Type: TypeInt, Default: "1000", Description: "In-memory log buffer size (entries)"},

		{Key: "planner.max-depth", Type: TypeInt, Default: "0", Description: "Max plan length, 0 for unbounded"},
		{Key: "planner.max-nodes", Type: TypeInt, Default: "0", Description: "Max search nodes per planning pass, 0 for unbounded"},
		{Key: "planner.timeout", Type: TypeDuration, Default: "", Description: "Per-pass planning timeout"},

		{Key: "agent.tick-interval", Type: TypeDuration, Default: "100ms", Description: "Interval between agent updates when run on a ticker"},
	}
}

func defaultSimulateOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "ticks", Section: SectionSimulate, Type: TypeInt, Default: "200", Description: "Number of ticks to simulate"},
		{Key: "plants", Section: SectionSimulate, Type: TypeInt, Default: "5", Description: "Plants placed before the first tick"},
		{Key: "rabbits", Section: SectionSimulate, Type: TypeInt, Default: "1", Description: "Number of rabbits"},
		{Key: "seed", Section: SectionSimulate, Type: TypeInt, Default: "1", Description: "Random seed for plant placement"},
		{Key: "hunger", Section: SectionSimulate, Type: TypeInt, Default: "10", Description: "Hunger at which rabbits look for food"},
		{Key: "size", Section: SectionSimulate, Type: TypeFloat, Default: "20", Description: "Side length of the world"},
		{Key: "speed", Section: SectionSimulate, Type: TypeFloat, Default: "1", Description: "Distance a rabbit moves per tick"},
		{Key: "regrow-every", Section: SectionSimulate, Type: TypeInt, Default: "0", Description: "Spawn a plant every N ticks, 0 to disable"},
	}
}

func defaultRunOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "mode", Section: SectionRun, Type: TypeString, Default: "goap", Choices: []string{"goap", "reactive"}, Description: "Executor for scenarios"},
		{Key: "travel", Section: SectionRun, Type: TypeInt, Default: "0", Description: "Agent updates spent moving to each target"},
		{Key: "timeout", Section: SectionRun, Type: TypeDuration, Default: "30s", Description: "Give up if the goal is not reached in time"},
		{Key: "max-ticks", Section: SectionRun, Type: TypeInt, Default: "1000", Description: "Tick budget for the reactive executor"},
	}
}
