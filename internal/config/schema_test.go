package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultSchemaRegistersEveryOption(t *testing.T) {
	s := DefaultSchema()

	for _, key := range []string{
		"color", "log.file", "log.level", "log.max-size-mb", "log.max-files",
		"log.buffer-size", "planner.max-depth", "planner.max-nodes",
		"planner.timeout", "agent.tick-interval",
	} {
		if s.Lookup("", key) == nil {
			t.Errorf("global option %q not registered", key)
		}
	}
	for _, key := range []string{"ticks", "plants", "rabbits", "seed", "hunger", "size", "speed", "regrow-every"} {
		if s.Lookup(SectionSimulate, key) == nil {
			t.Errorf("simulate option %q not registered", key)
		}
	}
	for _, key := range []string{"mode", "travel", "timeout", "max-ticks"} {
		if s.Lookup(SectionRun, key) == nil {
			t.Errorf("run option %q not registered", key)
		}
	}
	if got := s.Sections(); len(got) != 2 || got[0] != SectionRun || got[1] != SectionSimulate {
		t.Errorf("Expected the run and simulate sections, got %v", got)
	}
}

func TestSchemaIsKnown(t *testing.T) {
	s := DefaultSchema()
	cases := []struct {
		section, key string
		want         bool
	}{
		{"", "color", true},
		{"", "ticks", false},
		{SectionSimulate, "ticks", true},
		{SectionSimulate, "color", true},
		{SectionSimulate, "bogus", false},
		{"other", "color", true},
	}
	for _, tc := range cases {
		if got := s.IsKnown(tc.section, tc.key); got != tc.want {
			t.Errorf("IsKnown(%q, %q) = %v, want %v", tc.section, tc.key, got, tc.want)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()

	t.Setenv("GOAP_LOG_LEVEL", "")
	if v := s.Resolve(c, "log.level"); v != "" {
		t.Errorf("Expected an empty env var to win, got %q", v)
	}
}

func TestResolveFallsBackToConfigThenDefault(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()

	if v := s.Resolve(c, "agent.tick-interval"); v != "100ms" {
		t.Errorf("Expected default 100ms, got %q", v)
	}
	c.SetGlobalOption("agent.tick-interval", "1s")
	if v := s.Resolve(c, "agent.tick-interval"); v != "1s" {
		t.Errorf("Expected config value 1s, got %q", v)
	}
	if v := s.Resolve(c, "not.registered"); v != "" {
		t.Errorf("Expected empty for unknown key, got %q", v)
	}
	if v := s.Resolve(nil, "log.max-files"); v != "5" {
		t.Errorf("Expected default for nil config, got %q", v)
	}
}

func TestResolveEnvOverride(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()
	c.SetGlobalOption("log.file", "/from/config")

	t.Setenv("GOAP_LOG_FILE", "/from/env")
	if v := s.Resolve(c, "log.file"); v != "/from/env" {
		t.Errorf("Expected env override, got %q", v)
	}
}

func TestResolveTyped(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()
	c.SetSectionOption(SectionSimulate, "ticks", "25")
	c.SetSectionOption(SectionSimulate, "plants", "many")
	c.SetSectionOption(SectionSimulate, "speed", "2.5")
	c.SetGlobalOption("planner.timeout", "250ms")

	if v := s.ResolveInt(c, SectionSimulate, "ticks"); v != 25 {
		t.Errorf("ticks: expected 25, got %d", v)
	}
	if v := s.ResolveInt(c, SectionSimulate, "plants"); v != 5 {
		t.Errorf("plants: expected default 5 for an unparseable value, got %d", v)
	}
	if v := s.ResolveInt(c, SectionSimulate, "hunger"); v != 10 {
		t.Errorf("hunger: expected default 10, got %d", v)
	}
	if v := s.ResolveFloat(c, SectionSimulate, "speed"); v != 2.5 {
		t.Errorf("speed: expected 2.5, got %v", v)
	}
	if v := s.ResolveDuration(c, "", "planner.timeout"); v != 250*time.Millisecond {
		t.Errorf("planner.timeout: expected 250ms, got %v", v)
	}
	if v := s.ResolveDuration(NewConfig(), "", "planner.timeout"); v != 0 {
		t.Errorf("planner.timeout: expected zero when unset, got %v", v)
	}
	if v := s.ResolveInt(c, "", "nope"); v != 0 {
		t.Errorf("unknown: expected 0, got %d", v)
	}
}

func TestValidateType(t *testing.T) {
	cases := []struct {
		typ   OptionType
		value string
		ok    bool
	}{
		{TypeString, "anything", true},
		{TypeBool, "yes", true},
		{TypeBool, "maybe", false},
		{TypeInt, "-3", true},
		{TypeInt, "3.5", false},
		{TypeFloat, "3.5", true},
		{TypeFloat, "x", false},
		{TypeDuration, "5s", true},
		{TypeDuration, "5", false},
		{OptionType("weird"), "x", false},
	}
	for _, tc := range cases {
		err := validateType(tc.typ, tc.value)
		if (err == nil) != tc.ok {
			t.Errorf("validateType(%s, %q) error = %v, want ok=%v", tc.typ, tc.value, err, tc.ok)
		}
	}
}

func TestValidateChoicesIgnoreCase(t *testing.T) {
	opt := &ConfigOption{Key: "color", Choices: []string{"auto", "never"}}
	if err := validateValue(opt, "NEVER"); err != nil {
		t.Errorf("Expected case-insensitive match, got %v", err)
	}
	if err := validateValue(opt, "blue"); err == nil {
		t.Error("Expected error for value outside choices")
	}
}

func TestTypedGetters(t *testing.T) {
	c := NewConfig()
	c.SetGlobalOption("flag", "on")
	c.SetGlobalOption("n", "12")
	c.SetGlobalOption("d", "2m")
	c.SetGlobalOption("bad", "?")

	if !c.GetBool("flag") || c.GetBool("bad") || c.GetBool("missing") {
		t.Error("GetBool mismatch")
	}
	if c.GetInt("n") != 12 || c.GetInt("bad") != 0 {
		t.Error("GetInt mismatch")
	}
	if c.GetDuration("d") != 2*time.Minute || c.GetDuration("bad") != 0 {
		t.Error("GetDuration mismatch")
	}
	if c.GetString("missing") != "" {
		t.Error("GetString mismatch")
	}
}

func TestFormatHelp(t *testing.T) {
	help := DefaultSchema().FormatHelp()
	for _, want := range []string{
		"Global Options:",
		"log.level",
		"one of: debug|info|warn|error",
		"env: GOAP_LOG_LEVEL",
		"[simulate] Options:",
		"regrow-every",
		"[run] Options:",
		"one of: goap|reactive",
		"type: float",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("FormatHelp missing %q:\n%s", want, help)
		}
	}
}

func TestCheckValue(t *testing.T) {
	s := DefaultSchema()
	cases := []struct {
		section, key, value string
		wantErr             string
	}{
		{"", "log.level", "debug", ""},
		{"", "log.level", "loud", "expected one of"},
		{"", "nope", "1", `unknown global option: "nope"`},
		{SectionSimulate, "ticks", "50", ""},
		{SectionSimulate, "ticks", "many", "expected int"},
		{SectionSimulate, "color", "never", ""},
		{SectionRun, "mode", "reactive", ""},
		{SectionRun, "bogus", "x", `unknown option in [run]: "bogus"`},
	}
	for _, tc := range cases {
		err := s.CheckValue(tc.section, tc.key, tc.value)
		if tc.wantErr == "" {
			if err != nil {
				t.Errorf("CheckValue(%q, %q, %q) = %v", tc.section, tc.key, tc.value, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("CheckValue(%q, %q, %q) = %v, want error containing %q", tc.section, tc.key, tc.value, err, tc.wantErr)
		}
	}
}
