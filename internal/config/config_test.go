package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigParsing(t *testing.T) {
	configContent := `# Global options
color auto
log.level debug

[simulate]
ticks 50
plants   3
`

	config, err := LoadFromReader(strings.NewReader(configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if value, ok := config.GetGlobalOption("color"); !ok || value != "auto" {
		t.Errorf("Expected color=auto, got %s (exists: %v)", value, ok)
	}
	if value, ok := config.GetSectionOption("simulate", "ticks"); !ok || value != "50" {
		t.Errorf("Expected simulate.ticks=50, got %s (exists: %v)", value, ok)
	}
	if value, ok := config.GetSectionOption("simulate", "plants"); !ok || value != "3" {
		t.Errorf("Expected simulate.plants=3 with surrounding space trimmed, got %q", value)
	}
	if value, ok := config.GetSectionOption("simulate", "log.level"); !ok || value != "debug" {
		t.Errorf("Expected fallback to global log.level, got %s (exists: %v)", value, ok)
	}
	if value, ok := config.GetSectionOption("nonexistent", "option"); ok {
		t.Errorf("Expected nonexistent option to not exist, but got %s", value)
	}
	if config.HasWarnings() {
		t.Errorf("Expected no warnings, got %v", config.GetWarnings())
	}
}

func TestEmptyConfig(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Failed to load empty config: %v", err)
	}
	if len(config.Global) != 0 || len(config.Sections) != 0 {
		t.Errorf("Expected empty config, got %+v", config)
	}
}

func TestConfigWarnings(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader(`bogus 1
planner.max-depth lots
color sometimes

[simulate]
ticks 10
mystery yes

[nowhere]
x 1
`))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	want := []string{
		`global option "color": expected one of auto, always, never, got "sometimes"`,
		`global option "planner.max-depth": expected int, got "lots"`,
		`unknown global option: "bogus" (value: "1")`,
		`unknown option in [simulate]: "mystery" (value: "yes")`,
		`unknown section: [nowhere]`,
	}
	got := config.GetWarnings()
	if len(got) != len(want) {
		t.Fatalf("Expected %d warnings, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("warning %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestConfigEmptySectionName(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("[ ]\n")); err == nil {
		t.Fatal("Expected error for empty section name")
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	config, err := LoadFromPath(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if len(config.Global) != 0 {
		t.Errorf("Expected empty config, got %v", config.Global)
	}
}

func TestLoadFromPathRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	if err := os.WriteFile(target, []byte("color never\n"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "config")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if _, err := LoadFromPath(link); err == nil || !strings.Contains(err.Error(), "symlink not allowed") {
		t.Fatalf("Expected symlink error, got %v", err)
	}
}

func TestLoadUsesEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("log.level warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v := config.GetString("log.level"); v != "warn" {
		t.Errorf("Expected log.level=warn, got %q", v)
	}
}

func TestSetAndSectionNames(t *testing.T) {
	config := NewConfig()
	config.SetGlobalOption("color", "never")
	config.SetSectionOption("simulate", "seed", "7")
	config.SetSectionOption("alpha", "x", "1")

	if v, _ := config.GetGlobalOption("color"); v != "never" {
		t.Errorf("Expected color=never, got %q", v)
	}
	if v, _ := config.GetSectionOption("simulate", "seed"); v != "7" {
		t.Errorf("Expected seed=7, got %q", v)
	}
	names := config.SectionNames()
	if strings.Join(names, ",") != "alpha,simulate" {
		t.Errorf("Expected sorted section names, got %v", names)
	}
}
