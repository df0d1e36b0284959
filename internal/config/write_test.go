package config

import (
	"os"
	"path/filepath"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write initial config: %v", err)
	}
}

func TestSetKeyInFile_NewKeyEmptyFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config")

	if err := SetKeyInFile(path, "", "color", "never"); err != nil {
		t.Fatalf("SetKeyInFile returned error: %v", err)
	}
	if got := readFile(t, path); got != "color never\n" {
		t.Fatalf("expected 'color never', got %q", got)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath returned error: %v", err)
	}
	if v, ok := cfg.GetGlobalOption("color"); !ok || v != "never" {
		t.Fatalf("expected color=never after round-trip, got %q exists=%v", v, ok)
	}
}

func TestSetKeyInFile_ReplacesInPlace(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")
	writeFile(t, path, "# header\ncolor auto\nlog.level info\n\n[simulate]\ncolor always\n")

	if err := SetKeyInFile(path, "", "color", "never"); err != nil {
		t.Fatal(err)
	}
	want := "# header\ncolor never\nlog.level info\n\n[simulate]\ncolor always\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSetKeyInFile_GlobalGoesBeforeFirstSection(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")
	writeFile(t, path, "color auto\n\n[simulate]\nticks 5\n")

	if err := SetKeyInFile(path, "", "log.level", "debug"); err != nil {
		t.Fatal(err)
	}
	want := "color auto\nlog.level debug\n\n[simulate]\nticks 5\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSetKeyInFile_GlobalWithLeadingSection(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")
	writeFile(t, path, "[simulate]\nticks 5\n")

	if err := SetKeyInFile(path, "", "color", "never"); err != nil {
		t.Fatal(err)
	}
	want := "color never\n[simulate]\nticks 5\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSetKeyInFile_Section(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")
	writeFile(t, path, "color auto\n\n[simulate]\nticks 5\n\n[other]\nx 1\n")

	if err := SetKeyInFile(path, "simulate", "ticks", "9"); err != nil {
		t.Fatal(err)
	}
	if err := SetKeyInFile(path, "simulate", "seed", "3"); err != nil {
		t.Fatal(err)
	}
	want := "color auto\n\n[simulate]\nticks 9\nseed 3\n\n[other]\nx 1\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSetKeyInFile_NewSection(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")
	writeFile(t, path, "color auto\n")

	if err := SetKeyInFile(path, "simulate", "plants", "2"); err != nil {
		t.Fatal(err)
	}
	want := "color auto\n\n[simulate]\nplants 2\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := cfg.GetSectionOption("simulate", "plants"); v != "2" {
		t.Fatalf("expected plants=2, got %q", v)
	}
}

func TestSetKeyInFile_EmptyValue(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")

	if err := SetKeyInFile(path, "", "log.file", ""); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "log.file\n" {
		t.Fatalf("expected bare key, got %q", got)
	}
}

func TestFormatAndWriteToPath(t *testing.T) {
	t.Parallel()
	c := NewConfig()
	c.SetGlobalOption("log.level", "debug")
	c.SetGlobalOption("color", "never")
	c.SetSectionOption("simulate", "ticks", "10")
	c.SetSectionOption("simulate", "flag", "")

	want := "color never\nlog.level debug\n\n[simulate]\nflag\nticks 10\n"
	if got := Format(c); got != want {
		t.Fatalf("Format: expected %q, got %q", want, got)
	}

	path := filepath.Join(t.TempDir(), "out", "config")
	if err := WriteToPath(c, path); err != nil {
		t.Fatalf("WriteToPath: %v", err)
	}
	if got := readFile(t, path); got != want {
		t.Fatalf("WriteToPath: expected %q, got %q", want, got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}
