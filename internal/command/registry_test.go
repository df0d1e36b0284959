package command

import (
	"io"
	"strings"
	"testing"
)

// TestCommand implements Command for testing.
type TestCommand struct {
	*BaseCommand
}

func NewTestCommand(name, description, usage string) *TestCommand {
	return &TestCommand{
		BaseCommand: NewBaseCommand(name, description, usage),
	}
}

func (c *TestCommand) Execute(args []string, stdout, stderr io.Writer) error {
	return nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()

	registry.Register(NewTestCommand("zeta", "Last", "zeta"))
	registry.Register(NewTestCommand("alpha", "First", "alpha [options]"))

	cmd, err := registry.Get("alpha")
	if err != nil {
		t.Fatalf("Failed to get registered command: %v", err)
	}
	if cmd.Name() != "alpha" || cmd.Description() != "First" || cmd.Usage() != "alpha [options]" {
		t.Errorf("Unexpected command: %s %q %q", cmd.Name(), cmd.Description(), cmd.Usage())
	}

	_, err = registry.Get("nonexistent")
	if err == nil || !strings.Contains(err.Error(), "command not found: nonexistent") {
		t.Errorf("Expected not found error, got %v", err)
	}

	if got := strings.Join(registry.List(), ","); got != "alpha,zeta" {
		t.Errorf("Expected sorted names alpha,zeta, got %s", got)
	}
}

func TestRegistryReplacesByName(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()
	registry.Register(NewTestCommand("x", "old", "x"))
	registry.Register(NewTestCommand("x", "new", "x"))

	cmd, err := registry.Get("x")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Description() != "new" {
		t.Errorf("Expected the later registration to win, got %q", cmd.Description())
	}
	if n := len(registry.List()); n != 1 {
		t.Errorf("Expected one command, got %d", n)
	}
}
