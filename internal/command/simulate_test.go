package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/joeycumines/goap/internal/agent"
	"github.com/joeycumines/goap/internal/config"
)

func TestSimulateCommand_Trace(t *testing.T) {
	t.Parallel()
	cmd := NewSimulateCommand(context.Background(), config.NewConfig())
	args := parseFlags(t, cmd, "-ticks", "40", "-seed", "3", "-hunger", "2", "-color", "never")

	var stdout, stderr bytes.Buffer
	if err := cmd.Execute(args, &stdout, &stderr); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "PlanFound agent=rabbit-1") {
		t.Errorf("expected a PlanFound line, got:\n%s", out)
	}
	if !strings.Contains(out, "ticks=40 plants=") {
		t.Errorf("expected a summary, got:\n%s", out)
	}
	if !strings.HasPrefix(out, "[   1] PlanFound") {
		t.Errorf("expected the first plan on tick one, got:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no colour codes")
	}
}

func TestSimulateCommand_ConfigDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.NewConfig()
	cfg.SetSectionOption(config.SectionSimulate, "ticks", "7")
	cfg.SetSectionOption(config.SectionSimulate, "rabbits", "2")

	cmd := NewSimulateCommand(context.Background(), cfg)
	args := parseFlags(t, cmd, "-quiet")

	var stdout, stderr bytes.Buffer
	if err := cmd.Execute(args, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a summary of three lines, got %q", stdout.String())
	}
	if !strings.HasPrefix(lines[0], "ticks=7 ") || !strings.HasPrefix(lines[2], "rabbit-2 ") {
		t.Errorf("unexpected summary %q", lines)
	}
}

func TestSimulateCommand_Deterministic(t *testing.T) {
	t.Parallel()
	run := func() string {
		cmd := NewSimulateCommand(context.Background(), nil)
		args := parseFlags(t, cmd, "-ticks", "100", "-seed", "11", "-regrow-every", "10", "-color", "never")
		var stdout, stderr bytes.Buffer
		if err := cmd.Execute(args, &stdout, &stderr); err != nil {
			t.Fatal(err)
		}
		// plan ids are random
		var b strings.Builder
		for _, line := range strings.Split(stdout.String(), "\n") {
			if i := strings.Index(line, " plan="); i >= 0 {
				rest := line[i+len(" plan="):]
				if j := strings.IndexByte(rest, ' '); j >= 0 {
					line = line[:i] + rest[j:]
				} else {
					line = line[:i]
				}
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return b.String()
	}
	if a, b := run(), run(); a != b {
		t.Errorf("same seed produced different traces:\n%s\n---\n%s", a, b)
	}
}

func TestSimulateCommand_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewSimulateCommand(ctx, nil)
	args := parseFlags(t, cmd, "-ticks", "10", "-quiet")

	var stdout, stderr bytes.Buffer
	err := cmd.Execute(args, &stdout, &stderr)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !strings.Contains(stderr.String(), "Interrupted after 0 tick(s)") {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "ticks=0 ") {
		t.Errorf("expected a summary, got %q", stdout.String())
	}
}

func TestSimulateCommand_Errors(t *testing.T) {
	t.Parallel()
	for _, args := range [][]string{
		{"extra"},
		{"-ticks", "-1"},
		{"-plants", "-1"},
		{"-log-level", "loud"},
	} {
		cmd := NewSimulateCommand(context.Background(), nil)
		rest := parseFlags(t, cmd, args...)
		var stdout, stderr bytes.Buffer
		if err := cmd.Execute(rest, &stdout, &stderr); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestEventPrinter(t *testing.T) {
	t.Parallel()
	ev := agent.Event{Kind: agent.ActionsCompleted, AgentID: "r"}

	var plain bytes.Buffer
	eventPrinter{w: &plain}.print("> ", ev)
	if got := plain.String(); got != "> ActionsCompleted agent=r\n" {
		t.Errorf("plain: got %q", got)
	}

	var colored bytes.Buffer
	eventPrinter{w: &colored, color: true}.print("", ev)
	if got := colored.String(); got != "\x1b[36mActionsCompleted\x1b[0m agent=r\n" {
		t.Errorf("colored: got %q", got)
	}
}

func TestUseColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if !useColor("always", &buf) {
		t.Error("always should colour")
	}
	if useColor("never", os.Stdout) {
		t.Error("never should not colour")
	}
	if useColor("auto", &buf) {
		t.Error("auto should not colour a buffer")
	}
}
