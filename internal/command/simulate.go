package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/joeycumines/goap/internal/agent"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/sim"
)

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

// useColor decides whether to colour output written to w. Mode is auto,
// always or never; auto colours terminals unless NO_COLOR is set.
func useColor(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// eventPrinter writes one line per agent event.
type eventPrinter struct {
	w     io.Writer
	color bool
}

func (p eventPrinter) print(prefix string, ev agent.Event) {
	kind := ev.Kind.String()
	if p.color {
		var c string
		switch ev.Kind {
		case agent.PlanFound:
			c = ansiGreen
		case agent.PlanFailed:
			c = ansiYellow
		case agent.PlanAborted:
			c = ansiRed
		case agent.ActionsCompleted:
			c = ansiCyan
		case agent.TargetMissing:
			c = ansiMagenta
		}
		line := ev.String()
		_, _ = fmt.Fprintf(p.w, "%s%s%s%s%s\n", prefix, c, kind, ansiReset, strings.TrimPrefix(line, kind))
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s%s\n", prefix, ev)
}

// SimulateCommand runs the rabbit world and prints its event trace.
type SimulateCommand struct {
	*BaseCommand
	ctx    context.Context
	config *config.Config

	ticks   int
	plants  int
	rabbits int
	seed    uint64
	hunger  int
	size    float64
	speed   float64
	regrow  int
	color   string
	quiet   bool
	plannerFlags
	logFlags
}

// NewSimulateCommand creates a new simulate command. ctx cancels a running
// simulation.
func NewSimulateCommand(ctx context.Context, cfg *config.Config) *SimulateCommand {
	return &SimulateCommand{
		BaseCommand: NewBaseCommand(
			"simulate",
			"Simulate rabbits planning how to find food",
			"simulate [options]",
		),
		ctx:    ctx,
		config: cfg,
	}
}

// SetupFlags configures the flags for the simulate command. Defaults come
// from the [simulate] config section.
func (c *SimulateCommand) SetupFlags(fs *flag.FlagSet) {
	schema := config.DefaultSchema()
	sec := config.SectionSimulate
	fs.IntVar(&c.ticks, "ticks", schema.ResolveInt(c.config, sec, "ticks"), "Number of ticks to simulate")
	fs.IntVar(&c.plants, "plants", schema.ResolveInt(c.config, sec, "plants"), "Plants placed before the first tick")
	fs.IntVar(&c.rabbits, "rabbits", schema.ResolveInt(c.config, sec, "rabbits"), "Number of rabbits")
	fs.Uint64Var(&c.seed, "seed", uint64(max(schema.ResolveInt(c.config, sec, "seed"), 0)), "Random seed for plant placement")
	fs.IntVar(&c.hunger, "hunger", schema.ResolveInt(c.config, sec, "hunger"), "Hunger at which rabbits look for food")
	fs.Float64Var(&c.size, "size", schema.ResolveFloat(c.config, sec, "size"), "Side length of the world")
	fs.Float64Var(&c.speed, "speed", schema.ResolveFloat(c.config, sec, "speed"), "Distance a rabbit moves per tick")
	fs.IntVar(&c.regrow, "regrow-every", schema.ResolveInt(c.config, sec, "regrow-every"), "Spawn a plant every N ticks, 0 to disable")
	fs.StringVar(&c.color, "color", schema.Resolve(c.config, "color"), "Colour output: auto, always or never")
	fs.BoolVar(&c.quiet, "quiet", false, "Print only the summary")
	c.plannerFlags.setup(fs, c.config)
	c.logFlags.setup(fs)
}

// Execute runs the simulation.
func (c *SimulateCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	if c.ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.ticks)
	}

	logger, err := c.newLogger(c.config, stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	// Step holds the simulation lock while observers run, so the observer
	// tracks the tick itself.
	var tick int
	printer := eventPrinter{w: stdout, color: useColor(c.color, stdout)}
	opts := []sim.Option{
		sim.WithLogger(logger.Logger),
		sim.WithPlanner(c.planner(logger.Logger)),
		sim.WithPlanTimeout(c.timeout),
	}
	if !c.quiet {
		opts = append(opts, sim.WithObserver(func(ev agent.Event) {
			printer.print(fmt.Sprintf("[%4d] ", tick), ev)
		}))
	}

	s, err := sim.New(sim.Config{
		Size:            c.size,
		Plants:          c.plants,
		Rabbits:         c.rabbits,
		Seed:            c.seed,
		HungerThreshold: c.hunger,
		Speed:           c.speed,
		RegrowEvery:     c.regrow,
	}, opts...)
	if err != nil {
		return err
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	for tick = 1; tick <= c.ticks; tick++ {
		if err := ctx.Err(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Interrupted after %d tick(s)\n", s.Ticks())
			break
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
	}

	if !c.quiet {
		_, _ = fmt.Fprintln(stdout, "")
	}
	_, _ = fmt.Fprint(stdout, s.Summary())
	return ctx.Err()
}
