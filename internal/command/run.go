package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/goap/internal/agent"
	"github.com/joeycumines/goap/internal/catalog"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/reactive"
)

// RunCommand executes a scenario until its goal holds.
type RunCommand struct {
	*BaseCommand
	ctx    context.Context
	config *config.Config

	mode     string
	travel   int
	deadline time.Duration
	maxTicks int
	interval time.Duration
	color    string
	plannerFlags
	logFlags
}

// NewRunCommand creates a new run command. ctx cancels a running scenario.
func NewRunCommand(ctx context.Context, cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Execute a scenario file until its goal is reached",
			"run [options] <scenario.yaml>",
		),
		ctx:    ctx,
		config: cfg,
	}
}

// SetupFlags configures the flags for the run command. Defaults come from
// the [run] config section and agent.tick-interval.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	schema := config.DefaultSchema()
	sec := config.SectionRun
	fs.StringVar(&c.mode, "mode", schema.ResolveIn(c.config, sec, "mode"), "Executor: goap (plan then act) or reactive (PA-BT)")
	fs.IntVar(&c.travel, "travel", schema.ResolveInt(c.config, sec, "travel"), "Agent updates spent moving to each target")
	fs.DurationVar(&c.deadline, "timeout", schema.ResolveDuration(c.config, sec, "timeout"), "Give up if the goal is not reached in time, 0 for no limit")
	fs.IntVar(&c.maxTicks, "max-ticks", schema.ResolveInt(c.config, sec, "max-ticks"), "Tick budget for the reactive executor, 0 for no limit")
	fs.DurationVar(&c.interval, "interval", schema.ResolveDuration(c.config, "", "agent.tick-interval"), "Interval between agent updates in goap mode")
	fs.StringVar(&c.color, "color", schema.Resolve(c.config, "color"), "Colour output: auto, always or never")
	c.plannerFlags.setup(fs, c.config)
	c.logFlags.setup(fs)
}

// Execute runs the scenario.
func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintln(stderr, "expected exactly one scenario file")
		return fmt.Errorf("invalid arguments")
	}

	logger, err := c.newLogger(c.config, stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	s, err := loadScenario(args[0], stderr)
	if err != nil {
		return err
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	switch strings.ToLower(c.mode) {
	case "goap", "":
		return c.runAgent(ctx, s, logger, stdout)
	case "reactive":
		return c.runReactive(ctx, s, logger, stdout)
	default:
		return fmt.Errorf("unknown mode %q (want goap or reactive)", c.mode)
	}
}

// runAgent ticks the scenario's agent on an agent.Runner until the provider
// reports the goal reached.
func (c *RunCommand) runAgent(ctx context.Context, s *catalog.Scenario, logger *logging.Logger, stdout io.Writer) error {
	provider := catalog.NewProvider(s, c.travel, logger.Logger)
	actions, err := s.Instantiate(catalog.Options{Env: provider.Env})
	if err != nil {
		return err
	}

	// Events arrive on the runner's goroutine.
	var mu sync.Mutex
	printer := eventPrinter{w: stdout, color: useColor(c.color, stdout)}
	a, err := agent.New(s.AgentID(), provider,
		agent.WithPlanner(c.planner(logger.Logger)),
		agent.WithPlanTimeout(c.timeout),
		agent.WithLogger(logger.Logger),
		agent.WithActions(actions...),
		agent.WithObserver(func(ev agent.Event) {
			mu.Lock()
			defer mu.Unlock()
			printer.print("", ev)
		}))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := agent.NewRunner(ctx, c.interval, logger.Logger)
	if err := runner.Add(a); err != nil {
		return err
	}

	select {
	case <-provider.Done():
	case <-runner.Done():
	}
	cancel()
	runner.Stop()
	<-runner.Done()

	mu.Lock()
	defer mu.Unlock()
	select {
	case <-provider.Done():
		_, _ = fmt.Fprintf(stdout, "Goal reached: %s\n", provider.State())
		return nil
	default:
	}
	failed, aborted := provider.Failures()
	_, _ = fmt.Fprintf(stdout, "Goal not reached: %s (failed plans %d, aborted plans %d)\n", provider.State(), failed, aborted)
	if err := runner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("goal not reached")
}

// runReactive ticks a PA-BT executor over a blackboard seeded with the
// scenario's initial state.
func (c *RunCommand) runReactive(ctx context.Context, s *catalog.Scenario, logger *logging.Logger, stdout io.Writer) error {
	bb := reactive.NewBlackboard(s.InitialState())
	actions, err := s.Instantiate(catalog.Options{Env: func(h planner.Handle) catalog.Env {
		return catalog.Env{
			Agent:   string(h),
			State:   bb.Snapshot().Map(),
			Targets: s.Targets,
			Vars:    s.Vars,
		}
	}})
	if err != nil {
		return err
	}

	moves := make(map[planner.Handle]int)
	mover := func(action planner.Action) bool {
		if t := action.Target(); moves[t] < c.travel {
			moves[t]++
			return false
		}
		action.SetInRange(true)
		return true
	}

	exec, err := reactive.Build(ctx, s.AgentID(), actions, bb, s.GoalState(),
		reactive.WithMover(mover),
		reactive.WithLogger(logger.Logger))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Usable actions: %s\n", strings.Join(exec.Usable(), ", "))

	status, err := exec.Run(ctx, c.maxTicks)
	switch {
	case err != nil:
		_, _ = fmt.Fprintf(stdout, "Goal not reached: %s\n", bb.Snapshot())
		return err
	case status == bt.Success:
		_, _ = fmt.Fprintf(stdout, "Goal reached: %s\n", bb.Snapshot())
		return nil
	default:
		_, _ = fmt.Fprintf(stdout, "Goal not reached (%v): %s\n", status, bb.Snapshot())
		return fmt.Errorf("goal not reached")
	}
}
