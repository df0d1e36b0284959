package command

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joeycumines/goap/internal/catalog"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// plannerFlags are the search limits shared by commands that plan. Their
// defaults come from the planner.* config options.
type plannerFlags struct {
	maxDepth int
	maxNodes int
	timeout  time.Duration
}

func (f *plannerFlags) setup(fs *flag.FlagSet, cfg *config.Config) {
	schema := config.DefaultSchema()
	fs.IntVar(&f.maxDepth, "max-depth", schema.ResolveInt(cfg, "", "planner.max-depth"), "Max plan length, 0 for unbounded")
	fs.IntVar(&f.maxNodes, "max-nodes", schema.ResolveInt(cfg, "", "planner.max-nodes"), "Max search nodes per planning pass, 0 for unbounded")
	fs.DurationVar(&f.timeout, "plan-timeout", schema.ResolveDuration(cfg, "", "planner.timeout"), "Per-pass planning timeout, 0 for none")
}

func (f *plannerFlags) planner(logger *slog.Logger) *planner.Planner {
	return planner.New(
		planner.WithMaxDepth(f.maxDepth),
		planner.WithMaxNodes(f.maxNodes),
		planner.WithLogger(logger))
}

// loadScenario loads path, printing every validation problem to stderr.
func loadScenario(path string, stderr io.Writer) (*catalog.Scenario, error) {
	s, err := catalog.LoadFile(path)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			_, _ = fmt.Fprintf(stderr, "%s: %d problem(s):\n", path, len(verr.Problems))
			for _, p := range verr.Problems {
				_, _ = fmt.Fprintf(stderr, "  - %s\n", p)
			}
		} else {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return nil, err
	}
	return s, nil
}

// PlanCommand plans a scenario file once and prints the result.
type PlanCommand struct {
	*BaseCommand
	config     *config.Config
	jsonOutput bool
	plannerFlags
	logFlags
}

// NewPlanCommand creates a new plan command.
func NewPlanCommand(cfg *config.Config) *PlanCommand {
	return &PlanCommand{
		BaseCommand: NewBaseCommand(
			"plan",
			"Find the cheapest plan for a scenario file",
			"plan [options] <scenario.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the plan command.
func (c *PlanCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.jsonOutput, "json", false, "Print the result as JSON")
	c.plannerFlags.setup(fs, c.config)
	c.logFlags.setup(fs)
}

type planStep struct {
	Name   string  `json:"name"`
	Cost   float64 `json:"cost"`
	Target string  `json:"target,omitempty"`
}

type planOutput struct {
	Scenario string            `json:"scenario"`
	Agent    string            `json:"agent"`
	Found    bool              `json:"found"`
	Error    string            `json:"error,omitempty"`
	Cost     float64           `json:"cost"`
	Actions  []planStep        `json:"actions"`
	Final    *worldstate.State `json:"final,omitempty"`
	Stats    *planner.Stats    `json:"stats,omitempty"`
}

// Execute plans the scenario.
func (c *PlanCommand) Execute(args []string, stdout, stderr io.Writer) error {
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
	actions, err := s.Instantiate(catalog.Options{})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out := planOutput{Scenario: s.Name, Agent: string(s.AgentID()), Actions: []planStep{}}
	plan, planErr := c.planner(logger.Logger).Plan(ctx, s.AgentID(), actions, s.InitialState(), s.GoalState())
	if planErr != nil {
		out.Error = planErr.Error()
	} else {
		out.Found = true
		out.Cost = plan.Cost
		out.Stats = &plan.Stats
		for _, a := range plan.Actions {
			out.Actions = append(out.Actions, planStep{Name: a.Name(), Cost: a.Cost(), Target: string(a.Target())})
		}
		final, err := plan.Simulate(s.InitialState())
		if err != nil {
			return fmt.Errorf("plan does not replay: %w", err)
		}
		out.Final = &final
	}

	if c.jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return planErr
	}

	_, _ = fmt.Fprintf(stdout, "Scenario: %s (agent %s)\n", out.Scenario, out.Agent)
	_, _ = fmt.Fprintf(stdout, "Initial: %s\n", s.InitialState())
	_, _ = fmt.Fprintf(stdout, "Goal: %s\n", s.GoalState())
	if planErr != nil {
		_, _ = fmt.Fprintf(stdout, "No plan: %v\n", planErr)
		return planErr
	}
	_, _ = fmt.Fprintf(stdout, "Plan: %s\n", plan)
	_, _ = fmt.Fprintf(stdout, "Cost: %v\n", plan.Cost)
	for i, step := range out.Actions {
		if step.Target != "" {
			_, _ = fmt.Fprintf(stdout, "  %d. %s (cost %v, target %s)\n", i+1, step.Name, step.Cost, step.Target)
		} else {
			_, _ = fmt.Fprintf(stdout, "  %d. %s (cost %v)\n", i+1, step.Name, step.Cost)
		}
	}
	_, _ = fmt.Fprintf(stdout, "Final: %s\n", out.Final)
	_, _ = fmt.Fprintf(stdout, "Searched %d node(s), %d leaf/leaves, %d usable action(s)\n",
		plan.Stats.Nodes, plan.Stats.Leaves, plan.Stats.Usable)
	return nil
}

// ValidateCommand checks scenario files without planning.
type ValidateCommand struct {
	*BaseCommand
}

// NewValidateCommand creates a new validate command.
func NewValidateCommand() *ValidateCommand {
	return &ValidateCommand{
		BaseCommand: NewBaseCommand(
			"validate",
			"Check scenario files for errors",
			"validate <scenario.yaml>...",
		),
	}
}

// Execute validates each file, reporting all of them before failing.
func (c *ValidateCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, "expected at least one scenario file")
		return fmt.Errorf("invalid arguments")
	}
	invalid := 0
	for _, path := range args {
		s, err := loadScenario(path, stderr)
		if err != nil {
			invalid++
			continue
		}
		_, _ = fmt.Fprintf(stdout, "ok %s (%d action(s))\n", path, len(s.Actions))
	}
	if invalid != 0 {
		return fmt.Errorf("%d of %d scenario file(s) invalid", invalid, len(args))
	}
	return nil
}
