// Package reactive runs planner actions under Planning and Acting using
// Behavior Trees (PA-BT), via go-pabt.
//
// Where the agent package commits to a whole plan up front and replans only
// on failure, a reactive Executor grows a behaviour tree backwards from the
// goal: each tick re-checks the goal and the preconditions on the path to
// it against a Blackboard, and expands the tree with actions whose effects
// repair whichever condition failed. The same Action implementations serve
// both modes.
//
// Usage:
//
//	bb := reactive.NewBlackboard(initial)
//	exec, err := reactive.Build(ctx, "rabbit", actions, bb, goal)
//	ticker := bt.NewTicker(ctx, 100*time.Millisecond, exec.Node())
package reactive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"

	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// ErrEmptyGoal is returned by Build when the goal has no facts.
var ErrEmptyGoal = errors.New("reactive: goal is empty")

// Option configures Build.
type Option func(*options)

type options struct {
	mover  Mover
	logger *slog.Logger
}

// WithMover sets the movement callback for actions that require range.
func WithMover(m Mover) Option {
	return func(o *options) { o.mover = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Executor ticks a PA-BT plan.
type Executor struct {
	state  *State
	goal   worldstate.State
	node   bt.Node
	usable []string
}

// Build resets every action, keeps those whose procedural precondition
// passes for agent, and creates a PA-BT plan for goal over them. The
// procedural check runs once here, never during ticks. ctx bounds every
// subsequent tick of the returned executor.
func Build(ctx context.Context, agent planner.Handle, actions []planner.Action, bb *Blackboard, goal worldstate.State, opts ...Option) (*Executor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bb == nil {
		return nil, errors.New("reactive: blackboard is required")
	}
	if goal.IsEmpty() {
		return nil, ErrEmptyGoal
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(actions))
	for i, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("%w: nil action at index %d", planner.ErrInvalidAction, i)
		}
		if _, ok := seen[a.Name()]; ok {
			return nil, fmt.Errorf("%w: duplicate name %q", planner.ErrInvalidAction, a.Name())
		}
		seen[a.Name()] = struct{}{}
		a.Reset()
	}

	state := NewState(bb, o.logger)
	e := &Executor{state: state, goal: goal}
	for _, a := range actions {
		if !a.CheckProceduralPrecondition(agent) {
			continue
		}
		state.Register(NewAction(ctx, agent, a, bb, o.mover, o.logger))
		e.usable = append(e.usable, a.Name())
	}

	conds := make(pabtpkg.IConditions, 0, goal.Len())
	for name, v := range goal.All() {
		conds = append(conds, NewCondition(name, v))
	}
	plan, err := pabtpkg.INew(state, []pabtpkg.IConditions{conds})
	if err != nil {
		return nil, fmt.Errorf("reactive: build plan: %w", err)
	}
	e.node = plan.Node()

	o.logger.Debug("[Reactive] executor built",
		"agent", string(agent),
		"goal", goal.String(),
		"usable", e.usable)
	return e, nil
}

// Node returns the plan's behaviour tree, for use with bt.NewTicker.
func (e *Executor) Node() bt.Node { return e.node }

// Tick ticks the plan once.
func (e *Executor) Tick() (bt.Status, error) { return e.node.Tick() }

// Usable returns the names of the actions that passed the procedural check.
func (e *Executor) Usable() []string { return append([]string(nil), e.usable...) }

// Goal returns the goal the executor works toward.
func (e *Executor) Goal() worldstate.State { return e.goal }

// Achieved reports whether the blackboard currently satisfies the goal.
func (e *Executor) Achieved() bool {
	return worldstate.Satisfies(e.goal, e.state.Snapshot())
}

// Run ticks until the goal is achieved, the tree fails, ctx is done or
// maxTicks ticks have run (0 = unbounded). It returns the final status.
func (e *Executor) Run(ctx context.Context, maxTicks int) (bt.Status, error) {
	for i := 0; maxTicks == 0 || i < maxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return bt.Failure, err
		}
		status, err := e.Tick()
		if err != nil || status != bt.Running {
			return status, err
		}
	}
	return bt.Running, nil
}
