// Package planner implements forward-chaining goal-oriented action planning.
//
// Given an agent's actions, the current world state and a goal, Plan builds a
// search tree by depth-first expansion: from each node, every remaining
// candidate whose preconditions hold spawns a child whose state is the
// parent's state with the action's effects applied. A child that satisfies
// the goal is recorded as a leaf; any other child is expanded further with
// the action removed from the candidate set, so no action repeats along a
// path. The cheapest leaf wins, ties going to the first leaf discovered.
// Candidates are always visited in declaration order, which makes the result
// deterministic.
//
// The search is exhaustive and exponential in the number of usable actions.
// WithMaxNodes and WithMaxDepth bound it; hitting a bound is reported as an
// error that matches ErrPlanNotFound.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/joeycumines/goap/internal/worldstate"
)

var (
	// ErrPlanNotFound is returned when no sequence of usable actions reaches
	// the goal.
	ErrPlanNotFound = errors.New("planner: no plan found")

	// ErrNodeLimit is returned when the search creates more nodes than the
	// configured ceiling. It matches ErrPlanNotFound.
	ErrNodeLimit = fmt.Errorf("%w: node limit exceeded", ErrPlanNotFound)

	// ErrDepthLimit is returned when no plan was found and at least one
	// branch was cut off by the depth ceiling. It matches ErrPlanNotFound.
	ErrDepthLimit = fmt.Errorf("%w: depth limit reached", ErrPlanNotFound)

	// ErrInvalidAction is returned for malformed action sets.
	ErrInvalidAction = errors.New("planner: invalid action")
)

// Option configures a Planner.
type Option func(*Planner)

// WithMaxDepth limits plan length. Zero means unbounded.
func WithMaxDepth(depth int) Option {
	return func(p *Planner) { p.maxDepth = max(depth, 0) }
}

// WithMaxNodes limits the number of search nodes per pass. Zero means
// unbounded.
func WithMaxNodes(nodes int) Option {
	return func(p *Planner) { p.maxNodes = max(nodes, 0) }
}

// WithLogger sets the logger. The default is slog.Default() at plan time.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// Planner is stateless between calls and safe for concurrent use, provided
// callers do not share Action instances.
type Planner struct {
	maxDepth int
	maxNodes int
	logger   *slog.Logger
}

// New creates a Planner.
func New(opts ...Option) *Planner {
	p := new(Planner)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxDepth returns the configured depth ceiling (0 = unbounded).
func (p *Planner) MaxDepth() int { return p.maxDepth }

// MaxNodes returns the configured node ceiling (0 = unbounded).
func (p *Planner) MaxNodes() int { return p.maxNodes }

// Stats describes one planning pass.
type Stats struct {
	// Usable is the number of actions that passed the procedural check.
	Usable int
	// Nodes is the number of search nodes created, excluding the root.
	Nodes int
	// Leaves is the number of goal-satisfying leaves discovered.
	Leaves int
	// Truncated is set when a branch was cut off by the depth ceiling.
	Truncated bool
}

// Plan is an ordered, non-repeating sequence of actions.
type Plan struct {
	Actions []Action
	Cost    float64
	Stats   Stats
}

// Len returns the number of actions.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Actions)
}

// Names returns the action names in order.
func (p *Plan) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		names[i] = a.Name()
	}
	return names
}

// String formats the plan as "a -> b -> c".
func (p *Plan) String() string {
	return strings.Join(p.Names(), " -> ")
}

// Simulate applies each action's effects to initial in order, checking that
// every action's preconditions hold when it is reached.
func (p *Plan) Simulate(initial worldstate.State) (worldstate.State, error) {
	state := initial
	for i, a := range p.Actions {
		if !worldstate.Satisfies(a.Preconditions(), state) {
			return state, fmt.Errorf("step %d (%s): preconditions %v not met by %v", i+1, a.Name(), a.Preconditions(), state)
		}
		state = worldstate.Apply(state, a.Effects())
	}
	return state, nil
}

// Verify checks that the plan is executable from initial and reaches goal.
func (p *Plan) Verify(initial, goal worldstate.State) error {
	final, err := p.Simulate(initial)
	if err != nil {
		return err
	}
	if missing := worldstate.Unsatisfied(goal, final); len(missing) != 0 {
		return fmt.Errorf("goal not reached, unsatisfied: %v", missing)
	}
	return nil
}

type node struct {
	parent *node
	cost   float64
	depth  int
	state  worldstate.State
	action Action
}

// Plan searches for the cheapest sequence of actions transforming current
// into a state that satisfies goal.
//
// Every action is Reset, then CheckProceduralPrecondition is called once on
// each; only the actions that pass take part in the search. The returned
// error matches ErrPlanNotFound when no plan exists within the configured
// bounds, and wraps ctx.Err() if ctx is cancelled mid-search.
func (p *Planner) Plan(ctx context.Context, agent Handle, actions []Action, current, goal worldstate.State) (*Plan, error) {
	if err := validateActions(actions); err != nil {
		return nil, err
	}

	logger := p.logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, a := range actions {
		a.Reset()
	}

	usable := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a.CheckProceduralPrecondition(agent) {
			usable = append(usable, a)
		}
	}

	s := &search{
		ctx:      ctx,
		goal:     goal,
		maxDepth: p.maxDepth,
		maxNodes: p.maxNodes,
	}
	s.stats.Usable = len(usable)

	if err := s.build(&node{state: current}, usable); err != nil {
		logger.Debug("[Planner] search aborted",
			"agent", string(agent),
			"goal", goal.String(),
			"nodes", s.stats.Nodes,
			"error", err)
		return nil, err
	}
	s.stats.Leaves = len(s.leaves)

	if len(s.leaves) == 0 {
		err := ErrPlanNotFound
		if s.stats.Truncated {
			err = ErrDepthLimit
		}
		logger.Debug("[Planner] no plan",
			"agent", string(agent),
			"goal", goal.String(),
			"usable", s.stats.Usable,
			"nodes", s.stats.Nodes,
			"truncated", s.stats.Truncated)
		return nil, err
	}

	cheapest := s.leaves[0]
	for _, leaf := range s.leaves[1:] {
		if leaf.cost < cheapest.cost {
			cheapest = leaf
		}
	}

	plan := &Plan{
		Actions: make([]Action, cheapest.depth),
		Cost:    cheapest.cost,
		Stats:   s.stats,
	}
	for n := cheapest; n.action != nil; n = n.parent {
		plan.Actions[n.depth-1] = n.action
	}

	logger.Debug("[Planner] plan found",
		"agent", string(agent),
		"goal", goal.String(),
		"plan", plan.String(),
		"cost", plan.Cost,
		"usable", s.stats.Usable,
		"nodes", s.stats.Nodes,
		"leaves", s.stats.Leaves)

	return plan, nil
}

type search struct {
	ctx      context.Context
	goal     worldstate.State
	maxDepth int
	maxNodes int
	leaves   []*node
	stats    Stats
}

func (s *search) build(parent *node, candidates []Action) error {
	for i, a := range candidates {
		if !worldstate.Satisfies(a.Preconditions(), parent.state) {
			continue
		}

		if err := s.ctx.Err(); err != nil {
			return fmt.Errorf("planner: search cancelled: %w", err)
		}
		if s.maxNodes > 0 && s.stats.Nodes >= s.maxNodes {
			return ErrNodeLimit
		}
		s.stats.Nodes++

		child := &node{
			parent: parent,
			cost:   parent.cost + a.Cost(),
			depth:  parent.depth + 1,
			state:  worldstate.Apply(parent.state, a.Effects()),
			action: a,
		}

		if worldstate.Satisfies(s.goal, child.state) {
			s.leaves = append(s.leaves, child)
			continue
		}

		if s.maxDepth > 0 && child.depth >= s.maxDepth {
			// Only a cut with actions left to try could have hidden a plan.
			if len(candidates) > 1 {
				s.stats.Truncated = true
			}
			continue
		}

		if err := s.build(child, without(candidates, i)); err != nil {
			return err
		}
	}
	return nil
}

// without returns a copy of actions minus the element at index i, keeping
// the relative order of the rest.
func without(actions []Action, i int) []Action {
	out := make([]Action, 0, len(actions)-1)
	out = append(out, actions[:i]...)
	return append(out, actions[i+1:]...)
}

func validateActions(actions []Action) error {
	seen := make(map[string]struct{}, len(actions))
	for i, a := range actions {
		if a == nil {
			return fmt.Errorf("%w: nil action at index %d", ErrInvalidAction, i)
		}
		name := a.Name()
		if name == "" {
			return fmt.Errorf("%w: empty name at index %d", ErrInvalidAction, i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidAction, name)
		}
		seen[name] = struct{}{}
		if c := a.Cost(); c < 0 || math.IsNaN(c) {
			return fmt.Errorf("%w: %q has invalid cost %v", ErrInvalidAction, name, c)
		}
	}
	return nil
}
