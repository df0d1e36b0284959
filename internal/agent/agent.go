// Package agent implements the execution controller that drives a planning
// agent: a stack-based state machine cycling Idle → Perform → MoveTo →
// Perform → … → Idle, one step per Update.
//
// Idle asks the DataProvider for the world and goal states and runs the
// planner. Perform runs the front action of the plan, pushing MoveTo when the
// action needs the agent to be in range of its target. MoveTo delegates
// movement to the DataProvider and pops back to Perform on arrival. Every
// failure returns to Idle, which plans again on the next tick.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeycumines/goap/internal/planner"
)

var (
	// ErrNoProvider is returned by New when the DataProvider is nil.
	ErrNoProvider = errors.New("agent: data provider is required")

	// ErrDuplicateAction is returned when an action name is already
	// registered on the agent.
	ErrDuplicateAction = errors.New("agent: duplicate action")
)

// Option configures an Agent.
type Option func(*Agent)

// WithPlanner sets the planner. The default is planner.New().
func WithPlanner(p *planner.Planner) Option {
	return func(a *Agent) { a.planner = p }
}

// WithActions registers actions, in order, as if by AddAction.
func WithActions(actions ...planner.Action) Option {
	return func(a *Agent) { a.pending = append(a.pending, actions...) }
}

// WithObserver subscribes fn to every event the agent emits.
func WithObserver(fn Observer) Option {
	return func(a *Agent) {
		if fn != nil {
			a.observers = append(a.observers, fn)
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithPlanTimeout bounds each planning pass. Zero means no bound beyond the
// context passed to Update.
func WithPlanTimeout(d time.Duration) Option {
	return func(a *Agent) { a.planTimeout = d }
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// Agent owns one DataProvider, one action set and one controller stack.
// Update and the accessors are safe for concurrent use, though an agent is
// normally ticked from a single goroutine.
type Agent struct {
	id          planner.Handle
	provider    DataProvider
	planner     *planner.Planner
	logger      *slog.Logger
	observers   []Observer
	planTimeout time.Duration
	now         func() time.Time
	pending     []planner.Action

	mu        sync.Mutex
	actions   []planner.Action
	stack     stack
	plan      *planner.Plan
	planID    uuid.UUID
	remaining []planner.Action
}

// New creates an agent in the Idle state. If id is empty a random UUID is
// used.
func New(id planner.Handle, provider DataProvider, opts ...Option) (*Agent, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	a := &Agent{
		id:       id,
		provider: provider,
		stack:    newStack(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.id.IsZero() {
		a.id = planner.Handle(uuid.NewString())
	}
	if a.planner == nil {
		a.planner = planner.New()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	for _, action := range a.pending {
		if err := a.AddAction(action); err != nil {
			return nil, err
		}
	}
	a.pending = nil
	return a, nil
}

// ID returns the agent's handle, as passed to actions.
func (a *Agent) ID() planner.Handle { return a.id }

// AddAction registers action. Names must be unique within the agent.
func (a *Agent) AddAction(action planner.Action) error {
	if action == nil {
		return errors.New("agent: nil action")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.indexOf(action.Name()) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, action.Name())
	}
	a.actions = append(a.actions, action)
	return nil
}

// RemoveAction unregisters the action called name, reporting whether it was
// present. A plan already in progress keeps its reference.
func (a *Agent) RemoveAction(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.indexOf(name)
	if i < 0 {
		return false
	}
	a.actions = slices.Delete(a.actions, i, i+1)
	return true
}

// Action returns the registered action called name.
func (a *Agent) Action(name string) (planner.Action, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.indexOf(name); i >= 0 {
		return a.actions[i], true
	}
	return nil, false
}

// Actions returns the registered actions in registration order.
func (a *Agent) Actions() []planner.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.actions)
}

func (a *Agent) indexOf(name string) int {
	return slices.IndexFunc(a.actions, func(x planner.Action) bool { return x.Name() == name })
}

// State returns the current controller state.
func (a *Agent) State() StateKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stack.top()
}

// Stack returns a copy of the controller stack, bottom first.
func (a *Agent) Stack() []StateKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.stack)
}

// CurrentPlan returns the plan being executed, or nil in Idle.
func (a *Agent) CurrentPlan() *planner.Plan {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan
}

// Remaining returns the actions of the current plan that have not finished.
func (a *Agent) Remaining() []planner.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.remaining)
}

// Update runs one controller step. It returns an error only if ctx is done;
// planning and action failures are reported through events and the
// DataProvider, and the agent returns to Idle.
func (a *Agent) Update(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	kind := a.stack.top()
	var (
		obs    observation
		ev     Event
		notify func()
	)
	switch kind {
	case Idle:
		obs, ev = a.idle(ctx)
	case Perform:
		obs, ev = a.perform()
	case MoveTo:
		obs, ev = a.moveTo()
	}

	if kind == Idle && obs.planErr != nil && ctx.Err() != nil {
		a.mu.Unlock()
		return obs.planErr
	}

	t := step(kind, obs)
	a.stack = a.stack.apply(t)

	if t.event != 0 {
		ev.Kind = t.event
		ev.AgentID = a.id
		ev.Time = a.now()
		notify = a.record(&ev)
	}

	a.logger.Debug("[Agent] step",
		"agent", string(a.id),
		"state", kind.String(),
		"op", t.op.String(),
		"next", a.stack.top().String())
	a.mu.Unlock()

	if notify != nil {
		notify()
		for _, fn := range a.observers {
			fn(ev)
		}
	}
	return nil
}

// idle plans, storing the plan on success.
func (a *Agent) idle(ctx context.Context) (observation, Event) {
	world := a.provider.WorldState()
	goal := a.provider.GoalState()

	if a.planTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.planTimeout)
		defer cancel()
	}

	plan, err := a.planner.Plan(ctx, a.id, a.actions, world, goal)
	ev := Event{Goal: goal, Err: err}
	if err != nil {
		return observation{planErr: err}, ev
	}

	a.plan = plan
	a.planID = uuid.New()
	a.remaining = slices.Clone(plan.Actions)
	ev.Plan = plan
	return observation{}, ev
}

// perform runs the front action, dequeuing it first if it has finished.
func (a *Agent) perform() (observation, Event) {
	if len(a.remaining) != 0 && a.remaining[0].IsDone() {
		a.remaining = a.remaining[1:]
	}
	if len(a.remaining) == 0 {
		return observation{planEmpty: true}, Event{}
	}

	action := a.remaining[0]
	if action.RequiresInRange() && !action.InRange() {
		return observation{needsMove: true}, Event{}
	}

	ok := action.Perform(a.id)
	return observation{performOK: ok}, Event{Action: action}
}

// moveTo moves toward the front action's target.
func (a *Agent) moveTo() (observation, Event) {
	if len(a.remaining) == 0 {
		return observation{targetMissing: true}, Event{}
	}
	action := a.remaining[0]
	if action.RequiresInRange() && action.Target().IsZero() {
		return observation{targetMissing: true}, Event{Action: action}
	}
	return observation{arrived: a.provider.MoveAgent(action)}, Event{}
}

// record finalises an event, updates plan bookkeeping and logs it. It
// returns the DataProvider notification to run once the lock is released.
func (a *Agent) record(ev *Event) func() {
	provider := a.provider
	switch ev.Kind {
	case PlanFound:
		ev.PlanID = a.planID
		a.logger.Info("[Agent] plan found",
			"agent", string(a.id),
			"plan_id", a.planID.String(),
			"goal", ev.Goal.String(),
			"actions", ev.Plan.String(),
			"cost", ev.Plan.Cost)
		goal, plan := ev.Goal, ev.Plan
		return func() { provider.OnPlanFound(goal, plan) }

	case PlanFailed:
		a.logger.Info("[Agent] plan failed",
			"agent", string(a.id),
			"goal", ev.Goal.String(),
			"error", ev.Err)
		goal := ev.Goal
		return func() { provider.OnPlanFailed(goal) }

	case PlanAborted:
		ev.PlanID, ev.Plan = a.planID, a.plan
		a.clearPlan()
		a.logger.Warn("[Agent] plan aborted",
			"agent", string(a.id),
			"plan_id", ev.PlanID.String(),
			"action", ev.Action.Name())
		action := ev.Action
		return func() { provider.OnPlanAborted(action) }

	case ActionsCompleted:
		ev.PlanID, ev.Plan = a.planID, a.plan
		a.clearPlan()
		a.logger.Info("[Agent] actions completed",
			"agent", string(a.id),
			"plan_id", ev.PlanID.String())
		return provider.OnActionsCompleted

	case TargetMissing:
		ev.PlanID, ev.Plan = a.planID, a.plan
		a.clearPlan()
		name := ""
		if ev.Action != nil {
			name = ev.Action.Name()
		}
		a.logger.Warn("[Agent] target missing, returning to idle",
			"agent", string(a.id),
			"plan_id", ev.PlanID.String(),
			"action", name)
		return func() {}
	}
	return func() {}
}

func (a *Agent) clearPlan() {
	a.plan = nil
	a.planID = uuid.Nil
	a.remaining = nil
}
