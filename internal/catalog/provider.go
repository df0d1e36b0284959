package catalog

import (
	"log/slog"
	"sync"

	"github.com/joeycumines/goap/internal/agent"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

var _ agent.DataProvider = (*Provider)(nil)

// Provider drives an agent through a scenario. It starts from the scenario's
// initial state, applies each action's effects once the action is done and
// reports the goal reached through Done.
//
// Reaching a target takes travel calls to MoveAgent, once per target.
// Actions without a target arrive immediately.
type Provider struct {
	scenario *Scenario
	travel   int
	logger   *slog.Logger

	mu       sync.Mutex
	state    worldstate.State
	plan     *planner.Plan
	applied  int
	moves    map[planner.Handle]int
	reached  bool
	done     chan struct{}
	failures int
	aborts   int
}

// NewProvider creates a Provider for s.
func NewProvider(s *Scenario, travel int, logger *slog.Logger) *Provider {
	if s == nil {
		panic("catalog.NewProvider: nil scenario")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		scenario: s,
		travel:   max(travel, 0),
		logger:   logger,
		state:    s.InitialState().Clone(),
		moves:    make(map[planner.Handle]int),
		done:     make(chan struct{}),
	}
}

// Env exposes the provider's live state to check and target expressions.
// Pass it as Options.Env.
func (p *Provider) Env(agent planner.Handle) Env {
	p.mu.Lock()
	state := p.state.Map()
	p.mu.Unlock()
	return Env{
		Agent:   string(agent),
		State:   state,
		Targets: p.scenario.Targets,
		Vars:    p.scenario.Vars,
	}
}

// State returns the current state.
func (p *Provider) State() worldstate.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done is closed once the goal is satisfied.
func (p *Provider) Done() <-chan struct{} { return p.done }

// Failures returns the number of PlanFailed and PlanAborted notifications.
func (p *Provider) Failures() (failed, aborted int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures, p.aborts
}

func (p *Provider) WorldState() worldstate.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catchUp()
	return p.state
}

func (p *Provider) GoalState() worldstate.State { return p.scenario.GoalState() }

func (p *Provider) MoveAgent(action planner.Action) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catchUp()
	target := action.Target()
	if !target.IsZero() && p.moves[target] < p.travel {
		p.moves[target]++
		return false
	}
	action.SetInRange(true)
	return true
}

func (p *Provider) OnPlanFound(goal worldstate.State, plan *planner.Plan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plan, p.applied = plan, 0
	p.logger.Info("[Provider] plan found",
		"scenario", p.scenario.Name,
		"goal", goal.String(),
		"plan", plan.String())
}

func (p *Provider) OnPlanFailed(goal worldstate.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	p.logger.Warn("[Provider] no plan",
		"scenario", p.scenario.Name,
		"goal", goal.String(),
		"state", p.state.String())
}

func (p *Provider) OnPlanAborted(action planner.Action) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catchUp()
	p.aborts++
	p.plan = nil
	p.logger.Warn("[Provider] plan aborted",
		"scenario", p.scenario.Name,
		"action", action.Name())
}

func (p *Provider) OnActionsCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catchUp()
	p.plan = nil
	if !p.reached && worldstate.Satisfies(p.scenario.GoalState(), p.state) {
		p.reached = true
		close(p.done)
		p.logger.Info("[Provider] goal reached",
			"scenario", p.scenario.Name,
			"state", p.state.String())
	}
}

// catchUp applies the effects of the plan's actions that have finished since
// the last call. The agent dequeues done actions in order, so they form a
// prefix of the plan.
func (p *Provider) catchUp() {
	if p.plan == nil {
		return
	}
	for p.applied < len(p.plan.Actions) && p.plan.Actions[p.applied].IsDone() {
		a := p.plan.Actions[p.applied]
		p.state = worldstate.Apply(p.state, a.Effects())
		p.applied++
		p.logger.Debug("[Provider] effects applied",
			"action", a.Name(),
			"state", p.state.String())
	}
}
