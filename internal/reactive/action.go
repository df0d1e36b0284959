package reactive

import (
	"context"
	"log/slog"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"

	"github.com/joeycumines/goap/internal/planner"
)

var _ pabtpkg.IAction = (*Action)(nil)

// Mover advances the agent toward action's target, returning true on
// arrival. It has the same contract as agent.DataProvider.MoveAgent.
type Mover func(action planner.Action) bool

// Action adapts a planner.Action to go-pabt. Its single condition group is
// the action's preconditions, its effects are the action's effects, and its
// node moves into range if needed, then performs until the action is done.
type Action struct {
	action     planner.Action
	agent      planner.Handle
	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       bt.Node
}

// NewAction wraps action for agent. On completion the action's effects are
// written to bb. A nil mover treats every target as already in range.
func NewAction(ctx context.Context, agent planner.Handle, action planner.Action, bb *Blackboard, mover Mover, logger *slog.Logger) *Action {
	if action == nil {
		panic("reactive.NewAction: action cannot be nil")
	}
	if bb == nil {
		panic("reactive.NewAction: blackboard cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	conds := make(pabtpkg.IConditions, 0, action.Preconditions().Len())
	for name, v := range action.Preconditions().All() {
		conds = append(conds, NewCondition(name, v))
	}
	var effects pabtpkg.Effects
	for name, v := range action.Effects().All() {
		effects = append(effects, NewEffect(name, v))
	}

	a := &Action{
		action:  action,
		agent:   agent,
		effects: effects,
	}
	// An empty AND group is invalid in go-pabt; no conditions means always
	// applicable.
	if len(conds) != 0 {
		a.conditions = []pabtpkg.IConditions{conds}
	}
	a.node = bt.New(func([]bt.Node) (bt.Status, error) {
		return a.tick(ctx, bb, mover, logger)
	})
	return a
}

// Name returns the wrapped action's name.
func (a *Action) Name() string { return a.action.Name() }

// Unwrap returns the wrapped action.
func (a *Action) Unwrap() planner.Action { return a.action }

// Conditions implements pabt.IAction.
func (a *Action) Conditions() []pabtpkg.IConditions { return a.conditions }

// Effects implements pabt.IAction.
func (a *Action) Effects() pabtpkg.Effects { return a.effects }

// Node implements pabt.IAction.
func (a *Action) Node() bt.Node { return a.node }

func (a *Action) satisfies(failed pabtpkg.Condition) bool {
	key := failed.Key()
	for _, e := range a.effects {
		if e.Key() == key && failed.Match(e.Value()) {
			return true
		}
	}
	return false
}

func (a *Action) tick(ctx context.Context, bb *Blackboard, mover Mover, logger *slog.Logger) (bt.Status, error) {
	if err := ctx.Err(); err != nil {
		return bt.Failure, err
	}

	x := a.action
	if x.IsDone() {
		bb.Load(x.Effects())
		return bt.Success, nil
	}

	if x.RequiresInRange() && !x.InRange() {
		switch {
		case x.Target().IsZero():
			logger.Warn("[Reactive] target missing",
				"agent", string(a.agent),
				"action", x.Name())
			return bt.Failure, nil
		case mover == nil:
			x.SetInRange(true)
		case !mover(x):
			return bt.Running, nil
		}
	}

	if !x.Perform(a.agent) {
		logger.Info("[Reactive] action failed",
			"agent", string(a.agent),
			"action", x.Name())
		return bt.Failure, nil
	}
	if x.IsDone() {
		bb.Load(x.Effects())
		logger.Debug("[Reactive] action done",
			"agent", string(a.agent),
			"action", x.Name(),
			"effects", x.Effects().String())
		return bt.Success, nil
	}
	return bt.Running, nil
}
