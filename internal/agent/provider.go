package agent

import (
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// DataProvider supplies an agent with world state, goals and movement, and
// receives plan lifecycle notifications. It is implemented by the
// application.
//
// Methods are called from within Agent.Update, on the goroutine that called
// it. WorldState, GoalState and MoveAgent run while the agent is locked and
// must not call back into it. The notification methods run after the
// controller has been updated and unlocked, so they may inspect the Agent.
type DataProvider interface {
	// WorldState returns a snapshot of the facts the agent believes.
	WorldState() worldstate.State
	// GoalState returns the goal to plan for.
	GoalState() worldstate.State
	// MoveAgent advances the agent toward action's target. It returns true
	// on arrival and must call action.SetInRange(true) before doing so.
	MoveAgent(action planner.Action) bool

	OnPlanFound(goal worldstate.State, plan *planner.Plan)
	OnPlanFailed(goal worldstate.State)
	OnPlanAborted(action planner.Action)
	OnActionsCompleted()
}

// NopNotifications implements the DataProvider notification methods as
// no-ops. Embed it in providers that only care about some of them.
type NopNotifications struct{}

func (NopNotifications) OnPlanFound(worldstate.State, *planner.Plan) {}
func (NopNotifications) OnPlanFailed(worldstate.State)               {}
func (NopNotifications) OnPlanAborted(planner.Action)                {}
func (NopNotifications) OnActionsCompleted()                         {}
