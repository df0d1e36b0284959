package agent

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// EventKind identifies an observable controller outcome.
type EventKind int

const (
	// PlanFound is emitted when Idle produced a plan.
	PlanFound EventKind = iota + 1
	// PlanFailed is emitted when Idle could not produce a plan. Err holds
	// the planner error.
	PlanFailed
	// PlanAborted is emitted when an action's Perform returned false.
	PlanAborted
	// ActionsCompleted is emitted when the plan ran out of actions.
	ActionsCompleted
	// TargetMissing is emitted when MoveTo reached an action that requires
	// range but has no bound target. The DataProvider is not notified.
	TargetMissing
)

func (k EventKind) String() string {
	switch k {
	case PlanFound:
		return "PlanFound"
	case PlanFailed:
		return "PlanFailed"
	case PlanAborted:
		return "PlanAborted"
	case ActionsCompleted:
		return "ActionsCompleted"
	case TargetMissing:
		return "TargetMissing"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes one controller outcome. Fields that do not apply to the
// kind are zero.
type Event struct {
	Kind    EventKind
	AgentID planner.Handle
	// PlanID identifies the plan the event belongs to. It is uuid.Nil for
	// PlanFailed.
	PlanID uuid.UUID
	Goal   worldstate.State
	Action planner.Action
	Plan   *planner.Plan
	Err    error
	Time   time.Time
}

func (e Event) String() string {
	s := fmt.Sprintf("%s agent=%s", e.Kind, e.AgentID)
	if e.PlanID != uuid.Nil {
		s += " plan=" + e.PlanID.String()
	}
	switch e.Kind {
	case PlanFound:
		if e.Plan != nil {
			s += fmt.Sprintf(" actions=[%s] cost=%v", e.Plan, e.Plan.Cost)
		}
	case PlanFailed:
		s += fmt.Sprintf(" goal=%v", e.Goal)
		if e.Err != nil {
			s += fmt.Sprintf(" err=%q", e.Err.Error())
		}
	case PlanAborted, TargetMissing:
		if e.Action != nil {
			s += " action=" + e.Action.Name()
		}
	}
	return s
}

// Observer receives events after the tick that produced them has finished
// updating the controller.
type Observer func(Event)
