package planner

import (
	"fmt"

	"github.com/joeycumines/goap/internal/worldstate"
)

// Handle is an opaque reference into a registry owned by the application,
// such as a spatial index or an entity store. The planner and the agent
// controller never interpret it.
type Handle string

// IsZero reports whether h is unset.
func (h Handle) IsZero() bool { return h == "" }

// Action is a unit of behaviour with declared preconditions, effects and cost,
// plus the runtime hooks used while planning and executing.
//
// An Action instance belongs to exactly one agent. Runtime fields (in-range,
// bound target, progress) are mutable and are cleared by Reset at the start
// of every planning pass.
type Action interface {
	// Name identifies the action within its agent. It must be unique.
	Name() string

	// Preconditions and Effects are fixed at construction.
	Preconditions() worldstate.State
	Effects() worldstate.State

	// Cost is the non-negative price of performing the action once.
	Cost() float64

	// RequiresInRange reports whether the agent must be at Target before
	// Perform may be called.
	RequiresInRange() bool
	InRange() bool
	SetInRange(inRange bool)

	// Target is the bound target, or the zero Handle.
	Target() Handle

	// Reset clears runtime fields. Implementations that embed Base and keep
	// their own state must call Base.Reset.
	Reset()

	// CheckProceduralPrecondition is the dynamic feasibility check. It is
	// called exactly once per planning pass, before the search begins, and
	// may bind Target as a side effect of returning true.
	CheckProceduralPrecondition(agent Handle) bool

	// IsDone reports whether the action has finished.
	IsDone() bool

	// Perform runs one step. Returning false aborts the current plan.
	Perform(agent Handle) bool
}

// Base holds the declarative part of an Action and its generic runtime
// fields. Concrete actions embed *Base and implement
// CheckProceduralPrecondition, IsDone and Perform.
type Base struct {
	name            string
	preconditions   worldstate.State
	effects         worldstate.State
	cost            float64
	requiresInRange bool

	inRange bool
	target  Handle
}

// NewBase creates a Base. It panics if name is empty or cost is negative.
func NewBase(name string, cost float64, requiresInRange bool) *Base {
	if name == "" {
		panic("planner.NewBase: name cannot be empty")
	}
	if cost < 0 {
		panic(fmt.Sprintf("planner.NewBase: cost cannot be negative (action=%q, cost=%v)", name, cost))
	}
	return &Base{
		name:            name,
		cost:            cost,
		requiresInRange: requiresInRange,
	}
}

// AddPrecondition declares name=value as a precondition, replacing any
// existing precondition with the same name.
func (b *Base) AddPrecondition(name string, value worldstate.Value) *Base {
	b.preconditions = b.preconditions.With(name, value)
	return b
}

// RemovePrecondition drops the precondition called name, if any.
func (b *Base) RemovePrecondition(name string) *Base {
	b.preconditions = b.preconditions.Without(name)
	return b
}

// AddEffect declares name=value as an effect.
func (b *Base) AddEffect(name string, value worldstate.Value) *Base {
	b.effects = b.effects.With(name, value)
	return b
}

// RemoveEffect drops the effect called name, if any.
func (b *Base) RemoveEffect(name string) *Base {
	b.effects = b.effects.Without(name)
	return b
}

func (b *Base) Name() string                    { return b.name }
func (b *Base) Preconditions() worldstate.State { return b.preconditions }
func (b *Base) Effects() worldstate.State       { return b.effects }
func (b *Base) Cost() float64                   { return b.cost }
func (b *Base) RequiresInRange() bool           { return b.requiresInRange }
func (b *Base) InRange() bool                   { return b.inRange }
func (b *Base) SetInRange(inRange bool)         { b.inRange = inRange }
func (b *Base) Target() Handle                  { return b.target }

// SetTarget binds the target, typically from CheckProceduralPrecondition.
func (b *Base) SetTarget(target Handle) { b.target = target }

// Reset clears the in-range flag and the bound target.
func (b *Base) Reset() {
	b.inRange = false
	b.target = ""
}

// String returns the action name.
func (b *Base) String() string { return b.name }
