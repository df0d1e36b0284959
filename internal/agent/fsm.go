package agent

import "fmt"

// StateKind identifies a controller state.
type StateKind int

const (
	// Idle plans. It is the initial state and the state every failure
	// returns to.
	Idle StateKind = iota
	// MoveTo asks the DataProvider to move the agent toward the front
	// action's target.
	MoveTo
	// Perform runs the front action of the current plan.
	Perform
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "Idle"
	case MoveTo:
		return "MoveTo"
	case Perform:
		return "Perform"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

type stackOp int

const (
	opNone stackOp = iota
	opPush
	opPop
	opReplace
	opUnwind
)

func (o stackOp) String() string {
	switch o {
	case opNone:
		return "none"
	case opPush:
		return "push"
	case opPop:
		return "pop"
	case opReplace:
		return "replace"
	case opUnwind:
		return "unwind"
	default:
		return fmt.Sprintf("stackOp(%d)", int(o))
	}
}

// observation is what Update learned while running the current state.
// Only the fields relevant to that state are read.
type observation struct {
	// Idle
	planErr error

	// Perform
	planEmpty bool
	needsMove bool
	performOK bool

	// MoveTo
	targetMissing bool
	arrived       bool
}

// transition is the outcome of one controller step: a stack operation and
// the event to emit, if any.
type transition struct {
	op    stackOp
	state StateKind
	event EventKind
}

// step is the controller's transition function. It has no side effects.
func step(kind StateKind, obs observation) transition {
	switch kind {
	case Idle:
		if obs.planErr != nil {
			return transition{op: opReplace, state: Idle, event: PlanFailed}
		}
		return transition{op: opReplace, state: Perform, event: PlanFound}

	case Perform:
		switch {
		case obs.planEmpty:
			return transition{op: opReplace, state: Idle, event: ActionsCompleted}
		case obs.needsMove:
			return transition{op: opPush, state: MoveTo}
		case obs.performOK:
			// Every successful perform is followed by a movement phase, even
			// for actions that do not require range.
			return transition{op: opPush, state: MoveTo}
		default:
			return transition{op: opReplace, state: Idle, event: PlanAborted}
		}

	case MoveTo:
		switch {
		case obs.targetMissing:
			return transition{op: opUnwind, state: Idle, event: TargetMissing}
		case obs.arrived:
			return transition{op: opPop}
		default:
			return transition{op: opNone}
		}
	}
	panic(fmt.Sprintf("agent.step: unknown state %v", kind))
}

// stack is the controller's state stack; the last element is current.
type stack []StateKind

func newStack() stack { return stack{Idle} }

func (s stack) top() StateKind {
	if len(s) == 0 {
		return Idle
	}
	return s[len(s)-1]
}

// apply returns the stack after t. Popping the last element leaves Idle,
// so the stack is never empty.
func (s stack) apply(t transition) stack {
	switch t.op {
	case opPush:
		return append(s, t.state)
	case opPop:
		if len(s) <= 1 {
			return newStack()
		}
		return s[:len(s)-1]
	case opReplace:
		if len(s) == 0 {
			return stack{t.state}
		}
		s[len(s)-1] = t.state
		return s
	case opUnwind:
		return newStack()
	default:
		return s
	}
}
