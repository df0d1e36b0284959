package reactive

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	pabtpkg "github.com/joeycumines/go-pabt"

	"github.com/joeycumines/goap/internal/worldstate"
)

var _ pabtpkg.IState = (*State)(nil)

// State implements go-pabt's IState over a Blackboard. Keys are fact names
// and variables are the facts' Go values (see worldstate.Value.Interface).
type State struct {
	*Blackboard

	mu      sync.RWMutex
	actions []*Action
	logger  *slog.Logger
}

// NewState creates a State backed by bb.
func NewState(bb *Blackboard, logger *slog.Logger) *State {
	if bb == nil {
		panic("reactive.NewState: blackboard cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &State{Blackboard: bb, logger: logger}
}

// Register appends action to the candidate set. Candidates are offered to
// the planner in registration order.
func (s *State) Register(action *Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

// Registered returns the registered actions in order.
func (s *State) Registered() []*Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.actions)
}

// Variable returns the value of the fact named by key, or nil if the fact is
// unset.
func (s *State) Variable(key any) (any, error) {
	name, err := keyName(key)
	if err != nil {
		return nil, err
	}
	v, ok := s.Blackboard.Get(name)
	if !ok {
		return nil, nil
	}
	return v.Interface(), nil
}

// Actions returns the registered actions with an effect that satisfies
// failed. A nil condition selects every action.
func (s *State) Actions(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
	registered := s.Registered()

	var (
		out   []pabtpkg.IAction
		names []string
	)
	for _, a := range registered {
		if failed == nil || a.satisfies(failed) {
			out = append(out, a)
			names = append(names, a.Name())
		}
	}

	if failed != nil {
		s.logger.Debug("[Reactive] actions for failed condition",
			"key", fmt.Sprint(failed.Key()),
			"candidates", len(registered),
			"relevant", names)
	}
	return out, nil
}

func keyName(key any) (string, error) {
	switch k := key.(type) {
	case nil:
		return "", fmt.Errorf("reactive: variable key cannot be nil")
	case string:
		return k, nil
	case fmt.Stringer:
		return k.String(), nil
	default:
		return "", fmt.Errorf("reactive: unsupported key type: %T", key)
	}
}

// Condition requires a fact to hold an exact value.
type Condition struct{ fact worldstate.Fact }

var _ pabtpkg.Condition = Condition{}

// NewCondition returns a Condition requiring name=value.
func NewCondition(name string, value worldstate.Value) Condition {
	return Condition{fact: worldstate.Fact{Name: name, Value: value}}
}

// Fact returns the required fact.
func (c Condition) Fact() worldstate.Fact { return c.fact }

// Key implements pabt.Condition.
func (c Condition) Key() any { return c.fact.Name }

// Match reports whether v, converted to a worldstate.Value, equals the
// required value. Unset (nil) and unconvertible values never match.
func (c Condition) Match(v any) bool {
	got, err := worldstate.Of(v)
	return err == nil && got == c.fact.Value
}

func (c Condition) String() string { return c.fact.String() }

// Effect sets a fact.
type Effect struct{ fact worldstate.Fact }

var _ pabtpkg.Effect = Effect{}

// NewEffect returns an Effect setting name=value.
func NewEffect(name string, value worldstate.Value) Effect {
	return Effect{fact: worldstate.Fact{Name: name, Value: value}}
}

// Fact returns the fact the effect sets.
func (e Effect) Fact() worldstate.Fact { return e.fact }

// Key implements pabt.Effect.
func (e Effect) Key() any { return e.fact.Name }

// Value implements pabt.Effect. It returns the Go value of the fact.
func (e Effect) Value() any { return e.fact.Value.Interface() }
