// Package worldstate models the symbolic world an agent plans over.
//
// A State is a name-unique, insertion-ordered set of Facts. States are values
// with copy-on-write semantics: every operation that changes a State returns a
// new one, and the receiver is never mutated. Iteration order is the order in
// which names were first inserted, which keeps planning deterministic.
package worldstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Fact is a single named condition.
type Fact struct {
	Name  string
	Value Value
}

// F is shorthand for building a Fact from a Go scalar. It panics on
// unsupported types, like MustOf.
func F(name string, v any) Fact {
	return Fact{Name: name, Value: MustOf(v)}
}

// String formats the fact as name=value.
func (f Fact) String() string {
	return f.Name + "=" + f.Value.String()
}

// State is an immutable snapshot of facts. The zero State is empty and ready
// to use.
type State struct {
	m *linkedhashmap.Map
}

// New returns a State holding facts. A later fact replaces the value of an
// earlier fact with the same name, keeping the earlier position.
func New(facts ...Fact) State {
	if len(facts) == 0 {
		return State{}
	}
	m := linkedhashmap.New()
	for _, f := range facts {
		m.Put(f.Name, f.Value)
	}
	return State{m: m}
}

// FromMap builds a State from plain Go values. Map iteration order is
// random, so names are inserted in sorted order.
func FromMap(values map[string]any) (State, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	facts := make([]Fact, 0, len(names))
	for _, name := range names {
		v, err := Of(values[name])
		if err != nil {
			return State{}, fmt.Errorf("fact %q: %w", name, err)
		}
		facts = append(facts, Fact{Name: name, Value: v})
	}
	return New(facts...), nil
}

// Len returns the number of facts.
func (s State) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Size()
}

// IsEmpty reports whether the state holds no facts.
func (s State) IsEmpty() bool { return s.Len() == 0 }

// Get returns the value for name.
func (s State) Get(name string) (Value, bool) {
	if s.m == nil {
		return Value{}, false
	}
	v, ok := s.m.Get(name)
	if !ok {
		return Value{}, false
	}
	return v.(Value), true
}

// Has reports whether a fact named name exists, regardless of value.
func (s State) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// All iterates facts in insertion order.
func (s State) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if s.m == nil {
			return
		}
		it := s.m.Iterator()
		for it.Next() {
			if !yield(it.Key().(string), it.Value().(Value)) {
				return
			}
		}
	}
}

// Names returns fact names in insertion order.
func (s State) Names() []string {
	names := make([]string, 0, s.Len())
	for name := range s.All() {
		names = append(names, name)
	}
	return names
}

// Facts returns the facts in insertion order.
func (s State) Facts() []Fact {
	facts := make([]Fact, 0, s.Len())
	for name, v := range s.All() {
		facts = append(facts, Fact{Name: name, Value: v})
	}
	return facts
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	if s.Len() == 0 {
		return State{}
	}
	m := linkedhashmap.New()
	for name, v := range s.All() {
		m.Put(name, v)
	}
	return State{m: m}
}

// With returns a copy of s with name set to v.
func (s State) With(name string, v Value) State {
	c := s.Clone()
	if c.m == nil {
		c.m = linkedhashmap.New()
	}
	c.m.Put(name, v)
	return c
}

// Without returns a copy of s with name removed.
func (s State) Without(name string) State {
	if !s.Has(name) {
		return s
	}
	c := s.Clone()
	c.m.Remove(name)
	return c
}

// Equal reports whether s and o hold the same facts. Order is ignored.
func (s State) Equal(o State) bool {
	if s.Len() != o.Len() {
		return false
	}
	for name, v := range s.All() {
		ov, ok := o.Get(name)
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Map returns the facts as plain Go values, e.g. for expression
// environments.
func (s State) Map() map[string]any {
	out := make(map[string]any, s.Len())
	for name, v := range s.All() {
		out[name] = v.Interface()
	}
	return out
}

// String formats the state as {a=true, b=3} in insertion order.
func (s State) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for name, v := range s.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(v.String())
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the state as a JSON object, preserving order.
func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for name, v := range s.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("fact %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Satisfies reports whether every fact in required appears in state with an
// identical value. A name that is present with a different value does not
// satisfy the requirement. An empty required set is always satisfied.
func Satisfies(required, state State) bool {
	for name, want := range required.All() {
		got, ok := state.Get(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Apply returns a new State equal to state with every fact in effects
// applied: existing names are overwritten in place, new names are appended.
// Neither input is modified.
func Apply(state, effects State) State {
	if effects.Len() == 0 {
		return state
	}
	out := state.Clone()
	if out.m == nil {
		out.m = linkedhashmap.New()
	}
	for name, v := range effects.All() {
		out.m.Put(name, v)
	}
	return out
}

// Unsatisfied returns the facts of required that state does not satisfy, in
// required's order.
func Unsatisfied(required, state State) []Fact {
	var missing []Fact
	for name, want := range required.All() {
		got, ok := state.Get(name)
		if !ok || got != want {
			missing = append(missing, Fact{Name: name, Value: want})
		}
	}
	return missing
}
