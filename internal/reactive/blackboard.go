package reactive

import (
	"slices"
	"sync"

	"github.com/joeycumines/goap/internal/worldstate"
)

// Blackboard is a thread-safe fact store shared between the behaviour tree
// and the application. The zero value is ready to use.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]worldstate.Value
}

// NewBlackboard returns a Blackboard holding the facts of initial.
func NewBlackboard(initial worldstate.State) *Blackboard {
	b := new(Blackboard)
	b.Load(initial)
	return b
}

func (b *Blackboard) init() {
	if b.data == nil {
		b.data = make(map[string]worldstate.Value)
	}
}

// Get returns the value of the fact called name.
func (b *Blackboard) Get(name string) (worldstate.Value, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[name]
	return v, ok
}

// Set stores a fact.
func (b *Blackboard) Set(name string, value worldstate.Value) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.data[name] = value
}

// Has reports whether a fact called name exists.
func (b *Blackboard) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[name]
	return ok
}

// Delete removes the fact called name.
func (b *Blackboard) Delete(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, name)
}

// Len returns the number of facts.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Names returns the fact names, sorted.
func (b *Blackboard) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.data))
	for name := range b.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load stores every fact of s, leaving other facts untouched.
func (b *Blackboard) Load(s worldstate.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	for name, v := range s.All() {
		b.data[name] = v
	}
}

// Clear removes every fact.
func (b *Blackboard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]worldstate.Value)
}

// Snapshot returns the facts as a State with names in sorted order.
func (b *Blackboard) Snapshot() worldstate.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.data))
	for name := range b.data {
		names = append(names, name)
	}
	slices.Sort(names)
	facts := make([]worldstate.Fact, len(names))
	for i, name := range names {
		facts[i] = worldstate.Fact{Name: name, Value: b.data[name]}
	}
	return worldstate.New(facts...)
}
