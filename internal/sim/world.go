// Package sim is a small grazing world used to exercise planning agents end
// to end: rabbits get hungry, walk to the nearest plant and eat it, forage
// when there is nothing to eat, and rest otherwise.
package sim

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/joeycumines/goap/internal/planner"
)

// Vec is a point on the plane.
type Vec struct {
	X, Y float64
}

// Dist returns the Euclidean distance between v and o.
func (v Vec) Dist(o Vec) float64 { return math.Hypot(o.X-v.X, o.Y-v.Y) }

// MoveTowards returns v moved at most step units toward target, landing
// exactly on target when it is within reach.
func (v Vec) MoveTowards(target Vec, step float64) Vec {
	d := v.Dist(target)
	if d <= step || d == 0 {
		return target
	}
	return Vec{
		X: v.X + (target.X-v.X)/d*step,
		Y: v.Y + (target.Y-v.Y)/d*step,
	}
}

func (v Vec) String() string { return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y) }

// Kind classifies entities.
type Kind uint8

const (
	KindRabbit Kind = iota + 1
	KindPlant
)

func (k Kind) String() string {
	switch k {
	case KindRabbit:
		return "rabbit"
	case KindPlant:
		return "plant"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Entity is a snapshot of one registered entity.
type Entity struct {
	Handle planner.Handle
	Kind   Kind
	Pos    Vec
}

// World is a thread-safe registry of entities keyed by handle. Positions
// live here rather than on the entities so that actions and providers only
// ever hold handles.
type World struct {
	mu       sync.Mutex
	size     float64
	rng      *rand.Rand
	entities map[planner.Handle]*Entity
	seq      map[Kind]int
}

// NewWorld creates an empty size×size world. The seed drives every random
// placement, so a given seed always yields the same world.
func NewWorld(size float64, seed uint64) *World {
	if size <= 0 {
		panic("sim.NewWorld: size must be positive")
	}
	return &World{
		size:     size,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		entities: make(map[planner.Handle]*Entity),
		seq:      make(map[Kind]int),
	}
}

// Size returns the side length of the world.
func (w *World) Size() float64 { return w.size }

// Spawn adds an entity of kind at pos and returns its handle, "<kind>-<n>".
func (w *World) Spawn(kind Kind, pos Vec) planner.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnLocked(kind, w.clamp(pos))
}

// SpawnRandom adds an entity of kind at a random position.
func (w *World) SpawnRandom(kind Kind) planner.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	pos := Vec{X: w.rng.Float64() * w.size, Y: w.rng.Float64() * w.size}
	return w.spawnLocked(kind, pos)
}

// SpawnNear adds an entity of kind within radius of center.
func (w *World) SpawnNear(kind Kind, center Vec, radius float64) planner.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	angle := w.rng.Float64() * 2 * math.Pi
	r := w.rng.Float64() * radius
	pos := Vec{X: center.X + r*math.Cos(angle), Y: center.Y + r*math.Sin(angle)}
	return w.spawnLocked(kind, w.clamp(pos))
}

func (w *World) spawnLocked(kind Kind, pos Vec) planner.Handle {
	for {
		w.seq[kind]++
		h := planner.Handle(fmt.Sprintf("%s-%d", kind, w.seq[kind]))
		if _, ok := w.entities[h]; !ok {
			w.entities[h] = &Entity{Handle: h, Kind: kind, Pos: pos}
			return h
		}
	}
}

// Place registers h at pos, replacing any existing entity with that handle.
func (w *World) Place(h planner.Handle, kind Kind, pos Vec) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[h] = &Entity{Handle: h, Kind: kind, Pos: w.clamp(pos)}
}

func (w *World) clamp(p Vec) Vec {
	return Vec{X: min(max(p.X, 0), w.size), Y: min(max(p.Y, 0), w.size)}
}

// Remove deletes h, reporting whether it existed.
func (w *World) Remove(h planner.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.entities[h]
	delete(w.entities, h)
	return ok
}

// Has reports whether h is registered.
func (w *World) Has(h planner.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.entities[h]
	return ok
}

// Position returns the position of h.
func (w *World) Position(h planner.Handle) (Vec, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[h]
	if !ok {
		return Vec{}, false
	}
	return e.Pos, true
}

// MoveTowards moves h at most step units toward target and returns the new
// position. It reports false if either handle is unknown.
func (w *World) MoveTowards(h, target planner.Handle, step float64) (Vec, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[h]
	if !ok {
		return Vec{}, false
	}
	t, ok := w.entities[target]
	if !ok {
		return e.Pos, false
	}
	e.Pos = e.Pos.MoveTowards(t.Pos, step)
	return e.Pos, true
}

// Nearest returns the entity of kind closest to from. Ties go to the lower
// handle.
func (w *World) Nearest(kind Kind, from Vec) (planner.Handle, float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var (
		best     planner.Handle
		bestDist = math.Inf(1)
	)
	for h, e := range w.entities {
		if e.Kind != kind {
			continue
		}
		d := from.Dist(e.Pos)
		if d < bestDist || (d == bestDist && h < best) {
			best, bestDist = h, d
		}
	}
	return best, bestDist, !best.IsZero()
}

// Count returns the number of entities of kind.
func (w *World) Count(kind Kind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, e := range w.entities {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Entities returns a snapshot of every entity, sorted by handle.
func (w *World) Entities() []Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entity) int { return cmp.Compare(a.Handle, b.Handle) })
	return out
}
