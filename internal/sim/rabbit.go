package sim

import (
	"log/slog"
	"sync"

	"github.com/joeycumines/goap/internal/agent"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Fact names used by rabbits.
const (
	FactIsHungry = "isHungry"
	FactEatFood  = "eatFood"
	FactRested   = "rested"
)

const (
	// DefaultHungerThreshold is the hunger at which a rabbit starts looking
	// for food.
	DefaultHungerThreshold = 10
	// DefaultSpeed is how far a rabbit moves per tick.
	DefaultSpeed = 1.0
)

// RabbitStats counts what a rabbit has done.
type RabbitStats struct {
	Meals      int
	Forages    int
	Rests      int
	Steps      int
	PlansFound int
	PlanFailed int
	Aborted    int
	Completed  int
}

// Rabbit is an agent.DataProvider. Hunger grows by one per Tick; at the
// threshold the rabbit wants to eat, otherwise it wants to rest.
type Rabbit struct {
	id        planner.Handle
	world     *World
	threshold int
	speed     float64
	logger    *slog.Logger

	mu     sync.Mutex
	hunger int
	stats  RabbitStats
}

var _ agent.DataProvider = (*Rabbit)(nil)

// NewRabbit registers a rabbit at pos in world. Non-positive threshold and
// speed select the defaults.
func NewRabbit(world *World, id planner.Handle, pos Vec, threshold int, speed float64, logger *slog.Logger) *Rabbit {
	if world == nil {
		panic("sim.NewRabbit: nil world")
	}
	if threshold <= 0 {
		threshold = DefaultHungerThreshold
	}
	if speed <= 0 {
		speed = DefaultSpeed
	}
	if logger == nil {
		logger = slog.Default()
	}
	world.Place(id, KindRabbit, pos)
	return &Rabbit{
		id:        id,
		world:     world,
		threshold: threshold,
		speed:     speed,
		logger:    logger,
	}
}

// ID returns the rabbit's handle.
func (r *Rabbit) ID() planner.Handle { return r.id }

// Tick advances hunger by one.
func (r *Rabbit) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hunger++
}

// Hunger returns the current hunger.
func (r *Rabbit) Hunger() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hunger
}

// SetHunger overrides the current hunger.
func (r *Rabbit) SetHunger(h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hunger = max(h, 0)
}

// Hungry reports whether hunger has reached the threshold.
func (r *Rabbit) Hungry() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hunger >= r.threshold
}

// Stats returns a copy of the counters.
func (r *Rabbit) Stats() RabbitStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Rabbit) update(fn func(*RabbitStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.stats)
}

// feed lowers hunger by amount, or clears it when amount is negative.
func (r *Rabbit) feed(amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if amount < 0 {
		r.hunger = 0
	} else {
		r.hunger = max(r.hunger-amount, 0)
	}
}

// WorldState implements agent.DataProvider.
func (r *Rabbit) WorldState() worldstate.State {
	return worldstate.New(worldstate.F(FactIsHungry, r.Hungry()))
}

// GoalState implements agent.DataProvider.
func (r *Rabbit) GoalState() worldstate.State {
	if r.Hungry() {
		return worldstate.New(worldstate.F(FactEatFood, true))
	}
	return worldstate.New(worldstate.F(FactRested, true))
}

// MoveAgent implements agent.DataProvider. Actions without a target, or
// whose target has left the world, count as arrived so that Perform gets to
// decide what happens next.
func (r *Rabbit) MoveAgent(action planner.Action) bool {
	target := action.Target()
	to, ok := r.world.Position(target)
	if target.IsZero() || !ok {
		action.SetInRange(true)
		return true
	}
	from, _ := r.world.Position(r.id)
	if from == to {
		action.SetInRange(true)
		return true
	}

	pos, ok := r.world.MoveTowards(r.id, target, r.speed)
	r.update(func(s *RabbitStats) { s.Steps++ })
	r.logger.Debug("[Sim] rabbit moved",
		"rabbit", string(r.id),
		"target", string(target),
		"pos", pos.String())
	if ok && pos == to {
		action.SetInRange(true)
		return true
	}
	return false
}

func (r *Rabbit) OnPlanFound(worldstate.State, *planner.Plan) {
	r.update(func(s *RabbitStats) { s.PlansFound++ })
}

func (r *Rabbit) OnPlanFailed(worldstate.State) {
	r.update(func(s *RabbitStats) { s.PlanFailed++ })
}

func (r *Rabbit) OnPlanAborted(planner.Action) {
	r.update(func(s *RabbitStats) { s.Aborted++ })
}

func (r *Rabbit) OnActionsCompleted() {
	r.update(func(s *RabbitStats) { s.Completed++ })
}
