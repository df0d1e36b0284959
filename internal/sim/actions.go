package sim

import (
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Default action tuning.
const (
	EatDuration    = 3
	ForageDuration = 4
	RestDuration   = 2
	// ForageRadius bounds where foraging drops seeds.
	ForageRadius = 5.0
)

// EatPlant walks to the nearest plant and eats it over EatDuration performs.
// Eating clears the rabbit's hunger and removes the plant.
type EatPlant struct {
	*planner.Base
	rabbit   *Rabbit
	progress int
	eaten    bool
}

// NewEatPlant creates the action for rabbit.
func NewEatPlant(rabbit *Rabbit) *EatPlant {
	a := &EatPlant{
		Base:   planner.NewBase("EatPlant", 1, true),
		rabbit: rabbit,
	}
	a.AddPrecondition(FactIsHungry, worldstate.Bool(true))
	a.AddEffect(FactEatFood, worldstate.Bool(true))
	return a
}

func (a *EatPlant) Reset() {
	a.Base.Reset()
	a.progress = 0
	a.eaten = false
}

// CheckProceduralPrecondition binds the nearest plant, failing when there
// is none.
func (a *EatPlant) CheckProceduralPrecondition(agent planner.Handle) bool {
	w := a.rabbit.world
	from, ok := w.Position(agent)
	if !ok {
		return false
	}
	plant, _, ok := w.Nearest(KindPlant, from)
	if !ok {
		return false
	}
	a.SetTarget(plant)
	return true
}

func (a *EatPlant) IsDone() bool { return a.eaten }

// Perform fails if the plant has gone, which happens when another rabbit
// got there first.
func (a *EatPlant) Perform(planner.Handle) bool {
	w := a.rabbit.world
	if !w.Has(a.Target()) {
		a.rabbit.logger.Info("[Sim] plant gone",
			"rabbit", string(a.rabbit.id),
			"plant", string(a.Target()))
		return false
	}
	a.progress++
	if a.progress >= EatDuration {
		w.Remove(a.Target())
		a.rabbit.feed(-1)
		a.rabbit.update(func(s *RabbitStats) { s.Meals++ })
		a.eaten = true
		a.rabbit.logger.Info("[Sim] plant eaten",
			"rabbit", string(a.rabbit.id),
			"plant", string(a.Target()))
	}
	return true
}

// Forage roots around for scraps when there is no plant to eat. It halves
// hunger and drops a seed nearby that grows into a plant.
type Forage struct {
	*planner.Base
	rabbit   *Rabbit
	progress int
}

// NewForage creates the action for rabbit.
func NewForage(rabbit *Rabbit) *Forage {
	a := &Forage{
		Base:   planner.NewBase("Forage", 5, false),
		rabbit: rabbit,
	}
	a.AddPrecondition(FactIsHungry, worldstate.Bool(true))
	a.AddEffect(FactEatFood, worldstate.Bool(true))
	return a
}

func (a *Forage) Reset() {
	a.Base.Reset()
	a.progress = 0
}

func (a *Forage) CheckProceduralPrecondition(planner.Handle) bool { return true }

func (a *Forage) IsDone() bool { return a.progress >= ForageDuration }

func (a *Forage) Perform(agent planner.Handle) bool {
	a.progress++
	if a.progress == ForageDuration {
		a.rabbit.feed(a.rabbit.Hunger() / 2)
		a.rabbit.update(func(s *RabbitStats) { s.Forages++ })
		if pos, ok := a.rabbit.world.Position(agent); ok {
			seed := a.rabbit.world.SpawnNear(KindPlant, pos, ForageRadius)
			a.rabbit.logger.Info("[Sim] seed dropped",
				"rabbit", string(agent),
				"plant", string(seed))
		}
	}
	return true
}

// Rest idles for RestDuration performs.
type Rest struct {
	*planner.Base
	rabbit   *Rabbit
	progress int
}

// NewRest creates the action for rabbit.
func NewRest(rabbit *Rabbit) *Rest {
	a := &Rest{
		Base:   planner.NewBase("Rest", 1, false),
		rabbit: rabbit,
	}
	a.AddPrecondition(FactIsHungry, worldstate.Bool(false))
	a.AddEffect(FactRested, worldstate.Bool(true))
	return a
}

func (a *Rest) Reset() {
	a.Base.Reset()
	a.progress = 0
}

func (a *Rest) CheckProceduralPrecondition(planner.Handle) bool { return true }

func (a *Rest) IsDone() bool { return a.progress >= RestDuration }

func (a *Rest) Perform(planner.Handle) bool {
	a.progress++
	if a.progress == RestDuration {
		a.rabbit.update(func(s *RabbitStats) { s.Rests++ })
	}
	return true
}

// RabbitActions returns a fresh action set for rabbit.
func RabbitActions(rabbit *Rabbit) []planner.Action {
	return []planner.Action{NewEatPlant(rabbit), NewForage(rabbit), NewRest(rabbit)}
}
