package sim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joeycumines/goap/internal/agent"
	"github.com/joeycumines/goap/internal/planner"
)

// Config describes a world to simulate.
type Config struct {
	// Size is the side length of the square world.
	Size float64
	// Plants is the number of plants placed at random before the first tick.
	Plants int
	// Rabbits is the number of rabbits, all starting at the centre.
	Rabbits int
	// Seed drives random placement.
	Seed uint64
	// HungerThreshold is the hunger at which rabbits start to eat.
	HungerThreshold int
	// Speed is how far a rabbit moves per tick.
	Speed float64
	// RegrowEvery spawns a random plant every N ticks. Zero disables
	// regrowth.
	RegrowEvery int
}

// DefaultConfig returns a single rabbit in a 20×20 world with five plants.
func DefaultConfig() Config {
	return Config{
		Size:            20,
		Plants:          5,
		Rabbits:         1,
		Seed:            1,
		HungerThreshold: DefaultHungerThreshold,
		Speed:           DefaultSpeed,
	}
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithObserver subscribes fn to the events of every agent.
func WithObserver(fn agent.Observer) Option {
	return func(s *Simulation) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// WithLogger sets the logger shared by the world, rabbits and agents.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulation) { s.logger = logger }
}

// WithPlanner sets the planner shared by every agent.
func WithPlanner(p *planner.Planner) Option {
	return func(s *Simulation) { s.planner = p }
}

// WithPlanTimeout bounds each agent's planning pass.
func WithPlanTimeout(d time.Duration) Option {
	return func(s *Simulation) { s.planTimeout = d }
}

// Simulation ticks a world and its rabbits in lock step.
type Simulation struct {
	cfg       Config
	world     *World
	rabbits   []*Rabbit
	agents    []*agent.Agent
	observers []agent.Observer
	logger    *slog.Logger
	planner   *planner.Planner

	planTimeout time.Duration

	mu   sync.Mutex
	tick int
}

// New builds a simulation. Zero fields of cfg take DefaultConfig values.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	def := DefaultConfig()
	if cfg.Size <= 0 {
		cfg.Size = def.Size
	}
	if cfg.Rabbits <= 0 {
		cfg.Rabbits = def.Rabbits
	}
	if cfg.Plants < 0 {
		return nil, fmt.Errorf("sim: negative plant count %d", cfg.Plants)
	}
	if cfg.RegrowEvery < 0 {
		return nil, fmt.Errorf("sim: negative regrow interval %d", cfg.RegrowEvery)
	}

	s := &Simulation{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.planner == nil {
		s.planner = planner.New(planner.WithLogger(s.logger))
	}

	s.world = NewWorld(cfg.Size, cfg.Seed)
	for range cfg.Plants {
		s.world.SpawnRandom(KindPlant)
	}

	centre := Vec{X: cfg.Size / 2, Y: cfg.Size / 2}
	for i := range cfg.Rabbits {
		id := planner.Handle(fmt.Sprintf("rabbit-%d", i+1))
		r := NewRabbit(s.world, id, centre, cfg.HungerThreshold, cfg.Speed, s.logger)
		agentOpts := []agent.Option{
			agent.WithPlanner(s.planner),
			agent.WithLogger(s.logger),
			agent.WithActions(RabbitActions(r)...),
			agent.WithPlanTimeout(s.planTimeout),
		}
		for _, fn := range s.observers {
			agentOpts = append(agentOpts, agent.WithObserver(fn))
		}
		a, err := agent.New(id, r, agentOpts...)
		if err != nil {
			return nil, fmt.Errorf("sim: %s: %w", id, err)
		}
		s.rabbits = append(s.rabbits, r)
		s.agents = append(s.agents, a)
	}
	return s, nil
}

// World returns the simulated world.
func (s *Simulation) World() *World { return s.world }

// Rabbits returns the rabbits in creation order.
func (s *Simulation) Rabbits() []*Rabbit { return s.rabbits }

// Agents returns the agents in creation order, parallel to Rabbits.
func (s *Simulation) Agents() []*agent.Agent { return s.agents }

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Step runs one tick: regrowth, then for each rabbit its hunger and one
// agent update.
func (s *Simulation) Step(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	if s.cfg.RegrowEvery > 0 && s.tick%s.cfg.RegrowEvery == 0 {
		h := s.world.SpawnRandom(KindPlant)
		s.logger.Debug("[Sim] plant grew", "tick", s.tick, "plant", string(h))
	}
	for i, r := range s.rabbits {
		r.Tick()
		if err := s.agents[i].Update(ctx); err != nil {
			return fmt.Errorf("sim: tick %d: %s: %w", s.tick, r.ID(), err)
		}
	}
	return nil
}

// Run steps the simulation ticks times, stopping early if ctx is done.
func (s *Simulation) Run(ctx context.Context, ticks int) error {
	s.logger.Info("[Sim] starting",
		"ticks", ticks,
		"rabbits", len(s.rabbits),
		"plants", s.world.Count(KindPlant),
		"seed", s.cfg.Seed)
	for range ticks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	s.logger.Info("[Sim] finished", "ticks", s.Ticks(), "plants", s.world.Count(KindPlant))
	return nil
}

// Summary describes each rabbit's counters, one per line.
func (s *Simulation) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticks=%d plants=%d\n", s.Ticks(), s.world.Count(KindPlant))
	for _, r := range s.rabbits {
		st := r.Stats()
		pos, _ := s.world.Position(r.ID())
		fmt.Fprintf(&b, "%s hunger=%d pos=%s meals=%d forages=%d rests=%d steps=%d plans=%d failed=%d aborted=%d completed=%d\n",
			r.ID(), r.Hunger(), pos, st.Meals, st.Forages, st.Rests, st.Steps,
			st.PlansFound, st.PlanFailed, st.Aborted, st.Completed)
	}
	return b.String()
}
