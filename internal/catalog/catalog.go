// Package catalog loads planning scenarios from YAML.
//
// A scenario names an initial state, a goal and a set of actions. Actions may
// carry expr-lang expressions: check is the procedural precondition (a
// boolean), target selects the handle the action binds when check passes.
// Both are evaluated against an Env.
//
//	name: shelter
//	state: {}
//	goal:
//	  hasShelter: true
//	targets: [tree-1, tree-2]
//	actions:
//	  - name: Gather
//	    cost: 1
//	    effects: {hasWood: true}
//	    requiresInRange: true
//	    check: len(targets) > 0
//	    target: targets[0]
//	  - name: Build
//	    cost: 2
//	    preconditions: {hasWood: true}
//	    effects: {hasShelter: true}
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Scenario is a decoded scenario file.
type Scenario struct {
	Name    string         `yaml:"name"`
	Agent   string         `yaml:"agent,omitempty"`
	State   Facts          `yaml:"state"`
	Goal    Facts          `yaml:"goal"`
	Targets []string       `yaml:"targets,omitempty"`
	Vars    map[string]any `yaml:"vars,omitempty"`
	Actions []ActionSpec   `yaml:"actions"`
}

// ActionSpec declares one action.
type ActionSpec struct {
	Name string `yaml:"name"`
	// Cost defaults to 1 when omitted.
	Cost            *float64 `yaml:"cost,omitempty"`
	Preconditions   Facts    `yaml:"preconditions,omitempty"`
	Effects         Facts    `yaml:"effects,omitempty"`
	RequiresInRange bool     `yaml:"requiresInRange,omitempty"`
	Check           string   `yaml:"check,omitempty"`
	Target          string   `yaml:"target,omitempty"`
	// Duration is the number of successful performs before the action is
	// done. Zero means one.
	Duration int `yaml:"duration,omitempty"`
}

// EffectiveCost returns the declared cost, or 1.
func (a ActionSpec) EffectiveCost() float64 {
	if a.Cost == nil {
		return 1
	}
	return *a.Cost
}

// Problem is one validation failure.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string { return p.Path + ": " + p.Message }

// ValidationError lists every problem found in a scenario.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	noun := "problems"
	if len(parts) == 1 {
		noun = "problem"
	}
	return fmt.Sprintf("catalog: %d %s: %s", len(parts), noun, strings.Join(parts, "; "))
}

// Load decodes and validates a scenario. Unknown fields are rejected.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog: empty document")
		}
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile loads the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks names, costs, durations and expressions, returning a
// *ValidationError listing every problem.
func (s *Scenario) Validate() error {
	var problems []Problem
	add := func(path, format string, args ...any) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if s.Goal.IsEmpty() {
		add("goal", "must declare at least one fact")
	}
	if len(s.Actions) == 0 {
		add("actions", "must declare at least one action")
	}

	seen := make(map[string]int, len(s.Actions))
	for i, a := range s.Actions {
		path := fmt.Sprintf("actions[%d]", i)
		if a.Name == "" {
			add(path+".name", "is required")
		} else if j, ok := seen[a.Name]; ok {
			add(path+".name", "duplicates actions[%d] (%q)", j, a.Name)
		} else {
			seen[a.Name] = i
		}
		if c := a.EffectiveCost(); c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			add(path+".cost", "must be a finite non-negative number, got %v", c)
		}
		if a.Duration < 0 {
			add(path+".duration", "must be non-negative, got %d", a.Duration)
		}
		if a.Effects.IsEmpty() {
			add(path+".effects", "must declare at least one fact")
		}
		if a.Check != "" {
			if _, err := compileCheck(a.Check); err != nil {
				add(path+".check", "%v", err)
			}
		}
		if a.Target != "" {
			if _, err := compileTarget(a.Target); err != nil {
				add(path+".target", "%v", err)
			}
		}
	}

	if len(problems) != 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Env is what check and target expressions see.
type Env struct {
	Agent   string         `expr:"agent"`
	State   map[string]any `expr:"state"`
	Targets []string       `expr:"targets"`
	Vars    map[string]any `expr:"vars"`
}

// EnvFunc supplies the expression environment for an agent at the time of
// a procedural check.
type EnvFunc func(agent planner.Handle) Env

// StaticEnv returns an EnvFunc exposing the scenario's own state, targets
// and vars.
func (s *Scenario) StaticEnv() EnvFunc {
	state := s.State.Map()
	return func(agent planner.Handle) Env {
		return Env{
			Agent:   string(agent),
			State:   state,
			Targets: s.Targets,
			Vars:    s.Vars,
		}
	}
}

// Options configure Instantiate.
type Options struct {
	// Env defaults to the scenario's StaticEnv.
	Env EnvFunc
	// Cache defaults to a package-level cache.
	Cache *ProgramCache
}

var defaultCache = NewProgramCache(DefaultCacheSize)

// Instantiate creates fresh actions for one agent, in declaration order.
func (s *Scenario) Instantiate(opts Options) ([]planner.Action, error) {
	if opts.Env == nil {
		opts.Env = s.StaticEnv()
	}
	if opts.Cache == nil {
		opts.Cache = defaultCache
	}
	actions := make([]planner.Action, 0, len(s.Actions))
	for i, spec := range s.Actions {
		a, err := newScriptedAction(spec, opts.Env, opts.Cache)
		if err != nil {
			return nil, fmt.Errorf("catalog: actions[%d] (%s): %w", i, spec.Name, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// AgentID returns the declared agent handle, or the scenario name.
func (s *Scenario) AgentID() planner.Handle {
	if s.Agent != "" {
		return planner.Handle(s.Agent)
	}
	return planner.Handle(s.Name)
}

// InitialState returns the declared initial state.
func (s *Scenario) InitialState() worldstate.State { return s.State.State }

// GoalState returns the declared goal.
func (s *Scenario) GoalState() worldstate.State { return s.Goal.State }

func compileCheck(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(Env{}), expr.AsBool(), expr.AllowUndefinedVariables())
}

func compileTarget(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(Env{}), expr.AsKind(reflect.String), expr.AllowUndefinedVariables())
}

func cachedProgram(cache *ProgramCache, kind, src string, compile func(string) (*vm.Program, error)) (*vm.Program, error) {
	key := kind + "\x00" + src
	if p, ok := cache.Get(key); ok {
		return p, nil
	}
	p, err := compile(src)
	if err != nil {
		return nil, err
	}
	cache.Put(key, p)
	return p, nil
}
