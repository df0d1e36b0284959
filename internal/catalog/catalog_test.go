package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

func TestLoadFile_Shelter(t *testing.T) {
	t.Parallel()

	s, err := LoadFile(filepath.Join("testdata", "shelter.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "shelter", s.Name)
	assert.Equal(t, planner.Handle("builder"), s.AgentID())
	assert.Equal(t, "{hasAxe=true}", s.InitialState().String())
	assert.Equal(t, "{hasShelter=true}", s.GoalState().String())
	require.Len(t, s.Actions, 2)
	assert.Equal(t, "Build", s.Actions[0].Name)
	assert.Equal(t, 2.0, s.Actions[0].EffectiveCost())
	assert.True(t, s.Actions[1].RequiresInRange)
	assert.Equal(t, 3, s.Actions[1].Duration)
}

func TestLoad_PreservesFactOrder(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader(`
name: order
state:
  zeta: 1
  alpha: "a"
  mid: 2.5
goal: {done: true}
actions:
  - name: Finish
    effects: {done: true}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, s.InitialState().Names())

	v, ok := s.InitialState().Get("mid")
	require.True(t, ok)
	assert.Equal(t, worldstate.Float(2.5), v)

	out, err := yaml.Marshal(s.State)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha: a\nmid: 2.5\n", string(out))
}

func TestLoad_DefaultsAgentToName(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader("name: solo\ngoal: {x: true}\nactions: [{name: X, effects: {x: true}}]\n"))
	require.NoError(t, err)
	assert.Equal(t, planner.Handle("solo"), s.AgentID())
	assert.Equal(t, 1.0, s.Actions[0].EffectiveCost())
	assert.True(t, s.InitialState().IsEmpty())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty document"},
		{"unknown field", "name: x\nbogus: 1\n", "bogus"},
		{"facts not mapping", "goal: [a]\n", "facts must be a mapping"},
		{"duplicate fact", "goal:\n  a: true\n  a: false\n", "duplicate fact \"a\""},
		{"nested value", "goal:\n  a: {b: 1}\n", "must be a scalar"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFile_ValidationReportsEveryProblem(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	paths := make([]string, len(verr.Problems))
	for i, p := range verr.Problems {
		paths[i] = p.Path
	}
	assert.Equal(t, []string{
		"goal",
		"actions[0].cost",
		"actions[1].name",
		"actions[1].effects",
		"actions[1].check",
		"actions[2].name",
		"actions[2].duration",
	}, paths)
	assert.Contains(t, err.Error(), "catalog: 7 problems:")
	assert.Contains(t, err.Error(), "invalid.yaml")
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestInstantiate_PlansShelter(t *testing.T) {
	t.Parallel()

	s, err := LoadFile(filepath.Join("testdata", "shelter.yaml"))
	require.NoError(t, err)
	actions, err := s.Instantiate(Options{Cache: NewProgramCache(8)})
	require.NoError(t, err)

	plan, err := planner.New().Plan(context.Background(), s.AgentID(), actions, s.InitialState(), s.GoalState())
	require.NoError(t, err)
	assert.Equal(t, []string{"Gather", "Build"}, plan.Names())
	assert.Equal(t, 3.0, plan.Cost)
	assert.Equal(t, planner.Handle("tree-1"), plan.Actions[0].Target())
}

func TestScriptedAction_CheckAndTarget(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader(`
name: eat
goal: {fed: true}
vars: {hungerLimit: 10}
actions:
  - name: Eat
    effects: {fed: true}
    requiresInRange: true
    check: state.hunger < vars.hungerLimit
    target: 'len(targets) > 0 ? targets[0] : ""'
`))
	require.NoError(t, err)

	var (
		hunger  int64
		targets []string
	)
	env := func(agent planner.Handle) Env {
		return Env{
			Agent:   string(agent),
			State:   map[string]any{"hunger": hunger},
			Targets: targets,
			Vars:    s.Vars,
		}
	}
	actions, err := s.Instantiate(Options{Env: env, Cache: NewProgramCache(8)})
	require.NoError(t, err)
	eat := actions[0]

	hunger = 20
	targets = []string{"plant-1"}
	assert.False(t, eat.CheckProceduralPrecondition("rabbit"), "not hungry")

	hunger = 5
	targets = nil
	assert.False(t, eat.CheckProceduralPrecondition("rabbit"), "no target for an in-range action")

	targets = []string{"plant-2", "plant-1"}
	require.True(t, eat.CheckProceduralPrecondition("rabbit"))
	assert.Equal(t, planner.Handle("plant-2"), eat.Target())

	eat.Reset()
	assert.True(t, eat.Target().IsZero())
}

func TestScriptedAction_RuntimeErrorMakesUnusable(t *testing.T) {
	t.Parallel()

	s, err := Load(strings.NewReader(`
name: idx
goal: {x: true}
actions:
  - name: X
    effects: {x: true}
    target: targets[3]
`))
	require.NoError(t, err)
	actions, err := s.Instantiate(Options{Cache: NewProgramCache(8)})
	require.NoError(t, err)
	assert.False(t, actions[0].CheckProceduralPrecondition("a"))
}

func TestScriptedAction_Duration(t *testing.T) {
	t.Parallel()

	s, err := LoadFile(filepath.Join("testdata", "shelter.yaml"))
	require.NoError(t, err)
	actions, err := s.Instantiate(Options{})
	require.NoError(t, err)

	gather := actions[1].(*ScriptedAction)
	assert.Equal(t, 3, gather.Duration())
	for i := range 3 {
		assert.False(t, gather.IsDone(), "step %d", i)
		assert.True(t, gather.Perform("builder"))
	}
	assert.True(t, gather.IsDone())
	assert.Equal(t, 3, gather.Progress())

	gather.Reset()
	assert.Zero(t, gather.Progress())

	build := actions[0].(*ScriptedAction)
	assert.Equal(t, 1, build.Duration())
	assert.True(t, build.CheckProceduralPrecondition("builder"), "no expressions")
}

func TestInstantiate_SharesCompiledPrograms(t *testing.T) {
	t.Parallel()

	s, err := LoadFile(filepath.Join("testdata", "shelter.yaml"))
	require.NoError(t, err)

	cache := NewProgramCache(8)
	_, err = s.Instantiate(Options{Cache: cache})
	require.NoError(t, err)
	_, err = s.Instantiate(Options{Cache: cache})
	require.NoError(t, err)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(2), misses, "check and target compile once")
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, 2, cache.Len())
}

func TestProgramCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := NewProgramCache(2)
	p1, err := compileCheck("true")
	require.NoError(t, err)
	p2, err := compileCheck("false")
	require.NoError(t, err)
	p3, err := compileTarget(`"x"`)
	require.NoError(t, err)

	c.Put("a", p1)
	c.Put("b", p2)
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Put("c", p3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, p1, got)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "ProgramCache{size=2, hits=2, misses=1}", c.String())

	assert.Equal(t, DefaultCacheSize, NewProgramCache(0).maxSize)
}
