package catalog

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/joeycumines/goap/internal/planner"
)

// ScriptedAction is a planner.Action declared in a scenario.
type ScriptedAction struct {
	*planner.Base

	check    *vm.Program
	target   *vm.Program
	env      EnvFunc
	duration int
	progress int
	logger   *slog.Logger
}

var _ planner.Action = (*ScriptedAction)(nil)

func newScriptedAction(spec ActionSpec, env EnvFunc, cache *ProgramCache) (*ScriptedAction, error) {
	a := &ScriptedAction{
		Base:     planner.NewBase(spec.Name, spec.EffectiveCost(), spec.RequiresInRange),
		env:      env,
		duration: max(spec.Duration, 1),
	}
	for name, v := range spec.Preconditions.All() {
		a.AddPrecondition(name, v)
	}
	for name, v := range spec.Effects.All() {
		a.AddEffect(name, v)
	}

	var err error
	if spec.Check != "" {
		if a.check, err = cachedProgram(cache, "check", spec.Check, compileCheck); err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
	}
	if spec.Target != "" {
		if a.target, err = cachedProgram(cache, "target", spec.Target, compileTarget); err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
	}
	return a, nil
}

// WithLogger sets the logger used for expression errors.
func (a *ScriptedAction) WithLogger(logger *slog.Logger) *ScriptedAction {
	a.logger = logger
	return a
}

func (a *ScriptedAction) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Reset clears the bound target, the in-range flag and progress.
func (a *ScriptedAction) Reset() {
	a.Base.Reset()
	a.progress = 0
}

// CheckProceduralPrecondition evaluates check, then target. A failing or
// erroring check, or an empty target for an action that requires range,
// makes the action unusable.
func (a *ScriptedAction) CheckProceduralPrecondition(agent planner.Handle) bool {
	if a.check == nil && a.target == nil {
		return true
	}
	env := a.env(agent)

	if a.check != nil {
		out, err := expr.Run(a.check, env)
		if err != nil {
			a.log().Warn("[Catalog] check failed",
				"action", a.Name(),
				"agent", string(agent),
				"error", err)
			return false
		}
		if ok, _ := out.(bool); !ok {
			return false
		}
	}

	if a.target != nil {
		out, err := expr.Run(a.target, env)
		if err != nil {
			a.log().Warn("[Catalog] target selection failed",
				"action", a.Name(),
				"agent", string(agent),
				"error", err)
			return false
		}
		target, _ := out.(string)
		if target == "" && a.RequiresInRange() {
			return false
		}
		a.SetTarget(planner.Handle(target))
	}
	return true
}

// IsDone reports whether the action has been performed Duration times.
func (a *ScriptedAction) IsDone() bool { return a.progress >= a.duration }

// Perform advances progress by one step. It always succeeds.
func (a *ScriptedAction) Perform(planner.Handle) bool {
	a.progress++
	return true
}

// Progress returns the number of performs since the last Reset.
func (a *ScriptedAction) Progress() int { return a.progress }

// Duration returns the number of performs needed to finish.
func (a *ScriptedAction) Duration() int { return a.duration }
