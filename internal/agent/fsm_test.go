package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStep(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		kind StateKind
		obs  observation
		want transition
	}{
		{"idle plan found", Idle, observation{}, transition{op: opReplace, state: Perform, event: PlanFound}},
		{"idle plan failed", Idle, observation{planErr: errors.New("x")}, transition{op: opReplace, state: Idle, event: PlanFailed}},
		{"perform empty plan", Perform, observation{planEmpty: true}, transition{op: opReplace, state: Idle, event: ActionsCompleted}},
		{"perform out of range", Perform, observation{needsMove: true}, transition{op: opPush, state: MoveTo}},
		{"perform ok", Perform, observation{performOK: true}, transition{op: opPush, state: MoveTo}},
		{"perform failed", Perform, observation{}, transition{op: opReplace, state: Idle, event: PlanAborted}},
		{"move target missing", MoveTo, observation{targetMissing: true}, transition{op: opUnwind, state: Idle, event: TargetMissing}},
		{"move arrived", MoveTo, observation{arrived: true}, transition{op: opPop}},
		{"move in progress", MoveTo, observation{}, transition{op: opNone}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, step(tc.kind, tc.obs))
		})
	}
}

func TestStep_UnknownStatePanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { step(StateKind(42), observation{}) })
}

func TestStack_Apply(t *testing.T) {
	t.Parallel()

	s := newStack()
	assert.Equal(t, Idle, s.top())

	s = s.apply(transition{op: opReplace, state: Perform})
	assert.Equal(t, stack{Perform}, s)

	s = s.apply(transition{op: opPush, state: MoveTo})
	assert.Equal(t, stack{Perform, MoveTo}, s)

	s = s.apply(transition{op: opNone})
	assert.Equal(t, stack{Perform, MoveTo}, s)

	s = s.apply(transition{op: opPop})
	assert.Equal(t, stack{Perform}, s)

	s = s.apply(transition{op: opPush, state: MoveTo}).apply(transition{op: opUnwind, state: Idle})
	assert.Equal(t, stack{Idle}, s)

	s = s.apply(transition{op: opPop})
	assert.Equal(t, stack{Idle}, s, "popping the last state leaves Idle")

	var empty stack
	assert.Equal(t, Idle, empty.top())
	assert.Equal(t, stack{Perform}, empty.apply(transition{op: opReplace, state: Perform}))
}

func TestKindStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "MoveTo", MoveTo.String())
	assert.Equal(t, "Perform", Perform.String())
	assert.Equal(t, "StateKind(9)", StateKind(9).String())
	assert.Equal(t, "TargetMissing", TargetMissing.String())
	assert.Equal(t, "EventKind(0)", EventKind(0).String())
	assert.Equal(t, "unwind", opUnwind.String())
}
