package agent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joeycumines/goap/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNode_TicksUpdate(t *testing.T) {
	t.Parallel()

	p := &recorder{goal: eatGoal()}
	a := newTestAgent(t, p, nil, eatAction(false))

	node := a.Node(context.Background())
	status, err := node.Tick()
	require.NoError(t, err)
	assert.Equal(t, bt.Running, status)
	assert.Equal(t, Perform, a.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, err = a.Node(ctx).Tick()
	assert.Equal(t, bt.Failure, status)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "agent rabbit")
}

func TestRunner_TicksAgentsConcurrently(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := NewRunner(ctx, time.Millisecond, discardLogger())
	assert.Equal(t, time.Millisecond, runner.Interval())

	var completions [2]atomic.Int32
	for i := range completions {
		a, err := New("", &recorder{goal: eatGoal()},
			WithActions(eatAction(false)),
			WithLogger(discardLogger()),
			WithObserver(func(ev Event) {
				if ev.Kind == ActionsCompleted {
					completions[i].Add(1)
				}
			}))
		require.NoError(t, err)
		require.NoError(t, runner.Add(a))
	}

	err := testutil.Poll(ctx, func() bool {
		return completions[0].Load() >= 3 && completions[1].Load() >= 3
	}, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, err)

	runner.Stop()
	testutil.WaitClosed(t, runner.Done(), 5*time.Second, "runner")

	require.Error(t, runner.Add(newTestAgent(t, &recorder{}, nil)), "cannot add after stop")
}

func TestRunner_StopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(ctx, 0, nil)
	assert.Equal(t, DefaultTickInterval, runner.Interval())

	a, err := New("", &recorder{goal: eatGoal()},
		WithActions(eatAction(false)),
		WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, runner.Add(a))

	cancel()
	runner.Stop()
	testutil.WaitClosed(t, runner.Done(), 5*time.Second, "runner")
}

func TestNewRunner_NilContextPanics(t *testing.T) {
	t.Parallel()
	//lint:ignore SA1012 exercising the guard
	assert.Panics(t, func() { NewRunner(nil, time.Second, nil) })
}
