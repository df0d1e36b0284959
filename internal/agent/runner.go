package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
)

// Node returns a behaviour tree leaf that calls Update once per tick. It
// reports bt.Running while the agent is healthy and fails with ctx's error
// once ctx is done, which stops any bt.Ticker driving it.
func (a *Agent) Node(ctx context.Context) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if err := a.Update(ctx); err != nil {
			return bt.Failure, fmt.Errorf("agent %s: %w", a.id, err)
		}
		return bt.Running, nil
	})
}

// DefaultTickInterval is the Runner interval used when none is configured.
const DefaultTickInterval = 100 * time.Millisecond

// Runner ticks agents concurrently, each on its own bt.Ticker, aggregated by
// a bt.Manager. The first ticker to fail stops all of them.
type Runner struct {
	ctx      context.Context
	interval time.Duration
	manager  bt.Manager
	logger   *slog.Logger
}

// NewRunner creates a Runner whose tickers stop when ctx is done. A
// non-positive interval selects DefaultTickInterval.
func NewRunner(ctx context.Context, interval time.Duration, logger *slog.Logger) *Runner {
	if ctx == nil {
		panic("agent.NewRunner: nil context")
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		ctx:      ctx,
		interval: interval,
		manager:  bt.NewManager(),
		logger:   logger,
	}
}

// Interval returns the tick interval.
func (r *Runner) Interval() time.Duration { return r.interval }

// Add starts ticking a. It fails once the Runner has stopped.
func (r *Runner) Add(a *Agent) error {
	ticker := bt.NewTicker(r.ctx, r.interval, a.Node(r.ctx))
	if err := r.manager.Add(ticker); err != nil {
		ticker.Stop()
		return fmt.Errorf("agent: add %s to runner: %w", a.id, err)
	}
	r.logger.Debug("[Runner] agent added",
		"agent", string(a.id),
		"interval", r.interval.String())
	return nil
}

// Done is closed once every ticker has stopped.
func (r *Runner) Done() <-chan struct{} { return r.manager.Done() }

// Err returns the first ticker error, if any.
func (r *Runner) Err() error { return r.manager.Err() }

// Stop stops all tickers. It does not wait; use Done.
func (r *Runner) Stop() {
	r.manager.Stop()
	r.logger.Debug("[Runner] stopped")
}
