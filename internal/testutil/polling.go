// Package testutil holds helpers for tests of concurrent components, such
// as agents ticking on a Runner, so tests wait on conditions rather than on
// fixed sleeps.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// Poll calls condition every interval until it returns true. It returns an
// error once timeout has elapsed, or ctx's error if ctx is done first.
func Poll(ctx context.Context, condition func() bool, timeout, interval time.Duration) error {
	_, err := WaitFor(ctx, condition, func(ok bool) bool { return ok }, timeout, interval)
	return err
}

// WaitFor calls get every interval until pred accepts the result, which it
// returns. On timeout or cancellation it returns the zero value and an
// error.
func WaitFor[T any](ctx context.Context, get func() T, pred func(T) bool, timeout, interval time.Duration) (T, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var zero T
	for {
		if v := get(); pred(v) {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-deadline.C:
			return zero, fmt.Errorf("testutil: condition not met within %v", timeout)
		case <-ticker.C:
		}
	}
}

// WaitClosed fails the test unless ch is closed, or delivers a value,
// within timeout.
func WaitClosed[T any](tb testing.TB, ch <-chan T, timeout time.Duration, what string) {
	tb.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		tb.Fatalf("%s: not done after %v", what, timeout)
	}
}
