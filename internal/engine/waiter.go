package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prodassist/infractl/internal/logging"
	"github.com/prodassist/infractl/internal/resource"
)

// ErrWaitTimeout is returned when a resource does not reach its target
// state within the wait budget. It is non-fatal to a teardown run:
// provider-side deletion continues whether or not we are still watching.
var ErrWaitTimeout = errors.New("timed out waiting for target state")

// Prober re-queries the live state of a single resource.
type Prober interface {
	Probe(ctx context.Context, kind resource.Kind, id string) (resource.State, error)
}

// Waiter blocks until a resource reaches a target terminal state, polling
// the prober at the kind's interval. One implementation serves every
// kind; per-kind behavior is entirely in the interval and timeout.
type Waiter struct {
	prober Prober

	// interval overrides the per-kind poll interval when set. Tests use
	// this to poll fast.
	interval time.Duration
}

// NewWaiter returns a Waiter over the given prober.
func NewWaiter(prober Prober) *Waiter {
	return &Waiter{prober: prober}
}

// Await polls until the resource reaches target, the timeout elapses
// (ErrWaitTimeout), or ctx is cancelled. Cancellation aborts the wait
// only: any delete already issued keeps running on the provider side.
// When the target is StateDeleted, an Absent observation also satisfies
// the wait, since a fully-deleted resource stops appearing at all.
func (w *Waiter) Await(ctx context.Context, kind resource.Kind, id string, target resource.State, timeout time.Duration) error {
	interval := w.interval
	if interval <= 0 {
		interval = kind.PollInterval()
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		state, err := w.prober.Probe(ctx, kind, id)
		if err != nil {
			// Probe errors during a wait are usually transient; keep
			// polling until the budget runs out.
			logging.Warn("probe failed while waiting", "kind", kind, "id", id, "error", err)
		} else if stateSatisfies(state, target) {
			return nil
		} else {
			logging.Debug("still waiting", "kind", kind, "id", id, "state", state, "target", target)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait aborted: %w", ctx.Err())
		case <-deadline.C:
			return fmt.Errorf("%s %s did not reach %s within %s: %w", kind, id, target, timeout, ErrWaitTimeout)
		case <-tick.C:
		}
	}
}

func stateSatisfies(state, target resource.State) bool {
	if state == target {
		return true
	}
	// Deleted and Absent are equivalent terminal outcomes for teardown.
	return target == resource.StateDeleted && state.Gone()
}
