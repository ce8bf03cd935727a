// Package engine drives the dependency-ordered teardown of managed cloud
// resources. Planning is pure (resource.Plan); the engine owns the
// effectful execute step: probe, delete, await, report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prodassist/infractl/internal/cloud"
	"github.com/prodassist/infractl/internal/logging"
	"github.com/prodassist/infractl/internal/resource"
)

// Cloud is the provider surface the engine needs. *cloud.Client satisfies
// it; tests use call-recording fakes.
type Cloud interface {
	Discover(ctx context.Context, kind resource.Kind) ([]resource.Handle, error)
	Probe(ctx context.Context, kind resource.Kind, id string) (resource.State, error)
	Delete(ctx context.Context, h resource.Handle) error
}

// Event is a progress notification for a single resource.
type Event struct {
	Kind     resource.Kind
	ID       string
	Status   string // "deleting", "waiting", "completed"
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Callback receives progress events if set. Called from worker goroutines
// when parallelism is enabled; implementations must be safe for that.
type Callback func(Event)

// Engine executes teardown plans against a Cloud.
type Engine struct {
	cloud       Cloud
	waiter      *Waiter
	retry       *RetryPolicy
	callback    Callback
	parallelism int
	dryRun      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCallback sets the progress event callback.
func WithCallback(cb Callback) Option {
	return func(e *Engine) { e.callback = cb }
}

// WithParallelism bounds concurrent deletions within a tier. Tiers still
// execute strictly in sequence, and each resource's own delete-then-await
// stays ordered. Default is 1 (fully sequential).
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithRetryPolicy overrides the transient-error retry policy.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(e *Engine) { e.retry = p }
}

// WithDryRun plans and probes but records would-be deletions instead of
// issuing them.
func WithDryRun() Option {
	return func(e *Engine) { e.dryRun = true }
}

// WithWaitInterval overrides every kind's poll interval. Tests use this.
func WithWaitInterval(d time.Duration) Option {
	return func(e *Engine) { e.waiter.interval = d }
}

// New builds an Engine over the given cloud.
func New(c Cloud, opts ...Option) *Engine {
	e := &Engine{
		cloud:       c,
		waiter:      NewWaiter(c),
		retry:       DefaultRetryPolicy(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run tears down every resource of the scoped kinds, tier by tier, and
// returns the per-resource report. Resource-level failures never abort
// the run; the only early exit is context cancellation, which stops
// further tiers but does not revoke deletes already issued.
func (e *Engine) Run(ctx context.Context, scope []resource.Kind) (*Report, error) {
	plan, err := resource.Plan(scope)
	if err != nil {
		return nil, err
	}

	report := newReport()
	for _, tier := range plan.Tiers {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run cancelled: %w", err)
		}
		e.runTier(ctx, tier, report)
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run cancelled: %w", err)
	}
	return report, nil
}

// runTier discovers and processes every resource of the tier's kinds.
// Kinds within a tier share no dependency, so their resources may be
// handled concurrently up to the configured parallelism.
func (e *Engine) runTier(ctx context.Context, tier []resource.Kind, report *Report) {
	var handles []resource.Handle
	for _, kind := range tier {
		found, err := e.cloud.Discover(ctx, kind)
		if err != nil {
			logging.Error("discovery failed", "kind", kind, "error", err)
			report.add(Entry{Kind: kind, ID: "*", Outcome: OutcomeFailed, Reason: err.Error()})
			continue
		}
		handles = append(handles, found...)
	}

	if e.parallelism <= 1 || len(handles) <= 1 {
		for _, h := range handles {
			if ctx.Err() != nil {
				return
			}
			report.add(e.teardownOne(ctx, h))
		}
		return
	}

	sem := make(chan struct{}, e.parallelism)
	var wg sync.WaitGroup
	for _, h := range handles {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(h resource.Handle) {
			defer wg.Done()
			defer func() { <-sem }()
			report.add(e.teardownOne(ctx, h))
		}(h)
	}
	wg.Wait()
}

// teardownOne runs the full probe, delete, await sequence for a single
// resource and returns its report entry.
func (e *Engine) teardownOne(ctx context.Context, h resource.Handle) Entry {
	return e.teardownOneWithTimeout(ctx, h, h.Kind.DeleteTimeout())
}

func (e *Engine) teardownOneWithTimeout(ctx context.Context, h resource.Handle, waitBudget time.Duration) Entry {
	start := time.Now()
	entry := Entry{Kind: h.Kind, ID: h.ID}

	state := h.State
	if state == resource.StateUnknown {
		probed, err := e.cloud.Probe(ctx, h.Kind, h.ID)
		if err != nil {
			entry.Outcome = OutcomeFailed
			entry.Reason = err.Error()
			entry.Duration = time.Since(start)
			e.emit(entry, "completed")
			return entry
		}
		state = probed
	}

	if state.Gone() {
		entry.Outcome = OutcomeNotFound
		entry.Duration = time.Since(start)
		e.emit(entry, "completed")
		return entry
	}

	if e.dryRun {
		entry.Outcome = OutcomePlanned
		entry.Duration = time.Since(start)
		e.emit(entry, "completed")
		return entry
	}

	e.emit(entry, "deleting")
	if state != resource.StateDeleting {
		err := RetryWithBackoff(ctx, e.retry, func() error {
			return e.cloud.Delete(ctx, h)
		}, IsTransientError)
		switch {
		case err == nil:
		case cloud.IsNotFound(err):
			entry.Outcome = OutcomeNotFound
			entry.Duration = time.Since(start)
			e.emit(entry, "completed")
			return entry
		default:
			entry.Outcome = OutcomeFailed
			entry.Reason = err.Error()
			entry.Err = err
			entry.Duration = time.Since(start)
			e.emit(entry, "completed")
			return entry
		}
	}

	if h.Kind.Awaited() {
		e.emit(entry, "waiting")
		err := e.waiter.Await(ctx, h.Kind, h.ID, resource.StateDeleted, waitBudget)
		if err != nil {
			if errors.Is(err, ErrWaitTimeout) {
				// Provider-side deletion continues regardless; record and
				// move on so the rest of the run still happens.
				logging.Warn("deletion still in progress at timeout", "kind", h.Kind, "id", h.ID)
				entry.Outcome = OutcomeTimedOut
			} else {
				entry.Outcome = OutcomeFailed
				entry.Reason = err.Error()
				entry.Err = err
			}
			entry.Duration = time.Since(start)
			e.emit(entry, "completed")
			return entry
		}
	}

	entry.Outcome = OutcomeDeleted
	entry.Duration = time.Since(start)
	e.emit(entry, "completed")
	return entry
}

func (e *Engine) emit(entry Entry, status string) {
	if e.callback == nil {
		return
	}
	e.callback(Event{
		Kind:     entry.Kind,
		ID:       entry.ID,
		Status:   status,
		Outcome:  entry.Outcome,
		Err:      entry.Err,
		Duration: entry.Duration,
	})
}
