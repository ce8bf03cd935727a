package engine

import (
	"sync"
	"time"

	"github.com/prodassist/infractl/internal/resource"
)

// Outcome classifies what happened to a single resource during a run.
type Outcome string

const (
	OutcomeDeleted  Outcome = "deleted"
	OutcomeNotFound Outcome = "not-found"
	OutcomeTimedOut Outcome = "timed-out"
	OutcomeFailed   Outcome = "failed"
	OutcomePlanned  Outcome = "planned" // dry-run only
)

// Entry is one resource's result.
type Entry struct {
	Kind     resource.Kind
	ID       string
	Outcome  Outcome
	Reason   string
	Err      error
	Duration time.Duration
}

// Report accumulates per-resource outcomes across a run. The engine's
// worker goroutines share it, so access is synchronized.
type Report struct {
	mu      sync.Mutex
	Started time.Time
	Entries []Entry
}

func newReport() *Report {
	return &Report{Started: time.Now()}
}

func (r *Report) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
}

// Count returns the number of entries with the given outcome.
func (r *Report) Count(o Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// HasFailures reports whether any resource failed or timed out. Failures
// never abort a run; this is for the operator-facing summary and exit
// advice.
func (r *Report) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Entries {
		if e.Outcome == OutcomeFailed || e.Outcome == OutcomeTimedOut {
			return true
		}
	}
	return false
}
