package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodassist/infractl/internal/cloud"
	"github.com/prodassist/infractl/internal/resource"
)

// fakeCloud simulates a provider account. Deleting a resource removes it
// unless it is marked stuck, in which case it reads as deleting forever.
type fakeCloud struct {
	mu        sync.Mutex
	resources map[resource.Kind][]string
	stuck     map[string]bool
	deleted   map[string]bool
	deleteErr map[string]error
	calls     []string
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		resources: make(map[resource.Kind][]string),
		stuck:     make(map[string]bool),
		deleted:   make(map[string]bool),
		deleteErr: make(map[string]error),
	}
}

func (f *fakeCloud) add(kind resource.Kind, ids ...string) {
	f.resources[kind] = append(f.resources[kind], ids...)
}

func (f *fakeCloud) Discover(_ context.Context, kind resource.Kind) ([]resource.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "discover:"+string(kind))
	var handles []resource.Handle
	for _, id := range f.resources[kind] {
		state := resource.StatePresent
		if f.deleted[id] {
			state = resource.StateAbsent
		}
		handles = append(handles, resource.Handle{Kind: kind, ID: id, State: state})
	}
	return handles, nil
}

func (f *fakeCloud) Probe(_ context.Context, _ resource.Kind, id string) (resource.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "probe:"+id)
	if f.deleted[id] {
		return resource.StateAbsent, nil
	}
	if f.stuck[id] {
		return resource.StateDeleting, nil
	}
	return resource.StatePresent, nil
}

func (f *fakeCloud) Delete(_ context.Context, h resource.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+h.ID)
	if err := f.deleteErr[h.ID]; err != nil {
		return err
	}
	if !f.stuck[h.ID] {
		f.deleted[h.ID] = true
	}
	return nil
}

func callIndex(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}

func newTestEngine(f *fakeCloud, opts ...Option) *Engine {
	base := []Option{
		WithWaitInterval(time.Millisecond),
		WithRetryPolicy(&RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	}
	return New(f, append(base, opts...)...)
}

func TestRun_NodeGroupsAwaitedBeforeClusterDelete(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindNodeGroup, "ng-workers")
	f.add(resource.KindCluster, "product-assistant")

	eng := newTestEngine(f)
	report, err := eng.Run(context.Background(), []resource.Kind{resource.KindCluster, resource.KindNodeGroup})
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, 2, report.Count(OutcomeDeleted))

	ngDelete := callIndex(f.calls, "delete:ng-workers")
	clusterDelete := callIndex(f.calls, "delete:product-assistant")
	require.NotEqual(t, -1, ngDelete)
	require.NotEqual(t, -1, clusterDelete)
	assert.Less(t, ngDelete, clusterDelete, "node group delete must be issued before the cluster delete")

	// The node group is polled to gone before the cluster tier starts.
	ngProbe := callIndex(f.calls, "probe:ng-workers")
	require.NotEqual(t, -1, ngProbe)
	assert.Less(t, ngProbe, clusterDelete)
}

func TestRun_AbsentResourceReportsNotFound(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindRegistry, "product-assistant")
	f.deleted["product-assistant"] = true

	eng := newTestEngine(f)
	report, err := eng.Run(context.Background(), []resource.Kind{resource.KindRegistry})
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, OutcomeNotFound, report.Entries[0].Outcome)
	assert.Equal(t, -1, callIndex(f.calls, "delete:product-assistant"), "no delete for an absent resource")
}

func TestRun_ProviderNotFoundAtDeleteIsNotFailure(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindInstance, "i-0abc")
	f.deleteErr["i-0abc"] = cloud.ErrNotFound

	eng := newTestEngine(f)
	report, err := eng.Run(context.Background(), []resource.Kind{resource.KindInstance})
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, OutcomeNotFound, report.Entries[0].Outcome)
	assert.Equal(t, 0, report.Count(OutcomeFailed))
}

func TestRun_TimeoutIsNonFatal(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindNatGateway, "nat-0slow")
	f.add(resource.KindInstance, "i-0abc")
	f.add(resource.KindElasticAddress, "eipalloc-1")
	f.stuck["nat-0slow"] = true

	eng := newTestEngine(f)
	ctx := context.Background()
	report := newReport()

	// Drive the stuck NAT gateway with a tiny wait budget so the test
	// does not sit through the real multi-minute budget.
	report.add(eng.teardownOneWithTimeout(ctx, resource.Handle{
		Kind: resource.KindNatGateway, ID: "nat-0slow", State: resource.StatePresent,
	}, 5*time.Millisecond))

	eng.runTier(ctx, []resource.Kind{resource.KindInstance}, report)
	eng.runTier(ctx, []resource.Kind{resource.KindElasticAddress}, report)

	assert.Equal(t, 1, report.Count(OutcomeTimedOut))
	assert.Equal(t, 2, report.Count(OutcomeDeleted))
	assert.NotEqual(t, -1, callIndex(f.calls, "delete:i-0abc"))
	assert.NotEqual(t, -1, callIndex(f.calls, "delete:eipalloc-1"))
}

func TestRun_FailureDoesNotAbortRun(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindElasticAddress, "eipalloc-1", "eipalloc-2")
	f.deleteErr["eipalloc-1"] = errors.New("AuthFailure: address is still associated")

	eng := newTestEngine(f)
	report, err := eng.Run(context.Background(), []resource.Kind{resource.KindElasticAddress})
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, 1, report.Count(OutcomeFailed))
	assert.Equal(t, 1, report.Count(OutcomeDeleted))
	assert.True(t, report.HasFailures())
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindRegistry, "product-assistant")
	f.add(resource.KindInstance, "i-0abc")

	scope := []resource.Kind{resource.KindRegistry, resource.KindInstance}
	eng := newTestEngine(f)

	first, err := eng.Run(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count(OutcomeDeleted))

	second, err := eng.Run(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count(OutcomeDeleted))
	for _, e := range second.Entries {
		assert.Equal(t, OutcomeNotFound, e.Outcome)
	}
}

func TestRun_CancellationStopsTierProgression(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindInstance, "i-0abc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := newTestEngine(f)
	_, err := eng.Run(ctx, []resource.Kind{resource.KindInstance})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, callIndex(f.calls, "delete:i-0abc"), "no delete after cancellation")
}

func TestRun_DryRunIssuesNoDeletes(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindRegistry, "product-assistant")
	f.add(resource.KindInstance, "i-0abc")

	eng := newTestEngine(f, WithDryRun())
	report, err := eng.Run(context.Background(), []resource.Kind{resource.KindRegistry, resource.KindInstance})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Count(OutcomePlanned))
	for _, call := range f.calls {
		assert.NotContains(t, call, "delete:")
	}
}

func TestRun_EmitsProgressEvents(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindInstance, "i-0abc")

	var mu sync.Mutex
	var events []Event
	eng := newTestEngine(f, WithCallback(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))

	_, err := eng.Run(context.Background(), []resource.Kind{resource.KindInstance})
	require.NoError(t, err)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "completed", last.Status)
	assert.Equal(t, OutcomeDeleted, last.Outcome)
}

func TestRun_ParallelTierKeepsReportIntact(t *testing.T) {
	f := newFakeCloud()
	f.add(resource.KindInstance, "i-1", "i-2", "i-3", "i-4", "i-5")

	eng := newTestEngine(f, WithParallelism(4))
	report, err := eng.Run(context.Background(), []resource.Kind{resource.KindInstance})
	require.NoError(t, err)

	assert.Len(t, report.Entries, 5)
	assert.Equal(t, 5, report.Count(OutcomeDeleted))
}
