package sync_test

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcosta/activity-board/internal/bus"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
	appsync "github.com/dcosta/activity-board/internal/sync"
)

// fakeStore is an in-memory remote.Store double that records fetches per
// scope key and lets tests emit change events to registered subscribers.
// Unstubbed Store methods panic through the embedded nil interface.
type fakeStore struct {
	remote.Store

	mu      gosync.Mutex
	calls   []string
	rows    map[string][]model.Activity
	fetchFn func(call int, scope remote.Scope) ([]model.Activity, error)

	subs    map[string]map[int]func(remote.ChangeEvent)
	nextSub int
	unsubs  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows: make(map[string][]model.Activity),
		subs: make(map[string]map[int]func(remote.ChangeEvent)),
	}
}

func (f *fakeStore) ActivitiesInScope(_ context.Context, scope remote.Scope) ([]model.Activity, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, scope.Key())
	fn := f.fetchFn
	rows := f.rows[scope.Key()]
	f.mu.Unlock()

	if fn != nil {
		return fn(call, scope)
	}
	return rows, nil
}

func (f *fakeStore) Subscribe(table string, fn func(remote.ChangeEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	if f.subs[table] == nil {
		f.subs[table] = make(map[int]func(remote.ChangeEvent))
	}
	f.subs[table][id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[table][id]; ok {
			delete(f.subs[table], id)
			f.unsubs++
		}
	}
}

func (f *fakeStore) emit(table string, row map[string]any) {
	f.emitEvent(remote.ChangeEvent{Type: remote.EventUpdate, Table: table, New: row})
}

func (f *fakeStore) emitEvent(event remote.ChangeEvent) {
	f.mu.Lock()
	fns := make([]func(remote.ChangeEvent), 0, len(f.subs[event.Table]))
	for _, fn := range f.subs[event.Table] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

func (f *fakeStore) fetchCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.calls {
		if k == key {
			n++
		}
	}
	return n
}

func (f *fakeStore) activeSubs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, reg := range f.subs {
		n += len(reg)
	}
	return n
}

func (f *fakeStore) unsubscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubs
}

func sectorScope() remote.Scope {
	return remote.Scope{Kind: remote.ScopeSector, SectorID: "sec1"}
}

func sectorRow() map[string]any {
	return map[string]any{"sector_id": "sec1", "user_id": "u1"}
}

func TestInitializeFetchesOnceAndIsIdempotent(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	store.rows[scope.Key()] = []model.Activity{{ID: "a1", Title: "one"}}
	ctrl := appsync.New(store, nil, time.Minute)
	defer ctrl.Teardown()

	first := ctrl.Initialize(context.Background(), scope)
	second := ctrl.Initialize(context.Background(), scope)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.fetchCount(scope.Key()))
	// One subscription per table, not one per Initialize call.
	assert.Equal(t, 2, store.activeSubs())

	snap := first.Snapshot()
	assert.True(t, snap.Ready())
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "a1", snap.Rows[0].ID)

	assert.Same(t, first, ctrl.Cache(scope.Key()))
}

func TestChangeEventBurstCoalescesIntoOneRefetch(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	ctrl := appsync.New(store, nil, 30*time.Millisecond)
	defer ctrl.Teardown()

	ctrl.Initialize(context.Background(), scope)
	require.Equal(t, 1, store.fetchCount(scope.Key()))

	for i := 0; i < 5; i++ {
		store.emit(remote.TableActivities, sectorRow())
	}

	require.Eventually(t, func() bool {
		return store.fetchCount(scope.Key()) == 2
	}, time.Second, 5*time.Millisecond)

	// No trailing refetches once the window has flushed.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 2, store.fetchCount(scope.Key()))
}

func TestEventsOutsideScopeAreIgnored(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	ctrl := appsync.New(store, nil, 20*time.Millisecond)
	defer ctrl.Teardown()

	ctrl.Initialize(context.Background(), scope)
	store.emit(remote.TableActivities, map[string]any{"sector_id": "other", "user_id": "u1"})

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, store.fetchCount(scope.Key()))
}

func TestUpdateMovingRowOutOfScopeSchedulesRefetch(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	ctrl := appsync.New(store, nil, 20*time.Millisecond)
	defer ctrl.Teardown()

	ctrl.Initialize(context.Background(), scope)
	require.Equal(t, 1, store.fetchCount(scope.Key()))

	// Another client moves the activity into a personal list: the new row
	// no longer matches the sector scope, but the old one does.
	store.emitEvent(remote.ChangeEvent{
		Type:  remote.EventUpdate,
		Table: remote.TableActivities,
		Old:   sectorRow(),
		New:   map[string]any{"sector_id": "sec1", "user_id": "u1", "list_id": "l9"},
	})

	require.Eventually(t, func() bool {
		return store.fetchCount(scope.Key()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestStaleRefetchResultIsDiscarded(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	key := scope.Key()

	entered := make(chan struct{})
	release := make(chan struct{})
	store.fetchFn = func(call int, _ remote.Scope) ([]model.Activity, error) {
		switch call {
		case 0:
			return nil, nil
		case 1:
			close(entered)
			<-release
			return []model.Activity{{ID: "stale"}}, nil
		default:
			return []model.Activity{{ID: "fresh"}}, nil
		}
	}

	ctrl := appsync.New(store, nil, time.Minute)
	defer ctrl.Teardown()
	c := ctrl.Initialize(context.Background(), scope)

	done := make(chan struct{})
	go func() {
		ctrl.Refetch(context.Background(), key)
		close(done)
	}()
	<-entered

	// A later refetch completes while the earlier one is still in flight.
	ctrl.Refetch(context.Background(), key)
	close(release)
	<-done

	snap := c.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "fresh", snap.Rows[0].ID)
}

func TestFailedRefetchRetainsRowsUntilRecovery(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()

	store.fetchFn = func(call int, _ remote.Scope) ([]model.Activity, error) {
		switch call {
		case 0:
			return []model.Activity{{ID: "a1"}}, nil
		case 1:
			return nil, errors.New("store unreachable")
		default:
			return []model.Activity{{ID: "a1"}, {ID: "a2"}}, nil
		}
	}

	ctrl := appsync.New(store, nil, time.Minute)
	defer ctrl.Teardown()
	c := ctrl.Initialize(context.Background(), scope)

	ctrl.Refetch(context.Background(), scope.Key())
	snap := c.Snapshot()
	assert.NotEmpty(t, snap.Err)
	require.Len(t, snap.Rows, 1, "last good rows survive a failed refetch")

	ctrl.Refetch(context.Background(), scope.Key())
	snap = c.Snapshot()
	assert.Empty(t, snap.Err)
	assert.Len(t, snap.Rows, 2)
}

func TestForceSignalRefetchesImmediately(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	b := bus.New()
	ctrl := appsync.New(store, b, time.Minute)
	defer ctrl.Teardown()

	ctrl.Initialize(context.Background(), scope)
	b.PublishForce(bus.Signal{})

	require.Eventually(t, func() bool {
		return store.fetchCount(scope.Key()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSoftSignalRefetchesAfterDebounce(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	b := bus.New()
	ctrl := appsync.New(store, b, 30*time.Millisecond)
	defer ctrl.Teardown()

	ctrl.Initialize(context.Background(), scope)
	b.PublishSoft(bus.Signal{})
	b.PublishSoft(bus.Signal{})

	require.Eventually(t, func() bool {
		return store.fetchCount(scope.Key()) == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 2, store.fetchCount(scope.Key()))
}

func TestListSignalTargetsOnlyThatListScope(t *testing.T) {
	store := newFakeStore()
	sector := sectorScope()
	list := remote.Scope{Kind: remote.ScopeList, ListID: "l1"}
	b := bus.New()
	ctrl := appsync.New(store, b, time.Minute)
	defer ctrl.Teardown()

	ctrl.Initialize(context.Background(), sector)
	ctrl.Initialize(context.Background(), list)

	b.PublishForce(bus.Signal{ListID: "l1"})

	require.Eventually(t, func() bool {
		return store.fetchCount(list.Key()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.fetchCount(sector.Key()))
}

func TestTeardownUnsubscribesAndStopsRefetches(t *testing.T) {
	store := newFakeStore()
	scope := sectorScope()
	b := bus.New()
	ctrl := appsync.New(store, b, 20*time.Millisecond)

	ctrl.Initialize(context.Background(), scope)
	require.Equal(t, 2, store.activeSubs())

	ctrl.Teardown()
	ctrl.Teardown() // safe to call twice

	assert.Equal(t, 0, store.activeSubs())
	assert.Equal(t, 2, store.unsubscribed())

	ctrl.Refetch(context.Background(), scope.Key())
	b.PublishForce(bus.Signal{})
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, store.fetchCount(scope.Key()))
}

func TestRefetchAllCoversEveryScope(t *testing.T) {
	store := newFakeStore()
	sector := sectorScope()
	list := remote.Scope{Kind: remote.ScopeList, ListID: "l1"}
	ctrl := appsync.New(store, nil, time.Minute)
	defer ctrl.Teardown()

	ctrl.Initialize(context.Background(), sector)
	ctrl.Initialize(context.Background(), list)

	ctrl.RefetchAll(context.Background())

	assert.Equal(t, 2, store.fetchCount(sector.Key()))
	assert.Equal(t, 2, store.fetchCount(list.Key()))
}
