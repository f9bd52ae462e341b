// Package sync keeps per-scope activity caches consistent with the remote
// store: initial load, realtime change subscriptions, debounced refetch,
// and reconciliation after mutations.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/dcosta/activity-board/internal/bus"
	"github.com/dcosta/activity-board/internal/cache"
	"github.com/dcosta/activity-board/internal/remote"
)

// DefaultDebounce is the window within which bursts of change events
// collapse into a single refetch.
const DefaultDebounce = time.Second

// scopeState tracks one initialized scope: its cache, its subscriptions,
// the pending debounce timer, and the refetch token watermarks.
type scopeState struct {
	scope remote.Scope
	cache *cache.Cache

	unsubscribes []func()
	debounce     *time.Timer

	// reqSeq numbers refetches as they start; appliedSeq records the
	// newest one whose result landed. A completing refetch with a token at
	// or below appliedSeq is stale and discarded, so a refetch started
	// later always wins regardless of completion order.
	reqSeq     uint64
	appliedSeq uint64
}

// Controller owns the caches for every initialized scope. One controller
// instance is injected wherever boards need data; tests construct their
// own isolated instances.
type Controller struct {
	store    remote.Store
	bus      *bus.Bus
	debounce time.Duration

	mu        gosync.Mutex
	scopes    map[string]*scopeState
	busCancel []func()
	torn      bool
}

// New creates a controller over the given store. If b is non-nil the
// controller listens for board coordination signals: soft updates schedule
// a debounced refetch, force reloads refetch immediately.
func New(store remote.Store, b *bus.Bus, debounce time.Duration) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c := &Controller{
		store:    store,
		bus:      b,
		debounce: debounce,
		scopes:   make(map[string]*scopeState),
	}

	if b != nil {
		c.busCancel = append(c.busCancel,
			b.SubscribeSoft(func(sig bus.Signal) {
				for _, key := range c.keysForSignal(sig) {
					c.scheduleRefetch(key)
				}
			}),
			b.SubscribeForce(func(sig bus.Signal) {
				for _, key := range c.keysForSignal(sig) {
					go c.Refetch(context.Background(), key)
				}
			}),
		)
	}

	return c
}

// Initialize sets up a scope: first call performs the initial fetch and
// attaches exactly one set of change subscriptions; repeated calls with
// the same scope key are idempotent and return the existing cache without
// touching subscriptions.
func (c *Controller) Initialize(ctx context.Context, scope remote.Scope) *cache.Cache {
	key := scope.Key()

	c.mu.Lock()
	if st, ok := c.scopes[key]; ok {
		c.mu.Unlock()
		return st.cache
	}

	st := &scopeState{
		scope: scope,
		cache: cache.New(),
	}
	c.scopes[key] = st

	onChange := func(event remote.ChangeEvent) {
		if !scope.MatchesEvent(event) {
			return
		}
		c.scheduleRefetch(key)
	}
	st.unsubscribes = append(st.unsubscribes,
		c.store.Subscribe(remote.TableActivities, onChange),
		c.store.Subscribe(remote.TableSubtasks, onChange),
	)
	c.mu.Unlock()

	c.Refetch(ctx, key)
	return st.cache
}

// Cache returns the cache for an initialized scope key, or nil.
func (c *Controller) Cache(key string) *cache.Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.scopes[key]; ok {
		return st.cache
	}
	return nil
}

// Refetch forces an immediate, non-debounced refetch of one scope. The
// fetch runs on the calling goroutine; stale completions are discarded via
// the per-scope token so back-to-back refetches can never regress the
// cache to an older result.
func (c *Controller) Refetch(ctx context.Context, key string) {
	c.mu.Lock()
	st, ok := c.scopes[key]
	if !ok || c.torn {
		c.mu.Unlock()
		return
	}
	if st.debounce != nil {
		st.debounce.Stop()
		st.debounce = nil
	}
	st.reqSeq++
	token := st.reqSeq
	scope := st.scope
	snap := st.cache
	c.mu.Unlock()

	snap.MarkRefreshing()

	rows, err := c.store.ActivitiesInScope(ctx, scope)

	c.mu.Lock()
	if token <= st.appliedSeq {
		// A refetch started after this one already landed.
		c.mu.Unlock()
		return
	}
	st.appliedSeq = token
	c.mu.Unlock()

	if err != nil {
		snap.SetError(err)
		return
	}
	snap.SetRows(rows)
}

// RefetchAll forces an immediate refetch of every initialized scope.
func (c *Controller) RefetchAll(ctx context.Context) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.scopes))
	for key := range c.scopes {
		keys = append(keys, key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.Refetch(ctx, key)
	}
}

// scheduleRefetch arms the scope's debounce timer. Events arriving while
// the timer is pending are absorbed into the already-scheduled refetch.
func (c *Controller) scheduleRefetch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.scopes[key]
	if !ok || c.torn || st.debounce != nil {
		return
	}
	st.debounce = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if st.debounce != nil {
			st.debounce = nil
		}
		c.mu.Unlock()
		c.Refetch(context.Background(), key)
	})
}

// keysForSignal resolves a bus signal to the scope keys it addresses. An
// empty list id addresses every scope; otherwise only the matching
// personal-list scope refetches.
func (c *Controller) keysForSignal(sig bus.Signal) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	for key, st := range c.scopes {
		if sig.ListID == "" {
			keys = append(keys, key)
			continue
		}
		if st.scope.Kind == remote.ScopeList && st.scope.ListID == sig.ListID {
			keys = append(keys, key)
		}
	}
	return keys
}

// Teardown cancels every debounce timer, unsubscribes all change
// subscriptions and bus listeners, and makes further refetches no-ops.
// Must be called on application shutdown so subscriptions do not leak.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.torn {
		c.mu.Unlock()
		return
	}
	c.torn = true

	var cancels []func()
	for _, st := range c.scopes {
		if st.debounce != nil {
			st.debounce.Stop()
			st.debounce = nil
		}
		cancels = append(cancels, st.unsubscribes...)
		st.unsubscribes = nil
	}
	cancels = append(cancels, c.busCancel...)
	c.busCancel = nil
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
