package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
)

// Snapshot is a point-in-time read of a scope's cached activities.
// Refreshing never blanks Rows: background refetches keep the previous
// successful data visible, and so does a failed fetch.
type Snapshot struct {
	Rows       []model.Activity
	Loading    bool
	Refreshing bool
	Err        string
	LoadedAt   time.Time
}

// Ready reports whether at least one successful load has completed.
func (s Snapshot) Ready() bool {
	return !s.Loading
}

// Cache holds the fetched activity aggregates for one scope and serves
// derived groupings. All mutation goes through its methods; consumers must
// never splice the underlying rows, or memoized groupings go stale.
type Cache struct {
	mu         sync.Mutex
	rows       []model.Activity
	loading    bool
	refreshing bool
	err        string
	loadedAt   time.Time
	generation uint64

	memo map[string]memoEntry
}

// New returns an empty cache in the loading state.
func New() *Cache {
	return &Cache{
		loading: true,
		memo:    make(map[string]memoEntry),
	}
}

// Snapshot returns a copy of the current cache state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]model.Activity, len(c.rows))
	copy(rows, c.rows)

	return Snapshot{
		Rows:       rows,
		Loading:    c.loading,
		Refreshing: c.refreshing,
		Err:        c.err,
		LoadedAt:   c.loadedAt,
	}
}

// Generation returns a counter bumped on every write, used to key
// grouping memoization.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetRows replaces the full row set after a successful fetch. Each
// activity's subtasks are sorted ascending by order index here so
// consumers never re-sort for default display.
func (c *Cache) SetRows(rows []model.Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range rows {
		sortSubtasks(rows[i].Subtasks)
	}

	c.rows = rows
	c.loading = false
	c.refreshing = false
	c.err = ""
	c.loadedAt = time.Now()
	c.bump()
}

// MarkRefreshing flags a background refetch. Reads of the previous
// snapshot stay available throughout.
func (c *Cache) MarkRefreshing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing = true
}

// SetError records a fetch failure. The previous successful rows are
// retained so the UI can show stale-but-valid data with an error banner.
func (c *Cache) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.refreshing = false
	c.err = err.Error()
}

// ApplyPatch optimistically mutates one activity's fields ahead of server
// confirmation. It returns an undo closure restoring the pre-patch value,
// and false if the activity is not cached.
func (c *Cache) ApplyPatch(id string, patch remote.ActivityPatch) (undo func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.rows {
		if c.rows[i].ID != id {
			continue
		}
		prev := c.rows[i]
		applyPatch(&c.rows[i], patch)
		c.bump()

		return func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for j := range c.rows {
				if c.rows[j].ID == id {
					c.rows[j] = prev
					c.bump()
					return
				}
			}
		}, true
	}
	return nil, false
}

// RemoveLocally drops one activity from the cache, used when a drag moves
// an item out of this scope. Reports whether the id was present.
func (c *Cache) RemoveLocally(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.rows {
		if c.rows[i].ID == id {
			c.rows = append(c.rows[:i], c.rows[i+1:]...)
			c.bump()
			return true
		}
	}
	return false
}

// UpsertLocally inserts or replaces one activity, used when a drag moves
// an item into this scope. Replacement keeps the row's position; inserts
// append.
func (c *Cache) UpsertLocally(a model.Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sortSubtasks(a.Subtasks)
	for i := range c.rows {
		if c.rows[i].ID == a.ID {
			c.rows[i] = a
			c.bump()
			return
		}
	}
	c.rows = append(c.rows, a)
	c.bump()
}

// Get returns a copy of one cached activity.
func (c *Cache) Get(id string) (model.Activity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.rows {
		if c.rows[i].ID == id {
			return c.rows[i], true
		}
	}
	return model.Activity{}, false
}

// bump invalidates memoized groupings. Callers hold the lock.
func (c *Cache) bump() {
	c.generation++
}

// applyPatch mirrors the store's partial-update semantics on a cached row,
// minus timestamp stamping (the reconciling refetch brings those).
func applyPatch(a *model.Activity, patch remote.ActivityPatch) {
	if patch.Title != nil {
		a.Title = *patch.Title
	}
	if patch.Description != nil {
		a.Description = *patch.Description
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.Priority != nil {
		a.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		a.DueDate = &due
	}
	if patch.ClearDueDate {
		a.DueDate = nil
	}
	if patch.UserID != nil {
		a.UserID = *patch.UserID
		a.Assignee = nil
	}
	if patch.SubsectorID != nil {
		if *patch.SubsectorID == "" {
			a.SubsectorID = nil
		} else {
			sub := *patch.SubsectorID
			a.SubsectorID = &sub
			a.ListID = nil
			a.IsPrivate = false
		}
	}
	if patch.ListID != nil {
		if *patch.ListID == "" {
			a.ListID = nil
			a.IsPrivate = false
		} else {
			list := *patch.ListID
			a.ListID = &list
			a.SubsectorID = nil
			a.IsPrivate = true
		}
	}
}

// sortSubtasks orders subtasks ascending by order index; ties keep their
// original array order since order is advisory.
func sortSubtasks(subtasks []model.Subtask) {
	sort.SliceStable(subtasks, func(i, j int) bool {
		return subtasks[i].OrderIndex < subtasks[j].OrderIndex
	})
}
