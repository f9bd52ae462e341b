package cache

import (
	"time"

	"github.com/dcosta/activity-board/internal/model"
)

// Group is one derived grouping bucket: a collaborator column, a subsector
// column, a personal list, or a calendar day. Rows preserve fetch order.
type Group struct {
	Key  string
	Rows []model.Activity
}

// memoEntry caches one derived grouping for a cache generation.
type memoEntry struct {
	generation uint64
	groups     []Group
}

// ByAssignee groups the visible board rows by assigned user id, one group
// per collaborator in first-seen order. Private list activities and
// archived activities never appear here.
func (c *Cache) ByAssignee() []Group {
	return c.grouped("assignee", func(a model.Activity) (string, bool) {
		if a.InList() || a.IsArchived() {
			return "", false
		}
		return a.UserID, true
	})
}

// BySubsector groups the visible board rows by subsector id. Activities
// without a subsector fall into the "" group; list and archived rows are
// excluded.
func (c *Cache) BySubsector() []Group {
	return c.grouped("subsector", func(a model.Activity) (string, bool) {
		if a.InList() || a.IsArchived() {
			return "", false
		}
		if a.SubsectorID == nil {
			return "", true
		}
		return *a.SubsectorID, true
	})
}

// ByList groups private activities by personal list id. Subsector and
// archived rows are excluded.
func (c *Cache) ByList() []Group {
	return c.grouped("list", func(a model.Activity) (string, bool) {
		if !a.InList() || a.InSubsector() || a.IsArchived() {
			return "", false
		}
		return *a.ListID, true
	})
}

// ByDay buckets rows with a due date by calendar day (local date string,
// YYYY-MM-DD). Archived rows and rows without a due date are excluded.
func (c *Cache) ByDay() []Group {
	return c.grouped("day", func(a model.Activity) (string, bool) {
		if a.IsArchived() || a.DueDate == nil {
			return "", false
		}
		return a.DueDate.Format("2006-01-02"), true
	})
}

// grouped derives (and memoizes per generation) one grouping. keyFn
// returns the bucket key and whether the row participates at all.
func (c *Cache) grouped(kind string, keyFn func(model.Activity) (string, bool)) []Group {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.memo[kind]; ok && entry.generation == c.generation {
		return entry.groups
	}

	index := make(map[string]int)
	var groups []Group

	for _, a := range c.rows {
		key, ok := keyFn(a)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Rows = append(groups[i].Rows, a)
	}

	c.memo[kind] = memoEntry{generation: c.generation, groups: groups}
	return groups
}

// DueBetween filters cached rows to those due in [from, to), preserving
// fetch order. Used by calendar views layered on a sector scope.
func (c *Cache) DueBetween(from, to time.Time) []model.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model.Activity
	for _, a := range c.rows {
		if a.IsArchived() || a.DueDate == nil {
			continue
		}
		if a.DueDate.Before(from) || !a.DueDate.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out
}
