package app

import (
	gosync "sync"

	"github.com/dcosta/activity-board/internal/board"
	"github.com/dcosta/activity-board/internal/cache"
	"github.com/dcosta/activity-board/internal/dnd"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/order"
	"github.com/dcosta/activity-board/internal/remote"
	appsync "github.com/dcosta/activity-board/internal/sync"
)

// boardResolver maps drop containers to the scope caches behind them. It
// lives behind a pointer so the drag engine sees list and grouping
// changes made after construction.
type boardResolver struct {
	ctrl      *appsync.Controller
	orders    *order.Store
	sectorKey string

	mu       gosync.Mutex
	lists    []model.PersonalList
	grouping dnd.Kind
	mode     order.Mode
}

func newBoardResolver(ctrl *appsync.Controller, orders *order.Store, sectorKey string) *boardResolver {
	return &boardResolver{
		ctrl:      ctrl,
		orders:    orders,
		sectorKey: sectorKey,
		grouping:  dnd.KindCollaborator,
		mode:      order.ModeManual,
	}
}

// SetLists replaces the known personal lists.
func (r *boardResolver) SetLists(lists []model.PersonalList) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = lists
}

// SetGrouping records whether the sector board currently groups by
// collaborator or by subsector.
func (r *boardResolver) SetGrouping(kind dnd.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grouping = kind
}

// SetMode records the active sort mode for list containers.
func (r *boardResolver) SetMode(mode order.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

func (r *boardResolver) snapshot() ([]model.PersonalList, dnd.Kind, order.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists, r.grouping, r.mode
}

// ContainerOf returns the container currently owning an item. List caches
// are consulted first since list membership is exclusive.
func (r *boardResolver) ContainerOf(itemID string) (dnd.Container, bool) {
	lists, grouping, _ := r.snapshot()

	for _, l := range lists {
		c := r.ctrl.Cache(remote.Scope{Kind: remote.ScopeList, ListID: l.ID}.Key())
		if c == nil {
			continue
		}
		if _, ok := c.Get(itemID); ok {
			return dnd.Container{Kind: dnd.KindList, Key: l.ID}, true
		}
	}

	sector := r.ctrl.Cache(r.sectorKey)
	if sector == nil {
		return dnd.Container{}, false
	}
	a, ok := sector.Get(itemID)
	if !ok {
		return dnd.Container{}, false
	}
	if grouping == dnd.KindSubsector {
		key := dnd.UnassignedKey
		if a.SubsectorID != nil {
			key = *a.SubsectorID
		}
		return dnd.Container{Kind: dnd.KindSubsector, Key: key}, true
	}
	return dnd.Container{Kind: dnd.KindCollaborator, Key: a.UserID}, true
}

// CacheFor returns the scope cache backing a container's board.
func (r *boardResolver) CacheFor(c dnd.Container) *cache.Cache {
	return r.ctrl.Cache(r.ScopeKeyFor(c))
}

// ScopeKeyFor returns the sync scope key to refetch for a container.
func (r *boardResolver) ScopeKeyFor(c dnd.Container) string {
	if c.Kind == dnd.KindList {
		return remote.Scope{Kind: remote.ScopeList, ListID: c.Key}.Key()
	}
	return r.sectorKey
}

// ItemsIn returns the container's item ids in current display order.
func (r *boardResolver) ItemsIn(c dnd.Container) []string {
	_, _, mode := r.snapshot()

	store := r.ctrl.Cache(r.ScopeKeyFor(c))
	if store == nil {
		return nil
	}

	var rows []model.Activity
	switch c.Kind {
	case dnd.KindList:
		for _, g := range store.ByList() {
			if g.Key == c.Key {
				rows = g.Rows
				break
			}
		}
	case dnd.KindSubsector:
		// The unassigned column maps to the grouping's "" bucket.
		groupKey := c.Key
		if groupKey == dnd.UnassignedKey {
			groupKey = ""
		}
		for _, g := range store.BySubsector() {
			if g.Key == groupKey {
				rows = g.Rows
				break
			}
		}
	default:
		for _, g := range store.ByAssignee() {
			if g.Key == c.Key {
				rows = g.Rows
				break
			}
		}
	}
	rows = board.Sorted(rows, c.ID(), r.orders, mode)

	ids := make([]string, len(rows))
	for i, a := range rows {
		ids[i] = a.ID
	}
	return ids
}
