// Package dnd translates completed drag gestures into same-container
// reorders or cross-container moves, with optimistic cache updates,
// exactly one persistence call per drag, and refetch-based reconciliation.
package dnd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"

	"github.com/dcosta/activity-board/internal/bus"
	"github.com/dcosta/activity-board/internal/cache"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/order"
	"github.com/dcosta/activity-board/internal/remote"
	appsync "github.com/dcosta/activity-board/internal/sync"
)

// DefaultThreshold is the minimum movement before a pick-up counts as a
// drag instead of a click.
const DefaultThreshold = 8

// ErrDragActive is returned when a drag begins while another is in flight.
// Only one drag session is permitted system-wide.
var ErrDragActive = errors.New("a drag session is already active")

// Kind identifies the grouping dimension a container belongs to.
type Kind string

// Container kinds.
const (
	KindCollaborator Kind = "collab"
	KindSubsector    Kind = "subsector"
	KindList         Kind = "list"
)

// UnassignedKey is the subsector container key for activities that have
// no subsector. Dropping onto it clears the activity's subsector.
const UnassignedKey = "none"

// Container is one drop zone: a collaborator column, a subsector column,
// or a personal list.
type Container struct {
	Kind Kind
	Key  string
}

// ID returns the container's drop-target id ("collab:<userID>" etc.).
func (c Container) ID() string {
	return string(c.Kind) + ":" + c.Key
}

// ParseContainer recognizes container drop-target ids by their prefix.
func ParseContainer(id string) (Container, bool) {
	prefix, key, ok := strings.Cut(id, ":")
	if !ok || key == "" {
		return Container{}, false
	}
	switch Kind(prefix) {
	case KindCollaborator, KindSubsector, KindList:
		return Container{Kind: Kind(prefix), Key: key}, true
	}
	return Container{}, false
}

// Resolver maps between items, containers, and the scope caches behind
// them. The board owning the engine supplies one; the engine itself is
// board-agnostic so the state machine is written (and tested) once.
type Resolver interface {
	// ContainerOf returns the container currently owning an item.
	ContainerOf(itemID string) (Container, bool)
	// CacheFor returns the scope cache backing a container's board.
	CacheFor(c Container) *cache.Cache
	// ScopeKeyFor returns the sync scope key to refetch for a container.
	ScopeKeyFor(c Container) string
	// ItemsIn returns the container's item ids in current display order.
	ItemsIn(c Container) []string
}

// Result classifies the outcome of a completed drag gesture.
type Result int

// Drop outcomes.
const (
	// ResultNone: dropped on empty space, onto itself, or while an
	// automatic sort is active. Silent no-op.
	ResultNone Result = iota
	// ResultClick: movement stayed below the drag threshold; callers
	// should open the item's detail view instead.
	ResultClick
	// ResultReordered: a same-container manual reorder was applied.
	ResultReordered
	// ResultMoved: the item moved to a different container and the move
	// was persisted.
	ResultMoved
)

// Session is the ephemeral state of one in-progress drag gesture.
type Session struct {
	ActiveID string
	Origin   Container
	Target   string
	moved    int
}

// Engine is the gesture state machine shared by all boards. While a drag
// is active, pointer movement only updates the drop-target candidate; no
// mutation happens until drop.
type Engine struct {
	store     remote.Store
	ctrl      *appsync.Controller
	bus       *bus.Bus
	orders    *order.Store
	resolver  Resolver
	threshold int

	mu          gosync.Mutex
	session     *Session
	modes       map[string]order.Mode
	defaultMode order.Mode
}

// New creates an engine. threshold <= 0 selects DefaultThreshold.
func New(
	store remote.Store,
	ctrl *appsync.Controller,
	b *bus.Bus,
	orders *order.Store,
	resolver Resolver,
	threshold int,
) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{
		store:     store,
		ctrl:      ctrl,
		bus:       b,
		orders:    orders,
		resolver:  resolver,
		threshold: threshold,
		modes:     make(map[string]order.Mode),
	}
}

// SetSortMode records a container's active sort mode. Drags only reorder
// under manual sort; automatic modes make same-container drops no-ops.
func (e *Engine) SetSortMode(c Container, mode order.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modes[c.ID()] = mode
}

// SetDefaultSortMode sets the mode assumed for containers without an
// explicit SetSortMode override.
func (e *Engine) SetDefaultSortMode(mode order.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultMode = mode
}

// sortMode returns a container's mode, falling back to the default and
// then to manual.
func (e *Engine) sortMode(c Container) order.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mode, ok := e.modes[c.ID()]; ok {
		return mode
	}
	if e.defaultMode != "" {
		return e.defaultMode
	}
	return order.ModeManual
}

// Begin opens a drag session for an item. Fails if another session is
// active or the item belongs to no known container.
func (e *Engine) Begin(itemID string) error {
	origin, ok := e.resolver.ContainerOf(itemID)
	if !ok {
		return fmt.Errorf("item %s is not on any board", itemID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		return ErrDragActive
	}
	e.session = &Session{ActiveID: itemID, Origin: origin}
	return nil
}

// MoveBy accumulates gesture movement. Movement below the threshold keeps
// the gesture a click.
func (e *Engine) MoveBy(delta int) {
	if delta < 0 {
		delta = -delta
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.moved += delta
	}
}

// Over updates the drop-target candidate. Visual-only; no mutation.
func (e *Engine) Over(targetID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Target = targetID
	}
}

// Active returns the current session, or nil.
func (e *Engine) Active() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	s := *e.session
	return &s
}

// Cancel discards the session without mutation.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = nil
}

// Drop consumes the session and applies the gesture: a click opens
// nothing here (callers handle ResultClick), a reorder splices the manual
// order, a cross-container move optimistically patches both scopes and
// issues exactly one persistence call.
func (e *Engine) Drop(ctx context.Context) (Result, error) {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return ResultNone, nil
	}
	session := *e.session
	e.session = nil
	e.mu.Unlock()

	if session.moved < e.threshold {
		return ResultClick, nil
	}
	if session.Target == "" {
		return ResultNone, nil
	}

	if target, ok := ParseContainer(session.Target); ok {
		if target == session.Origin {
			return ResultNone, nil
		}
		return e.moveAcross(ctx, session, target)
	}

	return e.reorderWithin(session)
}

// reorderWithin handles a drop onto another item in the same container.
// Only the manual sort mode is drag-mutable; automatic sorts ignore the
// drop entirely.
func (e *Engine) reorderWithin(session Session) (Result, error) {
	if session.Target == session.ActiveID {
		return ResultNone, nil
	}
	if e.sortMode(session.Origin) != order.ModeManual {
		return ResultNone, nil
	}

	targetContainer, ok := e.resolver.ContainerOf(session.Target)
	if !ok || targetContainer != session.Origin {
		return ResultNone, nil
	}

	container := session.Origin.ID()
	e.orders.Seed(container, e.resolver.ItemsIn(session.Origin))
	newIndex := e.orders.IndexOf(container, session.Target)
	if newIndex == -1 {
		return ResultNone, nil
	}
	if !e.orders.Move(container, session.ActiveID, newIndex) {
		return ResultNone, nil
	}
	return ResultReordered, nil
}

// moveAcross re-homes the dragged activity to the target container: both
// scope caches are patched in one synchronous step so the item never
// renders in two places, then a single field update is persisted. Success
// and failure both reconcile by refetching source and destination scopes.
func (e *Engine) moveAcross(
	ctx context.Context,
	session Session,
	target Container,
) (Result, error) {
	patch := containerPatch(target)

	sourceCache := e.resolver.CacheFor(session.Origin)
	targetCache := e.resolver.CacheFor(target)

	var undo func()
	if sourceCache != nil && sourceCache == targetCache {
		undo, _ = sourceCache.ApplyPatch(session.ActiveID, patch)
	} else if sourceCache != nil && targetCache != nil {
		if moved, ok := sourceCache.Get(session.ActiveID); ok {
			sourceCache.RemoveLocally(session.ActiveID)
			patched := moved
			applyTo(&patched, patch)
			targetCache.UpsertLocally(patched)
			undo = func() {
				targetCache.RemoveLocally(session.ActiveID)
				sourceCache.UpsertLocally(moved)
			}
		}
	}

	_, err := e.store.UpdateActivityFields(ctx, session.ActiveID, patch)
	if err != nil {
		// Roll the optimistic patch back, then refetch both scopes to
		// restore ground truth. No automatic retry.
		if undo != nil {
			undo()
		}
		e.reconcile(ctx, session.Origin, target)
		return ResultNone, fmt.Errorf("moving activity %s to %s: %w",
			session.ActiveID, target.ID(), err)
	}

	// Refetch both scopes, not just one, to resolve any race between the
	// optimistic patch and concurrent remote edits.
	e.reconcile(ctx, session.Origin, target)

	if e.bus != nil {
		if target.Kind == KindList {
			e.bus.PublishForce(bus.Signal{ListID: target.Key})
		}
		if session.Origin.Kind == KindList {
			e.bus.PublishSoft(bus.Signal{ListID: session.Origin.Key})
		} else {
			e.bus.PublishSoft(bus.Signal{})
		}
	}

	return ResultMoved, nil
}

// reconcile force-refetches the source and destination scopes.
func (e *Engine) reconcile(ctx context.Context, from, to Container) {
	fromKey := e.resolver.ScopeKeyFor(from)
	toKey := e.resolver.ScopeKeyFor(to)

	e.ctrl.Refetch(ctx, fromKey)
	if toKey != fromKey {
		e.ctrl.Refetch(ctx, toKey)
	}
}

// containerPatch builds the single-field owner update for a move into the
// given container.
func containerPatch(target Container) remote.ActivityPatch {
	key := target.Key
	switch target.Kind {
	case KindCollaborator:
		return remote.ActivityPatch{UserID: &key}
	case KindSubsector:
		if key == UnassignedKey {
			key = ""
		}
		return remote.ActivityPatch{SubsectorID: &key}
	default:
		return remote.ActivityPatch{ListID: &key}
	}
}

// applyTo mirrors the owner change onto a local activity copy.
func applyTo(a *model.Activity, patch remote.ActivityPatch) {
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
		list := *patch.ListID
		a.ListID = &list
		a.SubsectorID = nil
		a.IsPrivate = true
	}
}
