package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dcosta/activity-board/internal/model"
)

// Table names used by queries, mutations, and change subscriptions.
const (
	TableActivities = "activities"
	TableSubtasks   = "subtasks"
	TableLists      = "personal_lists"
)

// ErrNotFound is returned when a row targeted by id does not exist.
var ErrNotFound = errors.New("row not found")

// EventType identifies the kind of change carried by a ChangeEvent.
type EventType string

// Change event types emitted by the store's realtime feed.
const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChangeEvent is one insert/update/delete notification from the store's
// change feed. New is nil for deletes, Old is nil for inserts. Row payloads
// are untrusted and must go through the decoders before typed use.
type ChangeEvent struct {
	Type  EventType
	Table string
	New   map[string]any
	Old   map[string]any
}

// ScopeKind selects the filter dimension a Scope applies.
type ScopeKind string

// Scope kinds.
const (
	ScopeSector       ScopeKind = "sector"
	ScopeList         ScopeKind = "list"
	ScopeCollaborator ScopeKind = "collaborator"
	ScopeCalendar     ScopeKind = "calendar"
)

// Scope bounds which activity rows a cache tracks: one sector board, one
// personal list, one collaborator's column set, or a calendar window.
// Every scope excludes archived activities; the archive has its own query.
type Scope struct {
	Kind     ScopeKind
	SectorID string
	ListID   string
	UserID   string

	// SubsectorID optionally narrows a collaborator scope to one subsector.
	SubsectorID string

	// From and To bound a calendar scope by due date (inclusive From,
	// exclusive To).
	From time.Time
	To   time.Time
}

// Key returns the stable identity of this scope, used for subscription
// bookkeeping and cache lookup.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeList:
		return fmt.Sprintf("list:%s", s.ListID)
	case ScopeCollaborator:
		return fmt.Sprintf("collab:%s:%s:%s", s.SectorID, s.UserID, s.SubsectorID)
	case ScopeCalendar:
		return fmt.Sprintf("calendar:%s:%s:%s",
			s.SectorID, s.From.Format("2006-01-02"), s.To.Format("2006-01-02"))
	default:
		return fmt.Sprintf("sector:%s", s.SectorID)
	}
}

// Matches reports whether a raw change-event row belongs to this scope.
// Events for rows outside the scope are ignored without a refetch. Subtask
// rows carry no owner columns, so they always match and let the debounced
// refetch sort out relevance.
func (s Scope) Matches(table string, row map[string]any) bool {
	if table != TableActivities || row == nil {
		return true
	}

	rowList, _ := row["list_id"].(string)
	rowSector, _ := row["sector_id"].(string)
	rowUser, _ := row["user_id"].(string)

	switch s.Kind {
	case ScopeList:
		return rowList == s.ListID
	case ScopeCollaborator:
		// Private list rows never surface in collaborator scopes.
		if rowList != "" {
			return false
		}
		return rowSector == s.SectorID && rowUser == s.UserID
	default:
		if rowList != "" && s.Kind != ScopeList {
			return false
		}
		return rowSector == s.SectorID
	}
}

// MatchesEvent reports whether a change event affects this scope. An
// update whose new row left the scope still matches through its old row,
// so the scope refetches and drops the moved row instead of rendering it
// until an unrelated refetch.
func (s Scope) MatchesEvent(e ChangeEvent) bool {
	if e.New == nil && e.Old == nil {
		return s.Matches(e.Table, nil)
	}
	if e.New != nil && s.Matches(e.Table, e.New) {
		return true
	}
	return e.Old != nil && s.Matches(e.Table, e.Old)
}

// ActivityPatch is a partial field update for one activity. Nil pointers
// leave the column untouched; pointing at the empty string clears nullable
// owner columns (subsector_id, list_id), and a nil-pointed DueDate is
// expressed via ClearDueDate.
type ActivityPatch struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
	UserID       *string
	SubsectorID  *string
	ListID       *string
}

// Empty reports whether the patch changes nothing.
func (p ActivityPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.UserID == nil && p.SubsectorID == nil && p.ListID == nil
}

// Store is the authoritative backing store for activities, subtasks, and
// personal lists. Implementations deliver change notifications for every
// successful mutation through Subscribe.
type Store interface {
	// ActivitiesInScope returns the non-archived activities matching the
	// scope, each expanded with its subtasks (sorted by order index) and
	// joined assignee profile.
	ActivitiesInScope(ctx context.Context, scope Scope) ([]model.Activity, error)
	ActivityByID(ctx context.Context, id string) (*model.Activity, error)
	CreateActivity(ctx context.Context, a model.Activity) (*model.Activity, error)
	UpdateActivityFields(ctx context.Context, id string, patch ActivityPatch) (*model.Activity, error)
	// DeleteActivity permanently removes an activity. Only archived
	// activities may be deleted.
	DeleteActivity(ctx context.Context, id string) error
	// ArchivedActivities returns the archive listing for a sector.
	ArchivedActivities(ctx context.Context, sectorID string) ([]model.Activity, error)

	// ReplaceSubtasks deletes every subtask of the activity and bulk-inserts
	// the given set, assigning order index by slice position. This is the
	// sole subtask write path; there is no partial update.
	ReplaceSubtasks(ctx context.Context, activityID string, subtasks []model.Subtask) error
	SubtasksForActivity(ctx context.Context, activityID string) ([]model.Subtask, error)

	Lists(ctx context.Context, ownerID string) ([]model.PersonalList, error)
	CreateList(ctx context.Context, list model.PersonalList) (*model.PersonalList, error)
	RenameList(ctx context.Context, id, name string) error
	DeleteList(ctx context.Context, id string) error

	Profiles(ctx context.Context, sectorID string) ([]model.Profile, error)

	// Subscribe registers fn for every change event on the given table and
	// returns an unsubscribe handle. fn is invoked after the mutation has
	// been committed.
	Subscribe(table string, fn func(ChangeEvent)) (unsubscribe func())
}
