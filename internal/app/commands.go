package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dcosta/activity-board/internal/bus"
	"github.com/dcosta/activity-board/internal/checklist"
	"github.com/dcosta/activity-board/internal/dnd"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
)

// bootstrapMsg carries the initial roster and list data.
type bootstrapMsg struct {
	profiles []model.Profile
	lists    []model.PersonalList
	err      error
}

// activitySavedResultMsg is sent after an activity create or update.
type activitySavedResultMsg struct{ err error }

// listSavedResultMsg is sent after a personal list create or rename.
type listSavedResultMsg struct{ err error }

// checklistSavedResultMsg is sent after a checklist persist.
type checklistSavedResultMsg struct{ err error }

// archiveLoadedMsg carries the sector's archived activities.
type archiveLoadedMsg struct {
	rows []model.Activity
	err  error
}

// dropResultMsg is sent after a drag session completes.
type dropResultMsg struct {
	result dnd.Result
	err    error
}

// refreshTickMsg drives periodic re-rendering from the scope caches.
type refreshTickMsg time.Time

// refreshTick schedules the next render pass.
func refreshTick() tea.Cmd {
	return tea.Tick(400*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// bootstrap loads the collaborator roster and personal lists, then brings
// every board scope under synchronization.
func (m *Model) bootstrap() tea.Cmd {
	s := m.store
	ctrl := m.ctrl
	sector := m.sectorScope
	userID := m.userID
	return func() tea.Msg {
		ctx := context.Background()

		profiles, err := s.Profiles(ctx, sector.SectorID)
		if err != nil {
			return bootstrapMsg{err: err}
		}
		lists, err := s.Lists(ctx, userID)
		if err != nil {
			return bootstrapMsg{err: err}
		}

		ctrl.Initialize(ctx, sector)
		for _, l := range lists {
			ctrl.Initialize(ctx, remote.Scope{Kind: remote.ScopeList, ListID: l.ID})
		}

		return bootstrapMsg{profiles: profiles, lists: lists}
	}
}

// reloadLists refreshes the list roster after a list mutation.
func (m *Model) reloadLists() tea.Cmd {
	s := m.store
	ctrl := m.ctrl
	userID := m.userID
	return func() tea.Msg {
		ctx := context.Background()
		lists, err := s.Lists(ctx, userID)
		if err != nil {
			return bootstrapMsg{err: err}
		}
		for _, l := range lists {
			ctrl.Initialize(ctx, remote.Scope{Kind: remote.ScopeList, ListID: l.ID})
		}
		return bootstrapMsg{profiles: nil, lists: lists}
	}
}

// createActivity persists a new activity.
func (m *Model) createActivity(a model.Activity) tea.Cmd {
	s := m.store
	b := m.bus
	sectorID := m.sectorScope.SectorID
	creator := m.userID
	return func() tea.Msg {
		a.SectorID = sectorID
		a.CreatedBy = creator
		if a.ListID != nil {
			a.UserID = creator
		}
		_, err := s.CreateActivity(context.Background(), a)
		if err == nil {
			// Reconcile the boards without waiting on the change feed.
			b.PublishSoft(bus.Signal{})
		}
		return activitySavedResultMsg{err: err}
	}
}

// updateActivity persists edits from the activity form.
func (m *Model) updateActivity(a model.Activity) tea.Cmd {
	s := m.store
	b := m.bus
	return func() tea.Msg {
		patch := remote.ActivityPatch{
			Title:       &a.Title,
			Description: &a.Description,
			Status:      &a.Status,
			Priority:    &a.Priority,
			UserID:      &a.UserID,
		}
		if a.DueDate != nil {
			patch.DueDate = a.DueDate
		} else {
			patch.ClearDueDate = true
		}
		_, err := s.UpdateActivityFields(context.Background(), a.ID, patch)
		if err == nil {
			b.PublishSoft(bus.Signal{})
		}
		return activitySavedResultMsg{err: err}
	}
}

// archiveActivity moves an activity into the archive.
func (m *Model) archiveActivity(id string) tea.Cmd {
	s := m.store
	b := m.bus
	return func() tea.Msg {
		status := model.StatusArchived
		_, err := s.UpdateActivityFields(context.Background(), id,
			remote.ActivityPatch{Status: &status})
		if err == nil {
			b.PublishSoft(bus.Signal{})
		}
		return activitySavedResultMsg{err: err}
	}
}

// createList persists a new personal list for the current user.
func (m *Model) createList(name string) tea.Cmd {
	s := m.store
	ownerID := m.userID
	return func() tea.Msg {
		_, err := s.CreateList(context.Background(), model.PersonalList{
			Name:    name,
			OwnerID: ownerID,
		})
		return listSavedResultMsg{err: err}
	}
}

// renameList persists a list rename.
func (m *Model) renameList(id, name string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.RenameList(context.Background(), id, name)
		return listSavedResultMsg{err: err}
	}
}

// persistChecklist saves the checklist editor's state as the activity's
// full subtask set.
func (m *Model) persistChecklist(editor *checklist.Editor, activityID string) tea.Cmd {
	s := m.store
	b := m.bus
	return func() tea.Msg {
		err := editor.Persist(context.Background(), s, activityID)
		if err == nil {
			b.PublishSoft(bus.Signal{})
		}
		return checklistSavedResultMsg{err: err}
	}
}

// loadArchive fetches the sector's archived activities.
func (m *Model) loadArchive() tea.Cmd {
	s := m.store
	sectorID := m.sectorScope.SectorID
	return func() tea.Msg {
		rows, err := s.ArchivedActivities(context.Background(), sectorID)
		return archiveLoadedMsg{rows: rows, err: err}
	}
}

// drop completes the active drag session.
func (m *Model) drop() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		result, err := engine.Drop(context.Background())
		return dropResultMsg{result: result, err: err}
	}
}

// refreshAll forces a refetch of every synchronized scope.
func (m *Model) refreshAll() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.RefetchAll(context.Background())
		return refreshTickMsg(time.Now())
	}
}
