package remote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
	"github.com/dcosta/activity-board/tests/testutil"
)

func strPtr(s string) *string { return &s }

func TestCreateActivityDefaults(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)

	a, err := s.CreateActivity(context.Background(), model.Activity{
		Title:     "design review",
		SectorID:  sectorID,
		UserID:    alice,
		CreatedBy: alice,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, model.StatusPending, a.Status)
	assert.Equal(t, model.PriorityMedium, a.Priority)
	assert.False(t, a.IsPrivate)
}

func TestCreateActivityRejectsBlankTitle(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)

	_, err := s.CreateActivity(context.Background(), model.Activity{
		Title:    "   ",
		SectorID: sectorID,
		UserID:   alice,
	})
	assert.Error(t, err)
}

func TestCreateListActivityIsPrivateWithoutSubsector(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	list, err := s.CreateList(ctx, model.PersonalList{Name: "Errands", OwnerID: alice})
	require.NoError(t, err)

	sub, err := s.CreateSubsector(ctx, model.Subsector{SectorID: sectorID, Name: "Backend"})
	require.NoError(t, err)

	a, err := s.CreateActivity(ctx, model.Activity{
		Title:       "buy stamps",
		SectorID:    sectorID,
		UserID:      alice,
		CreatedBy:   alice,
		ListID:      &list.ID,
		SubsectorID: &sub.ID,
	})
	require.NoError(t, err)

	assert.True(t, a.IsPrivate)
	assert.Nil(t, a.SubsectorID)
}

func TestSectorScopeExcludesListAndArchivedRows(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, bob := testutil.SeedSector(t, s)
	ctx := context.Background()

	testutil.SeedActivity(t, s, sectorID, alice, "board item")
	testutil.SeedActivity(t, s, sectorID, bob, "another board item")

	list, err := s.CreateList(ctx, model.PersonalList{Name: "Private", OwnerID: alice})
	require.NoError(t, err)
	testutil.SeedListActivity(t, s, sectorID, alice, list.ID, "hidden item")

	archived := testutil.SeedActivity(t, s, sectorID, alice, "old item")
	status := model.StatusArchived
	_, err = s.UpdateActivityFields(ctx, archived.ID, remote.ActivityPatch{Status: &status})
	require.NoError(t, err)

	rows, err := s.ActivitiesInScope(ctx, remote.Scope{
		Kind:     remote.ScopeSector,
		SectorID: sectorID,
	})
	require.NoError(t, err)

	titles := make([]string, len(rows))
	for i, a := range rows {
		titles[i] = a.Title
	}
	assert.ElementsMatch(t, []string{"board item", "another board item"}, titles)
}

func TestListScopeKeepsCreationOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	list, err := s.CreateList(ctx, model.PersonalList{Name: "Reading", OwnerID: alice})
	require.NoError(t, err)

	for _, title := range []string{"first", "second", "third"} {
		testutil.SeedListActivity(t, s, sectorID, alice, list.ID, title)
	}

	rows, err := s.ActivitiesInScope(ctx, remote.Scope{
		Kind:   remote.ScopeList,
		ListID: list.ID,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "first", rows[0].Title)
	assert.Equal(t, "third", rows[2].Title)
}

func TestCollaboratorScopeFiltersUserAndSubsector(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, bob := testutil.SeedSector(t, s)
	ctx := context.Background()

	sub, err := s.CreateSubsector(ctx, model.Subsector{SectorID: sectorID, Name: "Backend"})
	require.NoError(t, err)

	mine := testutil.SeedActivity(t, s, sectorID, alice, "mine")
	_, err = s.UpdateActivityFields(ctx, mine.ID, remote.ActivityPatch{SubsectorID: &sub.ID})
	require.NoError(t, err)
	testutil.SeedActivity(t, s, sectorID, alice, "mine elsewhere")
	testutil.SeedActivity(t, s, sectorID, bob, "not mine")

	rows, err := s.ActivitiesInScope(ctx, remote.Scope{
		Kind:        remote.ScopeCollaborator,
		SectorID:    sectorID,
		UserID:      alice,
		SubsectorID: sub.ID,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mine", rows[0].Title)
}

func TestCalendarScopeBoundsDueDates(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	inside := from.Add(36 * time.Hour)
	outside := from.AddDate(0, 0, 10)

	a := testutil.SeedActivity(t, s, sectorID, alice, "due soon")
	_, err := s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{DueDate: &inside})
	require.NoError(t, err)

	b := testutil.SeedActivity(t, s, sectorID, alice, "due later")
	_, err = s.UpdateActivityFields(ctx, b.ID, remote.ActivityPatch{DueDate: &outside})
	require.NoError(t, err)

	rows, err := s.ActivitiesInScope(ctx, remote.Scope{
		Kind:     remote.ScopeCalendar,
		SectorID: sectorID,
		From:     from,
		To:       from.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "due soon", rows[0].Title)
}

func TestUpdateStampsCompletedAtOnTransition(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	a := testutil.SeedActivity(t, s, sectorID, alice, "finish me")

	completed := model.StatusCompleted
	updated, err := s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)

	// Staying completed does not re-stamp.
	stamp := *updated.CompletedAt
	high := model.PriorityHigh
	updated, err = s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{Priority: &high})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, stamp.Unix(), updated.CompletedAt.Unix())

	// Leaving completed clears the stamp.
	pending := model.StatusPending
	updated, err = s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{Status: &pending})
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)
}

func TestUpdateMovesBetweenListAndSubsectorExclusively(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	list, err := s.CreateList(ctx, model.PersonalList{Name: "Errands", OwnerID: alice})
	require.NoError(t, err)
	sub, err := s.CreateSubsector(ctx, model.Subsector{SectorID: sectorID, Name: "Ops"})
	require.NoError(t, err)

	a := testutil.SeedActivity(t, s, sectorID, alice, "mover")

	updated, err := s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{ListID: &list.ID})
	require.NoError(t, err)
	assert.True(t, updated.IsPrivate)
	assert.Nil(t, updated.SubsectorID)

	updated, err = s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{SubsectorID: &sub.ID})
	require.NoError(t, err)
	assert.False(t, updated.IsPrivate)
	assert.Nil(t, updated.ListID)
	require.NotNil(t, updated.SubsectorID)
	assert.Equal(t, sub.ID, *updated.SubsectorID)
}

func TestUpdateEmitsSingleChangeEventWithOldAndNew(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, bob := testutil.SeedSector(t, s)
	ctx := context.Background()

	a := testutil.SeedActivity(t, s, sectorID, alice, "watched")

	var events []remote.ChangeEvent
	cancel := s.Subscribe(remote.TableActivities, func(e remote.ChangeEvent) {
		events = append(events, e)
	})
	defer cancel()

	_, err := s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{UserID: &bob})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, remote.EventUpdate, events[0].Type)
	assert.Equal(t, alice, events[0].Old["user_id"])
	assert.Equal(t, bob, events[0].New["user_id"])
}

func TestDeleteRequiresArchivedStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	a := testutil.SeedActivity(t, s, sectorID, alice, "still active")

	err := s.DeleteActivity(ctx, a.ID)
	assert.Error(t, err)

	status := model.StatusArchived
	_, err = s.UpdateActivityFields(ctx, a.ID, remote.ActivityPatch{Status: &status})
	require.NoError(t, err)

	require.NoError(t, s.DeleteActivity(ctx, a.ID))

	_, err = s.ActivityByID(ctx, a.ID)
	assert.True(t, errors.Is(err, remote.ErrNotFound))
}

func TestArchivedActivitiesListing(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	testutil.SeedActivity(t, s, sectorID, alice, "active")
	old := testutil.SeedActivity(t, s, sectorID, alice, "done with")
	status := model.StatusArchived
	_, err := s.UpdateActivityFields(ctx, old.ID, remote.ActivityPatch{Status: &status})
	require.NoError(t, err)

	rows, err := s.ArchivedActivities(ctx, sectorID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "done with", rows[0].Title)
}

func TestReplaceSubtasksIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	a := testutil.SeedActivity(t, s, sectorID, alice, "with checklist")

	set := []model.Subtask{
		{Title: "one", ChecklistGroup: "Prep"},
		{Title: "two", IsCompleted: true},
	}
	require.NoError(t, s.ReplaceSubtasks(ctx, a.ID, set))

	first, err := s.SubtasksForActivity(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 0, first[0].OrderIndex)
	assert.Equal(t, 1, first[1].OrderIndex)

	// Replaying the same replace yields the same two rows, not four.
	require.NoError(t, s.ReplaceSubtasks(ctx, a.ID, first))

	second, err := s.SubtasksForActivity(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "one", second[0].Title)
	assert.True(t, second[1].IsCompleted)
}

func TestReplaceSubtasksEmitsOneEvent(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	a := testutil.SeedActivity(t, s, sectorID, alice, "with checklist")

	events := 0
	cancel := s.Subscribe(remote.TableSubtasks, func(e remote.ChangeEvent) {
		events++
		assert.Equal(t, a.ID, e.New["activity_id"])
	})
	defer cancel()

	require.NoError(t, s.ReplaceSubtasks(ctx, a.ID, []model.Subtask{
		{Title: "one"}, {Title: "two"}, {Title: "three"},
	}))

	assert.Equal(t, 1, events)
}

func TestActivitiesExpandSubtasksAndAssignee(t *testing.T) {
	s := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, s)
	ctx := context.Background()

	a := testutil.SeedActivity(t, s, sectorID, alice, "expanded")
	require.NoError(t, s.ReplaceSubtasks(ctx, a.ID, []model.Subtask{
		{Title: "sub"},
	}))

	rows, err := s.ActivitiesInScope(ctx, remote.Scope{
		Kind:     remote.ScopeSector,
		SectorID: sectorID,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Subtasks, 1)
	require.NotNil(t, rows[0].Assignee)
	assert.Equal(t, "Alice", rows[0].Assignee.Name)
}

func TestListsCRUD(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, alice, bob := testutil.SeedSector(t, s)
	ctx := context.Background()

	list, err := s.CreateList(ctx, model.PersonalList{Name: "Mine", OwnerID: alice})
	require.NoError(t, err)

	_, err = s.CreateList(ctx, model.PersonalList{Name: "Theirs", OwnerID: bob})
	require.NoError(t, err)

	lists, err := s.Lists(ctx, alice)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Mine", lists[0].Name)

	require.NoError(t, s.RenameList(ctx, list.ID, "Renamed"))
	lists, err = s.Lists(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", lists[0].Name)

	require.NoError(t, s.DeleteList(ctx, list.ID))
	lists, err = s.Lists(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestUpdateUnknownActivity(t *testing.T) {
	s := testutil.NewTestStore(t)
	testutil.SeedSector(t, s)

	_, err := s.UpdateActivityFields(context.Background(), "nope",
		remote.ActivityPatch{Title: strPtr("x")})
	assert.True(t, errors.Is(err, remote.ErrNotFound))
}
