package checklist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
)

func TestAddGroupRendersEmptyGroup(t *testing.T) {
	e := NewEditor()

	require.NoError(t, e.AddGroup("Prep"))

	groups := e.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "Prep", groups[0].Name)
	require.Len(t, groups[0].Entries, 1)
	assert.Empty(t, groups[0].Entries[0].Title)
}

func TestAddGroupRejectsBlankName(t *testing.T) {
	e := NewEditor()

	assert.Error(t, e.AddGroup(""))
	assert.Error(t, e.AddGroup("   "))
	assert.Empty(t, e.Groups())
}

func TestGroupIdentityIsExactString(t *testing.T) {
	e := NewEditor()
	e.AddItem("prep", "a", "")
	e.AddItem("Prep", "b", "")
	e.AddItem("prep ", "c", "")

	// No case folding or whitespace normalization: three distinct groups.
	assert.Len(t, e.Groups(), 3)
}

func TestToggleRenameDelete(t *testing.T) {
	e := NewEditor()
	entry := e.AddItem("", "write tests", "")

	e.ToggleItem(entry.ID)
	done, total := e.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, total)

	e.RenameItem(entry.ID, "write more tests")
	assert.Equal(t, "write more tests", e.Entries()[0].Title)

	e.DeleteItem(entry.ID)
	_, total = e.Progress()
	assert.Zero(t, total)
}

func TestRenameGroupBlankNameIsNoOp(t *testing.T) {
	e := NewEditor()
	e.AddItem("Old", "a", "")

	e.RenameGroup("Old", "  ")
	assert.Equal(t, "Old", e.Groups()[0].Name)

	e.RenameGroup("Old", "New")
	assert.Equal(t, "New", e.Groups()[0].Name)
}

func TestDeleteGroupRemovesAllItsEntries(t *testing.T) {
	e := NewEditor()
	e.AddItem("keep", "a", "")
	e.AddItem("drop", "b", "")
	e.AddItem("drop", "c", "")

	e.DeleteGroup("drop")

	groups := e.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "keep", groups[0].Name)
}

func TestPasteMultilineSplitsTrimsAndDropsEmpties(t *testing.T) {
	e := NewEditor()

	added := e.PasteMultiline("Prep", "  buy milk  \n\n  call bank\n   \nship release")

	assert.Equal(t, 3, added)
	groups := e.Groups()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Entries, 3)
	assert.Equal(t, "buy milk", groups[0].Entries[0].Title)
	assert.Equal(t, "call bank", groups[0].Entries[1].Title)
	assert.Equal(t, "ship release", groups[0].Entries[2].Title)
}

func TestProgressSkipsGroupPlaceholders(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.AddGroup("Empty"))
	first := e.AddItem("Work", "a", "")
	e.AddItem("Work", "b", "")
	e.ToggleItem(first.ID)

	done, total := e.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)
}

func TestGroupsPreserveFirstSeenOrder(t *testing.T) {
	e := NewEditor()
	e.AddItem("B", "1", "")
	e.AddItem("A", "2", "")
	e.AddItem("B", "3", "")

	groups := e.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "B", groups[0].Name)
	assert.Equal(t, "A", groups[1].Name)
	assert.Len(t, groups[0].Entries, 2)
}

// replaceRecorder captures full-replace calls without a real store.
type replaceRecorder struct {
	remote.Store
	calls [][]model.Subtask
	err   error
}

func (r *replaceRecorder) ReplaceSubtasks(_ context.Context, _ string, subtasks []model.Subtask) error {
	r.calls = append(r.calls, subtasks)
	return r.err
}

func TestPersistFiltersPlaceholdersAndIndexesByPosition(t *testing.T) {
	e := NewEditor()
	require.NoError(t, e.AddGroup("Prep"))
	e.AddItem("Prep", "first", "")
	e.AddItem("", "second", "")

	rec := &replaceRecorder{}
	require.NoError(t, e.Persist(context.Background(), rec, "act1"))

	require.Len(t, rec.calls, 1)
	saved := rec.calls[0]
	require.Len(t, saved, 2)
	assert.Equal(t, "first", saved[0].Title)
	assert.Equal(t, 0, saved[0].OrderIndex)
	assert.Equal(t, "Prep", saved[0].ChecklistGroup)
	assert.Equal(t, "second", saved[1].Title)
	assert.Equal(t, 1, saved[1].OrderIndex)
	assert.Equal(t, "act1", saved[1].ActivityID)
}

func TestPersistIsIdempotent(t *testing.T) {
	e := NewEditor()
	e.AddItem("", "only", "")

	rec := &replaceRecorder{}
	require.NoError(t, e.Persist(context.Background(), rec, "act1"))
	require.NoError(t, e.Persist(context.Background(), rec, "act1"))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, rec.calls[0], rec.calls[1])
}

func TestPersistFailureSurfacesPartialSave(t *testing.T) {
	e := NewEditor()
	e.AddItem("", "only", "")

	rec := &replaceRecorder{err: errors.New("connection reset")}
	err := e.Persist(context.Background(), rec, "act1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialSave))

	// The draft is untouched so the whole save can be retried.
	_, total := e.Progress()
	assert.Equal(t, 1, total)
}
