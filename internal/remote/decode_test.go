package remote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validActivityRow() map[string]any {
	return map[string]any{
		"id":         "a1",
		"title":      "ship it",
		"status":     "pending",
		"priority":   "medium",
		"sector_id":  "sec1",
		"user_id":    "u1",
		"created_by": "u1",
		"is_private": false,
		"created_at": "2026-08-01T10:00:00Z",
		"updated_at": "2026-08-01T10:00:00Z",
	}
}

func TestDecodeActivityHappyPath(t *testing.T) {
	row := validActivityRow()
	row["description"] = "some detail"
	row["list_id"] = "l1"
	row["is_private"] = float64(1) // JSON numeric boolean
	row["due_date"] = "2026-09-01T00:00:00Z"

	a, err := DecodeActivity(row)
	require.NoError(t, err)

	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "some detail", a.Description)
	require.NotNil(t, a.ListID)
	assert.Equal(t, "l1", *a.ListID)
	assert.True(t, a.IsPrivate)
	require.NotNil(t, a.DueDate)
	assert.Equal(t, 2026, a.DueDate.Year())
}

func TestDecodeActivityRejectsUnknownStatus(t *testing.T) {
	row := validActivityRow()
	row["status"] = "paused"

	_, err := DecodeActivity(row)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "status", decodeErr.Field)
}

func TestDecodeActivityRejectsUnknownPriority(t *testing.T) {
	row := validActivityRow()
	row["priority"] = "urgent"

	var decodeErr *DecodeError
	_, err := DecodeActivity(row)
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "priority", decodeErr.Field)
}

func TestDecodeActivityMissingRequiredField(t *testing.T) {
	row := validActivityRow()
	delete(row, "title")

	var decodeErr *DecodeError
	_, err := DecodeActivity(row)
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "title", decodeErr.Field)
	assert.Equal(t, "missing", decodeErr.Reason)
}

func TestDecodeActivityWrongFieldType(t *testing.T) {
	row := validActivityRow()
	row["title"] = 42

	var decodeErr *DecodeError
	_, err := DecodeActivity(row)
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "title", decodeErr.Field)
}

func TestDecodeActivityEmptyOptionalStringIsNil(t *testing.T) {
	row := validActivityRow()
	row["list_id"] = ""

	a, err := DecodeActivity(row)
	require.NoError(t, err)
	assert.Nil(t, a.ListID)
}

func TestDecodeSubtask(t *testing.T) {
	st, err := DecodeSubtask(map[string]any{
		"id":              "s1",
		"activity_id":     "a1",
		"title":           "step one",
		"is_completed":    true,
		"order_index":     float64(3),
		"checklist_group": "Prep",
		"created_at":      "2026-08-01T10:00:00Z",
		"updated_at":      "2026-08-01T10:00:00Z",
	})
	require.NoError(t, err)

	assert.True(t, st.IsCompleted)
	assert.Equal(t, 3, st.OrderIndex)
	assert.Equal(t, "Prep", st.ChecklistGroup)
}

func TestScopeMatchesChangeRows(t *testing.T) {
	listScope := Scope{Kind: ScopeList, ListID: "l1"}
	sectorScope := Scope{Kind: ScopeSector, SectorID: "sec1"}

	listRow := map[string]any{"list_id": "l1", "sector_id": "sec1", "user_id": "u1"}
	boardRow := map[string]any{"sector_id": "sec1", "user_id": "u1"}
	otherSector := map[string]any{"sector_id": "sec2", "user_id": "u1"}

	assert.True(t, listScope.Matches(TableActivities, listRow))
	assert.False(t, listScope.Matches(TableActivities, boardRow))

	assert.True(t, sectorScope.Matches(TableActivities, boardRow))
	assert.False(t, sectorScope.Matches(TableActivities, otherSector))

	// Subtask rows carry no scope columns and always match.
	assert.True(t, listScope.Matches(TableSubtasks, map[string]any{"activity_id": "a1"}))
}

func TestScopeMatchesEventOnEitherRow(t *testing.T) {
	sectorScope := Scope{Kind: ScopeSector, SectorID: "sec1"}

	boardRow := map[string]any{"sector_id": "sec1", "user_id": "u1"}
	listRow := map[string]any{"sector_id": "sec1", "user_id": "u1", "list_id": "l9"}
	otherSector := map[string]any{"sector_id": "sec2", "user_id": "u1"}

	// An update moving a row out of the scope still matches via Old.
	assert.True(t, sectorScope.MatchesEvent(ChangeEvent{
		Type: EventUpdate, Table: TableActivities, Old: boardRow, New: listRow,
	}))
	// And one moving a row in matches via New.
	assert.True(t, sectorScope.MatchesEvent(ChangeEvent{
		Type: EventUpdate, Table: TableActivities, Old: listRow, New: boardRow,
	}))

	assert.False(t, sectorScope.MatchesEvent(ChangeEvent{
		Type: EventUpdate, Table: TableActivities, Old: otherSector, New: otherSector,
	}))
	assert.True(t, sectorScope.MatchesEvent(ChangeEvent{
		Type: EventInsert, Table: TableActivities, New: boardRow,
	}))
	assert.False(t, sectorScope.MatchesEvent(ChangeEvent{
		Type: EventDelete, Table: TableActivities, Old: otherSector,
	}))
}
