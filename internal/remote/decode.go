package remote

import (
	"fmt"
	"time"

	"github.com/dcosta/activity-board/internal/model"
)

// DecodeError describes a row payload that could not be converted into a
// typed value. It carries enough context to pinpoint the offending field.
type DecodeError struct {
	Table  string
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s row: field %q: %s", e.Table, e.Field, e.Reason)
}

// decodeErr builds a DecodeError for a field.
func decodeErr(table, field, reason string) error {
	return &DecodeError{Table: table, Field: field, Reason: reason}
}

// rowString extracts a required string field.
func rowString(table string, row map[string]any, field string) (string, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return "", decodeErr(table, field, "missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", decodeErr(table, field, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

// rowOptString extracts an optional string field; absent or null yields nil.
func rowOptString(table string, row map[string]any, field string) (*string, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, decodeErr(table, field, fmt.Sprintf("expected string, got %T", v))
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

// rowBool extracts a boolean field, tolerating numeric 0/1 encodings.
func rowBool(table string, row map[string]any, field string) (bool, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return false, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	default:
		return false, decodeErr(table, field, fmt.Sprintf("expected bool, got %T", v))
	}
}

// rowInt extracts an integer field, tolerating float64 (JSON) encodings.
func rowInt(table string, row map[string]any, field string) (int, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return 0, nil
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	default:
		return 0, decodeErr(table, field, fmt.Sprintf("expected integer, got %T", v))
	}
}

// rowOptFloat extracts an optional numeric field.
func rowOptFloat(table string, row map[string]any, field string) (*float64, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case float64:
		return &t, nil
	case int:
		f := float64(t)
		return &f, nil
	case int64:
		f := float64(t)
		return &f, nil
	default:
		return nil, decodeErr(table, field, fmt.Sprintf("expected number, got %T", v))
	}
}

// rowTime extracts a required timestamp, accepting time.Time or RFC 3339.
func rowTime(table string, row map[string]any, field string) (time.Time, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, decodeErr(table, field, "invalid RFC 3339 timestamp")
		}
		return parsed, nil
	default:
		return time.Time{}, decodeErr(table, field, fmt.Sprintf("expected timestamp, got %T", v))
	}
}

// rowOptTime extracts an optional timestamp; absent or null yields nil.
func rowOptTime(table string, row map[string]any, field string) (*time.Time, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return nil, nil
	}
	t, err := rowTime(table, row, field)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}

// DecodeActivity converts an untrusted activity row payload (as carried by
// change events and the http adapter) into a typed Activity. Nested
// subtasks and joined profiles are not part of event payloads and are left
// empty.
func DecodeActivity(row map[string]any) (model.Activity, error) {
	const table = TableActivities

	var a model.Activity
	var err error

	if a.ID, err = rowString(table, row, "id"); err != nil {
		return model.Activity{}, err
	}
	if a.Title, err = rowString(table, row, "title"); err != nil {
		return model.Activity{}, err
	}
	if desc, derr := rowOptString(table, row, "description"); derr != nil {
		return model.Activity{}, derr
	} else if desc != nil {
		a.Description = *desc
	}
	if a.Status, err = rowString(table, row, "status"); err != nil {
		return model.Activity{}, err
	}
	switch a.Status {
	case model.StatusPending, model.StatusInProgress, model.StatusCompleted, model.StatusArchived:
	default:
		return model.Activity{}, decodeErr(table, "status", fmt.Sprintf("unknown status %q", a.Status))
	}
	if a.Priority, err = rowString(table, row, "priority"); err != nil {
		return model.Activity{}, err
	}
	switch a.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return model.Activity{}, decodeErr(table, "priority", fmt.Sprintf("unknown priority %q", a.Priority))
	}
	if a.SectorID, err = rowString(table, row, "sector_id"); err != nil {
		return model.Activity{}, err
	}
	if a.UserID, err = rowString(table, row, "user_id"); err != nil {
		return model.Activity{}, err
	}
	if a.CreatedBy, err = rowString(table, row, "created_by"); err != nil {
		return model.Activity{}, err
	}
	if a.SubsectorID, err = rowOptString(table, row, "subsector_id"); err != nil {
		return model.Activity{}, err
	}
	if a.ListID, err = rowOptString(table, row, "list_id"); err != nil {
		return model.Activity{}, err
	}
	if a.IsPrivate, err = rowBool(table, row, "is_private"); err != nil {
		return model.Activity{}, err
	}
	if a.DueDate, err = rowOptTime(table, row, "due_date"); err != nil {
		return model.Activity{}, err
	}
	if a.EstimatedTime, err = rowOptFloat(table, row, "estimated_time"); err != nil {
		return model.Activity{}, err
	}
	if a.CreatedAt, err = rowTime(table, row, "created_at"); err != nil {
		return model.Activity{}, err
	}
	if a.UpdatedAt, err = rowTime(table, row, "updated_at"); err != nil {
		return model.Activity{}, err
	}
	if a.CompletedAt, err = rowOptTime(table, row, "completed_at"); err != nil {
		return model.Activity{}, err
	}

	return a, nil
}

// DecodeSubtask converts an untrusted subtask row payload into a typed
// Subtask.
func DecodeSubtask(row map[string]any) (model.Subtask, error) {
	const table = TableSubtasks

	var st model.Subtask
	var err error

	if st.ID, err = rowString(table, row, "id"); err != nil {
		return model.Subtask{}, err
	}
	if st.ActivityID, err = rowString(table, row, "activity_id"); err != nil {
		return model.Subtask{}, err
	}
	if st.Title, err = rowString(table, row, "title"); err != nil {
		return model.Subtask{}, err
	}
	if desc, derr := rowOptString(table, row, "description"); derr != nil {
		return model.Subtask{}, derr
	} else if desc != nil {
		st.Description = *desc
	}
	if st.IsCompleted, err = rowBool(table, row, "is_completed"); err != nil {
		return model.Subtask{}, err
	}
	if st.OrderIndex, err = rowInt(table, row, "order_index"); err != nil {
		return model.Subtask{}, err
	}
	if group, gerr := rowOptString(table, row, "checklist_group"); gerr != nil {
		return model.Subtask{}, gerr
	} else if group != nil {
		st.ChecklistGroup = *group
	}
	if st.CreatedAt, err = rowTime(table, row, "created_at"); err != nil {
		return model.Subtask{}, err
	}
	if st.UpdatedAt, err = rowTime(table, row, "updated_at"); err != nil {
		return model.Subtask{}, err
	}

	return st, nil
}
