package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dcosta/activity-board/internal/model"
)

// ActivitiesInScope returns the non-archived activities for a scope, each
// expanded with subtasks and the assignee profile. Sector-style scopes
// return newest first; personal lists keep creation order.
func (s *SQLiteStore) ActivitiesInScope(
	ctx context.Context,
	scope Scope,
) ([]model.Activity, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "status != ?")
	args = append(args, model.StatusArchived)

	order := "created_at DESC"
	switch scope.Kind {
	case ScopeList:
		conditions = append(conditions, "list_id = ?")
		args = append(args, scope.ListID)
		order = "created_at ASC"
	case ScopeCollaborator:
		conditions = append(conditions, "sector_id = ?", "user_id = ?", "list_id IS NULL")
		args = append(args, scope.SectorID, scope.UserID)
		if scope.SubsectorID != "" {
			conditions = append(conditions, "subsector_id = ?")
			args = append(args, scope.SubsectorID)
		}
	case ScopeCalendar:
		conditions = append(conditions, "sector_id = ?", "due_date >= ?", "due_date < ?")
		args = append(args, scope.SectorID, scope.From.UTC(), scope.To.UTC())
	default:
		conditions = append(conditions, "sector_id = ?", "list_id IS NULL")
		args = append(args, scope.SectorID)
	}

	query := "SELECT * FROM activities WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY " + order

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.expandActivities(ctx, activities); err != nil {
		return nil, err
	}

	return activities, nil
}

// ActivityByID retrieves a single activity with subtasks and assignee.
func (s *SQLiteStore) ActivityByID(
	ctx context.Context,
	id string,
) (*model.Activity, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM activities WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting activity %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting activity %s: %w", id, err)
		}
		return nil, fmt.Errorf("getting activity %s: %w", id, ErrNotFound)
	}

	a, err := scanActivity(rows)
	if err != nil {
		return nil, err
	}

	list := []model.Activity{a}
	if err := s.expandActivities(ctx, list); err != nil {
		return nil, err
	}

	return &list[0], nil
}

// CreateActivity inserts a new activity. Generates a UUID if ID is empty
// and applies the private/subsector exclusivity rule: a list activity is
// private and carries no subsector.
func (s *SQLiteStore) CreateActivity(
	ctx context.Context,
	a model.Activity,
) (*model.Activity, error) {
	if strings.TrimSpace(a.Title) == "" {
		return nil, fmt.Errorf("activity title must not be empty")
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" || a.Status == model.StatusArchived {
		// Activities always start non-archived.
		a.Status = model.StatusPending
	}
	if a.Priority == "" {
		a.Priority = model.PriorityMedium
	}
	if a.InList() {
		a.IsPrivate = true
		a.SubsectorID = nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (
			id, title, description, status, priority,
			due_date, estimated_time, is_private,
			sector_id, subsector_id, list_id, user_id, created_by,
			created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, a.Status, a.Priority,
		a.DueDate, a.EstimatedTime, boolToInt(a.IsPrivate),
		a.SectorID, a.SubsectorID, a.ListID, a.UserID, a.CreatedBy,
		a.CreatedAt, a.UpdatedAt, a.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating activity: %w", err)
	}

	s.notify(ChangeEvent{
		Type:  EventInsert,
		Table: TableActivities,
		New:   activityRow(a),
	})

	return &a, nil
}

// UpdateActivityFields applies a partial update to one activity.
// completed_at is stamped on the transition into completed and cleared on
// the transition out of it.
func (s *SQLiteStore) UpdateActivityFields(
	ctx context.Context,
	id string,
	patch ActivityPatch,
) (*model.Activity, error) {
	existing, err := s.ActivityByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return existing, nil
	}

	updated := *existing
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("activity title must not be empty")
		}
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		updated.DueDate = &due
	}
	if patch.ClearDueDate {
		updated.DueDate = nil
	}
	if patch.UserID != nil {
		updated.UserID = *patch.UserID
	}
	if patch.SubsectorID != nil {
		if *patch.SubsectorID == "" {
			updated.SubsectorID = nil
		} else {
			sub := *patch.SubsectorID
			updated.SubsectorID = &sub
			updated.ListID = nil
			updated.IsPrivate = false
		}
	}
	if patch.ListID != nil {
		if *patch.ListID == "" {
			updated.ListID = nil
			updated.IsPrivate = false
		} else {
			list := *patch.ListID
			updated.ListID = &list
			updated.SubsectorID = nil
			updated.IsPrivate = true
		}
	}

	now := time.Now().UTC()
	updated.UpdatedAt = now
	if patch.Status != nil {
		updated.Status = *patch.Status
		if updated.Status == model.StatusCompleted && existing.Status != model.StatusCompleted {
			updated.CompletedAt = &now
		} else if updated.Status != model.StatusCompleted {
			updated.CompletedAt = nil
		}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE activities SET
			title = ?, description = ?, status = ?, priority = ?,
			due_date = ?, estimated_time = ?, is_private = ?,
			subsector_id = ?, list_id = ?, user_id = ?,
			updated_at = ?, completed_at = ?
		WHERE id = ?`,
		updated.Title, updated.Description, updated.Status, updated.Priority,
		updated.DueDate, updated.EstimatedTime, boolToInt(updated.IsPrivate),
		updated.SubsectorID, updated.ListID, updated.UserID,
		updated.UpdatedAt, updated.CompletedAt,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating activity %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("updating activity %s: %w", id, ErrNotFound)
	}

	s.notify(ChangeEvent{
		Type:  EventUpdate,
		Table: TableActivities,
		New:   activityRow(updated),
		Old:   activityRow(*existing),
	})

	return &updated, nil
}

// DeleteActivity permanently removes an activity. Deletion is only
// available from the archive, so the row must be archived first.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id string) error {
	existing, err := s.ActivityByID(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsArchived() {
		return fmt.Errorf("activity %s is not archived", id)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting activity %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting activity %s: %w", id, ErrNotFound)
	}

	s.notify(ChangeEvent{
		Type:  EventDelete,
		Table: TableActivities,
		Old:   activityRow(*existing),
	})

	return nil
}

// ArchivedActivities returns the archive listing for a sector, most
// recently updated first.
func (s *SQLiteStore) ArchivedActivities(
	ctx context.Context,
	sectorID string,
) ([]model.Activity, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM activities
		WHERE sector_id = ? AND status = ?
		ORDER BY updated_at DESC`,
		sectorID, model.StatusArchived)
	if err != nil {
		return nil, fmt.Errorf("querying archived activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.expandActivities(ctx, activities); err != nil {
		return nil, err
	}

	return activities, nil
}

// ReplaceSubtasks deletes every subtask of an activity and bulk-inserts the
// given set in one transaction, assigning order_index by slice position.
// A single subtasks update event is emitted after commit.
func (s *SQLiteStore) ReplaceSubtasks(
	ctx context.Context,
	activityID string,
	subtasks []model.Subtask,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM subtasks WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("clearing subtasks for activity %s: %w", activityID, err)
	}

	const query = `
		INSERT INTO subtasks (
			id, activity_id, title, description,
			is_completed, order_index, checklist_group,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing subtask insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, st := range subtasks {
		if st.ID == "" {
			st.ID = uuid.New().String()
		}
		if st.CreatedAt.IsZero() {
			st.CreatedAt = now
		}
		_, err = stmt.ExecContext(ctx,
			st.ID, activityID, st.Title, st.Description,
			boolToInt(st.IsCompleted), i, st.ChecklistGroup,
			st.CreatedAt, now,
		)
		if err != nil {
			return fmt.Errorf("inserting subtask %d for activity %s: %w", i, activityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing subtask replace: %w", err)
	}

	s.notify(ChangeEvent{
		Type:  EventUpdate,
		Table: TableSubtasks,
		New:   map[string]any{"activity_id": activityID},
	})

	return nil
}

// SubtasksForActivity returns all subtasks of an activity ordered by
// order_index, ties broken by insertion order.
func (s *SQLiteStore) SubtasksForActivity(
	ctx context.Context,
	activityID string,
) ([]model.Subtask, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM subtasks
		WHERE activity_id = ?
		ORDER BY order_index, created_at`,
		activityID)
	if err != nil {
		return nil, fmt.Errorf("querying subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []model.Subtask
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

// Profiles returns the collaborator profiles of a sector, ordered by name.
func (s *SQLiteStore) Profiles(
	ctx context.Context,
	sectorID string,
) ([]model.Profile, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM profiles WHERE sector_id = ? ORDER BY name", sectorID)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Role, &p.SectorID, &p.AvatarURL, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// expandActivities attaches subtasks and assignee profiles to a fetched
// activity slice in place.
func (s *SQLiteStore) expandActivities(
	ctx context.Context,
	activities []model.Activity,
) error {
	for i := range activities {
		subtasks, err := s.SubtasksForActivity(ctx, activities[i].ID)
		if err != nil {
			return fmt.Errorf("loading subtasks for activity %s: %w", activities[i].ID, err)
		}
		activities[i].Subtasks = subtasks

		var p model.Profile
		err = s.db.QueryRowxContext(ctx,
			"SELECT * FROM profiles WHERE id = ?", activities[i].UserID).Scan(
			&p.ID, &p.Name, &p.Role, &p.SectorID, &p.AvatarURL, &p.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return fmt.Errorf("loading profile for activity %s: %w", activities[i].ID, err)
		}
		activities[i].Assignee = &p

		if activities[i].SubsectorID != nil {
			var name string
			err = s.db.GetContext(ctx, &name,
				"SELECT name FROM subsectors WHERE id = ?", *activities[i].SubsectorID)
			if err == nil {
				activities[i].SubsectorName = name
			} else if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("loading subsector for activity %s: %w", activities[i].ID, err)
			}
		}
	}
	return nil
}

// scanActivity scans an activity row from a sqlx.Rows result set.
func scanActivity(rows *sqlx.Rows) (model.Activity, error) {
	var (
		a             model.Activity
		dueDate       *time.Time
		estimatedTime *float64
		privateInt    int
		subsectorID   *string
		listID        *string
		completedAt   *time.Time
	)

	err := rows.Scan(
		&a.ID, &a.Title, &a.Description, &a.Status, &a.Priority,
		&dueDate, &estimatedTime, &privateInt,
		&a.SectorID, &subsectorID, &listID, &a.UserID, &a.CreatedBy,
		&a.CreatedAt, &a.UpdatedAt, &completedAt,
	)
	if err != nil {
		return model.Activity{}, fmt.Errorf("scanning activity row: %w", err)
	}

	a.DueDate = dueDate
	a.EstimatedTime = estimatedTime
	a.IsPrivate = privateInt != 0
	a.SubsectorID = subsectorID
	a.ListID = listID
	a.CompletedAt = completedAt

	return a, nil
}

// scanSubtask scans a subtask row from a sqlx.Rows result set.
func scanSubtask(rows *sqlx.Rows) (model.Subtask, error) {
	var (
		st           model.Subtask
		completedInt int
	)

	err := rows.Scan(
		&st.ID, &st.ActivityID, &st.Title, &st.Description,
		&completedInt, &st.OrderIndex, &st.ChecklistGroup,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return model.Subtask{}, fmt.Errorf("scanning subtask row: %w", err)
	}

	st.IsCompleted = completedInt != 0
	return st, nil
}

// activityRow builds the raw change-event payload for an activity.
func activityRow(a model.Activity) map[string]any {
	row := map[string]any{
		"id":         a.ID,
		"title":      a.Title,
		"status":     a.Status,
		"priority":   a.Priority,
		"is_private": a.IsPrivate,
		"sector_id":  a.SectorID,
		"user_id":    a.UserID,
		"created_by": a.CreatedBy,
		"created_at": a.CreatedAt,
		"updated_at": a.UpdatedAt,
	}
	if a.Description != "" {
		row["description"] = a.Description
	}
	if a.SubsectorID != nil {
		row["subsector_id"] = *a.SubsectorID
	}
	if a.ListID != nil {
		row["list_id"] = *a.ListID
	}
	if a.DueDate != nil {
		row["due_date"] = *a.DueDate
	}
	if a.EstimatedTime != nil {
		row["estimated_time"] = *a.EstimatedTime
	}
	if a.CompletedAt != nil {
		row["completed_at"] = *a.CompletedAt
	}
	return row
}
