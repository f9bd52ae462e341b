package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcosta/activity-board/internal/model"
)

// Lists returns the personal lists owned by a user, oldest first.
func (s *SQLiteStore) Lists(
	ctx context.Context,
	ownerID string,
) ([]model.PersonalList, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM personal_lists WHERE owner_id = ? ORDER BY created_at",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	defer rows.Close()

	var lists []model.PersonalList
	for rows.Next() {
		var l model.PersonalList
		if err := rows.Scan(&l.ID, &l.Name, &l.OwnerID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning list row: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// CreateList inserts a new personal list. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateList(
	ctx context.Context,
	list model.PersonalList,
) (*model.PersonalList, error) {
	if strings.TrimSpace(list.Name) == "" {
		return nil, fmt.Errorf("list name must not be empty")
	}
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	list.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personal_lists (id, name, owner_id, created_at)
		VALUES (?, ?, ?, ?)`,
		list.ID, list.Name, list.OwnerID, list.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}

	s.notify(ChangeEvent{
		Type:  EventInsert,
		Table: TableLists,
		New: map[string]any{
			"id":       list.ID,
			"name":     list.Name,
			"owner_id": list.OwnerID,
		},
	})

	return &list, nil
}

// RenameList updates a list's name. Only the owner renames lists; ownership
// checks live with the caller since the store has no session concept.
func (s *SQLiteStore) RenameList(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("list name must not be empty")
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE personal_lists SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("renaming list %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("renaming list %s: %w", id, ErrNotFound)
	}

	s.notify(ChangeEvent{
		Type:  EventUpdate,
		Table: TableLists,
		New:   map[string]any{"id": id, "name": name},
	})

	return nil
}

// DeleteList removes a personal list. Its activities cascade away with it.
func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM personal_lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting list %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting list %s: %w", id, ErrNotFound)
	}

	s.notify(ChangeEvent{
		Type:  EventDelete,
		Table: TableLists,
		Old:   map[string]any{"id": id},
	})

	return nil
}

// CreateSector inserts a sector. Used by setup flows and tests.
func (s *SQLiteStore) CreateSector(
	ctx context.Context,
	sector model.Sector,
) (*model.Sector, error) {
	if sector.ID == "" {
		sector.ID = uuid.New().String()
	}
	sector.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sectors (id, name, created_at) VALUES (?, ?, ?)",
		sector.ID, sector.Name, sector.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating sector: %w", err)
	}
	return &sector, nil
}

// CreateSubsector inserts a subsector under a sector.
func (s *SQLiteStore) CreateSubsector(
	ctx context.Context,
	sub model.Subsector,
) (*model.Subsector, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO subsectors (id, sector_id, name, created_at) VALUES (?, ?, ?, ?)",
		sub.ID, sub.SectorID, sub.Name, sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating subsector: %w", err)
	}
	return &sub, nil
}

// CreateProfile inserts a collaborator profile.
func (s *SQLiteStore) CreateProfile(
	ctx context.Context,
	p model.Profile,
) (*model.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Role == "" {
		p.Role = model.RoleCollaborator
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, role, sector_id, avatar_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Role, p.SectorID, p.AvatarURL, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	return &p, nil
}
