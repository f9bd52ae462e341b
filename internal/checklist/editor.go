// Package checklist maintains the locally edited, group-labelled subtask
// entries of one activity, before and after the activity exists remotely.
// Persistence is a full replace: delete everything, reinsert the current
// array. There is no diff-based update, so concurrent editors of the same
// checklist are last-writer-wins.
package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
)

// ErrPartialSave is returned when the delete-then-insert replace may have
// half-applied. The checklist is in an unknown remote state; the caller
// must surface a hard error and prompt a full retry, never report success.
var ErrPartialSave = errors.New("checklist save may be partially applied; retry the whole save")

// Entry is one draft checklist item. Entries with empty titles are group
// placeholders: they keep an empty group rendered but are never persisted.
type Entry struct {
	ID          string
	Title       string
	Description string
	Group       string
	Done        bool
}

// Group is one named checklist subdivision with its entries in insertion
// order.
type Group struct {
	Name    string
	Entries []Entry
}

// Editor is the in-memory checklist being built or edited. All operations
// are pure array manipulation; nothing touches the network until Persist.
type Editor struct {
	entries []Entry
}

// NewEditor creates an empty editor.
func NewEditor() *Editor {
	return &Editor{}
}

// FromSubtasks loads an editor from persisted subtasks (already sorted by
// order index).
func FromSubtasks(subtasks []model.Subtask) *Editor {
	e := &Editor{}
	for _, st := range subtasks {
		e.entries = append(e.entries, Entry{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			Group:       st.ChecklistGroup,
			Done:        st.IsCompleted,
		})
	}
	return e
}

// Entries returns a copy of the current draft entries.
func (e *Editor) Entries() []Entry {
	return append([]Entry(nil), e.entries...)
}

// AddGroup creates a group by appending an empty-titled placeholder entry
// so the group renders even with zero real items. Blank names are
// rejected; group identity is the exact string, no case or whitespace
// normalization.
func (e *Editor) AddGroup(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("group name must not be empty")
	}
	e.entries = append(e.entries, Entry{
		ID:    uuid.New().String(),
		Group: name,
	})
	return nil
}

// AddItem appends an entry to a group.
func (e *Editor) AddItem(group, title, description string) Entry {
	entry := Entry{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Group:       group,
	}
	e.entries = append(e.entries, entry)
	return entry
}

// ToggleItem flips an entry's done state. Unknown ids are ignored.
func (e *Editor) ToggleItem(id string) {
	for i := range e.entries {
		if e.entries[i].ID == id {
			e.entries[i].Done = !e.entries[i].Done
			return
		}
	}
}

// RenameItem replaces an entry's title.
func (e *Editor) RenameItem(id, title string) {
	for i := range e.entries {
		if e.entries[i].ID == id {
			e.entries[i].Title = title
			return
		}
	}
}

// DeleteItem removes one entry.
func (e *Editor) DeleteItem(id string) {
	for i := range e.entries {
		if e.entries[i].ID == id {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return
		}
	}
}

// RenameGroup re-tags every entry in oldName to newName. A blank new name
// cancels the rename rather than erroring.
func (e *Editor) RenameGroup(oldName, newName string) {
	if strings.TrimSpace(newName) == "" {
		return
	}
	for i := range e.entries {
		if e.entries[i].Group == oldName {
			e.entries[i].Group = newName
		}
	}
}

// DeleteGroup removes every entry tagged with the group.
func (e *Editor) DeleteGroup(name string) {
	kept := e.entries[:0]
	for _, entry := range e.entries {
		if entry.Group != name {
			kept = append(kept, entry)
		}
	}
	e.entries = kept
}

// PasteMultiline splits text on newlines, trims each line, drops empties,
// and adds one item per remaining line. Returns the number of items added.
func (e *Editor) PasteMultiline(group, text string) int {
	added := 0
	for _, line := range strings.Split(text, "\n") {
		title := strings.TrimSpace(line)
		if title == "" {
			continue
		}
		e.AddItem(group, title, "")
		added++
	}
	return added
}

// Groups returns the checklist grouped by label, groups in first-seen
// order and entries in insertion order.
func (e *Editor) Groups() []Group {
	index := make(map[string]int)
	var groups []Group
	for _, entry := range e.entries {
		i, ok := index[entry.Group]
		if !ok {
			i = len(groups)
			index[entry.Group] = i
			groups = append(groups, Group{Name: entry.Group})
		}
		groups[i].Entries = append(groups[i].Entries, entry)
	}
	return groups
}

// Progress returns done and total counts over the real (non-placeholder)
// entries.
func (e *Editor) Progress() (done, total int) {
	for _, entry := range e.entries {
		if strings.TrimSpace(entry.Title) == "" {
			continue
		}
		total++
		if entry.Done {
			done++
		}
	}
	return done, total
}

// Persist writes the checklist through the store's full-replace path:
// placeholder entries are filtered out and order index follows array
// position, so persisting the same draft twice yields the same rows.
// Any store failure is reported as ErrPartialSave since the client cannot
// know which half of the replace applied.
func (e *Editor) Persist(ctx context.Context, store remote.Store, activityID string) error {
	var subtasks []model.Subtask
	for _, entry := range e.entries {
		if strings.TrimSpace(entry.Title) == "" {
			continue
		}
		subtasks = append(subtasks, model.Subtask{
			ID:             entry.ID,
			ActivityID:     activityID,
			Title:          entry.Title,
			Description:    entry.Description,
			IsCompleted:    entry.Done,
			OrderIndex:     len(subtasks),
			ChecklistGroup: entry.Group,
		})
	}

	if err := store.ReplaceSubtasks(ctx, activityID, subtasks); err != nil {
		return fmt.Errorf("%w: %w", ErrPartialSave, err)
	}
	return nil
}
