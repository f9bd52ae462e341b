// Package board derives renderable column structures from cached activity
// rows. Derivation is pure: the cache owns the data, boards only shape it.
package board

import (
	"sort"
	"time"

	"github.com/dcosta/activity-board/internal/cache"
	"github.com/dcosta/activity-board/internal/dnd"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/order"
)

// Card wraps one activity with its checklist progress cookie.
type Card struct {
	Activity model.Activity
	Done     int
	Total    int
	HasCheck bool
}

// Column is one rendered board column with its drop-container id.
type Column struct {
	ContainerID string
	Label       string
	Cards       []Card
}

// wrap builds a card from an activity.
func wrap(a model.Activity) Card {
	done, total := a.SubtaskProgress()
	return Card{
		Activity: a,
		Done:     done,
		Total:    total,
		HasCheck: total > 0,
	}
}

// CollaboratorColumns builds one column per sector collaborator from a
// sector scope's grouped rows. Every profile gets a column even when it
// has no cards; profiles absent from the roster still get one from their
// rows. Each column is arranged by the active sort mode.
func CollaboratorColumns(c *cache.Cache, profiles []model.Profile, orders *order.Store, mode order.Mode) []Column {
	names := make(map[string]string, len(profiles))
	var columns []Column
	var rowsByColumn [][]model.Activity
	index := make(map[string]int)

	for _, p := range profiles {
		names[p.ID] = p.Name
		index[p.ID] = len(columns)
		columns = append(columns, Column{
			ContainerID: dnd.Container{Kind: dnd.KindCollaborator, Key: p.ID}.ID(),
			Label:       p.Name,
		})
		rowsByColumn = append(rowsByColumn, nil)
	}

	for _, group := range c.ByAssignee() {
		i, ok := index[group.Key]
		if !ok {
			i = len(columns)
			index[group.Key] = i
			label := names[group.Key]
			if label == "" && len(group.Rows) > 0 && group.Rows[0].Assignee != nil {
				label = group.Rows[0].Assignee.Name
			}
			columns = append(columns, Column{
				ContainerID: dnd.Container{Kind: dnd.KindCollaborator, Key: group.Key}.ID(),
				Label:       label,
			})
			rowsByColumn = append(rowsByColumn, nil)
		}
		rowsByColumn[i] = group.Rows
	}

	fillCards(columns, rowsByColumn, orders, mode)
	return columns
}

// SubsectorColumns builds one column per subsector. Rows without a
// subsector land in the leading "(unassigned)" column, which is a drop
// target like any other: dropping there clears the activity's subsector.
// Each column is arranged by the active sort mode.
func SubsectorColumns(c *cache.Cache, subsectors []model.Subsector, orders *order.Store, mode order.Mode) []Column {
	columns := []Column{{
		ContainerID: dnd.Container{Kind: dnd.KindSubsector, Key: dnd.UnassignedKey}.ID(),
		Label:       "(unassigned)",
	}}
	rowsByColumn := [][]model.Activity{nil}
	index := map[string]int{"": 0}

	for _, sub := range subsectors {
		index[sub.ID] = len(columns)
		columns = append(columns, Column{
			ContainerID: dnd.Container{Kind: dnd.KindSubsector, Key: sub.ID}.ID(),
			Label:       sub.Name,
		})
		rowsByColumn = append(rowsByColumn, nil)
	}

	for _, group := range c.BySubsector() {
		i, ok := index[group.Key]
		if !ok {
			i = len(columns)
			index[group.Key] = i
			label := group.Key
			if len(group.Rows) > 0 && group.Rows[0].SubsectorName != "" {
				label = group.Rows[0].SubsectorName
			}
			columns = append(columns, Column{
				ContainerID: dnd.Container{Kind: dnd.KindSubsector, Key: group.Key}.ID(),
				Label:       label,
			})
			rowsByColumn = append(rowsByColumn, nil)
		}
		rowsByColumn[i] = group.Rows
	}

	fillCards(columns, rowsByColumn, orders, mode)
	return columns
}

// fillCards populates each column's cards from its rows, arranged by the
// sort mode. Column container ids key the manual order store.
func fillCards(columns []Column, rowsByColumn [][]model.Activity, orders *order.Store, mode order.Mode) {
	for i := range columns {
		for _, a := range Sorted(rowsByColumn[i], columns[i].ContainerID, orders, mode) {
			columns[i].Cards = append(columns[i].Cards, wrap(a))
		}
	}
}

// ListBoard builds the column for one personal list, applying the manual
// order store when the list is under manual sort.
func ListBoard(c *cache.Cache, list model.PersonalList, orders *order.Store, mode order.Mode) Column {
	container := dnd.Container{Kind: dnd.KindList, Key: list.ID}
	column := Column{
		ContainerID: container.ID(),
		Label:       list.Name,
	}

	var rows []model.Activity
	for _, group := range c.ByList() {
		if group.Key == list.ID {
			rows = group.Rows
			break
		}
	}

	rows = Sorted(rows, container.ID(), orders, mode)
	for _, a := range rows {
		column.Cards = append(column.Cards, wrap(a))
	}
	return column
}

// Sorted arranges rows for display under the given sort mode. Manual sort
// consults (and seeds) the manual order store; automatic modes bypass it
// without clearing.
func Sorted(rows []model.Activity, containerID string, orders *order.Store, mode order.Mode) []model.Activity {
	out := append([]model.Activity(nil), rows...)

	switch mode {
	case order.ModeAlphabetical:
		sortActivities(out, func(a, b model.Activity) bool {
			return a.Title < b.Title
		})
	case order.ModeCreated:
		sortActivities(out, func(a, b model.Activity) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		})
	default:
		ids := make([]string, len(out))
		byID := make(map[string]model.Activity, len(out))
		for i, a := range out {
			ids[i] = a.ID
			byID[a.ID] = a
		}
		ordered := orders.Apply(containerID, ids)
		out = out[:0]
		for _, id := range ordered {
			out = append(out, byID[id])
		}
	}

	return out
}

// Day is one calendar bucket.
type Day struct {
	Date  time.Time
	Cards []Card
}

// CalendarDays buckets the scope's dated rows into one entry per calendar
// day over [from, to), including empty days.
func CalendarDays(c *cache.Cache, from, to time.Time) []Day {
	from = from.Truncate(24 * time.Hour)
	byDay := make(map[string][]Card)
	for _, a := range c.DueBetween(from, to) {
		key := a.DueDate.Format("2006-01-02")
		byDay[key] = append(byDay[key], wrap(a))
	}

	var days []Day
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{
			Date:  d,
			Cards: byDay[d.Format("2006-01-02")],
		})
	}
	return days
}

// ArchiveRows filters a fetched archive listing into cards. Archived
// activities appear only here, never on active boards or calendars.
func ArchiveRows(rows []model.Activity) []Card {
	var cards []Card
	for _, a := range rows {
		if !a.IsArchived() {
			continue
		}
		cards = append(cards, wrap(a))
	}
	return cards
}

// sortActivities sorts rows stably with the given comparison.
func sortActivities(rows []model.Activity, less func(a, b model.Activity) bool) {
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}
