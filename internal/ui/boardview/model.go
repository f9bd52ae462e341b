package boardview

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/dcosta/activity-board/internal/board"
	"github.com/dcosta/activity-board/internal/keys"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/theme"
)

// Model renders a set of board columns and tracks the cursor across them.
// It owns only presentation state; the root model drives data loading and
// drag sessions.
type Model struct {
	keys    *keys.KeyMap
	columns []board.Column
	col     int
	row     int
	dragged string
	width   int
	height  int
}

// New creates a board view with the given keymap and dimensions.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetColumns replaces the rendered columns, clamping the cursor. When a
// drag is active the cursor follows the dragged card to its new slot.
func (m *Model) SetColumns(columns []board.Column) {
	m.columns = columns
	if m.dragged != "" {
		if ci, ri, ok := m.locate(m.dragged); ok {
			m.col, m.row = ci, ri
			return
		}
	}
	m.clamp()
}

// Columns returns the currently rendered columns.
func (m Model) Columns() []board.Column {
	return m.columns
}

// SetDragging marks the card being carried, or clears the mark when id
// is empty.
func (m *Model) SetDragging(id string) {
	m.dragged = id
}

// Dragging reports the id of the carried card, if any.
func (m Model) Dragging() string {
	return m.dragged
}

// SelectedCard returns the card under the cursor.
func (m Model) SelectedCard() (board.Card, bool) {
	if m.col >= len(m.columns) {
		return board.Card{}, false
	}
	cards := m.columns[m.col].Cards
	if m.row >= len(cards) {
		return board.Card{}, false
	}
	return cards[m.row], true
}

// SelectedContainer returns the container id of the column under the
// cursor.
func (m Model) SelectedContainer() (string, bool) {
	if m.col >= len(m.columns) {
		return "", false
	}
	return m.columns[m.col].ContainerID, true
}

// SelectedIndex returns the cursor's row within its column.
func (m Model) SelectedIndex() int {
	return m.row
}

// Update handles cursor movement. All other keys are left to the root
// model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		m.moveRow(1)
	case key.Matches(keyMsg, m.keys.Up):
		m.moveRow(-1)
	case key.Matches(keyMsg, m.keys.Right):
		m.moveCol(1)
	case key.Matches(keyMsg, m.keys.Left):
		m.moveCol(-1)
	}
	return m, nil
}

// View renders the columns side by side.
func (m Model) View() string {
	if len(m.columns) == 0 {
		return m.renderEmptyState()
	}

	colWidth := m.width/len(m.columns) - 2
	if colWidth < 16 {
		colWidth = 16
	}

	rendered := make([]string, 0, len(m.columns))
	for ci, col := range m.columns {
		rendered = append(rendered, m.renderColumn(ci, col, colWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) renderColumn(ci int, col board.Column, width int) string {
	var b strings.Builder

	label := fmt.Sprintf("%s (%d)", col.Label, len(col.Cards))
	b.WriteString(theme.ColumnHeaderStyle.Render(label))
	b.WriteString("\n")

	if len(col.Cards) == 0 {
		b.WriteString(theme.DimmedStyle.Render("  no activities"))
	}
	for ri, card := range col.Cards {
		b.WriteString(m.renderCard(card, ci == m.col && ri == m.row, width))
		b.WriteString("\n")
	}

	frame := theme.ColumnStyle
	if ci == m.col {
		frame = theme.ActiveColumnStyle
	}
	return frame.Width(width).Height(m.height - 2).Render(b.String())
}

func (m Model) renderCard(card board.Card, selected bool, width int) string {
	a := card.Activity

	title := a.Title
	maxTitle := width - 6
	if maxTitle > 0 && len(title) > maxTitle {
		title = title[:maxTitle-1] + "…"
	}

	var badges []string
	badges = append(badges, theme.PriorityStyle(a.Priority).Render(priorityGlyph(a.Priority)))
	if card.HasCheck {
		badges = append(badges,
			theme.ProgressStyle(card.Done, card.Total).Render(fmt.Sprintf("%d/%d", card.Done, card.Total)))
	}
	if a.DueDate != nil {
		due := a.DueDate.Format("Jan 02")
		if a.Status != model.StatusCompleted && a.DueDate.Before(time.Now()) {
			badges = append(badges, theme.OverdueStyle.Render(due))
		} else {
			badges = append(badges, theme.DimmedStyle.Render(due))
		}
	}
	if a.IsPrivate {
		badges = append(badges, theme.PrivateBadgeStyle.Render("◆"))
	}

	line := title + " " + strings.Join(badges, " ")

	switch {
	case a.ID == m.dragged:
		return theme.DraggedCardStyle.Render(line)
	case selected:
		return theme.SelectedCardStyle.Render(line)
	default:
		return theme.CardStyle.Render(line)
	}
}

func (m Model) renderEmptyState() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(theme.DimmedStyle.Render("Nothing to show yet."))
}

func (m *Model) moveRow(delta int) {
	if m.col >= len(m.columns) {
		return
	}
	n := len(m.columns[m.col].Cards)
	if n == 0 {
		return
	}
	m.row += delta
	if m.row < 0 {
		m.row = 0
	}
	if m.row >= n {
		m.row = n - 1
	}
}

func (m *Model) moveCol(delta int) {
	if len(m.columns) == 0 {
		return
	}
	m.col += delta
	if m.col < 0 {
		m.col = 0
	}
	if m.col >= len(m.columns) {
		m.col = len(m.columns) - 1
	}
	m.clamp()
}

func (m *Model) clamp() {
	if m.col >= len(m.columns) {
		m.col = len(m.columns) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	n := 0
	if m.col < len(m.columns) {
		n = len(m.columns[m.col].Cards)
	}
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) locate(id string) (int, int, bool) {
	for ci, col := range m.columns {
		for ri, card := range col.Cards {
			if card.Activity.ID == id {
				return ci, ri, true
			}
		}
	}
	return 0, 0, false
}

func priorityGlyph(priority string) string {
	switch priority {
	case model.PriorityHigh:
		return "!!!"
	case model.PriorityMedium:
		return "!!"
	default:
		return "!"
	}
}
