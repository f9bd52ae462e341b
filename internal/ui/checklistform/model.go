package checklistform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dcosta/activity-board/internal/checklist"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/theme"
)

// SaveRequestedMsg is dispatched when the user finishes editing and the
// checklist should be persisted.
type SaveRequestedMsg struct {
	ActivityID string
}

// CancelMsg is dispatched when the user abandons the checklist editor.
type CancelMsg struct{}

// inputKind identifies what the text overlay is collecting.
type inputKind int

const (
	inputNone inputKind = iota
	inputNewGroup
	inputNewItem
	inputRenameItem
	inputRenameGroup
	inputPaste
)

// row is a flattened line of the checklist: either a group header or an
// entry within a group.
type row struct {
	group   string
	entryID string // empty for header rows
}

// inputBindings holds overlay field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type inputBindings struct {
	text string
}

// Model is the Bubble Tea model for editing an activity's checklist.
type Model struct {
	activityID string
	title      string
	editor     *checklist.Editor
	cursor     int
	input      inputKind
	form       *huh.Form
	fb         *inputBindings
	width      int
	height     int

	up, down, toggle, addItem, addGroup, rename, remove, paste, save, cancel key.Binding
}

// New creates a checklist form model.
func New(width, height int) Model {
	return Model{
		fb:     &inputBindings{},
		width:  width,
		height: height,

		up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		addItem:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add item")),
		addGroup: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "add group")),
		rename:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		paste:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "paste lines")),
		save:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// Start initializes the form for the given activity's subtasks.
func (m *Model) Start(activity model.Activity) {
	m.activityID = activity.ID
	m.title = activity.Title
	m.editor = checklist.FromSubtasks(activity.Subtasks)
	m.cursor = 0
	m.input = inputNone
	m.form = nil
}

// Editor exposes the underlying checklist editor for persistence.
func (m Model) Editor() *checklist.Editor {
	return m.editor
}

// Update handles messages for the checklist form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.editor == nil {
		return m, nil
	}

	if m.input != inputNone {
		return m.updateOverlay(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	rows := m.rows()
	switch {
	case key.Matches(keyMsg, m.down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.toggle):
		if r, ok := m.current(rows); ok && r.entryID != "" {
			m.editor.ToggleItem(r.entryID)
		}
	case key.Matches(keyMsg, m.remove):
		if r, ok := m.current(rows); ok {
			if r.entryID != "" {
				m.editor.DeleteItem(r.entryID)
			} else {
				m.editor.DeleteGroup(r.group)
			}
			if m.cursor >= len(m.rows()) && m.cursor > 0 {
				m.cursor--
			}
		}
	case key.Matches(keyMsg, m.addItem):
		return m.openOverlay(inputNewItem, "New item")
	case key.Matches(keyMsg, m.addGroup):
		return m.openOverlay(inputNewGroup, "New group")
	case key.Matches(keyMsg, m.rename):
		if r, ok := m.current(rows); ok {
			if r.entryID != "" {
				return m.openOverlay(inputRenameItem, "Rename item")
			}
			return m.openOverlay(inputRenameGroup, "Rename group")
		}
	case key.Matches(keyMsg, m.paste):
		return m.openOverlay(inputPaste, "Paste lines")
	case key.Matches(keyMsg, m.save):
		id := m.activityID
		return m, func() tea.Msg { return SaveRequestedMsg{ActivityID: id} }
	case key.Matches(keyMsg, m.cancel):
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, nil
}

// View renders the checklist with its groups and the input overlay when
// one is open.
func (m Model) View() string {
	if m.editor == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Checklist: " + m.title))
	b.WriteString("\n")

	done, total := m.editor.Progress()
	b.WriteString(theme.ProgressStyle(done, total).Render(fmt.Sprintf("%d/%d complete", done, total)))
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(theme.DimmedStyle.Render("No entries. Press 'a' to add one."))
	}
	for i, r := range rows {
		b.WriteString(m.renderRow(r, i == m.cursor))
		b.WriteString("\n")
	}

	if m.input != inputNone && m.form != nil {
		b.WriteString("\n")
		b.WriteString(m.form.View())
	} else {
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render(
			"space toggle · a item · g group · e rename · d delete · p paste · enter save · esc cancel"))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) renderRow(r row, selected bool) string {
	if r.entryID == "" {
		label := r.group
		if label == "" {
			label = "Checklist"
		}
		s := theme.ColumnHeaderStyle.Render(label)
		if selected {
			s = theme.SelectedCardStyle.Render(label)
		}
		return s
	}

	entry, ok := m.findEntry(r.entryID)
	if !ok {
		return ""
	}
	box := "[ ]"
	if entry.Done {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %s", box, entry.Title)
	if selected {
		return theme.SelectedCardStyle.Render(line)
	}
	return theme.CardStyle.Render(line)
}

func (m Model) rows() []row {
	var out []row
	for _, g := range m.editor.Groups() {
		if g.Name != "" {
			out = append(out, row{group: g.Name})
		}
		for _, e := range g.Entries {
			if e.Title == "" {
				continue
			}
			out = append(out, row{group: g.Name, entryID: e.ID})
		}
	}
	return out
}

func (m Model) current(rows []row) (row, bool) {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

func (m Model) findEntry(id string) (checklist.Entry, bool) {
	for _, g := range m.editor.Groups() {
		for _, e := range g.Entries {
			if e.ID == id {
				return e, true
			}
		}
	}
	return checklist.Entry{}, false
}

func (m Model) openOverlay(kind inputKind, title string) (Model, tea.Cmd) {
	m.input = kind
	m.fb.text = ""
	if kind == inputRenameItem {
		if r, ok := m.current(m.rows()); ok {
			if entry, found := m.findEntry(r.entryID); found {
				m.fb.text = entry.Title
			}
		}
	}
	if kind == inputRenameGroup {
		if r, ok := m.current(m.rows()); ok {
			m.fb.text = r.group
		}
	}

	var field huh.Field
	if kind == inputPaste {
		field = huh.NewText().Title(title).Value(&m.fb.text)
	} else {
		field = huh.NewInput().Title(title).Value(&m.fb.text)
	}
	m.form = huh.NewForm(huh.NewGroup(field)).WithWidth(m.formWidth())
	return m, m.form.Init()
}

func (m Model) updateOverlay(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateAborted {
		m.input = inputNone
		m.form = nil
		return m, nil
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	text := m.fb.text
	r, _ := m.current(m.rows())
	switch m.input {
	case inputNewGroup:
		m.editor.AddGroup(text)
	case inputNewItem:
		m.editor.AddItem(r.group, text, "")
	case inputRenameItem:
		if r.entryID != "" {
			m.editor.RenameItem(r.entryID, text)
		}
	case inputRenameGroup:
		m.editor.RenameGroup(r.group, text)
	case inputPaste:
		m.editor.PasteMultiline(r.group, text)
	}
	m.input = inputNone
	m.form = nil
	return m, nil
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}
