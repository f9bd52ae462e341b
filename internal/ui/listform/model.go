package listform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ListCreatedMsg is dispatched when a new personal list is named.
type ListCreatedMsg struct {
	Name string
}

// ListRenamedMsg is dispatched when an existing list gets a new name.
type ListRenamedMsg struct {
	ListID string
	Name   string
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

type formBindings struct {
	name string
}

// Model is the Bubble Tea model for naming a personal list.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	editID string
	width  int
}

// New creates a list form model.
func New(width int) Model {
	return Model{fb: &formBindings{}, width: width}
}

// StartCreate initializes the form for creating a list.
func (m *Model) StartCreate() tea.Cmd {
	m.editID = ""
	m.fb.name = ""
	m.form = m.buildForm("List name")
	return m.form.Init()
}

// StartRename initializes the form for renaming an existing list.
func (m *Model) StartRename(listID, currentName string) tea.Cmd {
	m.editID = listID
	m.fb.name = currentName
	m.form = m.buildForm("Rename list")
	return m.form.Init()
}

// Update handles messages for the list form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		name := m.fb.name
		if m.editID != "" {
			id := m.editID
			return m, func() tea.Msg { return ListRenamedMsg{ListID: id, Name: name} }
		}
		return m, func() tea.Msg { return ListCreatedMsg{Name: name} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the list form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}

// SetSize updates the form width.
func (m *Model) SetSize(width int) {
	m.width = width
}

func (m *Model) buildForm(title string) *huh.Form {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Value(&m.fb.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
	)).WithWidth(w)
}
