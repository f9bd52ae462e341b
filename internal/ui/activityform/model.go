package activityform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/theme"
)

// ActivityCreatedMsg is dispatched when a new activity is submitted via
// the form.
type ActivityCreatedMsg struct {
	Activity model.Activity
}

// ActivityUpdatedMsg is dispatched when an existing activity is updated
// via the form.
type ActivityUpdatedMsg struct {
	Activity model.Activity
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    string
	dueDate     string
	status      string
	assigneeID  string
	private     bool
}

// Model is the Bubble Tea model for the activity create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editing  model.Activity
	profiles []model.Profile
	listID   *string
	width    int
	height   int
}

// New creates a new activity form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium, status: model.StatusPending},
		width:  width,
		height: height,
	}
}

// SetProfiles sets the collaborators available in the assignee selector.
func (m *Model) SetProfiles(profiles []model.Profile) {
	m.profiles = profiles
}

// StartCreate initializes the form for a new activity. A non-nil listID
// places the activity in a personal list, which forces it private and
// hides the assignee selector.
func (m *Model) StartCreate(listID *string) tea.Cmd {
	m.editMode = false
	m.editing = model.Activity{}
	m.listID = listID
	m.fb.title = ""
	m.fb.description = ""
	m.fb.priority = model.PriorityMedium
	m.fb.dueDate = ""
	m.fb.status = model.StatusPending
	m.fb.assigneeID = ""
	m.fb.private = listID != nil
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing activity.
func (m *Model) StartEdit(activity model.Activity) tea.Cmd {
	m.editMode = true
	m.editing = activity
	m.listID = activity.ListID
	m.fb.title = activity.Title
	m.fb.description = activity.Description
	m.fb.priority = activity.Priority
	m.fb.status = activity.Status
	m.fb.assigneeID = activity.UserID
	m.fb.private = activity.IsPrivate
	if activity.DueDate != nil {
		m.fb.dueDate = activity.DueDate.Format("2006-01-02")
	} else {
		m.fb.dueDate = ""
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the activity form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the activity form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Activity"
	if m.editMode {
		titleText = "Edit Activity"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs doing?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[string]().
			Title("Priority").
			Options(
				huh.NewOption("High", model.PriorityHigh),
				huh.NewOption("Medium", model.PriorityMedium),
				huh.NewOption("Low", model.PriorityLow),
			).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
	}

	// List activities are always private and never assigned.
	if m.listID == nil {
		fields = append(fields, m.assigneeField(),
			huh.NewConfirm().
				Title("Private").
				Value(&m.fb.private),
		)
	}

	if m.editMode {
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption("Pending", model.StatusPending),
					huh.NewOption("In progress", model.StatusInProgress),
					huh.NewOption("Completed", model.StatusCompleted),
					huh.NewOption("Archived", model.StatusArchived),
				).
				Value(&m.fb.status),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) assigneeField() huh.Field {
	opts := []huh.Option[string]{
		huh.NewOption("Unassigned", ""),
	}
	for _, p := range m.profiles {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
	}
	return huh.NewSelect[string]().
		Title("Assignee").
		Options(opts...).
		Value(&m.fb.assigneeID)
}

func (m Model) handleSubmit() tea.Cmd {
	activity := m.editing
	activity.Title = m.fb.title
	activity.Description = m.fb.description
	activity.Priority = m.fb.priority
	activity.Status = m.fb.status
	activity.UserID = m.fb.assigneeID
	activity.IsPrivate = m.fb.private
	activity.ListID = m.listID

	if m.fb.dueDate != "" {
		t, err := time.Parse("2006-01-02", m.fb.dueDate)
		if err == nil {
			activity.DueDate = &t
		}
	} else {
		activity.DueDate = nil
	}

	if m.editMode {
		return func() tea.Msg { return ActivityUpdatedMsg{Activity: activity} }
	}
	return func() tea.Msg { return ActivityCreatedMsg{Activity: activity} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
