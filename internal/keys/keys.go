package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Drag
	Grab key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Board views
	ViewCollab     key.Binding
	ViewSubsectors key.Binding
	ViewLists      key.Binding
	ViewCalendar   key.Binding
	ViewArchive    key.Binding

	// Actions
	NewActivity key.Binding
	NewList     key.Binding
	Checklist   key.Binding
	Archive     key.Binding

	// Sort
	CycleSort key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next column"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select / drop"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / cancel drag"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Grab: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "grab / release card"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ViewCollab: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "collaborators"),
		),
		ViewSubsectors: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "subsectors"),
		),
		ViewLists: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "personal lists"),
		),
		ViewCalendar: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "calendar"),
		),
		ViewArchive: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "archive"),
		),
		NewActivity: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new activity"),
		),
		NewList: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new list"),
		),
		Checklist: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "edit checklist"),
		),
		Archive: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "archive activity"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort"),
		),
	}
}
