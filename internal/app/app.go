package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"

	"github.com/dcosta/activity-board/internal/board"
	"github.com/dcosta/activity-board/internal/bus"
	"github.com/dcosta/activity-board/internal/dnd"
	"github.com/dcosta/activity-board/internal/keys"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/order"
	"github.com/dcosta/activity-board/internal/remote"
	appsync "github.com/dcosta/activity-board/internal/sync"
	"github.com/dcosta/activity-board/internal/theme"
	"github.com/dcosta/activity-board/internal/ui"
	"github.com/dcosta/activity-board/internal/ui/activityform"
	"github.com/dcosta/activity-board/internal/ui/boardview"
	"github.com/dcosta/activity-board/internal/ui/checklistform"
	"github.com/dcosta/activity-board/internal/ui/listform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewChecklist
	ViewActivityForm
	ViewListForm
)

// boardTab selects which board the column view renders.
type boardTab int

const (
	tabCollaborators boardTab = iota
	tabSubsectors
	tabLists
	tabCalendar
	tabArchive
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and the synchronization machinery behind the boards.
type Model struct {
	currentView ViewState
	tab         boardTab
	layout      ui.Layout
	keys        *keys.KeyMap

	store    remote.Store
	ctrl     *appsync.Controller
	bus      *bus.Bus
	orders   *order.Store
	engine   *dnd.Engine
	resolver *boardResolver

	board         boardview.Model
	checklistForm checklistform.Model
	activityForm  activityform.Model
	listForm      listform.Model

	sectorScope remote.Scope
	userID      string

	profiles []model.Profile
	lists    []model.PersonalList
	archive  []board.Card

	sortMode order.Mode

	statusMsg string
	ready     bool
}

// New creates the root application model wired to the given store and
// configuration.
func New(s remote.Store, cfg *model.AppConfig) Model {
	km := keys.DefaultKeyMap()
	b := bus.New()
	orders := order.NewStore()

	debounce := time.Duration(cfg.Sync.DebounceMs) * time.Millisecond
	ctrl := appsync.New(s, b, debounce)

	sectorScope := remote.Scope{
		Kind:     remote.ScopeSector,
		SectorID: cfg.Session.SectorID,
	}

	resolver := newBoardResolver(ctrl, orders, sectorScope.Key())
	engine := dnd.New(s, ctrl, b, orders, resolver, cfg.Board.DragThreshold)

	return Model{
		currentView:   ViewBoard,
		tab:           tabCollaborators,
		layout:        ui.NewLayout(80, 24),
		keys:          km,
		store:         s,
		ctrl:          ctrl,
		bus:           b,
		orders:        orders,
		engine:        engine,
		resolver:      resolver,
		board:         boardview.New(km, 80, 22),
		checklistForm: checklistform.New(80, 22),
		activityForm:  activityform.New(80, 22),
		listForm:      listform.New(80),
		sectorScope:   sectorScope,
		userID:        cfg.Session.UserID,
		sortMode:      order.ModeManual,
	}
}

// Controller exposes the sync controller for shutdown.
func (m Model) Controller() *appsync.Controller {
	return m.ctrl
}

// Init starts the bootstrap load and the render tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bootstrap(), refreshTick())
}

// Update handles all application messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		content := m.layout.ContentHeight()
		m.board.SetSize(msg.Width, content)
		m.checklistForm.SetSize(msg.Width, content)
		m.activityForm.SetSize(msg.Width, content)
		m.listForm.SetSize(msg.Width)
		return m, nil

	case bootstrapMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("load failed: %v", msg.err)
			return m, nil
		}
		if msg.profiles != nil {
			m.profiles = msg.profiles
			m.activityForm.SetProfiles(msg.profiles)
		}
		m.lists = msg.lists
		m.resolver.SetLists(msg.lists)
		m.ready = true
		m.refreshColumns()
		return m, nil

	case refreshTickMsg:
		if m.ready && m.currentView == ViewBoard {
			m.refreshColumns()
		}
		return m, refreshTick()

	case archiveLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("archive load failed: %v", msg.err)
			return m, nil
		}
		m.archive = board.ArchiveRows(msg.rows)
		m.refreshColumns()
		return m, nil

	case dropResultMsg:
		m.board.SetDragging("")
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("move failed: %v", msg.err)
			m.refreshColumns()
			return m, nil
		}
		m.statusMsg = ""
		if msg.result == dnd.ResultClick {
			// A pick-up that never moved opens the card for editing.
			if card, ok := m.board.SelectedCard(); ok {
				m.currentView = ViewActivityForm
				return m, m.activityForm.StartEdit(card.Activity)
			}
		}
		m.refreshColumns()
		return m, nil

	case activitySavedResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
		} else {
			m.statusMsg = ""
		}
		m.currentView = ViewBoard
		return m, nil

	case listSavedResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("list save failed: %v", msg.err)
			m.currentView = ViewBoard
			return m, nil
		}
		m.statusMsg = ""
		m.currentView = ViewBoard
		return m, m.reloadLists()

	case checklistSavedResultMsg:
		if msg.err != nil {
			// Keep the editor open so the user can retry.
			m.statusMsg = fmt.Sprintf("checklist save failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = ""
		m.currentView = ViewBoard
		return m, nil

	case activityform.ActivityCreatedMsg:
		m.currentView = ViewBoard
		return m, m.createActivity(msg.Activity)
	case activityform.ActivityUpdatedMsg:
		m.currentView = ViewBoard
		return m, m.updateActivity(msg.Activity)
	case activityform.FormCancelMsg:
		m.currentView = ViewBoard
		return m, nil

	case listform.ListCreatedMsg:
		return m, m.createList(msg.Name)
	case listform.ListRenamedMsg:
		return m, m.renameList(msg.ListID, msg.Name)
	case listform.FormCancelMsg:
		m.currentView = ViewBoard
		return m, nil

	case checklistform.SaveRequestedMsg:
		return m, m.persistChecklist(m.checklistForm.Editor(), msg.ActivityID)
	case checklistform.CancelMsg:
		m.currentView = ViewBoard
		return m, nil
	}

	switch m.currentView {
	case ViewChecklist:
		var cmd tea.Cmd
		m.checklistForm, cmd = m.checklistForm.Update(msg)
		return m, cmd
	case ViewActivityForm:
		var cmd tea.Cmd
		m.activityForm, cmd = m.activityForm.Update(msg)
		return m, cmd
	case ViewListForm:
		var cmd tea.Cmd
		m.listForm, cmd = m.listForm.Update(msg)
		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.handleBoardKeys(keyMsg)
	}
	return m, nil
}

// handleBoardKeys processes key input while the column board is active.
func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.ctrl.Teardown()
		return m, tea.Quit
	}

	dragging := m.engine.Active() != nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		if dragging {
			break
		}
		m.ctrl.Teardown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		if dragging {
			m.engine.Cancel()
			m.board.SetDragging("")
			m.refreshColumns()
		}
		return m, nil

	case key.Matches(msg, m.keys.Grab):
		if dragging {
			return m, m.drop()
		}
		card, ok := m.board.SelectedCard()
		if !ok || m.tab == tabCalendar || m.tab == tabArchive {
			return m, nil
		}
		if err := m.engine.Begin(card.Activity.ID); err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		m.board.SetDragging(card.Activity.ID)
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if dragging {
			return m, m.drop()
		}
		if card, ok := m.board.SelectedCard(); ok {
			m.currentView = ViewActivityForm
			return m, m.activityForm.StartEdit(card.Activity)
		}
		return m, nil

	case key.Matches(msg, m.keys.Checklist):
		if card, ok := m.board.SelectedCard(); ok && !dragging {
			return m.openChecklist(card.Activity)
		}
		return m, nil

	case key.Matches(msg, m.keys.NewActivity):
		if dragging {
			return m, nil
		}
		m.currentView = ViewActivityForm
		return m, m.activityForm.StartCreate(m.selectedListID())

	case key.Matches(msg, m.keys.NewList):
		if dragging {
			return m, nil
		}
		m.currentView = ViewListForm
		return m, m.listForm.StartCreate()

	case key.Matches(msg, m.keys.Archive):
		if card, ok := m.board.SelectedCard(); ok && !dragging {
			return m, m.archiveActivity(card.Activity.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshAll()

	case key.Matches(msg, m.keys.CycleSort):
		if dragging {
			return m, nil
		}
		m.cycleSort()
		m.refreshColumns()
		return m, nil

	case key.Matches(msg, m.keys.ViewCollab):
		return m.switchTab(tabCollaborators)
	case key.Matches(msg, m.keys.ViewSubsectors):
		return m.switchTab(tabSubsectors)
	case key.Matches(msg, m.keys.ViewLists):
		return m.switchTab(tabLists)
	case key.Matches(msg, m.keys.ViewCalendar):
		return m.switchTab(tabCalendar)
	case key.Matches(msg, m.keys.ViewArchive):
		next, _ := m.switchTab(tabArchive)
		return next, m.loadArchive()
	}

	var cmd tea.Cmd
	m.board, cmd = m.board.Update(msg)
	if dragging {
		m.dragFollowCursor()
	}
	return m, cmd
}

// dragFollowCursor registers cursor movement with the drag session and
// retargets the drop candidate to whatever is now under the cursor.
func (m *Model) dragFollowCursor() {
	m.engine.MoveBy(dnd.DefaultThreshold)

	session := m.engine.Active()
	if session == nil {
		return
	}
	if card, ok := m.board.SelectedCard(); ok && card.Activity.ID != session.ActiveID {
		m.engine.Over(card.Activity.ID)
		return
	}
	if container, ok := m.board.SelectedContainer(); ok && container != "" {
		m.engine.Over(container)
	}
}

// openChecklist switches into the checklist editor for an activity.
func (m Model) openChecklist(a model.Activity) (tea.Model, tea.Cmd) {
	m.currentView = ViewChecklist
	m.checklistForm.Start(a)
	return m, nil
}

// selectedListID returns the personal list under the cursor, if the list
// board is active.
func (m Model) selectedListID() *string {
	if m.tab != tabLists {
		return nil
	}
	containerID, ok := m.board.SelectedContainer()
	if !ok {
		return nil
	}
	c, ok := dnd.ParseContainer(containerID)
	if !ok || c.Kind != dnd.KindList {
		return nil
	}
	id := c.Key
	return &id
}

// switchTab changes the active board tab.
func (m Model) switchTab(tab boardTab) (tea.Model, tea.Cmd) {
	if m.engine.Active() != nil {
		m.engine.Cancel()
		m.board.SetDragging("")
	}
	m.tab = tab
	if tab == tabSubsectors {
		m.resolver.SetGrouping(dnd.KindSubsector)
	} else {
		m.resolver.SetGrouping(dnd.KindCollaborator)
	}
	m.refreshColumns()
	return m, nil
}

// cycleSort advances the sort mode for list boards. Manual order survives
// the detour through automatic modes.
func (m *Model) cycleSort() {
	switch m.sortMode {
	case order.ModeManual:
		m.sortMode = order.ModeAlphabetical
	case order.ModeAlphabetical:
		m.sortMode = order.ModeCreated
	default:
		m.sortMode = order.ModeManual
	}
	m.resolver.SetMode(m.sortMode)
	m.engine.SetDefaultSortMode(m.sortMode)
}

// refreshColumns rebuilds the rendered columns from the scope caches.
func (m *Model) refreshColumns() {
	sector := m.ctrl.Cache(m.sectorScope.Key())

	switch m.tab {
	case tabCollaborators:
		if sector != nil {
			m.board.SetColumns(board.CollaboratorColumns(sector, m.profiles, m.orders, m.sortMode))
		}
	case tabSubsectors:
		if sector != nil {
			m.board.SetColumns(board.SubsectorColumns(sector, nil, m.orders, m.sortMode))
		}
	case tabLists:
		var columns []board.Column
		for _, l := range m.lists {
			c := m.ctrl.Cache(remote.Scope{Kind: remote.ScopeList, ListID: l.ID}.Key())
			if c == nil {
				continue
			}
			columns = append(columns, board.ListBoard(c, l, m.orders, m.sortMode))
		}
		m.board.SetColumns(columns)
	case tabCalendar:
		if sector != nil {
			from := time.Now().Truncate(24 * time.Hour)
			var columns []board.Column
			for _, day := range board.CalendarDays(sector, from, from.AddDate(0, 0, 7)) {
				columns = append(columns, board.Column{
					Label: day.Date.Format("Mon Jan 02"),
					Cards: day.Cards,
				})
			}
			m.board.SetColumns(columns)
		}
	case tabArchive:
		m.board.SetColumns([]board.Column{{
			Label: "Archive",
			Cards: m.archive,
		}})
	}
}

// View renders the application.
func (m Model) View() string {
	header := m.layout.RenderHeader("Activity Board", m.syncStatus())

	var content string
	switch m.currentView {
	case ViewChecklist:
		content = m.checklistForm.View()
	case ViewActivityForm:
		content = m.activityForm.View()
	case ViewListForm:
		content = m.listForm.View()
	default:
		content = m.board.View()
	}

	statusBar := m.layout.RenderStatusBar(m.statusLine())
	return m.layout.RenderWithFrame(header, content, statusBar)
}

// syncStatus summarizes the freshness of the visible scope caches.
func (m Model) syncStatus() string {
	if !m.ready {
		return "loading…"
	}
	sector := m.ctrl.Cache(m.sectorScope.Key())
	if sector != nil {
		snap := sector.Snapshot()
		switch {
		case snap.Err != "":
			return "offline"
		case snap.Refreshing || snap.Loading:
			return "syncing…"
		}
	}
	return "synced"
}

// statusLine picks the bottom-bar content: an error, a drag hint, or the
// key help for the active tab.
func (m Model) statusLine() string {
	if m.statusMsg != "" {
		return theme.OverdueStyle.Render(m.statusMsg)
	}
	if m.engine.Active() != nil {
		return "moving: arrows choose target · space/enter drop · esc cancel"
	}
	switch m.currentView {
	case ViewChecklist, ViewActivityForm, ViewListForm:
		return "enter submit · esc cancel"
	}
	return "space grab · enter edit · c checklist · n new · N list · x archive · s sort · r refresh · 1-5 boards · q quit"
}
