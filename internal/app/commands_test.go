package app

import (
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcosta/activity-board/internal/board"
	"github.com/dcosta/activity-board/internal/bus"
	"github.com/dcosta/activity-board/internal/checklist"
	"github.com/dcosta/activity-board/internal/dnd"
	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
	"github.com/dcosta/activity-board/tests/testutil"
)

type appFixture struct {
	model    Model
	store    *remote.SQLiteStore
	sectorID string
	alice    string
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	store := testutil.NewTestStore(t)
	sectorID, alice, _ := testutil.SeedSector(t, store)

	cfg := &model.AppConfig{
		Sync:    model.SyncConfig{DebounceMs: 20},
		Board:   model.BoardConfig{DragThreshold: 8},
		Session: model.SessionConfig{SectorID: sectorID, UserID: alice},
	}
	m := New(store, cfg)
	t.Cleanup(m.ctrl.Teardown)

	return &appFixture{model: m, store: store, sectorID: sectorID, alice: alice}
}

// softSignalCounter counts soft bus signals delivered to the model's bus.
type softSignalCounter struct {
	mu gosync.Mutex
	n  int
}

func (c *softSignalCounter) observe(m Model, t *testing.T) {
	t.Helper()
	cancel := m.bus.SubscribeSoft(func(bus.Signal) {
		c.mu.Lock()
		c.n++
		c.mu.Unlock()
	})
	t.Cleanup(cancel)
}

func (c *softSignalCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestMutationCommandsSignalBoardsToRefetch(t *testing.T) {
	f := newAppFixture(t)
	var signals softSignalCounter
	signals.observe(f.model, t)

	msg := f.model.createActivity(model.Activity{Title: "Alpha", UserID: f.alice})()
	require.NoError(t, msg.(activitySavedResultMsg).err)
	assert.Equal(t, 1, signals.count())

	seeded := testutil.SeedActivity(t, f.store, f.sectorID, f.alice, "Beta")

	msg = f.model.updateActivity(seeded)()
	require.NoError(t, msg.(activitySavedResultMsg).err)
	assert.Equal(t, 2, signals.count())

	msg = f.model.persistChecklist(checklist.FromSubtasks(nil), seeded.ID)()
	require.NoError(t, msg.(checklistSavedResultMsg).err)
	assert.Equal(t, 3, signals.count())

	msg = f.model.archiveActivity(seeded.ID)()
	require.NoError(t, msg.(activitySavedResultMsg).err)
	assert.Equal(t, 4, signals.count())
}

func TestFailedMutationDoesNotSignal(t *testing.T) {
	f := newAppFixture(t)
	var signals softSignalCounter
	signals.observe(f.model, t)

	msg := f.model.archiveActivity("missing")()
	assert.Error(t, msg.(activitySavedResultMsg).err)
	assert.Equal(t, 0, signals.count())
}

func TestClickDropOpensActivityForm(t *testing.T) {
	f := newAppFixture(t)
	a := testutil.SeedActivity(t, f.store, f.sectorID, f.alice, "Alpha")

	m := f.model
	m.board.SetColumns([]board.Column{{
		ContainerID: "collab:" + f.alice,
		Label:       "Alice",
		Cards:       []board.Card{{Activity: a}},
	}})

	updated, _ := m.Update(dropResultMsg{result: dnd.ResultClick})
	got, ok := updated.(Model)
	require.True(t, ok)
	assert.Equal(t, ViewActivityForm, got.currentView)
}
