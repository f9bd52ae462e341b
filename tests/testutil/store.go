package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/dcosta/activity-board/internal/model"
	"github.com/dcosta/activity-board/internal/remote"
)

var testStoreSeq atomic.Int64

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *remote.SQLiteStore {
	t.Helper()

	// A plain ":memory:" DSN gives every pooled connection its own empty
	// database; a named shared-cache DSN keeps the pool on one database
	// while staying isolated per store.
	dsn := fmt.Sprintf("file:teststore%d?mode=memory&cache=shared",
		testStoreSeq.Add(1))
	s, err := remote.NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedSector creates a sector with two collaborator profiles and returns
// the sector id and the two profile ids.
func SeedSector(t *testing.T, s *remote.SQLiteStore) (sectorID, alice, bob string) {
	t.Helper()
	ctx := context.Background()

	sector, err := s.CreateSector(ctx, model.Sector{Name: "Engineering"})
	if err != nil {
		t.Fatalf("seeding sector: %v", err)
	}

	a, err := s.CreateProfile(ctx, model.Profile{
		Name:     "Alice",
		Role:     model.RoleManager,
		SectorID: sector.ID,
	})
	if err != nil {
		t.Fatalf("seeding profile: %v", err)
	}
	b, err := s.CreateProfile(ctx, model.Profile{
		Name:     "Bob",
		Role:     model.RoleCollaborator,
		SectorID: sector.ID,
	})
	if err != nil {
		t.Fatalf("seeding profile: %v", err)
	}

	return sector.ID, a.ID, b.ID
}

// SeedActivity creates a sector-board activity assigned to the given user.
func SeedActivity(t *testing.T, s *remote.SQLiteStore, sectorID, userID, title string) model.Activity {
	t.Helper()

	a, err := s.CreateActivity(context.Background(), model.Activity{
		Title:     title,
		SectorID:  sectorID,
		UserID:    userID,
		CreatedBy: userID,
	})
	if err != nil {
		t.Fatalf("seeding activity %q: %v", title, err)
	}
	return *a
}

// SeedListActivity creates a private activity inside a personal list.
func SeedListActivity(t *testing.T, s *remote.SQLiteStore, sectorID, userID, listID, title string) model.Activity {
	t.Helper()

	a, err := s.CreateActivity(context.Background(), model.Activity{
		Title:     title,
		SectorID:  sectorID,
		UserID:    userID,
		CreatedBy: userID,
		ListID:    &listID,
	})
	if err != nil {
		t.Fatalf("seeding list activity %q: %v", title, err)
	}
	return *a
}
