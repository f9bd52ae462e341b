// Package order holds the advisory per-container item ordering used when
// no automatic sort is active. It is never persisted remotely; it exists
// so drag-reordering feels stable across re-renders before a refetch
// completes.
package order

import "sync"

// Mode selects how a container's items are ordered.
type Mode string

// Sort modes. Automatic modes (alphabetical, created) bypass the manual
// order without clearing it.
const (
	ModeManual       Mode = "manual"
	ModeAlphabetical Mode = "alphabetical"
	ModeCreated      Mode = "created"
)

// Store holds the manual orderings, keyed by container id.
type Store struct {
	mu     sync.Mutex
	orders map[string][]string
}

// NewStore creates an empty manual order store.
func NewStore() *Store {
	return &Store{orders: make(map[string][]string)}
}

// Seed records the fetched order for a container on first observation.
// An existing manual order is left alone.
func (s *Store) Seed(container string, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[container]; ok {
		return
	}
	s.orders[container] = append([]string(nil), ids...)
}

// Reseed unconditionally replaces a container's manual order with the
// given ids.
func (s *Store) Reseed(container string, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[container] = append([]string(nil), ids...)
}

// Apply returns the container's items in manual order. The manual order is
// used only while it covers exactly the fetched id set; any divergence
// (item added, removed, or moved scope) reseeds from fetch order.
func (s *Store) Apply(container string, fetched []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	manual, ok := s.orders[container]
	if !ok || !sameIDSet(manual, fetched) {
		s.orders[container] = append([]string(nil), fetched...)
		return append([]string(nil), fetched...)
	}
	return append([]string(nil), manual...)
}

// Move splices one id out of its container's order and reinserts it at
// newIndex. Returns false when the id is absent or the move is a no-op
// (old index equals new index).
func (s *Store) Move(container, id string, newIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.orders[container]
	if !ok {
		return false
	}

	oldIndex := -1
	for i, existing := range ids {
		if existing == id {
			oldIndex = i
			break
		}
	}
	if oldIndex == -1 {
		return false
	}

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= len(ids) {
		newIndex = len(ids) - 1
	}
	if newIndex == oldIndex {
		return false
	}

	ids = append(ids[:oldIndex], ids[oldIndex+1:]...)
	ids = append(ids[:newIndex], append([]string{id}, ids[newIndex:]...)...)
	s.orders[container] = ids
	return true
}

// Valid reports whether the container's manual order covers exactly the
// given id set, meaning Apply would honor it instead of reseeding.
func (s *Store) Valid(container string, ids []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	manual, ok := s.orders[container]
	return ok && sameIDSet(manual, ids)
}

// Order returns a copy of the container's current manual order.
func (s *Store) Order(container string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.orders[container]...)
}

// IndexOf returns id's position within the container's manual order, or -1.
func (s *Store) IndexOf(container, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.orders[container] {
		if existing == id {
			return i
		}
	}
	return -1
}

// sameIDSet reports whether two id slices contain the same ids,
// regardless of order.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
