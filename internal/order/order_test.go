package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedOnlyRecordsFirstObservation(t *testing.T) {
	s := NewStore()

	s.Seed("list:1", []string{"a", "b", "c"})
	s.Seed("list:1", []string{"c", "b", "a"})

	assert.Equal(t, []string{"a", "b", "c"}, s.Order("list:1"))
}

func TestReseedReplacesUnconditionally(t *testing.T) {
	s := NewStore()

	s.Seed("list:1", []string{"a", "b"})
	s.Reseed("list:1", []string{"b", "a"})

	assert.Equal(t, []string{"b", "a"}, s.Order("list:1"))
}

func TestMoveSplicesItemToNewIndex(t *testing.T) {
	s := NewStore()
	s.Seed("list:1", []string{"a", "b", "c", "d"})

	moved := s.Move("list:1", "d", 1)

	assert.True(t, moved)
	assert.Equal(t, []string{"a", "d", "b", "c"}, s.Order("list:1"))
}

func TestMoveToSameIndexIsNoOp(t *testing.T) {
	s := NewStore()
	s.Seed("list:1", []string{"a", "b", "c"})

	assert.False(t, s.Move("list:1", "b", 1))
	assert.Equal(t, []string{"a", "b", "c"}, s.Order("list:1"))
}

func TestMoveUnknownIDFails(t *testing.T) {
	s := NewStore()
	s.Seed("list:1", []string{"a"})

	assert.False(t, s.Move("list:1", "zz", 0))
	assert.False(t, s.Move("list:2", "a", 0))
}

func TestMoveClampsIndex(t *testing.T) {
	s := NewStore()
	s.Seed("list:1", []string{"a", "b", "c"})

	assert.True(t, s.Move("list:1", "a", 99))
	assert.Equal(t, []string{"b", "c", "a"}, s.Order("list:1"))

	assert.True(t, s.Move("list:1", "a", -5))
	assert.Equal(t, []string{"a", "b", "c"}, s.Order("list:1"))
}

func TestApplyUsesManualOrderWhileIDSetMatches(t *testing.T) {
	s := NewStore()
	s.Seed("list:1", []string{"a", "b", "c"})
	s.Move("list:1", "c", 0)

	got := s.Apply("list:1", []string{"a", "b", "c"})

	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestApplyReseedsOnDivergentIDSet(t *testing.T) {
	s := NewStore()
	s.Seed("list:1", []string{"a", "b", "c"})
	s.Move("list:1", "c", 0)

	// An item left the container remotely; manual order is abandoned.
	got := s.Apply("list:1", []string{"a", "b", "d"})

	assert.Equal(t, []string{"a", "b", "d"}, got)
	assert.Equal(t, []string{"a", "b", "d"}, s.Order("list:1"))
}

func TestIndexOf(t *testing.T) {
	s := NewStore()
	s.Seed("list:1", []string{"a", "b"})

	assert.Equal(t, 1, s.IndexOf("list:1", "b"))
	assert.Equal(t, -1, s.IndexOf("list:1", "zz"))
}

func TestValidTracksCoverage(t *testing.T) {
	s := NewStore()

	assert.False(t, s.Valid("list:1", []string{"a", "b"}))

	s.Seed("list:1", []string{"a", "b"})
	assert.True(t, s.Valid("list:1", []string{"b", "a"}))
	assert.False(t, s.Valid("list:1", []string{"a", "b", "c"}))
}
