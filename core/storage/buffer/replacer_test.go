package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplacerEvictsInfiniteDistanceBeforeFinite(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(1, AccessUnknown) // frame 1: 2 accesses, finite distance
	r.RecordAccess(2, AccessUnknown) // frame 2: 1 access, infinite distance

	r.SetEvictable(1, true)
	r.SetEvictable(2, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(2), victim)
}

func TestReplacerTieBreaksInfiniteByEarliestOldestAccess(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	r.RecordAccess(1, AccessUnknown) // earliest single access
	r.RecordAccess(2, AccessUnknown) // later single access

	r.SetEvictable(1, true)
	r.SetEvictable(2, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(1), victim, "the frame accessed longest ago should be evicted first")
}

func TestReplacerSkipsNonEvictableFrames(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(2, AccessUnknown)
	r.SetEvictable(2, true) // frame 1 stays pinned / non-evictable

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(2), victim)
}

func TestReplacerEvictReturnsFalseWhenNoneEvictable(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(1, AccessUnknown)

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestReplacerSetEvictableIdempotent(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(1, AccessUnknown)
	r.SetEvictable(1, true)
	r.SetEvictable(1, true) // no-op, must not double count
	require.Equal(t, 1, r.Size())
	r.SetEvictable(1, false)
	r.SetEvictable(1, false)
	require.Equal(t, 0, r.Size())
}

func TestReplacerSetEvictableUnknownFramePanics(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	require.Panics(t, func() { r.SetEvictable(99, true) })
}

func TestReplacerSetEvictableAboveCapacityPanics(t *testing.T) {
	r := NewLRUKReplacer(1, 2)
	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(2, AccessUnknown)
	r.SetEvictable(1, true)
	require.Panics(t, func() { r.SetEvictable(2, true) })
}

func TestReplacerRemoveNonEvictablePanics(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	r.RecordAccess(1, AccessUnknown)
	require.Panics(t, func() { r.Remove(1) })
}

func TestReplacerRemoveUnknownFrameIsNoOp(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	require.NotPanics(t, func() { r.Remove(42) })
}

func TestReplacerSizeTracksEvictableCount(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	require.Equal(t, 0, r.Size())
	r.RecordAccess(1, AccessUnknown)
	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())
	r.RecordAccess(2, AccessUnknown)
	r.SetEvictable(2, true)
	require.Equal(t, 2, r.Size())
	_, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, 1, r.Size())
}

// TestReplacerScenario: with pool size 3 and K=2, frame 2 gets only one
// recorded access and so has infinite k-distance, making it the next
// victim even though frames 0 and 1 were accessed earlier overall.
func TestReplacerScenario(t *testing.T) {
	r := NewLRUKReplacer(3, 2)

	for _, f := range []FrameID{0, 1, 2} {
		r.RecordAccess(f, AccessUnknown)
		r.SetEvictable(f, true)
	}
	// additional accesses to 0 and 1, none to 2
	r.RecordAccess(0, AccessUnknown)
	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(0, AccessUnknown)
	r.RecordAccess(1, AccessUnknown)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, FrameID(2), victim)
}
