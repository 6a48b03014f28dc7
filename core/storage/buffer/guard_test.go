package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageGuardWriteGuardDirtiesOnDrop(t *testing.T) {
	p := newTestPool(t, 2, 2)

	guard, ok := p.NewPageGuarded()
	require.True(t, ok)
	pageID := guard.PageID()
	frameID := p.pageTable[pageID]

	copy(guard.Data(), []byte("x"))
	guard.Drop()

	require.True(t, p.frames[frameID].IsDirty())
	require.False(t, p.UnpinPage(pageID, false), "Drop already released the pin")
}

func TestPageGuardReadGuardNeverDirties(t *testing.T) {
	p := newTestPool(t, 2, 2)

	pageID, _, ok := p.NewPage()
	require.True(t, ok)
	require.True(t, p.UnpinPage(pageID, false))

	guard, ok := p.FetchPageRead(pageID)
	require.True(t, ok)
	frameID := p.pageTable[pageID]
	guard.Drop()

	require.False(t, p.frames[frameID].IsDirty())
}

func TestPageGuardBasicMarkDirtyIsExplicit(t *testing.T) {
	p := newTestPool(t, 2, 2)

	pageID, _, ok := p.NewPage()
	require.True(t, ok)
	require.True(t, p.UnpinPage(pageID, false))

	guard, ok := p.FetchPageBasic(pageID)
	require.True(t, ok)
	frameID := p.pageTable[pageID]
	guard.Drop()
	require.False(t, p.frames[frameID].IsDirty(), "undirtied basic guard must not mark dirty")

	guard2, ok := p.FetchPageBasic(pageID)
	require.True(t, ok)
	guard2.MarkDirty()
	guard2.Drop()
	require.True(t, p.frames[frameID].IsDirty())
}

func TestPageGuardDropIsIdempotent(t *testing.T) {
	p := newTestPool(t, 1, 2)
	guard, ok := p.NewPageGuarded()
	require.True(t, ok)

	guard.Drop()
	require.NotPanics(t, func() { guard.Drop() })
}

func TestPageGuardDataPanicsAfterDrop(t *testing.T) {
	p := newTestPool(t, 1, 2)
	guard, ok := p.NewPageGuarded()
	require.True(t, ok)

	guard.Drop()
	require.Panics(t, func() { guard.Data() })
}

func TestFetchPageWriteGuardFailsWhenPoolExhausted(t *testing.T) {
	p := newTestPool(t, 1, 2)
	_, ok := p.NewPageGuarded() // pins the only frame, never dropped
	require.True(t, ok)

	_, ok = p.FetchPageWrite(99)
	require.False(t, ok)
}
