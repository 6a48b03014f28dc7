package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/rhea-devare/corestore/core/storage/diskio"
	"github.com/rhea-devare/corestore/internal/debugutil"
)

// Frame is one fixed-size slot in the buffer pool's frame array: the
// bytes of at most one resident page, plus the metadata the pool and
// replacer need to manage it. Frames live for the lifetime of the pool;
// their identity is their index into that array.
type Frame struct {
	id       FrameID
	pageID   diskio.PageID
	data     []byte
	pinCount int
	dirty    bool

	// latch serializes I/O against readers of this frame's bytes. It is
	// acquired by page guards (read/write intent), not by the pool latch,
	// which only protects pool-wide bookkeeping (pin counts, the page
	// table, the free list).
	latch sync.RWMutex
	// writeLockedBy records which goroutine currently holds latch for
	// writing, so a second write-guard request from the same goroutine
	// fails fast instead of deadlocking against itself.
	writeLockedBy atomic.Int64
}

func newFrame(id FrameID, pageSize int) *Frame {
	return &Frame{
		id:     id,
		pageID: diskio.InvalidPageID,
		data:   make([]byte, pageSize),
	}
}

// reset clears a frame's metadata and zeroes its bytes, so stale page
// contents never leak into whatever page reuses this frame next.
func (f *Frame) reset() {
	f.pageID = diskio.InvalidPageID
	f.pinCount = 0
	f.dirty = false
	for i := range f.data {
		f.data[i] = 0
	}
}

// ID returns the frame's fixed position in the pool's frame array.
func (f *Frame) ID() FrameID { return f.id }

// PageID returns the page currently resident in this frame.
func (f *Frame) PageID() diskio.PageID { return f.pageID }

// Data exposes the frame's raw bytes for the caller to read or write
// under whatever lock discipline the caller's guard already established.
func (f *Frame) Data() []byte { return f.data }

// IsDirty reports whether the frame's bytes differ from what is on disk.
func (f *Frame) IsDirty() bool { return f.dirty }

// PinCount reports the number of outstanding pins on this frame.
func (f *Frame) PinCount() int { return f.pinCount }

func (f *Frame) pin()   { f.pinCount++ }
func (f *Frame) unpin() { f.pinCount-- }

func (f *Frame) rlock() { f.latch.RLock() }

func (f *Frame) runlock() { f.latch.RUnlock() }

func (f *Frame) lock() {
	gid := debugutil.GoID()
	if gid != -1 && f.writeLockedBy.Load() == gid {
		panic("buffer: write guard requested for a frame already write-locked by this goroutine")
	}
	f.latch.Lock()
	f.writeLockedBy.Store(gid)
}

func (f *Frame) unlock() {
	f.writeLockedBy.Store(0)
	f.latch.Unlock()
}
