package buffer

import "github.com/rhea-devare/corestore/core/storage/diskio"

// GuardIntent records what level of access a PageGuard was created for.
type GuardIntent int

const (
	// GuardBasic pins the page but takes no frame latch; the caller is
	// responsible for its own synchronization.
	GuardBasic GuardIntent = iota
	// GuardRead additionally holds the frame's latch for reading.
	GuardRead
	// GuardWrite additionally holds the frame's latch for writing, and
	// is unconditionally treated as dirty.
	GuardWrite
)

// PageGuard is a move-only handle on a pinned, resident frame: as long as
// it is held, the frame cannot be evicted. Drop releases the pin (and,
// for Read/Write guards, the frame latch) and is idempotent, so callers
// can defer it unconditionally even after an explicit early drop.
type PageGuard struct {
	pool    *Pool
	frame   *Frame
	pageID  diskio.PageID
	intent  GuardIntent
	dirty   bool
	dropped bool
}

func newPageGuard(pool *Pool, frame *Frame, pageID diskio.PageID, intent GuardIntent) *PageGuard {
	g := &PageGuard{pool: pool, frame: frame, pageID: pageID, intent: intent}
	switch intent {
	case GuardRead:
		frame.rlock()
	case GuardWrite:
		frame.lock()
		g.dirty = true
	}
	return g
}

// PageID reports the page this guard is holding.
func (g *PageGuard) PageID() diskio.PageID { return g.pageID }

// Data exposes the frame's bytes. A Basic guard gives no synchronization
// guarantee beyond the pin itself; Read and Write guards hold the
// frame's latch for the guard's whole lifetime.
func (g *PageGuard) Data() []byte {
	if g.dropped {
		panic("buffer: Data called on a dropped page guard")
	}
	return g.frame.Data()
}

// MarkDirty flags the page dirty so Drop propagates it to the pool.
// Write guards are already dirty unconditionally; calling MarkDirty on
// one has no additional effect.
func (g *PageGuard) MarkDirty() {
	if g.dropped {
		panic("buffer: MarkDirty called on a dropped page guard")
	}
	g.dirty = true
}

// Drop releases the guard's pin and, for Read/Write guards, the frame
// latch. Safe to call more than once; only the first call has an effect.
func (g *PageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	switch g.intent {
	case GuardRead:
		g.frame.runlock()
	case GuardWrite:
		g.frame.unlock()
	}
	g.pool.UnpinPage(g.pageID, g.dirty)
}

// NewPageGuarded allocates a fresh page and returns it as a write guard:
// a freshly allocated page is always presumed about to be written into.
func (p *Pool) NewPageGuarded() (*PageGuard, bool) {
	pageID, frame, ok := p.NewPage()
	if !ok {
		return nil, false
	}
	return newPageGuard(p, frame, pageID, GuardWrite), true
}

// FetchPageBasic fetches pageID with no frame latch taken.
func (p *Pool) FetchPageBasic(pageID diskio.PageID) (*PageGuard, bool) {
	frame, ok := p.FetchPage(pageID, AccessLookup)
	if !ok {
		return nil, false
	}
	return newPageGuard(p, frame, pageID, GuardBasic), true
}

// FetchPageRead fetches pageID and takes its frame's latch for reading.
func (p *Pool) FetchPageRead(pageID diskio.PageID) (*PageGuard, bool) {
	frame, ok := p.FetchPage(pageID, AccessLookup)
	if !ok {
		return nil, false
	}
	return newPageGuard(p, frame, pageID, GuardRead), true
}

// FetchPageWrite fetches pageID and takes its frame's latch for writing.
func (p *Pool) FetchPageWrite(pageID diskio.PageID) (*PageGuard, bool) {
	frame, ok := p.FetchPage(pageID, AccessLookup)
	if !ok {
		return nil, false
	}
	return newPageGuard(p, frame, pageID, GuardWrite), true
}
