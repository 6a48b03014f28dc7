package buffer

import (
	"context"
	"sync"

	"github.com/rhea-devare/corestore/core/storage/diskio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Pool owns a fixed array of frames, a free list, and a page table, and
// mediates every page fault against a disk scheduler. Every public
// operation is serialized under a single pool-wide mutex; the frame
// reader/writer latches (held by page guards) are separate and only
// serialize access to a single frame's bytes.
type Pool struct {
	mu sync.Mutex

	frames    []*Frame
	freeList  []FrameID
	pageTable map[diskio.PageID]FrameID
	replacer  *LRUKReplacer
	scheduler *diskio.Scheduler

	nextPageID diskio.PageID
	pageSize   int

	logger  *zap.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// Option configures optional Pool behavior.
type Option func(*Pool)

// WithTracer attaches a tracer; each NewPage and FetchPage call gets a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pool) { p.tracer = tracer }
}

// WithMetrics attaches hit/miss/eviction/flush instruments.
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// NewPool builds a pool of size frames, backed by scheduler for disk I/O,
// using the LRU-K policy with parameter k.
func NewPool(size, k int, scheduler *diskio.Scheduler, logger *zap.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		frames:    make([]*Frame, size),
		freeList:  make([]FrameID, size),
		pageTable: make(map[diskio.PageID]FrameID),
		replacer:  NewLRUKReplacer(size, k),
		scheduler: scheduler,
		pageSize:  diskio.PageSize,
		logger:    logger.With(zap.String("component", "buffer_pool")),
		tracer:    noop.NewTracerProvider().Tracer(""),
	}
	for i := 0; i < size; i++ {
		p.frames[i] = newFrame(FrameID(i), p.pageSize)
		p.freeList[i] = FrameID(i)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPage allocates a fresh page id and a pinned frame for it. The
// returned frame's bytes are zeroed and its dirty flag is false. Returns
// ok=false iff no frame could be obtained; the page id is still consumed
// and never reused, matching the allocator's no-reuse guarantee.
func (p *Pool) NewPage() (diskio.PageID, *Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := p.startSpan("buffer.new_page", diskio.InvalidPageID)
	defer span.End()

	pageID := p.nextPageID
	p.nextPageID++

	frame, ok := p.acquireFrame(ctx)
	if !ok {
		p.countMiss(ctx)
		return diskio.InvalidPageID, nil, false
	}

	frame.pageID = pageID
	frame.pin()
	frame.dirty = false
	p.replacer.SetEvictable(frame.ID(), false)
	p.pageTable[pageID] = frame.ID()
	p.countMiss(ctx)
	p.addFrameInUse(ctx, 1)

	span.SetAttributes(attribute.Int64("page_id", int64(pageID)))
	p.logger.Debug("new page", zap.Int32("page_id", int32(pageID)), zap.Int32("frame_id", int32(frame.ID())))
	return pageID, frame, true
}

// FetchPage returns the resident frame for pageID, pinning it and
// recording the access. On a miss it reads the page through the disk
// scheduler first. Returns ok=false iff no frame could be obtained or
// the read faulted.
func (p *Pool) FetchPage(pageID diskio.PageID, accessType AccessType) (*Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := p.startSpan("buffer.fetch_page", pageID)
	defer span.End()

	if frameID, ok := p.pageTable[pageID]; ok {
		frame := p.frames[frameID]
		frame.pin()
		p.replacer.RecordAccess(frameID, accessType)
		p.replacer.SetEvictable(frameID, false)
		p.countHit(ctx)
		return frame, true
	}

	frame, ok := p.acquireFrame(ctx)
	if !ok {
		p.countMiss(ctx)
		return nil, false
	}

	// Install the page-table entry and mark the frame non-evictable
	// before the disk read completes: a concurrent FetchPage of the
	// same absent id blocks on the pool mutex and observes this entry
	// once the read finishes, instead of issuing a duplicate read.
	p.replacer.SetEvictable(frame.ID(), false)
	p.pageTable[pageID] = frame.ID()

	if err := p.readThrough(pageID, frame); err != nil {
		delete(p.pageTable, pageID)
		p.abandonFrame(frame)
		p.logger.Warn("fetch page faulted", zap.Int32("page_id", int32(pageID)), zap.Error(err))
		p.countMiss(ctx)
		return nil, false
	}

	frame.pageID = pageID
	frame.pin()
	frame.dirty = false
	p.replacer.RecordAccess(frame.ID(), accessType)
	p.countMiss(ctx)
	p.addFrameInUse(ctx, 1)
	return frame, true
}

// UnpinPage decrements pageID's pin count and, if it reaches zero, marks
// its frame evictable. isDirty is OR'd into the frame's dirty flag — true
// never downgrades to false. Returns false if the page is not resident or
// already unpinned.
func (p *Pool) UnpinPage(pageID diskio.PageID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return false
	}
	frame := p.frames[frameID]
	if frame.PinCount() == 0 {
		return false
	}
	frame.unpin()
	if isDirty {
		frame.dirty = true
	}
	if frame.PinCount() == 0 {
		p.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage writes pageID's bytes through the disk scheduler and clears
// its dirty flag. Returns false if the page is not resident, the id is
// invalid, or the write itself fails (the frame then stays dirty and
// resident, never losing data).
func (p *Pool) FlushPage(pageID diskio.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pageID == diskio.InvalidPageID {
		return false
	}
	frameID, ok := p.pageTable[pageID]
	if !ok {
		return false
	}
	frame := p.frames[frameID]
	if err := p.writeThrough(frame); err != nil {
		p.logger.Error("flush page failed", zap.Int32("page_id", int32(pageID)), zap.Error(err))
		return false
	}
	frame.dirty = false
	p.countFlush(context.Background())
	return true
}

// FlushAllPages flushes every currently resident page, taking the pool
// latch once for the whole sweep.
func (p *Pool) FlushAllPages() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for pageID, frameID := range p.pageTable {
		frame := p.frames[frameID]
		if err := p.writeThrough(frame); err != nil {
			p.logger.Error("flush all pages: page failed", zap.Int32("page_id", int32(pageID)), zap.Error(err))
			continue
		}
		frame.dirty = false
		p.countFlush(context.Background())
	}
}

// DeletePage removes pageID from the pool, returning its frame to the
// free list. Returns true vacuously if the page is not resident, false
// if it is still pinned. A dirty deleted page's bytes are never written
// back.
func (p *Pool) DeletePage(pageID diskio.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return true
	}
	frame := p.frames[frameID]
	if frame.PinCount() > 0 {
		return false
	}

	delete(p.pageTable, pageID)
	p.replacer.Remove(frameID)
	frame.reset()
	p.freeList = append(p.freeList, frameID)
	p.addFrameInUse(context.Background(), -1)
	return true
}

// acquireFrame obtains a frame from the free list, or by evicting a
// replacer victim (writing it back first if dirty). Returns ok=false if
// neither source yields a frame.
func (p *Pool) acquireFrame(ctx context.Context) (*Frame, bool) {
	if len(p.freeList) > 0 {
		id := p.freeList[0]
		p.freeList = p.freeList[1:]
		frame := p.frames[id]
		p.replacer.RecordAccess(id, AccessUnknown)
		return frame, true
	}

	victimID, ok := p.replacer.Evict()
	if !ok {
		return nil, false
	}
	frame := p.frames[victimID]

	if frame.IsDirty() {
		if err := p.writeThrough(frame); err != nil {
			// A failed write during eviction must not lose data: keep
			// the dirty frame resident and report "no frame" upward.
			p.replacer.RecordAccess(victimID, AccessUnknown)
			p.replacer.SetEvictable(victimID, true)
			p.logger.Warn("eviction write-back failed, keeping frame resident",
				zap.Int32("page_id", int32(frame.PageID())), zap.Error(err))
			return nil, false
		}
	}

	delete(p.pageTable, frame.PageID())
	frame.reset()
	p.replacer.RecordAccess(victimID, AccessUnknown)
	p.countEviction(ctx)
	p.addFrameInUse(ctx, -1)
	return frame, true
}

// abandonFrame undoes a frame allocation that never got to host a page
// (a fetch that faulted on read), returning it to the free list.
func (p *Pool) abandonFrame(frame *Frame) {
	frame.reset()
	p.replacer.SetEvictable(frame.ID(), true)
	p.replacer.Remove(frame.ID())
	p.freeList = append(p.freeList, frame.ID())
}

func (p *Pool) writeThrough(frame *Frame) error {
	req := diskio.NewRequest(diskio.OpWrite, frame.PageID(), frame.Data())
	p.scheduler.Schedule(req)
	return <-req.Done
}

func (p *Pool) readThrough(pageID diskio.PageID, frame *Frame) error {
	req := diskio.NewRequest(diskio.OpRead, pageID, frame.Data())
	p.scheduler.Schedule(req)
	return <-req.Done
}

func (p *Pool) startSpan(name string, pageID diskio.PageID) (context.Context, trace.Span) {
	ctx, span := p.tracer.Start(context.Background(), name)
	if pageID != diskio.InvalidPageID {
		span.SetAttributes(attribute.Int64("page_id", int64(pageID)))
	}
	return ctx, span
}

func (p *Pool) countHit(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.Hits.Add(ctx, 1)
	}
}

func (p *Pool) countMiss(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.Misses.Add(ctx, 1)
	}
}

func (p *Pool) countEviction(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.Evictions.Add(ctx, 1)
	}
}

func (p *Pool) countFlush(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.Flushes.Add(ctx, 1)
	}
}

func (p *Pool) addFrameInUse(ctx context.Context, delta int64) {
	if p.metrics != nil {
		p.metrics.FramesInUse.Add(ctx, delta)
	}
}
