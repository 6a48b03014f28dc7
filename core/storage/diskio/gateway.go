package diskio

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// PageSize is the fixed size, in bytes, of every page the gateway moves
// between memory and disk. It is a compile-time constant of the engine.
const PageSize = 4096

// PageID identifies a page's location on disk. It persists across memory
// residency; the buffer pool, not the gateway, owns allocation of ids.
type PageID int32

// InvalidPageID is the sentinel page id, reserved and never handed out by
// an allocator.
const InvalidPageID PageID = -1

// Gateway synchronously reads and writes fixed-size pages against a single
// backing file, at offset id*PageSize. It has no notion of pinning,
// caching, or scheduling — those live one layer up, in the buffer pool and
// the disk scheduler respectively.
type Gateway struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	pageSize int
	logger   *zap.Logger
}

// Open opens (creating if necessary) the backing file at path for paged
// random access.
func Open(path string, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("diskio: opening %s: %w", path, err)
	}
	return &Gateway{
		file:     f,
		path:     path,
		pageSize: PageSize,
		logger:   logger.With(zap.String("component", "disk_gateway"), zap.String("path", path)),
	}, nil
}

// ReadPage reads exactly PageSize bytes for pageID into buf.
func (g *Gateway) ReadPage(pageID PageID, buf []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.file == nil {
		return ErrFileNotOpen
	}
	if len(buf) != g.pageSize {
		return fmt.Errorf("%w: got %d want %d", ErrBufferSize, len(buf), g.pageSize)
	}
	offset := int64(pageID) * int64(g.pageSize)
	n, err := g.file.ReadAt(buf, offset)
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: EOF reading page %d at offset %d", ErrShortIO, pageID, offset)
		}
		return fmt.Errorf("diskio: reading page %d: %w", pageID, err)
	}
	if n != g.pageSize {
		return fmt.Errorf("%w: read %d of %d bytes for page %d", ErrShortIO, n, g.pageSize, pageID)
	}
	return nil
}

// WritePage writes exactly PageSize bytes from buf at pageID's offset,
// extending the file if the page lies past the current end.
func (g *Gateway) WritePage(pageID PageID, buf []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.file == nil {
		return ErrFileNotOpen
	}
	if len(buf) != g.pageSize {
		return fmt.Errorf("%w: got %d want %d", ErrBufferSize, len(buf), g.pageSize)
	}
	offset := int64(pageID) * int64(g.pageSize)
	n, err := g.file.WriteAt(buf, offset)
	if err != nil {
		return fmt.Errorf("diskio: writing page %d: %w", pageID, err)
	}
	if n != g.pageSize {
		return fmt.Errorf("%w: wrote %d of %d bytes for page %d", ErrShortIO, n, g.pageSize, pageID)
	}
	return nil
}

// Sync flushes the backing file to stable storage.
func (g *Gateway) Sync() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.file == nil {
		return nil
	}
	return g.file.Sync()
}

// Close syncs and closes the backing file. Further calls are no-ops.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.file == nil {
		return nil
	}
	if err := g.file.Sync(); err != nil {
		g.logger.Warn("sync on close failed", zap.Error(err))
	}
	err := g.file.Close()
	g.file = nil
	return err
}
