package diskio

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *Gateway {
	gw, err := Open(filepath.Join(t.TempDir(), "data.db"), testLogger(t))
	require.NoError(t, err)
	return gw
}

// pageCounter is a tiny goroutine-safe id allocator local to this test file.
type pageCounter struct {
	mu sync.Mutex
	n  int
}

func (c *pageCounter) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func TestSchedulerConcurrentWritesAllComplete(t *testing.T) {
	gw := newTestGateway(t)
	defer gw.Close()

	sched := NewScheduler(gw, 8, testLogger(t))
	defer sched.Close()

	const producers = 4
	const writesPerProducer = 25

	var wg sync.WaitGroup
	var counter pageCounter
	errs := make(chan error, producers*writesPerProducer)

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < writesPerProducer; i++ {
				id := PageID(counter.next())
				data := make([]byte, PageSize)
				data[0] = byte(producer)
				req := NewRequest(OpWrite, id, data)
				sched.Schedule(req)
				errs <- <-req.Done
			}
		}(p)
	}
	wg.Wait()
	close(errs)

	total := 0
	for err := range errs {
		require.NoError(t, err)
		total++
	}
	require.Equal(t, producers*writesPerProducer, total)
}

func TestSchedulerResolvesReadAndWrite(t *testing.T) {
	gw := newTestGateway(t)
	defer gw.Close()

	sched := NewScheduler(gw, 2, testLogger(t))
	defer sched.Close()

	payload := make([]byte, PageSize)
	payload[0] = 0x42
	writeReq := NewRequest(OpWrite, PageID(1), payload)
	sched.Schedule(writeReq)
	require.NoError(t, <-writeReq.Done)

	readBuf := make([]byte, PageSize)
	readReq := NewRequest(OpRead, PageID(1), readBuf)
	sched.Schedule(readReq)
	require.NoError(t, <-readReq.Done)
	require.Equal(t, payload, readBuf)
}

func TestSchedulerPanicsAfterClose(t *testing.T) {
	gw := newTestGateway(t)
	defer gw.Close()

	sched := NewScheduler(gw, 2, testLogger(t))
	sched.Close()

	require.Panics(t, func() {
		sched.Schedule(NewRequest(OpRead, PageID(0), make([]byte, PageSize)))
	})
}

func TestSchedulerCloseIsIdempotent(t *testing.T) {
	gw := newTestGateway(t)
	defer gw.Close()

	sched := NewScheduler(gw, 2, testLogger(t))
	sched.Close()
	require.NotPanics(t, sched.Close)
}
