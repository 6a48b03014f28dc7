package diskio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultWorkers matches the fixed pool size the baseline design uses: I/O
// bound work benefits from more workers than CPUs.
const DefaultWorkers = 32

// Op is the direction of a disk request.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Request is one page-sized read or write, resolved exactly once on Done.
type Request struct {
	ID     uuid.UUID
	Op     Op
	PageID PageID
	Data   []byte
	Done   chan error
}

// NewRequest builds a Request with a correlation id and a buffered
// completion channel, so the worker resolving it never blocks waiting for
// a receiver.
func NewRequest(op Op, pageID PageID, data []byte) *Request {
	return &Request{
		ID:     uuid.New(),
		Op:     op,
		PageID: pageID,
		Data:   data,
		Done:   make(chan error, 1),
	}
}

// Scheduler serializes disk requests from any number of callers onto a
// fixed worker pool and executes them against a Gateway. Schedule returns
// once the request is queued; callers wait on the Request's Done channel
// for the result.
type Scheduler struct {
	gateway *Gateway
	queue   chan *Request
	workers int
	wg      sync.WaitGroup
	closed  atomic.Bool

	limiter *rate.Limiter
	tracer  trace.Tracer
	metrics *Metrics
	logger  *zap.Logger
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithRateLimit throttles Schedule to at most rps requests per second,
// with burst allowed to queue past that rate briefly. It is a backpressure
// knob on the submitting goroutine, not on the workers.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Scheduler) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTracer attaches a tracer; each request gets one span covering its
// dispatch to the gateway.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scheduler) { s.tracer = tracer }
}

// WithMetrics attaches queue-depth and latency instruments.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler starts workers goroutines (DefaultWorkers if workers <= 0)
// pulling from a shared queue and dispatching against gateway.
func NewScheduler(gateway *Gateway, workers int, logger *zap.Logger, opts ...Option) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		gateway: gateway,
		queue:   make(chan *Request, workers*4),
		workers: workers,
		tracer:  noop.NewTracerProvider().Tracer(""),
		logger:  logger.With(zap.String("component", "disk_scheduler")),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.runWorker(i)
	}
	return s
}

// Schedule enqueues req for execution by some worker and returns once it
// is queued. The queue holds 4*workers requests; while it is full,
// Schedule blocks until a worker takes one, and with WithRateLimit it also
// waits for the limiter first. It panics if called after Close — scheduling on a closed
// scheduler is a programming error, not a runtime condition to recover
// from.
func (s *Scheduler) Schedule(req *Request) {
	if s.closed.Load() {
		panic("diskio: Schedule called on a closed Scheduler")
	}
	if s.limiter != nil {
		_ = s.limiter.Wait(context.Background())
	}
	if s.metrics != nil {
		s.metrics.QueueDepth.Add(context.Background(), 1)
	}
	s.queue <- req
}

// Close injects one stop sentinel per worker and blocks until every
// worker has observed its sentinel and returned. Idempotent.
func (s *Scheduler) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < s.workers; i++ {
		s.queue <- nil
	}
	s.wg.Wait()
}

func (s *Scheduler) runWorker(id int) {
	defer s.wg.Done()
	for req := range s.queue {
		if req == nil {
			return
		}
		s.execute(req)
	}
}

func (s *Scheduler) execute(req *Request) {
	start := time.Now()
	ctx, span := s.tracer.Start(context.Background(), "diskio.request",
		trace.WithAttributes(
			attribute.String("request_id", req.ID.String()),
			attribute.Int64("page_id", int64(req.PageID)),
			attribute.String("op", req.Op.String()),
		))
	defer span.End()

	var err error
	switch req.Op {
	case OpRead:
		err = s.gateway.ReadPage(req.PageID, req.Data)
	case OpWrite:
		err = s.gateway.WritePage(req.PageID, req.Data)
	default:
		err = fmt.Errorf("diskio: unknown op %v", req.Op)
	}

	if s.metrics != nil {
		s.metrics.QueueDepth.Add(ctx, -1)
		s.metrics.RequestsTotal.Add(ctx, 1)
		s.metrics.RequestLatency.Record(ctx, time.Since(start).Milliseconds())
		if err != nil {
			s.metrics.RequestFailures.Add(ctx, 1)
		}
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("disk request failed",
			zap.String("request_id", req.ID.String()),
			zap.Int32("page_id", int32(req.PageID)),
			zap.String("op", req.Op.String()),
			zap.Error(err))
	}
	req.Done <- err
}
