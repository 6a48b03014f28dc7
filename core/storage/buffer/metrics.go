package buffer

import "go.opentelemetry.io/otel/metric"

// Metrics holds the buffer pool's otel instruments, built once from a
// shared meter the same way the rest of the engine wires up its
// instrumentation.
type Metrics struct {
	Hits        metric.Int64Counter
	Misses      metric.Int64Counter
	Evictions   metric.Int64Counter
	Flushes     metric.Int64Counter
	FramesInUse metric.Int64UpDownCounter
}

// NewMetrics registers the buffer pool's instruments against meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	hits, err := meter.Int64Counter(
		"corestore.buffer.pool.hits_total",
		metric.WithDescription("FetchPage calls served without a disk read."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"corestore.buffer.pool.misses_total",
		metric.WithDescription("NewPage and FetchPage calls not served by an already-resident page."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"corestore.buffer.pool.evictions_total",
		metric.WithDescription("Frames reclaimed from the replacer for reuse."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	flushes, err := meter.Int64Counter(
		"corestore.buffer.pool.flushes_total",
		metric.WithDescription("Pages written back to disk by FlushPage or FlushAllPages."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	framesInUse, err := meter.Int64UpDownCounter(
		"corestore.buffer.pool.frames_in_use",
		metric.WithDescription("Frames currently holding a resident page."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Hits:        hits,
		Misses:      misses,
		Evictions:   evictions,
		Flushes:     flushes,
		FramesInUse: framesInUse,
	}, nil
}
