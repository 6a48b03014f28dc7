package diskio

import "go.opentelemetry.io/otel/metric"

// Metrics holds the instruments the scheduler reports on, grouped the same
// way the engine's other components group their otel instruments: one
// struct built once at construction time, created from a shared meter.
type Metrics struct {
	QueueDepth      metric.Int64UpDownCounter
	RequestsTotal   metric.Int64Counter
	RequestFailures metric.Int64Counter
	RequestLatency  metric.Int64Histogram
}

// NewMetrics registers the disk scheduler's instruments against meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	queueDepth, err := meter.Int64UpDownCounter(
		"corestore.disk.scheduler.queue_depth",
		metric.WithDescription("Number of disk requests enqueued but not yet completed."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	requestsTotal, err := meter.Int64Counter(
		"corestore.disk.scheduler.requests_total",
		metric.WithDescription("Total number of disk requests dispatched to the gateway."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	requestFailures, err := meter.Int64Counter(
		"corestore.disk.scheduler.request_failures_total",
		metric.WithDescription("Total number of disk requests that resolved with an error."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	requestLatency, err := meter.Int64Histogram(
		"corestore.disk.scheduler.request_duration",
		metric.WithDescription("Time a worker spends executing a request against the gateway."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		QueueDepth:      queueDepth,
		RequestsTotal:   requestsTotal,
		RequestFailures: requestFailures,
		RequestLatency:  requestLatency,
	}, nil
}
