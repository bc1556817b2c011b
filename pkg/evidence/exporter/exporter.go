package exporter

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mercator-hq/callisto/pkg/evidence"
)

// Config contains configuration for the evidence exporter.
type Config struct {
	// QueueSize is the capacity of the enqueue channel. Enqueue never
	// blocks: when the queue is full the record is dropped and counted.
	// Default: 1000
	QueueSize int

	// BatchSize is the maximum number of records per delivery.
	// Default: 50
	BatchSize int

	// FlushInterval bounds how long a partial batch waits before delivery.
	// Default: 2 seconds
	FlushInterval time.Duration

	// MaxAttempts is the number of delivery attempts per batch, including
	// the first. When exhausted the batch is dropped and counted.
	// Default: 5
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	// Default: 200 milliseconds
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay.
	// Default: 10 seconds
	MaxBackoff time.Duration

	// DeliveryTimeout bounds a single delivery attempt.
	// Default: 10 seconds
	DeliveryTimeout time.Duration

	// DrainTimeout bounds the shutdown drain.
	// Default: 15 seconds
	DrainTimeout time.Duration
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() *Config {
	return &Config{
		QueueSize:       1000,
		BatchSize:       50,
		FlushInterval:   2 * time.Second,
		MaxAttempts:     5,
		InitialBackoff:  200 * time.Millisecond,
		MaxBackoff:      10 * time.Second,
		DeliveryTimeout: 10 * time.Second,
		DrainTimeout:    15 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = d.FlushInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = d.DeliveryTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = d.DrainTimeout
	}
}

// Stats is a snapshot of the exporter's counters.
type Stats struct {
	Enqueued       uint64 `json:"enqueued"`
	Exported       uint64 `json:"exported"`
	DroppedQueue   uint64 `json:"dropped_queue"`
	DroppedRetries uint64 `json:"dropped_retries"`
	Batches        uint64 `json:"batches"`
	Retries        uint64 `json:"retries"`
}

// Exporter delivers finished evidence records to a sink in micro-batches,
// retrying transient failures with bounded exponential backoff. Delivery
// failures are absorbed here; they never reach the instrumented caller.
//
// Records handed to Enqueue are treated as immutable from that point on.
type Exporter struct {
	sink   evidence.Sink
	config *Config
	queue  chan *evidence.EvidenceRecord
	flush  chan chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once

	enqueued       atomic.Uint64
	exported       atomic.Uint64
	droppedQueue   atomic.Uint64
	droppedRetries atomic.Uint64
	batches        atomic.Uint64
	retries        atomic.Uint64
}

// New creates an exporter delivering to sink and starts its worker.
func New(sink evidence.Sink, config *Config) *Exporter {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	e := &Exporter{
		sink:   sink,
		config: config,
		queue:  make(chan *evidence.EvidenceRecord, config.QueueSize),
		flush:  make(chan chan struct{}),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "evidence.exporter"),
	}

	e.wg.Add(1)
	go e.worker()

	e.logger.Info("evidence exporter initialized",
		"queue_size", config.QueueSize,
		"batch_size", config.BatchSize,
		"flush_interval", config.FlushInterval,
		"max_attempts", config.MaxAttempts,
	)

	return e
}

// Enqueue hands a finished record to the exporter. It never blocks: when
// the queue is full the record is dropped, counted, and an ExportError is
// returned for the caller's log line.
func (e *Exporter) Enqueue(record *evidence.EvidenceRecord) error {
	select {
	case <-e.done:
		e.droppedQueue.Add(1)
		return evidence.NewExportError("queue", 1, 0, context.Canceled)
	default:
	}

	select {
	case e.queue <- record:
		e.enqueued.Add(1)
		return nil
	default:
		e.droppedQueue.Add(1)
		e.logger.Error("evidence queue full, dropping record",
			"span_id", record.SpanID,
			"control", record.Framework+"/"+record.ControlID,
			"queue_capacity", e.config.QueueSize,
		)
		return evidence.NewExportError("queue", 1, 0, context.DeadlineExceeded)
	}
}

// QueueDepth returns the number of records waiting in the queue.
func (e *Exporter) QueueDepth() int {
	return len(e.queue)
}

// QueueCapacity returns the configured queue capacity.
func (e *Exporter) QueueCapacity() int {
	return e.config.QueueSize
}

// Stats returns a snapshot of the exporter's counters.
func (e *Exporter) Stats() Stats {
	return Stats{
		Enqueued:       e.enqueued.Load(),
		Exported:       e.exported.Load(),
		DroppedQueue:   e.droppedQueue.Load(),
		DroppedRetries: e.droppedRetries.Load(),
		Batches:        e.batches.Load(),
		Retries:        e.retries.Load(),
	}
}

// Flush delivers everything queued so far and returns when the worker has
// drained it or ctx expires.
func (e *Exporter) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case e.flush <- ack:
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown drains the queue, closes the sink, and stops the worker. Records
// enqueued after Shutdown begins are dropped and counted.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.closeOnce.Do(func() {
		e.logger.Info("shutting down evidence exporter", "pending", len(e.queue))
		close(e.done)
	})

	waited := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(waited)
	}()

	drainCtx, cancel := context.WithTimeout(ctx, e.config.DrainTimeout)
	defer cancel()

	var err error
	select {
	case <-waited:
	case <-drainCtx.Done():
		err = drainCtx.Err()
		e.logger.Error("exporter drain timed out", "pending", len(e.queue))
	}

	if cerr := e.sink.Close(); cerr != nil && err == nil {
		err = cerr
	}

	stats := e.Stats()
	e.logger.Info("evidence exporter shut down",
		"exported", stats.Exported,
		"dropped_queue", stats.DroppedQueue,
		"dropped_retries", stats.DroppedRetries,
	)
	return err
}

// worker drains the queue into micro-batches: a batch ships when it reaches
// BatchSize or when FlushInterval elapses with records waiting.
func (e *Exporter) worker() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*evidence.EvidenceRecord, 0, e.config.BatchSize)

	ship := func() {
		if len(batch) == 0 {
			return
		}
		e.deliver(batch)
		batch = make([]*evidence.EvidenceRecord, 0, e.config.BatchSize)
	}

	for {
		select {
		case record := <-e.queue:
			batch = append(batch, record)
			if len(batch) >= e.config.BatchSize {
				ship()
			}

		case <-ticker.C:
			ship()

		case ack := <-e.flush:
			for drained := false; !drained; {
				select {
				case record := <-e.queue:
					batch = append(batch, record)
					if len(batch) >= e.config.BatchSize {
						ship()
					}
				default:
					drained = true
				}
			}
			ship()
			close(ack)

		case <-e.done:
			for drained := false; !drained; {
				select {
				case record := <-e.queue:
					batch = append(batch, record)
					if len(batch) >= e.config.BatchSize {
						ship()
					}
				default:
					drained = true
				}
			}
			ship()
			return
		}
	}
}

// deliver ships one batch, retrying transient failures with exponential
// backoff. When MaxAttempts is exhausted the batch is dropped and counted;
// the loss is logged, never propagated.
func (e *Exporter) deliver(batch []*evidence.EvidenceRecord) {
	e.batches.Add(1)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.config.InitialBackoff
	bo.MaxInterval = e.config.MaxBackoff
	bo.MaxElapsedTime = 0

	attempts := 0
	operation := func() error {
		attempts++
		ctx, cancel := context.WithTimeout(context.Background(), e.config.DeliveryTimeout)
		defer cancel()

		err := e.sink.Deliver(ctx, batch)
		if err != nil && attempts < e.config.MaxAttempts {
			e.retries.Add(1)
			e.logger.Warn("evidence batch delivery failed, retrying",
				"batch_size", len(batch),
				"attempt", attempts,
				"error", err,
			)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(bo, uint64(e.config.MaxAttempts-1)))
	if err != nil {
		e.droppedRetries.Add(uint64(len(batch)))
		e.logger.Error("evidence batch dropped after retries exhausted",
			"batch_size", len(batch),
			"attempts", attempts,
			"error", evidence.NewExportError(sinkName(e.sink), len(batch), attempts, err),
		)
		return
	}

	e.exported.Add(uint64(len(batch)))
	e.logger.Debug("evidence batch exported",
		"batch_size", len(batch),
		"attempts", attempts,
	)
}

// sinkName resolves a human-readable sink name for log lines.
func sinkName(s evidence.Sink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "sink"
}
