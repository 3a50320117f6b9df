// Package publisher delivers security events to their sinks asynchronously.
//
// Events are buffered in memory and flushed in batches by a background
// worker. Callers never block on sink I/O. Failed writes are retried per sink
// with exponential backoff; when the buffer is full the oldest event is dropped.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"leadgate/internal/security/events/models"
	"leadgate/pkg/platform/retry"
)

// Sink persists a batch of events. Implementations must be safe for use by
// the single flush worker plus Close.
type Sink interface {
	Name() string
	Append(ctx context.Context, events []models.Event) error
}

// Publisher fans buffered events out to every configured sink.
type Publisher struct {
	sinks   []Sink
	buffer  *RingBuffer
	logger  *slog.Logger
	metrics *Metrics

	maxAttempts  int
	retryBackoff time.Duration

	flushInterval time.Duration
	batchSize     int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	flushMu sync.Mutex
	closed  atomic.Bool

	flushed           atomic.Int64
	retries           atomic.Int64
	droppedAfterRetry atomic.Int64
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBufferSize sets the buffer capacity.
func WithBufferSize(size int) Option {
	return func(p *Publisher) {
		p.buffer = NewRingBuffer(size)
	}
}

// WithMaxAttempts sets how many times a batch is offered to a failing sink.
func WithMaxAttempts(n int) Option {
	return func(p *Publisher) {
		p.maxAttempts = n
	}
}

func WithRetryBackoff(d time.Duration) Option {
	return func(p *Publisher) {
		p.retryBackoff = d
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		p.flushInterval = d
	}
}

func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		p.batchSize = n
	}
}

// New creates a publisher and starts its flush worker.
func New(sinks []Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sinks:         sinks,
		buffer:        NewRingBuffer(10000),
		logger:        slog.Default(),
		maxAttempts:   4,
		retryBackoff:  100 * time.Millisecond,
		flushInterval: 100 * time.Millisecond,
		batchSize:     100,
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p
}

// Emit queues an event. It never blocks and never fails; after Close the
// event is discarded.
func (p *Publisher) Emit(event models.Event) {
	if p.closed.Load() {
		return
	}
	if p.buffer.Enqueue(event) && p.metrics != nil {
		p.metrics.IncDropped()
	}
	if p.metrics != nil {
		p.metrics.SetQueueDepth(p.buffer.Len())
	}
}

// Flush forces an immediate flush of one batch.
func (p *Publisher) Flush(ctx context.Context) {
	p.flushBatch(ctx)
}

// Close stops the worker and drains what is left in the buffer, bounded by ctx.
func (p *Publisher) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.cancel()
	p.wg.Wait()

	for p.buffer.Len() > 0 {
		if ctx.Err() != nil {
			p.logger.Warn("security event buffer not fully drained on shutdown",
				"remaining", p.buffer.Len(),
			)
			return ctx.Err()
		}
		p.flushBatch(ctx)
	}
	return nil
}

// Stats holds buffer statistics. Flushed and DroppedAfterRetry count
// deliveries, so one event written to two sinks counts twice.
type Stats struct {
	Queued            int64
	Flushed           int64
	Dropped           int64
	DroppedAfterRetry int64
	Retries           int64
}

func (p *Publisher) Stats() Stats {
	return Stats{
		Queued:            int64(p.buffer.Len()),
		Flushed:           p.flushed.Load(),
		Dropped:           p.buffer.Dropped(),
		DroppedAfterRetry: p.droppedAfterRetry.Load(),
		Retries:           p.retries.Load(),
	}
}

func (p *Publisher) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.flushBatch(p.ctx)
		}
	}
}

func (p *Publisher) flushBatch(ctx context.Context) {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	batch := p.buffer.DequeueBatch(p.batchSize)
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	for _, sink := range p.sinks {
		p.appendWithRetry(ctx, sink, batch)
	}

	if p.metrics != nil {
		p.metrics.ObserveFlushDuration(time.Since(start).Seconds())
		p.metrics.SetQueueDepth(p.buffer.Len())
	}
}

func (p *Publisher) appendWithRetry(ctx context.Context, sink Sink, batch []models.Event) {
	policy := retry.Policy{
		MaxAttempts: p.maxAttempts,
		Backoff:     retry.Exponential(p.retryBackoff, 5*time.Second, 2),
		OnRetry: func(attempt int, err error, next time.Duration) {
			p.retries.Add(1)
			if p.metrics != nil {
				p.metrics.IncRetries(sink.Name())
			}
			p.logger.Debug("retrying security event write",
				"sink", sink.Name(),
				"attempt", attempt,
				"backoff", next,
				"error", err,
			)
		},
	}

	res := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		return sink.Append(ctx, batch)
	})
	if res.Err == nil {
		p.flushed.Add(int64(len(batch)))
		if p.metrics != nil {
			p.metrics.AddFlushed(sink.Name(), len(batch))
		}
		return
	}

	p.droppedAfterRetry.Add(int64(len(batch)))
	if p.metrics != nil {
		p.metrics.AddDroppedAfterRetry(sink.Name(), len(batch))
	}
	p.logger.Warn("security events dropped after retries",
		"sink", sink.Name(),
		"count", len(batch),
		"attempts", res.Attempts,
		"error", res.Err,
	)
}
