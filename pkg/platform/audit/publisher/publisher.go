// Package publisher provides the fire-and-forget audit publisher.
//
// Events are buffered in a bounded ring and flushed to the store by a
// background worker. Emit never blocks the caller and never surfaces store
// failures; when the buffer is full the oldest events are dropped and the
// drop is counted. Reconciliation must not fail because auditing did.
package publisher

import (
	"context"
	"log/slog"
	"time"

	audit "caretrust/pkg/platform/audit"
)

const (
	defaultCapacity      = 10000
	defaultFlushInterval = 500 * time.Millisecond
	defaultBatchSize     = 100
)

// Publisher buffers audit events and flushes them asynchronously.
type Publisher struct {
	store  audit.Store
	buffer *ringBuffer
	logger *slog.Logger

	flushInterval time.Duration
	batchSize     int
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for flush-failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithCapacity bounds the in-flight buffer.
func WithCapacity(n int) Option {
	return func(p *Publisher) { p.buffer = newRingBuffer(n) }
}

// WithFlushInterval overrides how often the worker drains the buffer.
func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) { p.flushInterval = d }
}

// New creates a publisher writing to store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		buffer:        newRingBuffer(defaultCapacity),
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enqueues an event. It never blocks and never returns an error from the
// store; the error return exists to satisfy the service-side interface.
func (p *Publisher) Emit(_ context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	p.buffer.enqueue(event)
	return nil
}

// Run drains the buffer until ctx is cancelled, then performs a final flush.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.flush(context.Background())
			return ctx.Err()
		case <-ticker.C:
			p.flush(ctx)
		}
	}
}

// Dropped reports how many events were lost to buffer overflow.
func (p *Publisher) Dropped() int64 { return p.buffer.droppedCount() }

func (p *Publisher) flush(ctx context.Context) {
	for {
		batch := p.buffer.dequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := p.store.Append(ctx, event); err != nil {
				// Best-effort: log and move on, the event is lost.
				if p.logger != nil {
					p.logger.ErrorContext(ctx, "audit append failed",
						"action", event.Action,
						"entity_id", event.EntityID,
						"error", err,
					)
				}
			}
		}
		if len(batch) < p.batchSize {
			return
		}
	}
}
