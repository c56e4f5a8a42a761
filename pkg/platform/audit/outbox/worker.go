// Package outbox ships persisted audit events from the outbox table to Kafka.
// The worker polls for unpublished rows, produces them, and marks them
// published, so an event survives process crashes between write and delivery.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	auditpg "caretrust/pkg/platform/audit/store/postgres"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 200
)

// Producer is the subset of kgo.Client the worker needs; narrowed for tests.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Outbox is the store surface the worker drains.
type Outbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]auditpg.OutboxRow, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Worker polls the audit outbox and publishes rows to a Kafka topic.
type Worker struct {
	outbox   Outbox
	producer Producer
	topic    string
	logger   *slog.Logger

	pollInterval time.Duration
	batchSize    int
}

// Option configures the Worker.
type Option func(*Worker)

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) { w.pollInterval = d }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) { w.batchSize = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// NewWorker builds a worker draining outbox into topic via producer.
func NewWorker(outbox Outbox, producer Producer, topic string, opts ...Option) *Worker {
	w := &Worker{
		outbox:       outbox,
		producer:     producer,
		topic:        topic,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// EnsureTopic creates the audit topic if it does not exist yet. Safe to call
// on every startup.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, partitions, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Run polls until ctx is cancelled. Publish failures are logged and retried on
// the next tick; rows stay unpublished until delivery succeeds.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.publishBatch(ctx); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "audit outbox publish failed", "error", err)
				}
			}
		}
	}
}

func (w *Worker) publishBatch(ctx context.Context) error {
	rows, err := w.outbox.ListUnpublished(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list outbox: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(rows))
	rowByRecord := make(map[*kgo.Record]uuid.UUID, len(rows))
	for _, row := range rows {
		rec := &kgo.Record{
			Topic: w.topic,
			Key:   []byte(row.ID.String()),
			Value: row.Payload,
		}
		records = append(records, rec)
		rowByRecord[rec] = row.ID
	}

	results := w.producer.ProduceSync(ctx, records...)

	// Mark only the rows whose produce succeeded; the rest retry next tick.
	published := make([]uuid.UUID, 0, len(rows))
	for _, res := range results {
		id := rowByRecord[res.Record]
		if res.Err != nil {
			if w.logger != nil {
				w.logger.WarnContext(ctx, "audit record produce failed",
					"outbox_id", id, "error", res.Err)
			}
			continue
		}
		published = append(published, id)
	}
	if len(published) == 0 {
		return nil
	}
	return w.outbox.MarkPublished(ctx, published, time.Now())
}
