// Package reminder queues outbound expiry reminders for a downstream sender
// to deliver. Queueing is best-effort: a reminder that cannot be queued is
// logged and dropped, never surfaced to the sweep that produced it.
package reminder

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	docmodels "caretrust/internal/document/models"
	entitymodels "caretrust/internal/entity/models"
	"caretrust/internal/platform/redis"
	"caretrust/internal/registry"
	"caretrust/pkg/email"
)

// QueueKey is the list the downstream sender consumes with BRPOP.
const QueueKey = "caretrust:reminders"

const dedupePrefix = "caretrust:reminders:sent:"

// Job is one queued reminder, serialized as JSON on the queue.
type Job struct {
	EntityID        string    `json:"entity_id"`
	Kind            string    `json:"kind"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	DocumentID      string    `json:"document_id"`
	DocumentType    string    `json:"document_type"`
	DocumentName    string    `json:"document_name"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	ExpiryDate      time.Time `json:"expiry_date"`
	QueuedAt        time.Time `json:"queued_at"`
}

// Queue pushes expiry reminder jobs to Redis. A nil client disables the
// queue: every enqueue becomes a silent no-op.
type Queue struct {
	client    *redis.Client
	registry  *registry.Registry
	logger    *slog.Logger
	dedupeTTL time.Duration
}

// Option configures the Queue.
type Option func(*Queue)

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// WithDedupeTTL overrides how long a queued reminder suppresses repeats for
// the same document.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		if ttl > 0 {
			q.dedupeTTL = ttl
		}
	}
}

// New constructs the reminder queue. client may be nil.
func New(client *redis.Client, reg *registry.Registry, opts ...Option) *Queue {
	q := &Queue{
		client:    client,
		registry:  reg,
		dedupeTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// EnqueueExpiry queues one reminder for an expiring document. A SETNX dedupe
// key suppresses repeat reminders for the same document within the TTL, so
// overlapping sweeps do not spam owners.
func (q *Queue) EnqueueExpiry(ctx context.Context, entity *entitymodels.Entity, doc *docmodels.Document, daysUntilExpiry int) error {
	if q.client == nil {
		return nil
	}

	dedupeKey := dedupePrefix + doc.ID.String()
	fresh, err := q.client.SetNX(ctx, dedupeKey, "1", q.dedupeTTL).Result()
	if err != nil {
		q.log(ctx, slog.LevelWarn, "reminder dedupe check failed", "document_id", doc.ID.String(), "error", err)
		return nil
	}
	if !fresh {
		return nil
	}

	firstName, lastName := email.DeriveNameFromEmail(entity.Email)
	if entity.Name != "" {
		firstName, lastName = splitName(entity.Name)
	}

	job := Job{
		EntityID:        entity.ID.String(),
		Kind:            string(entity.Kind),
		Email:           entity.Email,
		FirstName:       firstName,
		LastName:        lastName,
		DocumentID:      doc.ID.String(),
		DocumentType:    doc.Type,
		DocumentName:    q.registry.DisplayName(doc.Kind, doc.Type),
		DaysUntilExpiry: daysUntilExpiry,
		QueuedAt:        time.Now().UTC(),
	}
	if doc.ExpiryDate != nil {
		job.ExpiryDate = *doc.ExpiryDate
	}

	payload, err := json.Marshal(job)
	if err != nil {
		q.log(ctx, slog.LevelError, "reminder job marshal failed", "document_id", doc.ID.String(), "error", err)
		return nil
	}

	if err := q.client.LPush(ctx, QueueKey, payload).Err(); err != nil {
		// release the dedupe key so the next sweep retries
		q.client.Del(ctx, dedupeKey)
		q.log(ctx, slog.LevelWarn, "reminder enqueue failed", "document_id", doc.ID.String(), "error", err)
		return nil
	}

	q.log(ctx, slog.LevelInfo, "expiry reminder queued",
		"entity_id", job.EntityID, "document_type", job.DocumentType, "days_until_expiry", daysUntilExpiry)
	return nil
}

func splitName(full string) (string, string) {
	if i := strings.LastIndexByte(full, ' '); i > 0 {
		return full[:i], full[i+1:]
	}
	return full, ""
}

func (q *Queue) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if q.logger == nil {
		return
	}
	q.logger.Log(ctx, level, msg, args...)
}
