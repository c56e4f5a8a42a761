package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "caretrust/pkg/platform/audit"
	txcontext "caretrust/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the
// outbox worker. Kafka is the source of truth for audit events.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by downstream consumers.
type outboxPayload struct {
	ID             string         `json:"ID"`
	Category       string         `json:"Category"`
	Timestamp      string         `json:"Timestamp"`
	Action         string         `json:"Action"`
	EntityID       string         `json:"EntityID,omitempty"`
	Kind           string         `json:"Kind,omitempty"`
	PreviousStatus bool           `json:"PreviousStatus"`
	NewStatus      bool           `json:"NewStatus"`
	Reason         string         `json:"Reason,omitempty"`
	Breakdown      map[string]int `json:"Breakdown,omitempty"`
	RequestID      string         `json:"RequestID,omitempty"`
	ActorID        string         `json:"ActorID,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action - eventCategories is the source of truth.
	category := audit.AuditEvent(event.Action).Category()

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	payload := outboxPayload{
		ID:             eventID.String(),
		Category:       string(category),
		Timestamp:      timestamp.Format(time.RFC3339Nano),
		Action:         event.Action,
		EntityID:       event.EntityID,
		Kind:           event.Kind,
		PreviousStatus: event.PreviousStatus,
		NewStatus:      event.NewStatus,
		Reason:         event.Reason,
		Breakdown:      event.Breakdown,
		RequestID:      event.RequestID,
		ActorID:        event.ActorID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_outbox (id, category, action, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		eventID, string(category), event.Action, event.EntityID, body, timestamp,
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// OutboxRow is one unpublished outbox entry.
type OutboxRow struct {
	ID      uuid.UUID
	Payload []byte
}

// ListUnpublished returns up to limit unpublished outbox rows, oldest first.
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]OutboxRow, error) {
	query := `
		SELECT id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished audit events: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkPublished stamps outbox rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE audit_outbox SET published_at = $1 WHERE id = $2`
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, query, at, id); err != nil {
			return fmt.Errorf("mark audit event %s published: %w", id, err)
		}
	}
	return nil
}
