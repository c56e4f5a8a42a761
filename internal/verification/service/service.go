// Package service orchestrates verification-status reconciliation: it
// re-derives aggregate status from current documents and persists it when it
// changed. Invoked synchronously after document uploads and review decisions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	docmodels "caretrust/internal/document/models"
	entitymodels "caretrust/internal/entity/models"
	"caretrust/internal/registry"
	"caretrust/internal/verification/evaluator"
	vmetrics "caretrust/internal/verification/metrics"
	"caretrust/pkg/domain"
	dErrors "caretrust/pkg/domain-errors"
	"caretrust/pkg/platform/audit"
	"caretrust/pkg/platform/sentinel"
	"caretrust/pkg/requestcontext"
)

// DocumentStore is the document read/write surface the service needs.
type DocumentStore interface {
	ListByEntity(ctx context.Context, entityID domain.EntityID) ([]*docmodels.Document, error)
	ListByKind(ctx context.Context, kind domain.EntityKind) ([]*docmodels.Document, error)
	UpdateClassification(ctx context.Context, id domain.DocumentID, status docmodels.DocStatus, daysUntilExpiry int, at time.Time) error
}

// EntityStore is the entity read/write surface the service needs. Writes are
// restricted to the three aggregate verification fields.
type EntityStore interface {
	Get(ctx context.Context, id domain.EntityID, kind domain.EntityKind) (*entitymodels.Entity, error)
	ListIDs(ctx context.Context, kind domain.EntityKind) ([]domain.EntityID, error)
	UpdateVerification(ctx context.Context, id domain.EntityID, update entitymodels.VerificationUpdate) error
}

// AuditPublisher receives status-change events. Emission is best-effort.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ReminderSink queues outbound expiry reminders. Best-effort, may be nil.
type ReminderSink interface {
	EnqueueExpiry(ctx context.Context, entity *entitymodels.Entity, doc *docmodels.Document, daysUntilExpiry int) error
}

// Service is the verification status reconciler.
type Service struct {
	docs     DocumentStore
	entities EntityStore
	registry *registry.Registry

	logger         *slog.Logger
	auditPublisher AuditPublisher
	reminders      ReminderSink
	metrics        *vmetrics.Metrics
	tracer         trace.Tracer

	batchConcurrency int
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithReminderSink(sink ReminderSink) Option {
	return func(s *Service) { s.reminders = sink }
}

func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBatchConcurrency bounds parallel fan-out in batch operations.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// New constructs the reconciler.
func New(docs DocumentStore, entities EntityStore, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		docs:             docs,
		entities:         entities,
		registry:         reg,
		tracer:           otel.Tracer("caretrust/verification"),
		batchConcurrency: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReconcileResult reports the outcome of one reconciliation.
type ReconcileResult struct {
	EntityID      domain.EntityID   `json:"entity_id"`
	Kind          domain.EntityKind `json:"kind"`
	StatusChanged bool              `json:"status_changed"`
	IsVerified    bool              `json:"is_verified"`
	Reason        string            `json:"reason"`
	Evaluation    *evaluator.Result `json:"-"`
}

// Reconcile re-derives the entity's aggregate status and persists it if it
// differs from the stored one. Idempotent: a second call with no intervening
// document change performs no write and produces the same reason.
func (s *Service) Reconcile(ctx context.Context, entityID domain.EntityID, kind domain.EntityKind) (*ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Reconcile")
	defer span.End()

	start := time.Now()
	result, err := s.reconcile(ctx, entityID, kind)
	s.observeReconcile(result, err, time.Since(start))
	return result, err
}

func (s *Service) reconcile(ctx context.Context, entityID domain.EntityID, kind domain.EntityKind) (*ReconcileResult, error) {
	if entityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
	}
	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity kind must be doctor or business")
	}

	entity, err := s.entities.Get(ctx, entityID, kind)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", kind, entityID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entity")
	}

	docs, err := s.docs.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
	}

	now := requestcontext.Now(ctx)
	evaluation := evaluator.Evaluate(entityID, kind, docs, s.registry, now)

	for _, dup := range evaluation.Duplicates {
		s.log(ctx, slog.LevelWarn, "duplicate document type on entity",
			"entity_id", entityID.String(), "document_type", dup)
	}

	result := &ReconcileResult{
		EntityID:   entityID,
		Kind:       kind,
		IsVerified: evaluation.ShouldBeVerified,
		Reason:     evaluation.Reason,
		Evaluation: evaluation,
	}

	if evaluation.ShouldBeVerified == entity.IsVerified {
		return result, nil
	}

	update := entitymodels.VerificationUpdate{
		IsVerified: evaluation.ShouldBeVerified,
		Reason:     evaluation.Reason,
		UpdatedAt:  now,
	}
	if err := s.entities.UpdateVerification(ctx, entityID, update); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", kind, entityID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist verification status")
	}

	result.StatusChanged = true

	action := audit.EventVerificationRevoked
	if evaluation.ShouldBeVerified {
		action = audit.EventVerificationGranted
	}
	s.emitAudit(ctx, audit.Event{
		Action:         string(action),
		EntityID:       entityID.String(),
		Kind:           string(kind),
		PreviousStatus: entity.IsVerified,
		NewStatus:      evaluation.ShouldBeVerified,
		Reason:         evaluation.Reason,
		Breakdown:      evaluation.Breakdown(),
		Timestamp:      now,
	})

	s.log(ctx, slog.LevelInfo, "verification status changed",
		"entity_id", entityID.String(),
		"kind", string(kind),
		"previous", entity.IsVerified,
		"current", evaluation.ShouldBeVerified,
		"reason", evaluation.Reason,
	)

	return result, nil
}

// emitAudit is fire-and-forget: a failed audit must never roll back or fail
// the status write it describes.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = requestcontext.ActorID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.log(ctx, slog.LevelError, "audit emission failed",
			"action", event.Action, "entity_id", event.EntityID, "error", err)
	}
}

func (s *Service) observeReconcile(result *ReconcileResult, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "unchanged"
	switch {
	case err != nil:
		outcome = "error"
	case result != nil && result.StatusChanged:
		outcome = "updated"
	}
	s.metrics.ObserveReconcile(outcome, d)
}

func (s *Service) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.Log(ctx, level, msg, args...)
}
