package service

import (
	"context"
	"log/slog"

	"caretrust/internal/document/expiry"
	"caretrust/internal/document/models"
	"caretrust/pkg/domain"
	dErrors "caretrust/pkg/domain-errors"
	"caretrust/pkg/platform/audit"
	"caretrust/pkg/requestcontext"
)

// SweepResult summarises one expiry sweep over a kind's documents.
type SweepResult struct {
	Kind               domain.EntityKind `json:"kind"`
	Scanned            int               `json:"scanned"`
	Reclassified       int               `json:"reclassified"`
	Expired            int               `json:"expired"`
	Expiring           int               `json:"expiring"`
	RemindersQueued    int               `json:"reminders_queued"`
	EntitiesReconciled int               `json:"entities_reconciled"`
	Errors             []BatchError      `json:"errors,omitempty"`
}

// SweepExpiry re-derives expiry classification for every document of the
// given kind, persists the rows that changed, queues reminders for documents
// entering the expiring window, and reconciles the affected entities.
// Per-document and per-entity failures are collected; the sweep continues.
func (s *Service) SweepExpiry(ctx context.Context, kind domain.EntityKind) (*SweepResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.SweepExpiry")
	defer span.End()

	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity kind must be doctor or business")
	}

	docs, err := s.docs.ListByKind(ctx, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}

	now := requestcontext.Now(ctx)
	updates := expiry.ReclassifyAll(docs, now)

	result := &SweepResult{Kind: kind, Scanned: len(docs)}
	affected := make(map[domain.EntityID]struct{})

	byID := make(map[domain.DocumentID]*models.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	for _, update := range updates {
		if err := s.docs.UpdateClassification(ctx, update.DocumentID, update.Status, update.DaysUntilExpiry, now); err != nil {
			result.Errors = append(result.Errors, BatchError{EntityID: update.EntityID, Error: "document " + update.DocumentID.String() + ": " + err.Error()})
			s.log(ctx, slog.LevelError, "expiry reclassification write failed",
				"document_id", update.DocumentID.String(), "error", err)
			continue
		}
		result.Reclassified++
		affected[update.EntityID] = struct{}{}

		switch update.Status {
		case models.StatusExpired:
			result.Expired++
			s.emitAudit(ctx, audit.Event{
				Action:    string(audit.EventDocumentExpired),
				EntityID:  update.EntityID.String(),
				Kind:      string(kind),
				Reason:    update.Type,
				Timestamp: now,
			})
		case models.StatusExpiring:
			result.Expiring++
			s.queueReminder(ctx, kind, update, byID[update.DocumentID], result)
		}
	}

	for id := range affected {
		if _, err := s.Reconcile(ctx, id, kind); err != nil {
			result.Errors = append(result.Errors, BatchError{EntityID: id, Error: err.Error()})
			continue
		}
		result.EntitiesReconciled++
	}

	if s.metrics != nil {
		s.metrics.AddSweepUpdates(result.Reclassified)
	}
	s.emitAudit(ctx, audit.Event{
		Action: string(audit.EventExpirySweepDone),
		Kind:   string(kind),
		Breakdown: map[string]int{
			"scanned":      result.Scanned,
			"reclassified": result.Reclassified,
			"expired":      result.Expired,
			"expiring":     result.Expiring,
		},
		Timestamp: now,
	})
	s.log(ctx, slog.LevelInfo, "expiry sweep finished",
		"kind", string(kind),
		"scanned", result.Scanned,
		"reclassified", result.Reclassified,
		"expired", result.Expired,
		"expiring", result.Expiring,
		"reminders_queued", result.RemindersQueued,
	)

	return result, nil
}

func (s *Service) queueReminder(ctx context.Context, kind domain.EntityKind, update expiry.Update, doc *models.Document, result *SweepResult) {
	if s.reminders == nil || doc == nil {
		return
	}
	entity, err := s.entities.Get(ctx, update.EntityID, kind)
	if err != nil {
		s.log(ctx, slog.LevelWarn, "reminder skipped, entity lookup failed",
			"entity_id", update.EntityID.String(), "error", err)
		return
	}
	if err := s.reminders.EnqueueExpiry(ctx, entity, doc, update.DaysUntilExpiry); err != nil {
		s.log(ctx, slog.LevelWarn, "reminder enqueue failed",
			"entity_id", update.EntityID.String(), "document_id", doc.ID.String(), "error", err)
		return
	}
	result.RemindersQueued++
}
