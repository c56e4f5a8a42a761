package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"caretrust/pkg/domain"
	dErrors "caretrust/pkg/domain-errors"
	"caretrust/pkg/platform/audit"
	"caretrust/pkg/requestcontext"
)

// BatchError records a single failed entity inside a batch run.
type BatchError struct {
	EntityID domain.EntityID `json:"entity_id"`
	Error    string          `json:"error"`
}

// BatchResult summarises a batch reconciliation over one entity kind.
type BatchResult struct {
	Kind      domain.EntityKind `json:"kind"`
	Processed int               `json:"processed"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Errors    []BatchError      `json:"errors,omitempty"`
}

// ReconcileAll reconciles every entity of the given kind. A failure on one
// entity is recorded and the batch continues; only listing failures abort the
// run. Entities are processed with bounded parallelism.
func (s *Service) ReconcileAll(ctx context.Context, kind domain.EntityKind) (*BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.ReconcileAll")
	defer span.End()

	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity kind must be doctor or business")
	}

	start := time.Now()

	ids, err := s.entities.ListIDs(ctx, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entities")
	}

	result := &BatchResult{Kind: kind, Processed: len(ids)}
	verified := 0

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			r, rerr := s.Reconcile(gctx, id, kind)
			mu.Lock()
			defer mu.Unlock()
			if rerr != nil {
				result.Errors = append(result.Errors, BatchError{EntityID: id, Error: rerr.Error()})
				s.log(gctx, slog.LevelError, "batch reconcile entity failed", "entity_id", id.String(), "error", rerr)
				return nil
			}
			if r.StatusChanged {
				result.Updated++
			} else {
				result.Unchanged++
			}
			if r.IsVerified {
				verified++
			}
			return nil
		})
	}

	// Workers never return errors; Wait only propagates context cancellation.
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "batch reconcile aborted")
	}

	if s.metrics != nil {
		s.metrics.SetVerifiedEntities(string(kind), verified)
	}

	if len(result.Errors) > 0 {
		s.emitAudit(ctx, audit.Event{
			Action:    string(audit.EventReconcileFailed),
			Kind:      string(kind),
			Reason:    "batch completed with entity failures",
			Breakdown: map[string]int{"failed": len(result.Errors), "processed": result.Processed},
			Timestamp: requestcontext.Now(ctx),
		})
	}

	s.log(ctx, slog.LevelInfo, "batch reconcile finished",
		"kind", string(kind),
		"processed", result.Processed,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"failed", len(result.Errors),
		"duration", time.Since(start).String(),
	)

	return result, nil
}
