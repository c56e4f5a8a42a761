// Package handler exposes reconciliation over HTTP for the admin surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caretrust/internal/verification/service"
	"caretrust/pkg/domain"
	"caretrust/pkg/platform/httputil"
	"caretrust/pkg/requestcontext"
)

// Service defines the reconciliation operations the handler exposes.
type Service interface {
	Reconcile(ctx context.Context, entityID domain.EntityID, kind domain.EntityKind) (*service.ReconcileResult, error)
	ReconcileAll(ctx context.Context, kind domain.EntityKind) (*service.BatchResult, error)
	SweepExpiry(ctx context.Context, kind domain.EntityKind) (*service.SweepResult, error)
}

// Handler wires reconciliation endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs the handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the admin reconciliation endpoints on the router. The
// caller is responsible for wrapping r in admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/entities/{kind}/{id}/reconcile", h.HandleReconcile)
	r.Post("/entities/{kind}/reconcile", h.HandleReconcileAll)
	r.Post("/documents/expiry-sweep", h.HandleExpirySweep)
}

// HandleReconcile handles POST /admin/entities/{kind}/{id}/reconcile.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := domain.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Reconcile(ctx, entityID, kind)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile failed",
			"request_id", requestcontext.RequestID(ctx),
			"entity_id", entityID.String(),
			"kind", string(kind),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleReconcileAll handles POST /admin/entities/{kind}/reconcile.
func (h *Handler) HandleReconcileAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	kind, err := domain.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ReconcileAll(ctx, kind)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch reconcile failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", string(kind),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch reconcile served",
		"request_id", requestcontext.RequestID(ctx),
		"kind", string(kind),
		"processed", result.Processed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleExpirySweep handles POST /admin/documents/expiry-sweep. Without a
// kind query parameter both catalogues are swept.
func (h *Handler) HandleExpirySweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kinds := domain.Kinds()
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := domain.ParseEntityKind(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		kinds = []domain.EntityKind{kind}
	}

	results := make([]*service.SweepResult, 0, len(kinds))
	for _, kind := range kinds {
		result, err := h.service.SweepExpiry(ctx, kind)
		if err != nil {
			h.logger.ErrorContext(ctx, "expiry sweep failed",
				"request_id", requestcontext.RequestID(ctx),
				"kind", string(kind),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		results = append(results, result)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}
