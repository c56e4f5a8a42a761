// Package handler serves the notification feed: an admin-global view behind
// the admin token and a per-entity view behind the owner's bearer token.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"caretrust/internal/notification/feed"
	"caretrust/internal/platform/auth"
	"caretrust/pkg/domain"
	dErrors "caretrust/pkg/domain-errors"
	"caretrust/pkg/platform/httputil"
	"caretrust/pkg/requestcontext"
)

// Builder builds the feed for an audience.
type Builder interface {
	Build(ctx context.Context, audience feed.Audience) ([]feed.Notification, error)
}

// TokenValidator verifies owner bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Handler wires the feed builder to HTTP.
type Handler struct {
	builder   Builder
	validator TokenValidator
	logger    *slog.Logger
}

// New constructs the handler. validator may be nil when the owner surface is
// disabled; the owner endpoint then rejects every request.
func New(builder Builder, validator TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{builder: builder, validator: validator, logger: logger}
}

// RegisterAdmin mounts the admin feed endpoint. The caller wraps the router
// in admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/notifications", h.HandleAdminFeed)
}

// RegisterOwner mounts the owner feed endpoint.
func (h *Handler) RegisterOwner(r chi.Router) {
	r.Get("/entities/{kind}/{id}/notifications", h.HandleOwnerFeed)
}

// HandleAdminFeed handles GET /admin/notifications.
func (h *Handler) HandleAdminFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notifications, err := h.builder.Build(ctx, feed.AdminGlobal())
	if err != nil {
		h.logger.ErrorContext(ctx, "admin feed build failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// HandleOwnerFeed handles GET /entities/{kind}/{id}/notifications. The bearer
// token's subject must name the entity in the path; owners cannot read each
// other's feeds.
func (h *Handler) HandleOwnerFeed(w http.ResponseWriter, r *http.Request) {
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

	claims, err := h.authenticate(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if claims.Subject != entityID.String() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token does not grant access to this entity"))
		return
	}
	if claims.Kind != "" && claims.Kind != string(kind) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token kind does not match"))
		return
	}

	ctx = requestcontext.WithActorID(ctx, claims.Subject)
	notifications, err := h.builder.Build(ctx, feed.OwnerOf(entityID, kind))
	if err != nil {
		h.logger.ErrorContext(ctx, "owner feed build failed",
			"request_id", requestcontext.RequestID(ctx),
			"entity_id", entityID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) authenticate(r *http.Request) (*auth.Claims, error) {
	if h.validator == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "owner access is not configured")
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "bearer token required")
	}
	return h.validator.ValidateToken(token)
}
