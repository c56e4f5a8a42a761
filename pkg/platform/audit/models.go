// Package audit captures verification-status decisions for compliance review.
// Emission is best-effort everywhere: a failed audit write must never block or
// roll back the reconciliation that produced it.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance.
	// Verification grants and revocations fall here; they change whether an
	// entity may legally offer services on the marketplace.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. Expiry sweeps and batch outcomes fall here.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic when aggregate verification status
// changes. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	EntityID  string
	Kind      string
	// PreviousStatus and NewStatus record the isVerified flip.
	PreviousStatus bool
	NewStatus      bool
	Reason         string
	// Breakdown carries the document-count summary at decision time
	// (missing/pending/rejected/expired/verified).
	Breakdown map[string]int
	RequestID string
	ActorID   string
}

type AuditEvent string

const (
	EventVerificationGranted AuditEvent = "verification_granted"
	EventVerificationRevoked AuditEvent = "verification_revoked"
	EventDocumentExpired     AuditEvent = "document_expired"
	EventExpirySweepDone     AuditEvent = "expiry_sweep_completed"
	EventReconcileFailed     AuditEvent = "reconcile_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationGranted: CategoryCompliance,
	EventVerificationRevoked: CategoryCompliance,
	EventDocumentExpired:     CategoryOperations,
	EventExpirySweepDone:     CategoryOperations,
	EventReconcileFailed:     CategoryOperations,
}

// Category returns the category for the event, defaulting to operations for
// unknown actions so nothing is silently dropped by routing.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}
