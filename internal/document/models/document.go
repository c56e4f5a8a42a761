// Package models defines the compliance-document record as this service sees
// it. Upload, review and deletion happen in the surrounding platform; this
// service reads documents and writes back only the cached expiry
// classification.
package models

import (
	"time"

	"caretrust/pkg/domain"
)

// VerificationStatus is the reviewer's decision on a single document.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// DocStatus is the cached document state. The doctor and business schemas use
// different words for the "current" state; both vocabularies are preserved at
// their boundaries.
type DocStatus string

const (
	StatusUploaded DocStatus = "uploaded" // doctor vocabulary for current
	StatusValid    DocStatus = "valid"    // business vocabulary for current
	StatusMissing  DocStatus = "missing"
	StatusExpiring DocStatus = "expiring"
	StatusExpired  DocStatus = "expired"
)

// CurrentStatus returns the kind-appropriate word for a document that is
// neither expiring nor expired.
func CurrentStatus(kind domain.EntityKind) DocStatus {
	if kind == domain.KindBusiness {
		return StatusValid
	}
	return StatusUploaded
}

// Document is one uploaded compliance document. At most one current document
// exists per (entity, documentType); replacement uploads supersede prior ones.
type Document struct {
	ID       domain.DocumentID
	EntityID domain.EntityID
	Kind     domain.EntityKind

	// Type keys into the document type registry.
	Type string

	VerificationStatus VerificationStatus
	AutoExpiry         bool
	IssueDate          *time.Time
	ExpiryDate         *time.Time

	// Status and DaysUntilExpiry are cached classification results,
	// recomputed by the expiry sweep.
	Status          DocStatus
	DaysUntilExpiry int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveVerificationStatus normalizes the stored review status: unset and
// unrecognized values count as pending.
func (d *Document) EffectiveVerificationStatus() VerificationStatus {
	switch d.VerificationStatus {
	case VerificationVerified, VerificationRejected, VerificationPending:
		return d.VerificationStatus
	default:
		return VerificationPending
	}
}

// IsExpired reports whether an auto-expiring document's expiry date has
// passed. Documents without expiry semantics never expire.
func (d *Document) IsExpired(now time.Time) bool {
	if !d.AutoExpiry || d.ExpiryDate == nil {
		return false
	}
	return d.ExpiryDate.Before(now)
}
