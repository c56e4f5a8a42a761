// Package evaluator computes aggregate verification status from an entity's
// document set. It is a pure read-only computation: callable for dry runs and
// dashboard display without touching any store.
package evaluator

import (
	"fmt"
	"strings"
	"time"

	docmodels "caretrust/internal/document/models"
	"caretrust/internal/registry"
	"caretrust/pkg/domain"
)

// ReasonAllVerified is persisted when the gate passes.
const ReasonAllVerified = "All required documents verified"

// ReasonNoDocuments is persisted for entities with nothing on file.
const ReasonNoDocuments = "No documents uploaded"

// Result is the full breakdown for one entity. The lists hold display names
// in required-catalogue order for direct use in reasons and notifications.
type Result struct {
	EntityID domain.EntityID
	Kind     domain.EntityKind

	Missing  []string
	Pending  []string
	Rejected []string
	Expired  []string
	Verified []string

	// Duplicates lists document type keys that appeared more than once;
	// the data-model invariant says this should never happen, so callers
	// log it. Last write wins for the evaluation itself.
	Duplicates []string

	ShouldBeVerified     bool
	HasExpiredOrRejected bool
	Reason               string
}

// Breakdown returns the per-bucket counts for audit records.
func (r *Result) Breakdown() map[string]int {
	return map[string]int{
		"missing":  len(r.Missing),
		"pending":  len(r.Pending),
		"rejected": len(r.Rejected),
		"expired":  len(r.Expired),
		"verified": len(r.Verified),
	}
}

// Evaluate cross-references the entity's documents against the required
// catalogue for its kind. The gate is all-or-nothing: every required type must
// be present, verified and unexpired; partial completion never verifies.
func Evaluate(entityID domain.EntityID, kind domain.EntityKind, docs []*docmodels.Document, reg *registry.Registry, now time.Time) *Result {
	result := &Result{EntityID: entityID, Kind: kind}

	byType := make(map[string]*docmodels.Document, len(docs))
	for _, doc := range docs {
		if _, exists := byType[doc.Type]; exists {
			result.Duplicates = append(result.Duplicates, doc.Type)
		}
		// Last write wins on duplicates.
		byType[doc.Type] = doc
	}

	for _, def := range reg.Required(kind) {
		doc, ok := byType[def.Key]
		if !ok {
			result.Missing = append(result.Missing, def.DisplayName)
			continue
		}

		switch doc.EffectiveVerificationStatus() {
		case docmodels.VerificationRejected:
			result.Rejected = append(result.Rejected, def.DisplayName)
			result.HasExpiredOrRejected = true
		case docmodels.VerificationVerified:
			if doc.IsExpired(now) {
				result.Expired = append(result.Expired, def.DisplayName)
				result.HasExpiredOrRejected = true
			} else {
				result.Verified = append(result.Verified, def.DisplayName)
			}
		default:
			// pending, unset, or anything unrecognized
			result.Pending = append(result.Pending, def.DisplayName)
		}
	}

	result.ShouldBeVerified = len(result.Missing) == 0 &&
		len(result.Rejected) == 0 &&
		len(result.Expired) == 0 &&
		len(result.Pending) == 0

	// An entity with nothing on file is never verified, even if its required
	// set were somehow empty.
	if len(docs) == 0 {
		result.ShouldBeVerified = false
		result.Reason = ReasonNoDocuments
		return result
	}

	result.Reason = buildReason(result)
	return result
}

func buildReason(r *Result) string {
	if r.ShouldBeVerified {
		return ReasonAllVerified
	}

	var parts []string
	for _, c := range []struct {
		n     int
		label string
	}{
		{len(r.Missing), "missing"},
		{len(r.Rejected), "rejected"},
		{len(r.Expired), "expired"},
		{len(r.Pending), "pending"},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}
	return strings.Join(parts, ", ")
}
