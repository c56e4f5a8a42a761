// Package expiry derives the three-way valid/expiring/expired classification
// from a document's expiry date. Pure functions only; persistence of the
// results belongs to the caller.
package expiry

import (
	"math"
	"time"

	"caretrust/internal/document/models"
	"caretrust/pkg/domain"
)

// ExpiringWindowDays is how far ahead of the expiry date a document counts as
// expiring.
const ExpiringWindowDays = 30

// Classification is the computed expiry state for one document.
type Classification struct {
	// Applies is false when the document carries no expiry semantics
	// (autoExpiry off or no expiry date); Status is then the input status,
	// unchanged.
	Applies         bool
	Status          models.DocStatus
	DaysUntilExpiry int
}

// Classify computes the expiry classification of doc at now.
//
// daysUntilExpiry is the ceiling of the remaining time in days, so a document
// expiring later today is day 0 and counts as expiring, not expired.
func Classify(doc *models.Document, now time.Time) Classification {
	if !doc.AutoExpiry || doc.ExpiryDate == nil {
		return Classification{Applies: false, Status: doc.Status, DaysUntilExpiry: doc.DaysUntilExpiry}
	}

	days := daysUntil(*doc.ExpiryDate, now)

	var status models.DocStatus
	switch {
	case days < 0:
		status = models.StatusExpired
	case days <= ExpiringWindowDays:
		status = models.StatusExpiring
	default:
		status = models.CurrentStatus(doc.Kind)
	}

	return Classification{Applies: true, Status: status, DaysUntilExpiry: days}
}

// Update is one document whose stored classification is stale.
type Update struct {
	DocumentID      domain.DocumentID
	EntityID        domain.EntityID
	Kind            domain.EntityKind
	Type            string
	Status          models.DocStatus
	DaysUntilExpiry int
}

// ReclassifyAll classifies every auto-expiring document and returns only the
// subset whose stored status or day count differs, so the caller persists the
// minimum number of writes. No side effects.
func ReclassifyAll(docs []*models.Document, now time.Time) []Update {
	var updates []Update
	for _, doc := range docs {
		c := Classify(doc, now)
		if !c.Applies {
			continue
		}
		if c.Status == doc.Status && c.DaysUntilExpiry == doc.DaysUntilExpiry {
			continue
		}
		updates = append(updates, Update{
			DocumentID:      doc.ID,
			EntityID:        doc.EntityID,
			Kind:            doc.Kind,
			Type:            doc.Type,
			Status:          c.Status,
			DaysUntilExpiry: c.DaysUntilExpiry,
		})
	}
	return updates
}

func daysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}
