package feed

import "time"

// Scan windows and severity thresholds. The original rule set buried these in
// nested conditionals; here each category's split lives in one place.
const (
	// UploadWindow bounds how far back the upload scan looks.
	UploadWindow = 7 * 24 * time.Hour

	// ReviewEscalationAfter is the waiting time at which a pending document
	// stops being batched into a summary and gets its own error entry.
	ReviewEscalationAfter = 3 * 24 * time.Hour

	// ExpiringHorizonDays bounds the expiring scan; documents further out are
	// left to the expiry sweep.
	ExpiringHorizonDays = 7

	// ExpiringUrgentDays is the cutoff below which each expiring document
	// gets its own error entry instead of joining the grouped warning.
	ExpiringUrgentDays = 2

	// RejectedLookback bounds how long a rejection stays in the feed.
	RejectedLookback = 7 * 24 * time.Hour

	// ComplianceCap bounds the incomplete-compliance scan in the admin feed.
	// Anti-spam, not correctness: the full set is reachable via reconcile.
	ComplianceCap = 10
)

// splitRule decides, for one category, whether an item is urgent enough for
// its own entry or folds into the per-entity summary.
type splitRule struct {
	perItem Severity // severity of an individual entry
	grouped Severity // severity of the per-entity summary
}

var (
	reviewSplit   = splitRule{perItem: SeverityError, grouped: SeverityWarning}
	expiringSplit = splitRule{perItem: SeverityError, grouped: SeverityWarning}
)

// rejectedSeverity depends on who is looking: the owner must act, the admin
// merely observes.
func rejectedSeverity(audience Audience) Severity {
	if audience.IsAdmin() {
		return SeverityWarning
	}
	return SeverityError
}
