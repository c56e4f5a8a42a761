// Package feed projects current document and entity state into an ordered
// notification list. Nothing here is persisted: every call recomputes the
// feed from the stores, so notifications appear and disappear as the
// underlying state changes.
package feed

import (
	"sort"
	"time"

	"caretrust/pkg/domain"
)

// Severity orders notifications in the feed.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityError:   0,
	SeverityWarning: 1,
	SeveritySuccess: 2,
	SeverityInfo:    3,
}

// Category names the scan that produced a notification.
type Category string

const (
	CategoryUpload     Category = "upload"
	CategoryReview     Category = "review"
	CategoryExpired    Category = "expired"
	CategoryExpiring   Category = "expiring"
	CategoryRejected   Category = "rejected"
	CategoryCompliance Category = "compliance"
)

// Notification is one ephemeral feed entry. IDs are deterministic functions
// of the source record and category, so re-rendering the feed yields stable
// identifiers without any stored state.
type Notification struct {
	ID             string    `json:"id"`
	Type           Severity  `json:"type"`
	Category       Category  `json:"category"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	Read           bool      `json:"read"`
	ActionRequired bool      `json:"actionRequired"`
	ActionURL      string    `json:"actionUrl,omitempty"`
}

func documentNotificationID(category Category, docID domain.DocumentID) string {
	return string(category) + "-" + docID.String()
}

func entityNotificationID(category Category, entityID domain.EntityID) string {
	return string(category) + "-" + entityID.String()
}

func summaryNotificationID(category Category, entityID domain.EntityID) string {
	return string(category) + "-" + entityID.String() + "-summary"
}

// sortFeed orders by severity, newest first within a severity. The sort is
// stable so equal entries keep their category-scan order across calls.
func sortFeed(list []Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := severityRank[list[i].Type], severityRank[list[j].Type]
		if ri != rj {
			return ri < rj
		}
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}

// sortedEntityIDs gives grouped scans a stable iteration order over their
// per-entity buckets.
func sortedEntityIDs[V any](m map[domain.EntityID]V) []domain.EntityID {
	ids := make([]domain.EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
