package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"caretrust/internal/document/expiry"
	"caretrust/internal/document/models"
	entitymodels "caretrust/internal/entity/models"
	"caretrust/internal/registry"
	"caretrust/internal/verification/evaluator"
	"caretrust/pkg/domain"
	dErrors "caretrust/pkg/domain-errors"
	platformstrings "caretrust/pkg/platform/strings"
	"caretrust/pkg/requestcontext"
)

// DocumentStore is the read surface the feed needs over documents.
type DocumentStore interface {
	ListByEntity(ctx context.Context, entityID domain.EntityID) ([]*models.Document, error)
	ListByKind(ctx context.Context, kind domain.EntityKind) ([]*models.Document, error)
}

// EntityStore is the read surface the feed needs over entities.
type EntityStore interface {
	Get(ctx context.Context, id domain.EntityID, kind domain.EntityKind) (*entitymodels.Entity, error)
	List(ctx context.Context, kind domain.EntityKind) ([]*entitymodels.Entity, error)
}

// Audience selects whose feed is built: the global admin view or one
// entity owner's view.
type Audience struct {
	entityID domain.EntityID
	kind     domain.EntityKind
	admin    bool
}

// AdminGlobal is the cross-entity admin feed.
func AdminGlobal() Audience {
	return Audience{admin: true}
}

// OwnerOf is the feed for a single entity owner.
func OwnerOf(entityID domain.EntityID, kind domain.EntityKind) Audience {
	return Audience{entityID: entityID, kind: kind}
}

func (a Audience) IsAdmin() bool { return a.admin }

// Builder assembles the notification feed.
type Builder struct {
	docs     DocumentStore
	entities EntityStore
	registry *registry.Registry
	logger   *slog.Logger
}

// BuilderOption configures the Builder.
type BuilderOption func(*Builder)

func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder constructs a feed builder over the given stores.
func NewBuilder(docs DocumentStore, entities EntityStore, reg *registry.Registry, opts ...BuilderOption) *Builder {
	b := &Builder{docs: docs, entities: entities, registry: reg}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// view is one consistent snapshot the category scans run over.
type view struct {
	audience Audience
	now      time.Time
	docs     []*models.Document
	entities map[domain.EntityID]*entitymodels.Entity
}

func (v *view) entityName(id domain.EntityID) string {
	if e, ok := v.entities[id]; ok && e.Name != "" {
		return e.Name
	}
	return id.String()
}

// categoryScans run in order; their outputs are concatenated before sorting.
// Each scan is pure over the view.
var categoryScans = []struct {
	category Category
	scan     func(b *Builder, v *view) []Notification
}{
	{CategoryUpload, (*Builder).scanUploads},
	{CategoryReview, (*Builder).scanReviewNeeded},
	{CategoryExpired, (*Builder).scanExpired},
	{CategoryExpiring, (*Builder).scanExpiring},
	{CategoryRejected, (*Builder).scanRejected},
	{CategoryCompliance, (*Builder).scanIncompleteCompliance},
}

// Build recomputes the feed for the audience. Category scans are isolated: a
// panic in one scan drops that category and the rest of the feed survives.
func (b *Builder) Build(ctx context.Context, audience Audience) ([]Notification, error) {
	v, err := b.load(ctx, audience)
	if err != nil {
		return nil, err
	}

	var feed []Notification
	for _, c := range categoryScans {
		notifications := b.runScan(ctx, c.category, c.scan, v)
		feed = append(feed, notifications...)
	}

	sortFeed(feed)
	return feed, nil
}

func (b *Builder) runScan(ctx context.Context, category Category, scan func(*Builder, *view) []Notification, v *view) (out []Notification) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			b.log(ctx, slog.LevelError, "notification scan failed",
				"category", string(category), "panic", fmt.Sprint(r))
		}
	}()
	return scan(b, v)
}

func (b *Builder) load(ctx context.Context, audience Audience) (*view, error) {
	v := &view{
		audience: audience,
		now:      requestcontext.Now(ctx),
		entities: make(map[domain.EntityID]*entitymodels.Entity),
	}

	if !audience.admin {
		if audience.entityID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
		}
		if !audience.kind.Valid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "entity kind must be doctor or business")
		}
		entity, err := b.entities.Get(ctx, audience.entityID, audience.kind)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entity")
		}
		v.entities[entity.ID] = entity
		docs, err := b.docs.ListByEntity(ctx, audience.entityID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
		}
		v.docs = docs
		return v, nil
	}

	for _, kind := range domain.Kinds() {
		entities, err := b.entities.List(ctx, kind)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entities")
		}
		for _, e := range entities {
			v.entities[e.ID] = e
		}
		docs, err := b.docs.ListByKind(ctx, kind)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
		}
		v.docs = append(v.docs, docs...)
	}
	return v, nil
}

// scanUploads reports documents created inside the upload window. One recent
// upload gets a detail entry; several from the same entity fold into a
// summary.
func (b *Builder) scanUploads(v *view) []Notification {
	recent := make(map[domain.EntityID][]*models.Document)
	for _, doc := range v.docs {
		if v.now.Sub(doc.CreatedAt) <= UploadWindow {
			recent[doc.EntityID] = append(recent[doc.EntityID], doc)
		}
	}

	var out []Notification
	for _, entityID := range sortedEntityIDs(recent) {
		docs := recent[entityID]
		if len(docs) == 1 {
			doc := docs[0]
			out = append(out, Notification{
				ID:        documentNotificationID(CategoryUpload, doc.ID),
				Type:      SeveritySuccess,
				Category:  CategoryUpload,
				Title:     "Document uploaded",
				Message:   fmt.Sprintf("%s uploaded %s", v.entityName(entityID), b.displayName(doc)),
				Timestamp: doc.CreatedAt,
			})
			continue
		}
		out = append(out, Notification{
			ID:        summaryNotificationID(CategoryUpload, entityID),
			Type:      SeverityInfo,
			Category:  CategoryUpload,
			Title:     "Documents uploaded",
			Message:   fmt.Sprintf("%s uploaded %d documents: %s", v.entityName(entityID), len(docs), b.joinNames(docs)),
			Timestamp: newestCreated(docs),
		})
	}
	return out
}

// scanReviewNeeded reports pending documents. A document waiting past the
// escalation threshold gets its own entry; fresher ones fold into a
// per-entity summary.
func (b *Builder) scanReviewNeeded(v *view) []Notification {
	var out []Notification
	fresh := make(map[domain.EntityID][]*models.Document)

	for _, doc := range v.docs {
		if doc.EffectiveVerificationStatus() != models.VerificationPending {
			continue
		}
		if v.now.Sub(doc.CreatedAt) >= ReviewEscalationAfter {
			out = append(out, Notification{
				ID:             documentNotificationID(CategoryReview, doc.ID),
				Type:           reviewSplit.perItem,
				Category:       CategoryReview,
				Title:          "Document awaiting review",
				Message:        fmt.Sprintf("%s from %s has been waiting for review since %s", b.displayName(doc), v.entityName(doc.EntityID), doc.CreatedAt.Format("2 Jan 2006")),
				Timestamp:      doc.CreatedAt,
				ActionRequired: true,
			})
			continue
		}
		fresh[doc.EntityID] = append(fresh[doc.EntityID], doc)
	}

	for _, entityID := range sortedEntityIDs(fresh) {
		docs := fresh[entityID]
		out = append(out, Notification{
			ID:        summaryNotificationID(CategoryReview, entityID),
			Type:      reviewSplit.grouped,
			Category:  CategoryReview,
			Title:     "Documents awaiting review",
			Message:   fmt.Sprintf("%d documents from %s need review: %s", len(docs), v.entityName(entityID), b.joinNames(docs)),
			Timestamp: newestCreated(docs),
		})
	}
	return out
}

// scanExpired reports documents whose computed state is expired but whose
// stored status has not caught up with the sweep yet. Grouped per entity.
func (b *Builder) scanExpired(v *view) []Notification {
	stale := make(map[domain.EntityID][]*models.Document)
	for _, doc := range v.docs {
		c := expiry.Classify(doc, v.now)
		if !c.Applies || c.Status != models.StatusExpired {
			continue
		}
		if doc.Status == models.StatusExpired {
			continue // already flagged
		}
		stale[doc.EntityID] = append(stale[doc.EntityID], doc)
	}

	var out []Notification
	for _, entityID := range sortedEntityIDs(stale) {
		docs := stale[entityID]
		out = append(out, Notification{
			ID:             entityNotificationID(CategoryExpired, entityID),
			Type:           SeverityError,
			Category:       CategoryExpired,
			Title:          "Documents expired",
			Message:        fmt.Sprintf("%s has expired documents: %s", v.entityName(entityID), b.joinNames(docs)),
			Timestamp:      v.now,
			ActionRequired: true,
		})
	}
	return out
}

// scanExpiring reports documents inside the expiring horizon. Urgent ones get
// individual entries; the rest fold into a per-entity summary.
func (b *Builder) scanExpiring(v *view) []Notification {
	var out []Notification
	soon := make(map[domain.EntityID][]*models.Document)

	for _, doc := range v.docs {
		c := expiry.Classify(doc, v.now)
		if !c.Applies || c.DaysUntilExpiry < 0 || c.DaysUntilExpiry > ExpiringHorizonDays {
			continue
		}
		if c.DaysUntilExpiry <= ExpiringUrgentDays {
			out = append(out, Notification{
				ID:             documentNotificationID(CategoryExpiring, doc.ID),
				Type:           expiringSplit.perItem,
				Category:       CategoryExpiring,
				Title:          "Document expires imminently",
				Message:        fmt.Sprintf("%s for %s expires in %d days", b.displayName(doc), v.entityName(doc.EntityID), c.DaysUntilExpiry),
				Timestamp:      v.now,
				ActionRequired: true,
			})
			continue
		}
		soon[doc.EntityID] = append(soon[doc.EntityID], doc)
	}

	for _, entityID := range sortedEntityIDs(soon) {
		docs := soon[entityID]
		out = append(out, Notification{
			ID:        summaryNotificationID(CategoryExpiring, entityID),
			Type:      expiringSplit.grouped,
			Category:  CategoryExpiring,
			Title:     "Documents expiring soon",
			Message:   fmt.Sprintf("%s has documents expiring within %d days: %s", v.entityName(entityID), ExpiringHorizonDays, b.joinNames(docs)),
			Timestamp: v.now,
		})
	}
	return out
}

// scanRejected reports recent rejections, grouped per entity. Severity
// depends on the audience: owners must re-upload, admins only observe.
func (b *Builder) scanRejected(v *view) []Notification {
	rejected := make(map[domain.EntityID][]*models.Document)
	for _, doc := range v.docs {
		if doc.EffectiveVerificationStatus() != models.VerificationRejected {
			continue
		}
		if v.now.Sub(doc.UpdatedAt) > RejectedLookback {
			continue
		}
		rejected[doc.EntityID] = append(rejected[doc.EntityID], doc)
	}

	severity := rejectedSeverity(v.audience)
	var out []Notification
	for _, entityID := range sortedEntityIDs(rejected) {
		docs := rejected[entityID]
		out = append(out, Notification{
			ID:             entityNotificationID(CategoryRejected, entityID),
			Type:           severity,
			Category:       CategoryRejected,
			Title:          "Documents rejected",
			Message:        fmt.Sprintf("%s has rejected documents: %s", v.entityName(entityID), b.joinNames(docs)),
			Timestamp:      newestUpdated(docs),
			ActionRequired: !v.audience.IsAdmin(),
		})
	}
	return out
}

// scanIncompleteCompliance reports entities that have started uploading but
// are blocked from verification by pending, rejected or expired documents.
// The admin view caps this scan; the full population is reachable through
// batch reconciliation.
func (b *Builder) scanIncompleteCompliance(v *view) []Notification {
	byEntity := make(map[domain.EntityID][]*models.Document)
	for _, doc := range v.docs {
		byEntity[doc.EntityID] = append(byEntity[doc.EntityID], doc)
	}

	var out []Notification
	for _, entity := range v.orderedEntities() {
		if entity.IsVerified {
			continue
		}
		docs := byEntity[entity.ID]
		if len(docs) == 0 {
			continue
		}
		result := evaluator.Evaluate(entity.ID, entity.Kind, docs, b.registry, v.now)
		blocked := len(result.Pending) + len(result.Rejected) + len(result.Expired)
		if blocked == 0 {
			continue
		}
		out = append(out, Notification{
			ID:             entityNotificationID(CategoryCompliance, entity.ID),
			Type:           SeverityWarning,
			Category:       CategoryCompliance,
			Title:          "Compliance incomplete",
			Message:        fmt.Sprintf("%s is not verified: %s", entity.Name, result.Reason),
			Timestamp:      v.now,
			ActionRequired: true,
		})
		if v.audience.IsAdmin() && len(out) >= ComplianceCap {
			break
		}
	}
	return out
}

// orderedEntities returns the view's entities oldest first, so the
// compliance cap favours the longest-waiting entities and cuts
// deterministically.
func (v *view) orderedEntities() []*entitymodels.Entity {
	out := make([]*entitymodels.Entity, 0, len(v.entities))
	for _, e := range v.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (b *Builder) displayName(doc *models.Document) string {
	return b.registry.DisplayName(doc.Kind, doc.Type)
}

func (b *Builder) joinNames(docs []*models.Document) string {
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, b.displayName(doc))
	}
	return strings.Join(platformstrings.DedupeAndTrim(names), ", ")
}

func newestCreated(docs []*models.Document) time.Time {
	newest := docs[0].CreatedAt
	for _, doc := range docs[1:] {
		if doc.CreatedAt.After(newest) {
			newest = doc.CreatedAt
		}
	}
	return newest
}

func newestUpdated(docs []*models.Document) time.Time {
	newest := docs[0].UpdatedAt
	for _, doc := range docs[1:] {
		if doc.UpdatedAt.After(newest) {
			newest = doc.UpdatedAt
		}
	}
	return newest
}

func (b *Builder) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if b.logger == nil {
		return
	}
	b.logger.Log(ctx, level, msg, args...)
}
